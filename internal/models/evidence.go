// internal/models/evidence.go
package models

// EvidenceName identifies a named binary attachment supplied with a
// verification request.
type EvidenceName string

const (
	EvidenceDocumentFront      EvidenceName = "document_front"
	EvidenceSelfieLiveness     EvidenceName = "selfie_liveness"
	EvidenceSelfieWithDocument EvidenceName = "selfie_with_document"
)

// EvidenceSet holds the binary attachments for one verification run. The set
// is treated as immutable once the pipeline receives it.
type EvidenceSet map[EvidenceName][]byte

// Get returns the named attachment, or nil when absent.
func (e EvidenceSet) Get(name EvidenceName) []byte {
	return e[name]
}

// Has reports whether the named attachment is present and non-empty.
func (e EvidenceSet) Has(name EvidenceName) bool {
	return len(e[name]) > 0
}

// Missing returns the subset of names absent from the set, preserving the
// order of the argument list.
func (e EvidenceSet) Missing(names ...EvidenceName) []EvidenceName {
	var missing []EvidenceName
	for _, n := range names {
		if !e.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}
