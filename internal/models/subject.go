// internal/models/subject.go
package models

// SubjectType selects the verification target variant.
type SubjectType string

const (
	SubjectIndividual SubjectType = "individual"
	SubjectCompany    SubjectType = "company"
)

// Subject is the verification target. Individual subjects carry Name, TaxID
// and BirthDate; company subjects carry TaxID and LegalName. Identity fields
// are optional when they can be extracted from evidence.
type Subject struct {
	Type      SubjectType `json:"type"`
	Name      string      `json:"name,omitempty"`
	TaxID     string      `json:"taxId,omitempty"`
	BirthDate string      `json:"birthDate,omitempty"`
	LegalName string      `json:"legalName,omitempty"`

	// Contact fields used only for completion notifications.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HasIdentityFields reports whether the caller supplied the fields dependent
// stages need, making document extraction optional.
func (s Subject) HasIdentityFields() bool {
	switch s.Type {
	case SubjectCompany:
		return s.TaxID != ""
	default:
		return s.Name != "" && s.TaxID != ""
	}
}

// DisplayName returns the name used in notifications and logs.
func (s Subject) DisplayName() string {
	if s.Type == SubjectCompany {
		return s.LegalName
	}
	return s.Name
}
