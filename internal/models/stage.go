// internal/models/stage.go
package models

import (
	"bytes"
	"encoding/json"
)

// StageName identifies one discrete verification check in the pipeline.
type StageName string

const (
	StageDocumentOCR        StageName = "document_ocr"
	StageDocumentValidation StageName = "document_validation"
	StageLiveness           StageName = "liveness"
	StageFaceMatchLiveness  StageName = "face_match_liveness"
	StageFaceMatchDocument  StageName = "face_match_document"
	StageBackgroundCheck    StageName = "background_check"
	StageCompanyRegistry    StageName = "company_registry"
)

// StageStatus is the closed outcome set for a stage. Provider-level
// SUCCESS/FAILURE synonyms must be mapped onto this enumeration before a
// result enters the aggregate.
type StageStatus string

const (
	StatusApproved    StageStatus = "APPROVED"
	StatusPending     StageStatus = "PENDING"
	StatusRejected    StageStatus = "REJECTED"
	StatusError       StageStatus = "ERROR"
	StatusTimeout     StageStatus = "TIMEOUT"
	StatusNotExecuted StageStatus = "NOT_EXECUTED"
)

// Settled reports whether the stage actually ran to some outcome.
func (s StageStatus) Settled() bool {
	return s != StatusNotExecuted && s != ""
}

// StageResult is the outcome of a single stage invocation.
type StageResult struct {
	Stage   StageName              `json:"stage"`
	Status  StageStatus            `json:"status"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
}

// StageResults is an insertion-ordered map of stage outcomes. Go maps do not
// preserve order, and the wire format requires execution order, so the order
// is tracked explicitly. Each key is written exactly once.
type StageResults struct {
	order  []StageName
	byName map[StageName]StageResult
}

// NewStageResults returns an empty ordered result set.
func NewStageResults() *StageResults {
	return &StageResults{byName: make(map[StageName]StageResult)}
}

// Set records the result for a stage. The first write for a stage fixes its
// position; a later write for the same stage replaces the value in place.
func (r *StageResults) Set(res StageResult) {
	if _, exists := r.byName[res.Stage]; !exists {
		r.order = append(r.order, res.Stage)
	}
	r.byName[res.Stage] = res
}

// Get returns the result for a stage and whether it is present.
func (r *StageResults) Get(name StageName) (StageResult, bool) {
	res, ok := r.byName[name]
	return res, ok
}

// Names returns the stage names in insertion order.
func (r *StageResults) Names() []StageName {
	out := make([]StageName, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of recorded stages.
func (r *StageResults) Len() int {
	return len(r.order)
}

// All returns the results in insertion order.
func (r *StageResults) All() []StageResult {
	out := make([]StageResult, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// MarshalJSON emits a JSON object keyed by stage name, preserving execution
// order.
func (r *StageResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(name))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a result set from its object form. Key order in the
// source document is preserved.
func (r *StageResults) UnmarshalJSON(data []byte) error {
	r.order = nil
	r.byName = make(map[StageName]StageResult)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &json.UnmarshalTypeError{Value: "non-object", Type: nil}
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var res StageResult
		if err := dec.Decode(&res); err != nil {
			return err
		}
		if res.Stage == "" {
			res.Stage = StageName(key)
		}
		r.Set(res)
	}
	_, err = dec.Token() // closing brace
	return err
}
