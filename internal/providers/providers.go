// internal/providers/providers.go
// Package providers defines the gateway contracts the verification pipeline
// depends on. Each external service sits behind a narrow interface so the
// orchestrator can run against live clients, stubs, or test doubles without
// caring which it got.
package providers

import "context"

// Outcome is the normalized verdict a provider reports for its own check.
// Providers never decide pipeline status directly; the pipeline maps
// outcomes onto stage statuses.
type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomePending  Outcome = "PENDING"
	OutcomeRejected Outcome = "REJECTED"
)

// OCRProvider extracts raw text from a document image.
type OCRProvider interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Assessment is the result of a passive liveness check on a selfie.
type Assessment struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	// FaceConfidence is the detector confidence for the single face found,
	// in [0,1]. Zero when no face was detected.
	FaceConfidence float64 `json:"face_confidence,omitempty"`
}

// LivenessProvider judges whether a selfie was taken of a live person.
type LivenessProvider interface {
	Assess(ctx context.Context, selfie []byte) (Assessment, error)
}

// Comparison is the result of comparing two face images.
type Comparison struct {
	Outcome Outcome `json:"outcome"`
	// Similarity is normalized to [0,1] regardless of the backing service.
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
	Reason     string  `json:"reason,omitempty"`
}

// FaceMatchProvider compares a reference face against a probe image.
type FaceMatchProvider interface {
	Compare(ctx context.Context, reference, probe []byte) (Comparison, error)
}

// Report is the result of screening a subject against background sources.
type Report struct {
	Outcome Outcome `json:"outcome"`
	// Findings lists the sources that produced hits, empty when clean.
	Findings []string `json:"findings,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// BackgroundCheckProvider screens a subject against criminal, watchlist
// and warrant sources.
type BackgroundCheckProvider interface {
	Check(ctx context.Context, taxID, fullName string) (Report, error)
}

// RegistryRecord is the company profile returned by the national registry.
type RegistryRecord struct {
	TaxID              string `json:"tax_id"`
	LegalName          string `json:"legal_name"`
	TradeName          string `json:"trade_name,omitempty"`
	RegistrationStatus string `json:"registration_status"`
	Active             bool   `json:"active"`
	OpenedAt           string `json:"opened_at,omitempty"`
	MainActivity       string `json:"main_activity,omitempty"`
}

// ErrRegistryNotFound is returned by Lookup when the registry has no
// record for the tax id. Implementations wrap it so callers can detect
// the condition with errors.Is.
var ErrRegistryNotFound = errRegistryNotFound{}

type errRegistryNotFound struct{}

func (errRegistryNotFound) Error() string { return "company registry: record not found" }

// CompanyRegistryProvider resolves a company tax id to its registered profile.
type CompanyRegistryProvider interface {
	Lookup(ctx context.Context, taxID string) (RegistryRecord, error)
}

// Inspection is the result of a document authenticity analysis.
type Inspection struct {
	Outcome Outcome  `json:"outcome"`
	Checks  []string `json:"checks,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// DocumentAuthenticityProvider inspects a document image for signs of
// tampering or forgery.
type DocumentAuthenticityProvider interface {
	Inspect(ctx context.Context, document []byte) (Inspection, error)
}

// Gateways bundles every provider the pipeline needs. Construction wires
// either the live set or the stub set depending on configuration.
type Gateways struct {
	OCR             OCRProvider
	Liveness        LivenessProvider
	FaceMatch       FaceMatchProvider
	BackgroundCheck BackgroundCheckProvider
	Registry        CompanyRegistryProvider
	DocumentAuth    DocumentAuthenticityProvider
}
