// internal/models/record.go
package models

import "time"

// OverallStatus is the aggregate decision for a verification run.
type OverallStatus string

const (
	OverallApproved OverallStatus = "APPROVED"
	OverallPending  OverallStatus = "PENDING"
)

// RecordState tracks the record lifecycle. Terminal once COMPLETE; a
// validation short-circuit never reaches IN_PROGRESS.
type RecordState string

const (
	StateCreated    RecordState = "CREATED"
	StateInProgress RecordState = "IN_PROGRESS"
	StateComplete   RecordState = "COMPLETE"
)

// RiskBand is the qualitative risk category derived from the numeric score.
type RiskBand string

const (
	BandLow    RiskBand = "LOW"
	BandMedium RiskBand = "MEDIUM"
	BandHigh   RiskBand = "HIGH"
)

// RiskScore is the scoring engine output: a clamped value, its band, and the
// reasons in rule-firing order.
type RiskScore struct {
	Value   int      `json:"score"`
	Band    RiskBand `json:"rating"`
	Reasons []string `json:"reasons"`
}

// VerificationRecord is the append-only outcome of one verification run.
// Once computed and persisted it is never mutated; a re-check creates a new
// record.
type VerificationRecord struct {
	ID            string            `json:"id"`
	SubjectType   SubjectType       `json:"subjectType"`
	State         RecordState       `json:"state"`
	StageResults  *StageResults     `json:"stageResults"`
	OverallStatus OverallStatus     `json:"overallStatus"`
	RiskScore     *RiskScore        `json:"riskScore,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	EvidenceRefs  map[string]string `json:"evidenceRefs,omitempty"`
}

// AggregateStatus derives the overall decision: APPROVED iff every required
// stage's status is APPROVED, otherwise PENDING.
func AggregateStatus(results *StageResults, required []StageName) OverallStatus {
	for _, name := range required {
		res, ok := results.Get(name)
		if !ok || res.Status != StatusApproved {
			return OverallPending
		}
	}
	return OverallApproved
}
