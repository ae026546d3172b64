// internal/store/verification/store.go
// Package verification persists completed verification records.
package verification

import (
	"context"

	"kyc-verifier/internal/models"
)

// Store is the append-only record repository. Records are written once,
// after a run completes, and never updated.
type Store interface {
	// Save appends a completed record. The subject is stored alongside so
	// audits can see the caller-supplied input separate from the outcome.
	Save(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error
	// Get returns the record by id, or a RECORD_NOT_FOUND error.
	Get(ctx context.Context, id string) (*models.VerificationRecord, error)
}
