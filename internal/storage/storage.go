// internal/storage/storage.go
// Package storage archives evidence images in object storage. Only the
// resulting references land on the verification record; raw bytes never
// reach the database.
package storage

import (
	"context"

	"kyc-verifier/internal/models"
)

// EvidenceStore archives the binary attachments of one verification run.
type EvidenceStore interface {
	// Store writes every attachment under the run id and returns a
	// reference per evidence name.
	Store(ctx context.Context, runID string, evidence models.EvidenceSet) (map[string]string, error)
}
