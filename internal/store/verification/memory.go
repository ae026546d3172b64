// internal/store/verification/memory.go
package verification

import (
	"context"
	"sync"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/models"
)

// MemoryStore keeps records in process memory. It backs stub provider
// mode and tests; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.VerificationRecord
}

// NewMemoryStore builds an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.VerificationRecord)}
}

// Save appends one completed record.
func (s *MemoryStore) Save(_ context.Context, record *models.VerificationRecord, _ models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	return nil
}

// Get returns the record by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.NewRecordNotFoundError(id)
	}
	clone := *record
	return &clone, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
