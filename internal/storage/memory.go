// internal/storage/memory.go
package storage

import (
	"context"
	"fmt"
	"sync"

	"kyc-verifier/internal/models"
)

// MemoryStore keeps evidence in process memory for stub mode and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore builds an empty in-memory evidence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Store keeps each attachment under mem://<runID>/<evidence name>.
func (s *MemoryStore) Store(_ context.Context, runID string, evidence models.EvidenceSet) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := make(map[string]string, len(evidence))
	for name, payload := range evidence {
		if len(payload) == 0 {
			continue
		}
		ref := fmt.Sprintf("mem://%s/%s", runID, name)
		s.objects[ref] = append([]byte(nil), payload...)
		refs[string(name)] = ref
	}
	return refs, nil
}

// Get returns a stored object by reference.
func (s *MemoryStore) Get(ref string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.objects[ref]
	return payload, ok
}
