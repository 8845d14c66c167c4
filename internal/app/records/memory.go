package records

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"roleready/internal/pkg/randx"
)

type collectionKey struct {
	ownerID string
	kind    Kind
}

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[collectionKey][]Record
	now         func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[collectionKey][]Record),
		now:         time.Now,
	}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, ownerID string, kind Kind, body json.RawMessage) (Record, error) {
	if !kind.Valid() {
		return Record{}, ErrInvalidKind
	}

	rec := Record{
		ID:        randx.TimestampID(),
		OwnerID:   ownerID,
		Kind:      kind,
		Body:      append(json.RawMessage(nil), body...),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := collectionKey{ownerID: ownerID, kind: kind}
	s.collections[key] = append(s.collections[key], rec)
	return rec, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, ownerID string, kind Kind) ([]Record, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.collections[collectionKey{ownerID: ownerID, kind: kind}]
	out := make([]Record, len(stored))
	copy(out, stored)
	return out, nil
}
