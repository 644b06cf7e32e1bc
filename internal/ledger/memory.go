package ledger

import (
	"context"
	"sync"

	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

// InMemory keeps ownership entries in a map guarded by a mutex.
type InMemory struct {
	mu     sync.RWMutex
	owners map[id.CertificateID]id.Identity
}

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{owners: make(map[id.CertificateID]id.Identity)}
}

func (l *InMemory) Issue(_ context.Context, certID id.CertificateID, owner id.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[certID]; ok {
		return sentinel.ErrAlreadyExists
	}
	l.owners[certID] = owner
	return nil
}

func (l *InMemory) OwnerOf(_ context.Context, certID id.CertificateID) (id.Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if owner, ok := l.owners[certID]; ok {
		return owner, nil
	}
	return "", sentinel.ErrNotFound
}

func (l *InMemory) CountByOwner(_ context.Context, owner id.Identity) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, holder := range l.owners {
		if holder == owner {
			count++
		}
	}
	return count, nil
}
