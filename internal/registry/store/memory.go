package store

import (
	"context"
	"sync"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

// InMemoryRecordStore keeps records in maps guarded by one mutex, which
// gives every mutating operation the total ordering the registry requires.
type InMemoryRecordStore struct {
	mu        sync.RWMutex
	records   map[id.CertificateID]*models.CertificateRecord
	watermark map[id.WatermarkID]id.CertificateID
	nextID    id.CertificateID
}

// NewInMemoryRecordStore creates an empty record store.
func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		records:   make(map[id.CertificateID]*models.CertificateRecord),
		watermark: make(map[id.WatermarkID]id.CertificateID),
	}
}

func (s *InMemoryRecordStore) Create(_ context.Context, record *models.CertificateRecord) (id.CertificateID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watermark[record.WatermarkID]; ok {
		return 0, sentinel.ErrAlreadyExists
	}
	s.nextID++
	stored := record.Clone()
	stored.CertificateID = s.nextID
	s.records[stored.CertificateID] = stored
	s.watermark[stored.WatermarkID] = stored.CertificateID
	return stored.CertificateID, nil
}

func (s *InMemoryRecordStore) FindByCertificateID(_ context.Context, certID id.CertificateID) (*models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[certID]; ok {
		return record.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryRecordStore) FindByWatermarkID(_ context.Context, wmID id.WatermarkID) (*models.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if certID, ok := s.watermark[wmID]; ok {
		return s.records[certID].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Execute holds the write lock across validate and mutate so a failed
// validation leaves the record untouched and no other mutation interleaves.
func (s *InMemoryRecordStore) Execute(_ context.Context, certID id.CertificateID,
	validate func(record *models.CertificateRecord) error,
	mutate func(record *models.CertificateRecord)) (*models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)
	return record.Clone(), nil
}

func (s *InMemoryRecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// InMemoryIssuerStore holds the issuer identity behind a mutex.
type InMemoryIssuerStore struct {
	mu     sync.RWMutex
	issuer id.Identity
}

// NewInMemoryIssuerStore creates an issuer store with no issuer assigned.
func NewInMemoryIssuerStore() *InMemoryIssuerStore {
	return &InMemoryIssuerStore{}
}

func (s *InMemoryIssuerStore) Current(_ context.Context) (id.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.issuer.IsNil() {
		return "", sentinel.ErrNotFound
	}
	return s.issuer, nil
}

func (s *InMemoryIssuerStore) Init(_ context.Context, issuer id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issuer.IsNil() {
		s.issuer = issuer
	}
	return nil
}

func (s *InMemoryIssuerStore) Set(_ context.Context, issuer id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuer = issuer
	return nil
}

// InMemoryTx satisfies Tx for stores whose operations are already atomic.
type InMemoryTx struct{}

// NewInMemoryTx creates a passthrough transaction runner.
func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
