// Package store persists certificate records and the issuer assignment.
//
// Implementations come in pairs: in-memory for unit tests and single-node
// runs, PostgreSQL for durable deployments. Both enforce the same contract:
// watermark uniqueness on create, and Execute holding its lock (mutex or
// SELECT ... FOR UPDATE) across validation and mutation so no two mutations
// interleave partially.
package store

import (
	"context"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
)

// RecordStore persists certificate records.
type RecordStore interface {
	// Create assigns the next certificate ID and persists the record.
	// Returns sentinel.ErrAlreadyExists when the watermark ID is taken;
	// no certificate ID is consumed in that case.
	Create(ctx context.Context, record *models.CertificateRecord) (id.CertificateID, error)

	// FindByCertificateID returns the record or sentinel.ErrNotFound.
	FindByCertificateID(ctx context.Context, certID id.CertificateID) (*models.CertificateRecord, error)

	// FindByWatermarkID returns the record or sentinel.ErrNotFound.
	FindByWatermarkID(ctx context.Context, wmID id.WatermarkID) (*models.CertificateRecord, error)

	// Execute runs validate-then-mutate on one record under the store's
	// lock. A validation error aborts with no observable mutation.
	// Returns the record as committed, or sentinel.ErrNotFound.
	Execute(ctx context.Context, certID id.CertificateID,
		validate func(record *models.CertificateRecord) error,
		mutate func(record *models.CertificateRecord)) (*models.CertificateRecord, error)

	// Count returns the number of minted certificates.
	Count(ctx context.Context) (int, error)
}

// IssuerStore holds the single authorized issuer identity.
type IssuerStore interface {
	// Current returns the issuer, or sentinel.ErrNotFound before Init.
	Current(ctx context.Context) (id.Identity, error)

	// Init sets the issuer only when none is assigned yet, so a restart
	// never clobbers a transferred issuer.
	Init(ctx context.Context, issuer id.Identity) error

	// Set reassigns the issuer unconditionally. Authorization is the
	// service's concern.
	Set(ctx context.Context, issuer id.Identity) error
}

// Tx runs a function inside one atomic unit. The in-memory implementation is
// a passthrough; the PostgreSQL implementation wraps fn in a transaction
// carried through context.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
