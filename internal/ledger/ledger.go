// Package ledger tracks which identity holds which certificate.
//
// This is the minimal non-fungible-asset ledger the registry consults:
// issue at mint, ownership lookup, per-identity counts. Transfers are out of
// scope, so an entry is written once and never changes.
package ledger

import (
	"context"

	id "watsonmark/pkg/domain"
)

// Ledger binds certificates to owning identities.
type Ledger interface {
	// Issue assigns a freshly minted certificate to owner.
	// Returns sentinel.ErrAlreadyExists when the certificate already has an
	// owner, which would indicate a registry bug rather than a user fault.
	Issue(ctx context.Context, certID id.CertificateID, owner id.Identity) error

	// OwnerOf returns the owning identity or sentinel.ErrNotFound.
	OwnerOf(ctx context.Context, certID id.CertificateID) (id.Identity, error)

	// CountByOwner returns how many certificates the identity holds.
	CountByOwner(ctx context.Context, owner id.Identity) (int, error)
}
