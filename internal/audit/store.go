package audit

import (
	"context"

	id "watsonmark/pkg/domain"
)

// Store is the append-only persistence behind the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCertificate(ctx context.Context, certID id.CertificateID) ([]Event, error)
}
