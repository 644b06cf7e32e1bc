package service

import (
	"context"
	"errors"
	"time"

	"watsonmark/internal/audit"
	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	dErrors "watsonmark/pkg/domain-errors"
	"watsonmark/pkg/platform/sentinel"
	"watsonmark/pkg/requestcontext"
)

// MintRequest carries everything the issuer supplies at mint time.
// IssuedAt is document metadata; the voting window is anchored to the
// wall-clock time of the call, never to this field.
type MintRequest struct {
	Owner       id.Identity
	WatermarkID id.WatermarkID
	ContentHash id.ContentHash
	IssuedAt    time.Time
	MetadataURI string
	Suspicious  bool
}

// Mint creates a certificate record for a document and issues it to the
// owner. Issuer-only. A suspicious submission enters the dispute pipeline
// as Pending; anything else is Approved immediately.
func (s *Service) Mint(ctx context.Context, req MintRequest) (id.CertificateID, error) {
	actor, err := s.requireIssuer(ctx)
	if err != nil {
		return 0, err
	}
	if req.Owner.IsNil() {
		return 0, dErrors.New(dErrors.CodeValidation, "owner identity is required")
	}

	now := requestcontext.Now(ctx)
	record := models.NewCertificateRecord(req.WatermarkID, req.ContentHash, req.IssuedAt, req.MetadataURI, req.Suspicious, now, s.votingWindow)

	var certID id.CertificateID
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		assigned, err := s.records.Create(txCtx, record)
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "watermark id already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create certificate record")
		}
		if err := s.ledger.Issue(txCtx, assigned, req.Owner); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue certificate")
		}
		if err := s.emitAudit(txCtx, audit.Event{
			Action:        audit.ActionCertificateMinted,
			Actor:         actor,
			CertificateID: assigned,
			WatermarkID:   req.WatermarkID,
			Decision:      record.Status.String(),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record mint audit event")
		}
		certID = assigned
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.IncrementMinted(record.Status.String())
	}
	s.logOp(ctx, "certificate minted",
		"certificate_id", certID,
		"watermark_id", req.WatermarkID,
		"owner", req.Owner,
		"status", record.Status.String(),
	)
	return certID, nil
}

// CurrentIssuer returns the identity authorized to mint.
func (s *Service) CurrentIssuer(ctx context.Context) (id.Identity, error) {
	issuer, err := s.issuers.Current(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "no issuer assigned")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}
	return issuer, nil
}

// TransferIssuer reassigns the issuer role. Only the current issuer may
// transfer it, and there is exactly one issuer at any time.
func (s *Service) TransferIssuer(ctx context.Context, newIssuer id.Identity) error {
	actor, err := s.requireIssuer(ctx)
	if err != nil {
		return err
	}
	if newIssuer.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new issuer identity is required")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.issuers.Set(txCtx, newIssuer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer issuer")
		}
		return s.emitAudit(txCtx, audit.Event{
			Action:   audit.ActionIssuerTransferred,
			Actor:    actor,
			Decision: newIssuer.String(),
		})
	})
	if err != nil {
		return err
	}

	s.logOp(ctx, "issuer transferred", "from", actor, "to", newIssuer)
	return nil
}

// requireIssuer resolves the caller and checks it against the issuer role.
func (s *Service) requireIssuer(ctx context.Context) (id.Identity, error) {
	actor, err := caller(ctx)
	if err != nil {
		return "", err
	}
	issuer, err := s.CurrentIssuer(ctx)
	if err != nil {
		return "", err
	}
	if actor != issuer {
		return "", dErrors.Wrap(models.ErrNotIssuer, dErrors.CodeUnauthorized, "caller is not the authorized issuer")
	}
	return actor, nil
}
