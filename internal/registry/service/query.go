package service

import (
	"context"
	"errors"
	"time"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	dErrors "watsonmark/pkg/domain-errors"
	"watsonmark/pkg/platform/sentinel"
)

// Verify answers the public provenance question for a watermark ID.
// An unknown watermark is a normal outcome, not an error: Exists=false with
// zero values. Known watermarks come with the owner, the display status, and
// the stable verification link.
func (s *Service) Verify(ctx context.Context, wmID id.WatermarkID) (models.Verification, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveVerify(start)
		}
	}()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, wmID); err == nil {
			if s.metrics != nil {
				s.metrics.VerifyCacheHits.Inc()
			}
			return *cached, nil
		}
		if s.metrics != nil {
			s.metrics.VerifyCacheMisses.Inc()
		}
	}

	record, err := s.records.FindByWatermarkID(ctx, wmID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Verification{Exists: false}, nil
		}
		return models.Verification{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify watermark")
	}

	owner, err := s.ledger.OwnerOf(ctx, record.CertificateID)
	if err != nil {
		return models.Verification{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve certificate owner")
	}

	verification := models.NewVerification(record, owner)
	if s.cache != nil {
		// Pending records flip status only through an explicit finalize,
		// which invalidates; a short TTL covers the rest.
		if cacheErr := s.cache.Save(ctx, wmID, verification); cacheErr != nil {
			s.logWarn(ctx, "verify cache save failed", "watermark_id", wmID, "error", cacheErr)
		}
	}
	return verification, nil
}

// GetRecord returns the raw certificate record for auditing. Unknown IDs are
// an error here, unlike Verify's graceful miss.
func (s *Service) GetRecord(ctx context.Context, certID id.CertificateID) (*models.CertificateRecord, error) {
	record, err := s.records.FindByCertificateID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return record, nil
}

// GetOwner returns the identity holding a certificate.
func (s *Service) GetOwner(ctx context.Context, certID id.CertificateID) (id.Identity, error) {
	owner, err := s.ledger.OwnerOf(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, "certificate not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve owner")
	}
	return owner, nil
}

// CountByOwner returns how many certificates an identity holds.
func (s *Service) CountByOwner(ctx context.Context, owner id.Identity) (int, error) {
	count, err := s.ledger.CountByOwner(ctx, owner)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count certificates")
	}
	return count, nil
}

// Info describes the registry collection.
func (s *Service) Info(ctx context.Context) (models.RegistryInfo, error) {
	issuer, err := s.CurrentIssuer(ctx)
	if err != nil {
		return models.RegistryInfo{}, err
	}
	count, err := s.records.Count(ctx)
	if err != nil {
		return models.RegistryInfo{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count certificates")
	}
	return models.RegistryInfo{
		Name:         models.CollectionName,
		Symbol:       models.CollectionSymbol,
		Issuer:       issuer,
		Certificates: count,
	}, nil
}
