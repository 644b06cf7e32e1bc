package service

import (
	"context"
	"errors"

	"watsonmark/internal/audit"
	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	dErrors "watsonmark/pkg/domain-errors"
	"watsonmark/pkg/platform/sentinel"
	"watsonmark/pkg/requestcontext"
)

// Vote casts the caller's single vote on a pending certificate.
// approve=true upholds the document, approve=false judges it fraudulent.
// The store holds its lock across validation and tally update, so a failed
// precondition never leaves a partial mutation behind.
func (s *Service) Vote(ctx context.Context, certID id.CertificateID, approve bool) error {
	voter, err := caller(ctx)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	record, err := s.records.Execute(ctx, certID,
		func(r *models.CertificateRecord) error {
			return r.CanVote(voter, now)
		},
		func(r *models.CertificateRecord) {
			r.ApplyVote(voter, approve)
		},
	)
	if err != nil {
		return wrapDisputeErr(err, "vote")
	}

	if s.metrics != nil {
		s.metrics.IncrementVote(approve)
	}
	// The vote is committed; audit fan-out is best-effort for this
	// operations-category event.
	if auditErr := s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionVoteCast,
		Actor:         voter,
		CertificateID: certID,
		WatermarkID:   record.WatermarkID,
		Decision:      voteDecision(approve),
	}); auditErr != nil {
		s.logWarn(ctx, "vote audit event lost", "certificate_id", certID, "error", auditErr)
	}
	s.logOp(ctx, "vote cast",
		"certificate_id", certID,
		"approve", approve,
		"upvotes", record.Upvotes,
		"downvotes", record.Downvotes,
	)
	return nil
}

// Finalize converts the accumulated tallies of a pending certificate into a
// terminal status once the voting deadline has passed. Any caller may
// trigger it; nothing transitions from time passing alone. Finalizing an
// already-terminal record fails rather than silently succeeding.
func (s *Service) Finalize(ctx context.Context, certID id.CertificateID) (models.Status, error) {
	actor, err := caller(ctx)
	if err != nil {
		return 0, err
	}
	now := requestcontext.Now(ctx)

	var record *models.CertificateRecord
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		finalized, err := s.records.Execute(txCtx, certID,
			func(r *models.CertificateRecord) error {
				return r.CanFinalize(now)
			},
			func(r *models.CertificateRecord) {
				r.ApplyFinalize()
			},
		)
		if err != nil {
			return wrapDisputeErr(err, "finalize")
		}
		record = finalized
		return s.emitAudit(txCtx, audit.Event{
			Action:        audit.ActionCertificateFinalized,
			Actor:         actor,
			CertificateID: certID,
			WatermarkID:   finalized.WatermarkID,
			Decision:      finalized.Status.String(),
		})
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.IncrementFinalization(record.Status.String())
	}
	if s.cache != nil {
		if cacheErr := s.cache.Invalidate(ctx, record.WatermarkID); cacheErr != nil {
			s.logWarn(ctx, "verify cache invalidation failed", "watermark_id", record.WatermarkID, "error", cacheErr)
		}
	}
	s.logOp(ctx, "certificate finalized",
		"certificate_id", certID,
		"outcome", record.Status.String(),
		"upvotes", record.Upvotes,
		"downvotes", record.Downvotes,
	)
	return record.Status, nil
}

// AuditTrail returns the recorded actions for one certificate.
func (s *Service) AuditTrail(ctx context.Context, certID id.CertificateID) ([]audit.Event, error) {
	if s.auditor == nil {
		return nil, nil
	}
	events, err := s.auditor.List(ctx, certID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return events, nil
}

func voteDecision(approve bool) string {
	if approve {
		return "approve"
	}
	return "reject"
}

// wrapDisputeErr translates state-machine sentinels into coded errors while
// keeping the sentinel chain intact for errors.Is.
func wrapDisputeErr(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "certificate not found")
	case errors.Is(err, models.ErrNotPending):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "record is not pending")
	case errors.Is(err, models.ErrVotingClosed):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "voting window has closed")
	case errors.Is(err, models.ErrVotingStillOpen):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "voting window is still open")
	case errors.Is(err, sentinel.ErrAlreadyVoted):
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity has already voted on this certificate")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
	}
}
