// Package service orchestrates the certificate registry: issuer-gated
// minting, the dispute voting window, lazy finalization, and the public
// query surface.
package service

import (
	"context"
	"log/slog"
	"time"

	"watsonmark/internal/audit"
	"watsonmark/internal/ledger"
	"watsonmark/internal/registry/metrics"
	"watsonmark/internal/registry/models"
	"watsonmark/internal/registry/store"
	"watsonmark/internal/registry/store/verifycache"
	id "watsonmark/pkg/domain"
	dErrors "watsonmark/pkg/domain-errors"
	"watsonmark/pkg/requestcontext"
)

// AuditPublisher records registry actions. Mint, finalize, and issuer
// transfer are fail-closed: if the event cannot be persisted, the operation
// rolls back with it.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, certID id.CertificateID) ([]audit.Event, error)
}

// Service is the single sequential authority over registry state. Every
// mutation runs atomically through the store's Execute or a transaction.
type Service struct {
	records store.RecordStore
	issuers store.IssuerStore
	ledger  ledger.Ledger
	tx      store.Tx

	cache        verifycache.Cache
	auditor      AuditPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	votingWindow time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher attaches the audit trail.
func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithMetrics attaches prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithVerifyCache attaches a read cache for verification lookups.
func WithVerifyCache(cache verifycache.Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithVotingWindow overrides the dispute voting window. Zero or negative
// keeps the default 3 days.
func WithVotingWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.votingWindow = window
		}
	}
}

// WithTx sets the transaction runner binding record, ledger, issuer, and
// audit writes into one atomic unit.
func WithTx(tx store.Tx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New constructs a Service and assigns the initial issuer if none is set.
func New(ctx context.Context, records store.RecordStore, issuers store.IssuerStore, owners ledger.Ledger, initialIssuer id.Identity, opts ...Option) (*Service, error) {
	s := &Service{
		records:      records,
		issuers:      issuers,
		ledger:       owners,
		tx:           store.NewInMemoryTx(),
		votingWindow: models.DefaultVotingWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !initialIssuer.IsNil() {
		if err := s.issuers.Init(ctx, initialIssuer); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize issuer")
		}
	}
	return s, nil
}

// caller extracts the authenticated identity, which every mutating
// operation requires.
func caller(ctx context.Context) (id.Identity, error) {
	identity := requestcontext.Identity(ctx)
	if identity.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	return identity, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) error {
	if s.auditor == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.OccurredAt = requestcontext.Now(ctx)
	return s.auditor.Emit(ctx, event)
}

func (s *Service) logOp(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, append(args, "request_id", requestcontext.RequestID(ctx))...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}
