package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "watsonmark/pkg/domain"
)

// Sink receives committed audit events for external fan-out (e.g. Kafka).
// Delivery is best-effort: the store is the source of truth.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Publisher captures structured audit events. Persistence to the store is
// synchronous; sink fan-out is fire-and-forget.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSink attaches an external fan-out sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithLogger sets a logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher backed by store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event. Missing bookkeeping fields (ID, category,
// timestamp) are filled in; the caller supplies the domain facts.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"actor", event.Actor,
				"error", err,
			)
		}
		return err
	}
	if p.sink != nil {
		p.sink.Publish(ctx, event)
	}
	return nil
}

// List returns the audit trail of one certificate.
func (p *Publisher) List(ctx context.Context, certID id.CertificateID) ([]Event, error) {
	return p.store.ListByCertificate(ctx, certID)
}
