package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "watsonmark/pkg/domain"
	platformtx "watsonmark/pkg/platform/tx"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var certID, wmID sql.NullInt64
	if !event.CertificateID.IsNil() {
		certID = sql.NullInt64{Int64: int64(event.CertificateID), Valid: true}
	}
	if event.WatermarkID != 0 {
		wmID = sql.NullInt64{Int64: int64(event.WatermarkID), Valid: true}
	}

	var err error
	query := `
		INSERT INTO audit_events (event_id, category, action, actor, certificate_id, watermark_id, decision, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	args := []any{
		event.ID, string(event.Category), string(event.Action), event.Actor.String(),
		certID, wmID, event.Decision, event.RequestID, event.OccurredAt,
	}
	if tx, ok := platformtx.From(ctx); ok {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCertificate(ctx context.Context, certID id.CertificateID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, category, action, actor, certificate_id, watermark_id, decision, request_id, occurred_at
		FROM audit_events
		WHERE certificate_id = $1
		ORDER BY occurred_at`, int64(certID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			eventID   uuid.UUID
			category  string
			action    string
			actor     string
			cert, wm  sql.NullInt64
			decision  sql.NullString
			requestID sql.NullString
		)
		err := rows.Scan(&eventID, &category, &action, &actor, &cert, &wm, &decision, &requestID, &event.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = eventID
		event.Category = EventCategory(category)
		event.Action = Action(action)
		event.Actor = id.Identity(actor)
		if cert.Valid {
			event.CertificateID = id.CertificateID(cert.Int64)
		}
		if wm.Valid {
			event.WatermarkID = id.WatermarkID(wm.Int64)
		}
		event.Decision = decision.String
		event.RequestID = requestID.String
		events = append(events, event)
	}
	return events, rows.Err()
}
