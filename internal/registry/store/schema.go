package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup and by integration tests.
// Voter rows live in their own table keyed by (certificate_id, identity),
// which is what makes double-vote prevention a primary key fact rather than
// application bookkeeping.
const schema = `
CREATE TABLE IF NOT EXISTS certificate_records (
	certificate_id  BIGINT PRIMARY KEY,
	watermark_id    BIGINT NOT NULL UNIQUE,
	content_hash    BYTEA NOT NULL,
	issued_at       TIMESTAMPTZ NOT NULL,
	metadata_uri    TEXT NOT NULL,
	status          TEXT NOT NULL,
	voting_deadline TIMESTAMPTZ,
	upvotes         INT NOT NULL DEFAULT 0,
	downvotes       INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS certificate_voters (
	certificate_id BIGINT NOT NULL REFERENCES certificate_records (certificate_id),
	identity       TEXT NOT NULL,
	approve        BOOLEAN NOT NULL,
	voted_at       TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (certificate_id, identity)
);

CREATE TABLE IF NOT EXISTS certificate_owners (
	certificate_id BIGINT PRIMARY KEY REFERENCES certificate_records (certificate_id),
	identity       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS certificate_owners_identity_idx
	ON certificate_owners (identity);

CREATE TABLE IF NOT EXISTS registry_issuer (
	singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	identity  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	event_id       UUID PRIMARY KEY,
	category       TEXT NOT NULL,
	action         TEXT NOT NULL,
	actor          TEXT NOT NULL,
	certificate_id BIGINT,
	watermark_id   BIGINT,
	decision       TEXT,
	request_id     TEXT,
	occurred_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_events_certificate_idx
	ON audit_events (certificate_id, occurred_at);
`

// EnsureSchema creates the registry tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
