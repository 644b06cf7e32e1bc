package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
	platformtx "watsonmark/pkg/platform/tx"
)

// Postgres persists ownership entries in the certificate_owners table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (l *Postgres) q(ctx context.Context) querier {
	if tx, ok := platformtx.From(ctx); ok {
		return tx
	}
	return l.db
}

func (l *Postgres) Issue(ctx context.Context, certID id.CertificateID, owner id.Identity) error {
	result, err := l.q(ctx).ExecContext(ctx, `
		INSERT INTO certificate_owners (certificate_id, identity)
		VALUES ($1, $2)
		ON CONFLICT (certificate_id) DO NOTHING`,
		int64(certID), owner.String())
	if err != nil {
		return fmt.Errorf("issue certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("issue certificate: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (l *Postgres) OwnerOf(ctx context.Context, certID id.CertificateID) (id.Identity, error) {
	var owner string
	err := l.q(ctx).QueryRowContext(ctx,
		`SELECT identity FROM certificate_owners WHERE certificate_id = $1`,
		int64(certID)).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("lookup owner: %w", err)
	}
	return id.Identity(owner), nil
}

func (l *Postgres) CountByOwner(ctx context.Context, owner id.Identity) (int, error) {
	var count int
	err := l.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM certificate_owners WHERE identity = $1`,
		owner.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by owner: %w", err)
	}
	return count, nil
}
