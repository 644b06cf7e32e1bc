package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
	platformtx "watsonmark/pkg/platform/tx"
	"watsonmark/pkg/requestcontext"
)

// mintLockKey is the advisory lock serializing certificate ID allocation.
// Allocation reads MAX(certificate_id), so concurrent mints must queue; the
// lock also guarantees a rejected duplicate never consumes an ID.
const mintLockKey = 0x77617473 // "wats"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresRecordStore persists certificate records in PostgreSQL.
type PostgresRecordStore struct {
	db *sql.DB
}

// NewPostgresRecordStore constructs a PostgreSQL-backed record store.
func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

// withTx runs fn inside the context transaction when one is present,
// otherwise inside a transaction of its own.
func (s *PostgresRecordStore) withTx(ctx context.Context, fn func(q querier) error) error {
	if tx, ok := platformtx.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) Create(ctx context.Context, record *models.CertificateRecord) (id.CertificateID, error) {
	var certID id.CertificateID
	err := s.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, mintLockKey); err != nil {
			return fmt.Errorf("acquire mint lock: %w", err)
		}

		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM certificate_records WHERE watermark_id = $1)`,
			int64(record.WatermarkID),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check watermark: %w", err)
		}
		if exists {
			return sentinel.ErrAlreadyExists
		}

		var deadline sql.NullTime
		if record.Status == models.StatusPending {
			deadline = sql.NullTime{Time: record.VotingDeadline, Valid: true}
		}
		var assigned int64
		err = q.QueryRowContext(ctx, `
			INSERT INTO certificate_records
				(certificate_id, watermark_id, content_hash, issued_at, metadata_uri, status, voting_deadline, upvotes, downvotes)
			SELECT COALESCE(MAX(certificate_id), 0) + 1, $1, $2, $3, $4, $5, $6, 0, 0
			FROM certificate_records
			RETURNING certificate_id`,
			int64(record.WatermarkID),
			record.ContentHash[:],
			record.IssuedAt,
			record.MetadataURI,
			record.Status.String(),
			deadline,
		).Scan(&assigned)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		certID = id.CertificateID(assigned)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return certID, nil
}

func (s *PostgresRecordStore) FindByCertificateID(ctx context.Context, certID id.CertificateID) (*models.CertificateRecord, error) {
	return s.findOne(ctx, s.q(ctx), `WHERE certificate_id = $1`, int64(certID))
}

func (s *PostgresRecordStore) FindByWatermarkID(ctx context.Context, wmID id.WatermarkID) (*models.CertificateRecord, error) {
	return s.findOne(ctx, s.q(ctx), `WHERE watermark_id = $1`, int64(wmID))
}

func (s *PostgresRecordStore) q(ctx context.Context) querier {
	if tx, ok := platformtx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresRecordStore) findOne(ctx context.Context, q querier, where string, arg any) (*models.CertificateRecord, error) {
	record, err := scanRecord(q.QueryRowContext(ctx, `
		SELECT certificate_id, watermark_id, content_hash, issued_at, metadata_uri, status, voting_deadline, upvotes, downvotes
		FROM certificate_records `+where, arg))
	if err != nil {
		return nil, err
	}
	if err := s.loadVoters(ctx, q, record, false); err != nil {
		return nil, err
	}
	return record, nil
}

// Execute locks the record row for the whole validate-then-mutate cycle.
// This is the SQL counterpart of the in-memory store's mutex hold.
func (s *PostgresRecordStore) Execute(ctx context.Context, certID id.CertificateID,
	validate func(record *models.CertificateRecord) error,
	mutate func(record *models.CertificateRecord)) (*models.CertificateRecord, error) {
	var committed *models.CertificateRecord
	err := s.withTx(ctx, func(q querier) error {
		record, err := scanRecord(q.QueryRowContext(ctx, `
			SELECT certificate_id, watermark_id, content_hash, issued_at, metadata_uri, status, voting_deadline, upvotes, downvotes
			FROM certificate_records
			WHERE certificate_id = $1
			FOR UPDATE`, int64(certID)))
		if err != nil {
			return err
		}
		if err := s.loadVoters(ctx, q, record, true); err != nil {
			return err
		}

		before := record.Clone()
		if err := validate(record); err != nil {
			return err
		}
		mutate(record)

		if _, err := q.ExecContext(ctx, `
			UPDATE certificate_records
			SET status = $2, upvotes = $3, downvotes = $4
			WHERE certificate_id = $1`,
			int64(certID), record.Status.String(), record.Upvotes, record.Downvotes,
		); err != nil {
			return fmt.Errorf("update record: %w", err)
		}

		// A mutation adds at most one voter; its direction is the tally delta.
		approve := record.Upvotes > before.Upvotes
		for voter := range record.Voters {
			if before.HasVoted(voter) {
				continue
			}
			if _, err := q.ExecContext(ctx, `
				INSERT INTO certificate_voters (certificate_id, identity, approve, voted_at)
				VALUES ($1, $2, $3, $4)`,
				int64(certID), voter.String(), approve, requestcontext.Now(ctx),
			); err != nil {
				return fmt.Errorf("insert voter: %w", err)
			}
		}

		committed = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func (s *PostgresRecordStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM certificate_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

func (s *PostgresRecordStore) loadVoters(ctx context.Context, q querier, record *models.CertificateRecord, forUpdate bool) error {
	query := `SELECT identity FROM certificate_voters WHERE certificate_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, int64(record.CertificateID))
	if err != nil {
		return fmt.Errorf("load voters: %w", err)
	}
	defer rows.Close()
	record.Voters = make(map[id.Identity]struct{})
	for rows.Next() {
		var voter string
		if err := rows.Scan(&voter); err != nil {
			return fmt.Errorf("scan voter: %w", err)
		}
		record.Voters[id.Identity(voter)] = struct{}{}
	}
	return rows.Err()
}

func scanRecord(row *sql.Row) (*models.CertificateRecord, error) {
	var (
		record   models.CertificateRecord
		certID   int64
		wmID     int64
		hash     []byte
		status   string
		deadline sql.NullTime
	)
	err := row.Scan(&certID, &wmID, &hash, &record.IssuedAt, &record.MetadataURI, &status, &deadline, &record.Upvotes, &record.Downvotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}
	record.CertificateID = id.CertificateID(certID)
	record.WatermarkID = id.WatermarkID(wmID)
	copy(record.ContentHash[:], hash)
	parsed, err := models.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	record.Status = parsed
	if deadline.Valid {
		record.VotingDeadline = deadline.Time
	}
	return &record, nil
}

// PostgresIssuerStore persists the issuer assignment as a single row.
type PostgresIssuerStore struct {
	db *sql.DB
}

// NewPostgresIssuerStore constructs a PostgreSQL-backed issuer store.
func NewPostgresIssuerStore(db *sql.DB) *PostgresIssuerStore {
	return &PostgresIssuerStore{db: db}
}

func (s *PostgresIssuerStore) q(ctx context.Context) querier {
	if tx, ok := platformtx.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresIssuerStore) Current(ctx context.Context) (id.Identity, error) {
	var issuer string
	err := s.q(ctx).QueryRowContext(ctx, `SELECT identity FROM registry_issuer WHERE singleton`).Scan(&issuer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("load issuer: %w", err)
	}
	return id.Identity(issuer), nil
}

func (s *PostgresIssuerStore) Init(ctx context.Context, issuer id.Identity) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO registry_issuer (singleton, identity)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO NOTHING`, issuer.String())
	if err != nil {
		return fmt.Errorf("init issuer: %w", err)
	}
	return nil
}

func (s *PostgresIssuerStore) Set(ctx context.Context, issuer id.Identity) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO registry_issuer (singleton, identity)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET identity = EXCLUDED.identity`, issuer.String())
	if err != nil {
		return fmt.Errorf("set issuer: %w", err)
	}
	return nil
}

// PostgresTx runs a function inside a SQL transaction carried via context,
// so every store touched by the function shares one commit.
type PostgresTx struct {
	db *sql.DB
}

// NewPostgresTx constructs a transaction runner over db.
func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := platformtx.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(platformtx.WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
