//go:build integration

package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"watsonmark/internal/registry/models"
	"watsonmark/internal/registry/store"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
	"watsonmark/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	records  *store.PostgresRecordStore
	issuers  *store.PostgresIssuerStore
	tx       *store.PostgresTx
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.EnsureSchema(context.Background(), s.postgres.DB))
	s.records = store.NewPostgresRecordStore(s.postgres.DB)
	s.issuers = store.NewPostgresIssuerStore(s.postgres.DB)
	s.tx = store.NewPostgresTx(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) newRecord(wmID id.WatermarkID, suspicious bool) *models.CertificateRecord {
	hash, err := id.ParseContentHash(strings.Repeat("ab", id.ContentHashSize))
	s.Require().NoError(err)
	return models.NewCertificateRecord(wmID, hash, s.now, "ipfs://meta", suspicious, s.now, models.DefaultVotingWindow)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	certID, err := s.records.Create(ctx, s.newRecord(7777, true))
	s.Require().NoError(err)
	s.Equal(id.CertificateID(1), certID)

	s.Run("round trip by watermark id", func() {
		record, err := s.records.FindByWatermarkID(ctx, 7777)
		s.Require().NoError(err)
		s.Equal(certID, record.CertificateID)
		s.Equal(strings.Repeat("ab", id.ContentHashSize), record.ContentHash.String())
		s.Equal(models.StatusPending, record.Status)
		s.True(record.VotingDeadline.Equal(s.now.Add(models.DefaultVotingWindow)))
	})

	s.Run("round trip by certificate id", func() {
		record, err := s.records.FindByCertificateID(ctx, certID)
		s.Require().NoError(err)
		s.Equal(id.WatermarkID(7777), record.WatermarkID)
	})

	s.Run("unknown ids", func() {
		_, err := s.records.FindByCertificateID(ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.records.FindByWatermarkID(ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("approved record stores a null deadline", func() {
		approvedID, err := s.records.Create(ctx, s.newRecord(100, false))
		s.Require().NoError(err)
		record, err := s.records.FindByCertificateID(ctx, approvedID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, record.Status)
		s.True(record.VotingDeadline.IsZero())
	})
}

func (s *PostgresStoreSuite) TestDuplicateWatermarkConsumesNoID() {
	ctx := context.Background()

	first, err := s.records.Create(ctx, s.newRecord(100, false))
	s.Require().NoError(err)

	_, err = s.records.Create(ctx, s.newRecord(100, false))
	s.ErrorIs(err, sentinel.ErrAlreadyExists)

	next, err := s.records.Create(ctx, s.newRecord(200, false))
	s.Require().NoError(err)
	s.Equal(first+1, next)
}

func (s *PostgresStoreSuite) TestExecutePersistsVotes() {
	ctx := context.Background()
	certID, err := s.records.Create(ctx, s.newRecord(7777, true))
	s.Require().NoError(err)
	during := s.now.Add(time.Hour)

	vote := func(voter id.Identity, approve bool) error {
		_, err := s.records.Execute(ctx, certID,
			func(r *models.CertificateRecord) error { return r.CanVote(voter, during) },
			func(r *models.CertificateRecord) { r.ApplyVote(voter, approve) },
		)
		return err
	}

	s.Require().NoError(vote("alice", true))
	s.Require().NoError(vote("bob", false))

	s.Run("tallies and voter set survive a reload", func() {
		record, err := s.records.FindByCertificateID(ctx, certID)
		s.Require().NoError(err)
		s.Equal(1, record.Upvotes)
		s.Equal(1, record.Downvotes)
		s.True(record.HasVoted("alice"))
		s.True(record.HasVoted("bob"))
	})

	s.Run("double vote is caught from persisted state", func() {
		s.ErrorIs(vote("alice", false), sentinel.ErrAlreadyVoted)
		record, err := s.records.FindByCertificateID(ctx, certID)
		s.Require().NoError(err)
		s.Equal(1, record.Upvotes)
		s.Equal(1, record.Downvotes)
	})

	s.Run("finalize persists the terminal status", func() {
		after := s.now.Add(models.DefaultVotingWindow + time.Minute)
		record, err := s.records.Execute(ctx, certID,
			func(r *models.CertificateRecord) error { return r.CanFinalize(after) },
			func(r *models.CertificateRecord) { r.ApplyFinalize() },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, record.Status)

		reloaded, err := s.records.FindByCertificateID(ctx, certID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, reloaded.Status)
	})
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	boom := sentinel.ErrUnavailable

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.records.Create(txCtx, s.newRecord(100, false)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.records.FindByWatermarkID(ctx, 100)
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled-back create must leave no record")

	count, err := s.records.Count(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresStoreSuite) TestIssuerStore() {
	ctx := context.Background()

	_, err := s.issuers.Current(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.issuers.Init(ctx, "issuer-1"))
	s.Require().NoError(s.issuers.Init(ctx, "intruder"), "second init is a no-op")

	issuer, err := s.issuers.Current(ctx)
	s.Require().NoError(err)
	s.Equal(id.Identity("issuer-1"), issuer)

	s.Require().NoError(s.issuers.Set(ctx, "issuer-2"))
	issuer, err = s.issuers.Current(ctx)
	s.Require().NoError(err)
	s.Equal(id.Identity("issuer-2"), issuer)
}
