//go:build integration

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"watsonmark/internal/ledger"
	"watsonmark/internal/registry/models"
	"watsonmark/internal/registry/store"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
	"watsonmark/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	records  *store.PostgresRecordStore
	ledger   *ledger.Postgres
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.EnsureSchema(context.Background(), s.postgres.DB))
	s.records = store.NewPostgresRecordStore(s.postgres.DB)
	s.ledger = ledger.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

// mintRecord creates the certificate row ownership entries reference.
func (s *PostgresLedgerSuite) mintRecord(wmID id.WatermarkID) id.CertificateID {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	certID, err := s.records.Create(context.Background(),
		models.NewCertificateRecord(wmID, id.ContentHash{}, now, "", false, now, models.DefaultVotingWindow))
	s.Require().NoError(err)
	return certID
}

func (s *PostgresLedgerSuite) TestIssueAndLookup() {
	ctx := context.Background()
	for _, wmID := range []id.WatermarkID{100, 200, 300} {
		s.mintRecord(wmID)
	}

	s.Require().NoError(s.ledger.Issue(ctx, 1, "alice"))
	s.Require().NoError(s.ledger.Issue(ctx, 2, "alice"))
	s.Require().NoError(s.ledger.Issue(ctx, 3, "bob"))

	s.Run("owned certificate cannot be reissued", func() {
		s.ErrorIs(s.ledger.Issue(ctx, 1, "mallory"), sentinel.ErrAlreadyExists)
		owner, err := s.ledger.OwnerOf(ctx, 1)
		s.Require().NoError(err)
		s.Equal(id.Identity("alice"), owner)
	})

	s.Run("owner lookup", func() {
		owner, err := s.ledger.OwnerOf(ctx, 3)
		s.Require().NoError(err)
		s.Equal(id.Identity("bob"), owner)

		_, err = s.ledger.OwnerOf(ctx, 99)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("count by owner", func() {
		count, err := s.ledger.CountByOwner(ctx, "alice")
		s.Require().NoError(err)
		s.Equal(2, count)
	})
}
