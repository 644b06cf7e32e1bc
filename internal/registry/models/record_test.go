package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

type RecordSuite struct {
	suite.Suite
	now time.Time
}

func TestRecordSuite(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}

func (s *RecordSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RecordSuite) pendingRecord() *CertificateRecord {
	return NewCertificateRecord(7777, id.ContentHash{}, s.now, "ipfs://meta", true, s.now, DefaultVotingWindow)
}

func (s *RecordSuite) TestNewCertificateRecord() {
	s.Run("clean submission is approved immediately", func() {
		record := NewCertificateRecord(42, id.ContentHash{}, s.now, "", false, s.now, DefaultVotingWindow)
		s.Equal(StatusApproved, record.Status)
		s.True(record.VotingDeadline.IsZero())
	})

	s.Run("suspicious submission is pending with a deadline", func() {
		record := s.pendingRecord()
		s.Equal(StatusPending, record.Status)
		s.Equal(s.now.Add(DefaultVotingWindow), record.VotingDeadline)
	})

	s.Run("non-positive window falls back to the default", func() {
		record := NewCertificateRecord(42, id.ContentHash{}, s.now, "", true, s.now, 0)
		s.Equal(s.now.Add(DefaultVotingWindow), record.VotingDeadline)
	})

	s.Run("issued-at metadata does not anchor the deadline", func() {
		issuedAt := s.now.Add(-30 * 24 * time.Hour)
		record := NewCertificateRecord(42, id.ContentHash{}, issuedAt, "", true, s.now, DefaultVotingWindow)
		s.Equal(s.now.Add(DefaultVotingWindow), record.VotingDeadline)
	})
}

func (s *RecordSuite) TestCanVote() {
	s.Run("open window accepts a new voter", func() {
		record := s.pendingRecord()
		s.NoError(record.CanVote("alice", s.now.Add(time.Hour)))
	})

	s.Run("vote exactly at the deadline is still accepted", func() {
		record := s.pendingRecord()
		s.NoError(record.CanVote("alice", record.VotingDeadline))
	})

	s.Run("vote after the deadline is rejected", func() {
		record := s.pendingRecord()
		err := record.CanVote("alice", record.VotingDeadline.Add(time.Second))
		s.ErrorIs(err, ErrVotingClosed)
	})

	s.Run("approved record takes no votes", func() {
		record := NewCertificateRecord(42, id.ContentHash{}, s.now, "", false, s.now, DefaultVotingWindow)
		s.ErrorIs(record.CanVote("alice", s.now), ErrNotPending)
	})

	s.Run("second vote from the same identity is rejected", func() {
		record := s.pendingRecord()
		record.ApplyVote("alice", true)
		s.ErrorIs(record.CanVote("alice", s.now), sentinel.ErrAlreadyVoted)
	})
}

func (s *RecordSuite) TestApplyVote() {
	record := s.pendingRecord()
	record.ApplyVote("alice", true)
	record.ApplyVote("bob", false)
	record.ApplyVote("carol", false)

	s.Equal(1, record.Upvotes)
	s.Equal(2, record.Downvotes)
	s.True(record.HasVoted("alice"))
	s.True(record.HasVoted("bob"))
	s.False(record.HasVoted("dave"))
}

func (s *RecordSuite) TestCanFinalize() {
	s.Run("before the deadline the window is still open", func() {
		record := s.pendingRecord()
		s.ErrorIs(record.CanFinalize(s.now.Add(time.Hour)), ErrVotingStillOpen)
	})

	s.Run("exactly at the deadline the window is still open", func() {
		record := s.pendingRecord()
		s.ErrorIs(record.CanFinalize(record.VotingDeadline), ErrVotingStillOpen)
	})

	s.Run("after the deadline finalization proceeds", func() {
		record := s.pendingRecord()
		s.NoError(record.CanFinalize(record.VotingDeadline.Add(time.Second)))
	})

	s.Run("terminal record cannot be finalized again", func() {
		record := s.pendingRecord()
		record.ApplyFinalize()
		s.ErrorIs(record.CanFinalize(record.VotingDeadline.Add(time.Hour)), ErrNotPending)
	})
}

func (s *RecordSuite) TestFinalOutcome() {
	cases := []struct {
		name      string
		upvotes   int
		downvotes int
		want      Status
	}{
		{"downvote majority rejects", 1, 2, StatusRejected},
		{"upvote majority approves", 2, 1, StatusApproved},
		{"tie approves", 1, 1, StatusApproved},
		{"zero participation approves", 0, 0, StatusApproved},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			record := s.pendingRecord()
			record.Upvotes = tc.upvotes
			record.Downvotes = tc.downvotes
			record.ApplyFinalize()
			s.Equal(tc.want, record.Status)
		})
	}
}

func (s *RecordSuite) TestClone() {
	record := s.pendingRecord()
	record.ApplyVote("alice", true)

	clone := record.Clone()
	clone.ApplyVote("bob", false)

	s.False(record.HasVoted("bob"), "clone must not alias the voter set")
	s.Equal(1, record.Upvotes)
	s.Equal(0, record.Downvotes)
}
