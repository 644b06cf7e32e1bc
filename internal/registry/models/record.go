package models

import (
	"time"

	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

// DefaultVotingWindow is the fixed span a suspicious record stays open for
// community votes, measured from the wall-clock time of the mint call.
const DefaultVotingWindow = 72 * time.Hour

// CertificateRecord is the aggregate root for one minted document.
//
// Invariants:
//   - WatermarkID is unique across all records; a watermark ID is bound to
//     exactly one certificate for the lifetime of the registry.
//   - Status moves only Pending -> Approved or Pending -> Rejected, each at
//     most once, and only after VotingDeadline has passed. A record minted
//     non-suspicious starts Approved and never re-enters Pending.
//   - Each identity appears at most once in the voter set and is counted in
//     exactly one of Upvotes/Downvotes.
//   - VotingDeadline is set once, when the record enters Pending, and is the
//     mint time plus the voting window. It is the zero time otherwise.
//   - Records are never deleted.
//
// IssuedAt is caller-supplied document metadata; it plays no part in the
// voting window, which is anchored to the time of the mint call.
type CertificateRecord struct {
	CertificateID  id.CertificateID `json:"certificate_id"`
	WatermarkID    id.WatermarkID   `json:"watermark_id"`
	ContentHash    id.ContentHash   `json:"content_hash"`
	IssuedAt       time.Time        `json:"issued_at"`
	MetadataURI    string           `json:"metadata_uri"`
	Status         Status           `json:"status"`
	VotingDeadline time.Time        `json:"voting_deadline,omitzero"`
	Upvotes        int              `json:"upvotes"`
	Downvotes      int              `json:"downvotes"`

	// Voters is enforced, never exposed: the set backs double-vote
	// prevention and stays out of every serialized representation.
	Voters map[id.Identity]struct{} `json:"-"`
}

// NewCertificateRecord builds an unminted record (certificate ID unassigned).
// A suspicious submission enters Pending with its deadline anchored at now;
// anything else is Approved immediately.
func NewCertificateRecord(wmID id.WatermarkID, hash id.ContentHash, issuedAt time.Time, metadataURI string, suspicious bool, now time.Time, window time.Duration) *CertificateRecord {
	if window <= 0 {
		window = DefaultVotingWindow
	}
	record := &CertificateRecord{
		WatermarkID: wmID,
		ContentHash: hash,
		IssuedAt:    issuedAt,
		MetadataURI: metadataURI,
		Status:      StatusApproved,
		Voters:      make(map[id.Identity]struct{}),
	}
	if suspicious {
		record.Status = StatusPending
		record.VotingDeadline = now.Add(window)
	}
	return record
}

// HasVoted reports whether the identity already voted on this record.
func (r *CertificateRecord) HasVoted(voter id.Identity) bool {
	_, ok := r.Voters[voter]
	return ok
}

// CanVote checks whether voter may cast a vote at the given instant.
// Use with ApplyVote in Execute callbacks so validation and mutation happen
// under the same lock.
func (r *CertificateRecord) CanVote(voter id.Identity, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	if now.After(r.VotingDeadline) {
		return ErrVotingClosed
	}
	if r.HasVoted(voter) {
		return sentinel.ErrAlreadyVoted
	}
	return nil
}

// ApplyVote records the vote. Call CanVote first to validate.
func (r *CertificateRecord) ApplyVote(voter id.Identity, approve bool) {
	if r.Voters == nil {
		r.Voters = make(map[id.Identity]struct{})
	}
	r.Voters[voter] = struct{}{}
	if approve {
		r.Upvotes++
	} else {
		r.Downvotes++
	}
}

// CanFinalize checks whether the record is eligible for finalization at the
// given instant. Finalization requires a Pending record and an elapsed
// deadline; a second finalization fails with ErrNotPending rather than
// silently succeeding.
func (r *CertificateRecord) CanFinalize(now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	if !now.After(r.VotingDeadline) {
		return ErrVotingStillOpen
	}
	return nil
}

// ApplyFinalize moves the record to its terminal status. Call CanFinalize
// first to validate.
func (r *CertificateRecord) ApplyFinalize() {
	r.Status = r.finalOutcome()
}

// finalOutcome converts tallies into a terminal status. A strict majority of
// downvotes rejects; ties and zero participation approve. This bias toward
// confirmation is a deliberate policy and is pinned by tests.
func (r *CertificateRecord) finalOutcome() Status {
	if r.Downvotes > r.Upvotes {
		return StatusRejected
	}
	return StatusApproved
}

// Clone returns a deep copy, so in-memory stores never hand out aliased
// voter sets.
func (r *CertificateRecord) Clone() *CertificateRecord {
	clone := *r
	clone.Voters = make(map[id.Identity]struct{}, len(r.Voters))
	for voter := range r.Voters {
		clone.Voters[voter] = struct{}{}
	}
	return &clone
}
