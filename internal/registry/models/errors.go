package models

import "errors"

// Domain-level sentinel errors for the certificate state machine. Services
// wrap these in coded errors before they cross the API boundary; tests and
// callers can still match them with errors.Is.
var (
	// ErrNotIssuer is returned when a caller other than the current issuer
	// attempts an issuer-only operation.
	ErrNotIssuer = errors.New("caller is not the issuer")

	// ErrNotPending is returned when a vote or finalization targets a record
	// that is not in the Pending state.
	ErrNotPending = errors.New("record is not pending")

	// ErrVotingClosed is returned when a vote arrives after the voting
	// deadline.
	ErrVotingClosed = errors.New("voting window has closed")

	// ErrVotingStillOpen is returned when finalization is attempted before
	// the voting deadline has passed.
	ErrVotingStillOpen = errors.New("voting window is still open")
)
