package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store
//   - ErrAlreadyExists: unique key already taken
//   - ErrAlreadyVoted: identity already present in a record's voter set
//   - ErrUnavailable: backing resource temporarily unavailable
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrAlreadyVoted  = errors.New("already voted")
	ErrUnavailable   = errors.New("unavailable")
)
