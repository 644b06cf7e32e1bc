package models

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a certificate record.
//
// The numeric values never cross the interface boundary; external
// representations always use the display labels.
type Status uint8

const (
	StatusApproved Status = iota
	StatusPending
	StatusRejected
)

var statusLabels = map[Status]string{
	StatusApproved: "Approved",
	StatusPending:  "Pending",
	StatusRejected: "Rejected",
}

// ParseStatus returns the Status for a display label.
func ParseStatus(s string) (Status, error) {
	for status, label := range statusLabels {
		if label == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// String returns the display label for the status.
func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether the transition s -> next is allowed.
// Only Pending -> Approved and Pending -> Rejected exist; terminal states
// admit nothing, including transitions back to Pending.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

// MarshalJSON serializes the status as its display label.
func (s Status) MarshalJSON() ([]byte, error) {
	label, ok := statusLabels[s]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown status %d", uint8(s))
	}
	return json.Marshal(label)
}

// UnmarshalJSON parses a display label into a status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseStatus(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
