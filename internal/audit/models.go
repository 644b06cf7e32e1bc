package audit

import (
	"time"

	"github.com/google/uuid"

	id "watsonmark/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, which
// drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with provenance significance: they
	// change what the registry attests about a document.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to monitoring the issuer role.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Action names a registry operation in the audit trail.
type Action string

const (
	ActionCertificateMinted    Action = "certificate_minted"
	ActionVoteCast             Action = "vote_cast"
	ActionCertificateFinalized Action = "certificate_finalized"
	ActionIssuerTransferred    Action = "issuer_transferred"
)

var actionCategories = map[Action]EventCategory{
	ActionCertificateMinted:    CategoryCompliance,
	ActionCertificateFinalized: CategoryCompliance,
	ActionIssuerTransferred:    CategorySecurity,
	ActionVoteCast:             CategoryOperations,
}

// CategoryOf returns the category for an action, defaulting to operations
// for unknown actions.
func CategoryOf(action Action) EventCategory {
	if category, ok := actionCategories[action]; ok {
		return category
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture one registry action. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            uuid.UUID        `json:"id"`
	Category      EventCategory    `json:"category"`
	Action        Action           `json:"action"`
	Actor         id.Identity      `json:"actor"`
	CertificateID id.CertificateID `json:"certificate_id,omitempty"`
	WatermarkID   id.WatermarkID   `json:"watermark_id,omitempty"`
	Decision      string           `json:"decision,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
