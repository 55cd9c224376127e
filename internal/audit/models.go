package audit

import (
	"time"

	id "deedbook/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: ownership
	// transfers need tamper-evident storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and visibility:
	// registrations and listings. These can be sampled with shorter
	// retention.
	CategoryOperations EventCategory = "operations"
)

// EventType names the marketplace actions that produce audit entries.
type EventType string

const (
	EventPropertyRegistered EventType = "property_registered"
	EventPropertyListed     EventType = "property_listed"
	EventPropertySold       EventType = "property_sold"
)

// Event is emitted from domain logic to capture key marketplace actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory `json:"category"`
	Type       EventType     `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	PropertyID id.PropertyID `json:"property_id"`
	// Actor is the account that performed the action: the registrant, the
	// listing owner, or the buyer.
	Actor id.AccountID `json:"actor"`
	// Counterparty is the seller on a sale; empty otherwise.
	Counterparty id.AccountID `json:"counterparty,omitempty"`
	Price        uint64       `json:"price,omitempty"`
	// ReceiptID correlates a sale with its settlement receipt.
	ReceiptID string `json:"receipt_id,omitempty"`
	// RequestID is the correlation id from the HTTP request context.
	RequestID string `json:"request_id,omitempty"`
	// Device is a coarse user-agent summary of the actor's client.
	Device string `json:"device,omitempty"`
}
