package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions against player
// display identities. Keep it transport-agnostic so publishers can fan out.
type Event struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    AuditEvent `json:"action"`
	Identity  uint64     `json:"identity,omitempty"`
	// Kinds names the attribute kinds touched by a mutation, when relevant.
	Kinds string `json:"kinds,omitempty"`
	// Value carries the applied value for mutation events.
	Value string `json:"value,omitempty"`
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string `json:"request_id,omitempty"`
	// Actor identifies the admin subject for privileged operations.
	Actor string `json:"actor,omitempty"`
}

type AuditEvent string

const (
	EventAttributeAdded   AuditEvent = "attribute_added"
	EventAttributeSet     AuditEvent = "attribute_set"
	EventAttributeReset   AuditEvent = "attribute_reset"
	EventVisibilitySet    AuditEvent = "visibility_set"
	EventChatSoundSet     AuditEvent = "chat_sound_set"
	EventRulesReloaded    AuditEvent = "rules_reloaded"
	EventPlayerConnect    AuditEvent = "player_connect"
	EventPlayerDisconnect AuditEvent = "player_disconnect"
)

// Publisher is the interface for emitting audit events. Emission is
// fail-open: the domain operation proceeds even if the event cannot be
// published, and the caller logs the error.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
