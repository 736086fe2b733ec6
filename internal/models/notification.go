package models

import (
	"strings"
	"time"
)

// SyntheticIDPrefix marks notification ids that exist only in this session
// and have no server-side record. Synthetic ids must never be sent to the
// server for mutation.
const SyntheticIDPrefix = "local-"

// NotificationKind classifies user-facing alerts.
type NotificationKind string

const (
	NotificationMessageReceived  NotificationKind = "message-received"
	NotificationContactRequested NotificationKind = "contact-requested"
	NotificationGeneric          NotificationKind = "generic"
)

// NotificationItem is one entry in the bounded notification queue.
type NotificationItem struct {
	ID        string              `json:"id"`
	Kind      NotificationKind    `json:"kind"`
	Payload   NotificationPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
}

// NotificationPayload is the kind-specific data of a notification. RequestID
// is the contact-request correlation id; zero means absent.
type NotificationPayload struct {
	SenderID         int              `json:"sender_id,omitempty"`
	SenderName       string           `json:"sender_name,omitempty"`
	ConversationKind ConversationKind `json:"conversation_kind,omitempty"`
	ConversationID   int              `json:"conversation_id,omitempty"`
	Preview          string           `json:"preview,omitempty"`
	RequestID        int              `json:"request_id,omitempty"`
	Text             string           `json:"text,omitempty"`
}

// Synthetic reports whether the item has a session-local id.
func (n NotificationItem) Synthetic() bool {
	return strings.HasPrefix(n.ID, SyntheticIDPrefix)
}
