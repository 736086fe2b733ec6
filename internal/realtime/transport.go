package realtime

import (
	"encoding/json"

	"chatsync/internal/models"
)

// Wire-level event names pushed by the server on subscribed channels.
const (
	WireMessageCreated = "MessageCreated"
	WireMessageDeleted = "MessageDeleted"
	WireGroupDeleted   = "GroupDeletedEvent"
)

// Channel is one active server-pushed subscription. Bind registers a handler
// for a named server event; Unsubscribe closes the subscription and must be
// called exactly once.
type Channel interface {
	Bind(event string, fn func(data json.RawMessage))
	Unsubscribe() error
}

// PresenceChannel is the shared presence subscription.
type PresenceChannel interface {
	Here(fn func(members []models.User))
	Joining(fn func(member models.User))
	Leaving(fn func(member models.User))
	Unsubscribe() error
}

// Transport is the black-box publisher of named server events. Retry and
// reconnect policy live behind this interface, not in front of it.
type Transport interface {
	Subscribe(channelKey string) (Channel, error)
	SubscribePresence(channelKey string) (PresenceChannel, error)
}
