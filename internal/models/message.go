package models

import "time"

// Message is a chat message as pushed by the server. GroupID is zero for
// direct messages; ReceiverID is zero for group messages.
type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	ReceiverID int       `json:"receiver_id,omitempty"`
	GroupID    int       `json:"group_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Direct reports whether the message belongs to a direct conversation.
func (m Message) Direct() bool {
	return m.GroupID == 0
}

// PeerID returns the direct conversation the message belongs to, seen from
// the given viewer. Zero for group messages.
func (m Message) PeerID(viewerID int) int {
	if !m.Direct() {
		return 0
	}
	if m.SenderID == viewerID {
		return m.ReceiverID
	}
	return m.SenderID
}

// MessageDeleted announces a delete-for-all. Previous is the server-provided
// snapshot of the message that preceded the deleted one, nil when the deleted
// message was the only one in the conversation.
type MessageDeleted struct {
	ConversationKind ConversationKind `json:"conversation_kind"`
	ConversationID   int              `json:"conversation_id"`
	Previous         *Message         `json:"previous,omitempty"`
}

// GroupDeleted announces that a group the viewer belonged to was removed.
type GroupDeleted struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NavigationSignal asks the rendering layer to leave a view that no longer
// has a backing conversation.
type NavigationSignal struct {
	FromKind ConversationKind `json:"from_kind"`
	FromID   int              `json:"from_id"`
}

// MessageNotice is the payload of a notification.message-received event:
// enough to render a toast without re-reading the conversation store.
type MessageNotice struct {
	SenderID         int              `json:"sender_id"`
	SenderName       string           `json:"sender_name,omitempty"`
	ConversationKind ConversationKind `json:"conversation_kind"`
	ConversationID   int              `json:"conversation_id"`
	Preview          string           `json:"preview"`
	CreatedAt        time.Time        `json:"created_at"`
}
