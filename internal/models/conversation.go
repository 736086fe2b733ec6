package models

import "time"

// ConversationKind distinguishes direct chats from group chats.
type ConversationKind string

const (
	KindUser  ConversationKind = "user"
	KindGroup ConversationKind = "group"
)

// Conversation is one sidebar entry: either a direct peer or a group.
// For direct conversations ID is the peer's user id; for groups it is the
// group id. BlockedAt is only ever set on direct conversations, OwnerID and
// MemberIDs only on groups.
type Conversation struct {
	ID                 int              `json:"id"`
	Kind               ConversationKind `json:"kind"`
	DisplayName        string           `json:"display_name"`
	LastMessagePreview string           `json:"last_message_preview,omitempty"`
	LastMessageAt      *time.Time       `json:"last_message_at,omitempty"`
	UnreadCount        int              `json:"unread_count"`
	BlockedAt          *time.Time       `json:"blocked_at,omitempty"`
	OwnerID            int              `json:"owner_id,omitempty"`
	MemberIDs          []int            `json:"member_ids,omitempty"`
}

// Blocked reports whether the conversation sits in the blocked partition.
func (c Conversation) Blocked() bool {
	return c.BlockedAt != nil
}

// GroupPatch carries the updatable fields of a group conversation. Nil
// pointers mean "leave unchanged".
type GroupPatch struct {
	ID        int     `json:"id"`
	Name      *string `json:"name,omitempty"`
	OwnerID   *int    `json:"owner_id,omitempty"`
	MemberIDs []int   `json:"member_ids,omitempty"`
}

// BlockPatch toggles the blocked state of a direct conversation. A nil
// BlockedAt unblocks.
type BlockPatch struct {
	UserID    int        `json:"user_id"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`
}

// ContactRename carries a per-viewer display-name override for a direct peer.
type ContactRename struct {
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
}
