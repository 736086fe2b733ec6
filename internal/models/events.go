package models

// Event names published on the session bus. Payload types are noted per
// event; subscribers type-assert and ignore anything else.
const (
	// Payload: Message
	EventMessageCreated = "message.created"
	// Payload: MessageDeleted
	EventMessageDeleted = "message.deleted"
	// Payload: MessageNotice
	EventNotificationMessageReceived = "notification.message-received"
	// Payload: GroupDeleted
	EventGroupDeleted = "group.deleted"
	// Payload: Conversation
	EventGroupCreated = "group.created"
	// Payload: GroupPatch
	EventGroupUpdated = "group.updated"
	// Payload: BlockPatch
	EventUserBlocked = "user.blocked"
	// Payload: ContactRename
	EventContactRenamed = "contact.renamed"
	// Payload: nil; subscribers re-read the conversation store
	EventConversationsUpdated = "conversations.updated"
	// Payload: NavigationSignal
	EventNavigationRequired = "navigation.required"
	// Payload: []User
	EventPresenceHere = "presence.here"
	// Payload: User
	EventPresenceJoining = "presence.joining"
	// Payload: User
	EventPresenceLeaving = "presence.leaving"
)

// User identifies a chat participant.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Snapshot is the read-only session-start state handed over by the backend.
// It is never refreshed; all later changes arrive through the transport.
type Snapshot struct {
	CurrentUser   User               `json:"current_user"`
	Conversations []Conversation     `json:"conversations"`
	Notifications []NotificationItem `json:"notifications"`
}
