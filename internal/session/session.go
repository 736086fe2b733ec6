package session

import (
	"context"
	"log"
	"sync"

	"chatsync/internal/api"
	"chatsync/internal/bus"
	"chatsync/internal/models"
	"chatsync/internal/notifications"
	"chatsync/internal/presence"
	"chatsync/internal/realtime"
	"chatsync/internal/store"
	"chatsync/internal/telemetry"
)

// Session wires one user's real-time state: the bus, the conversation
// store, the notification queue, the presence tracker, and the channel
// manager. Components never touch each other directly; everything flows
// through bus events, and the rendering layer re-reads state after each
// conversations.updated.
type Session struct {
	user    models.User
	bus     *bus.Bus
	store   *store.Store
	queue   *notifications.Queue
	tracker *presence.Tracker
	manager *realtime.Manager
	api     api.API
	audit   *telemetry.AuditEmitter

	closeOnce sync.Once
}

// New builds a session from the snapshot and opens the initial channel set.
// The snapshot is read once and never refreshed; all later changes arrive
// through the transport.
func New(snapshot models.Snapshot, transport realtime.Transport, client api.API, audit *telemetry.AuditEmitter) *Session {
	b := bus.New()
	s := &Session{
		user:    snapshot.CurrentUser,
		bus:     b,
		store:   store.New(b, snapshot.CurrentUser.ID, snapshot.Conversations),
		queue:   notifications.New(client, audit, snapshot.Notifications),
		tracker: presence.NewTracker(),
		manager: realtime.NewManager(transport, b, snapshot.CurrentUser.ID),
		api:     client,
		audit:   audit,
	}
	s.bind()

	s.manager.Reconcile(s.store.Snapshot())
	if err := s.manager.SubscribePresence(); err != nil {
		log.Printf("presence subscribe failed: %v", err)
	}

	userID := snapshot.CurrentUser.ID
	s.audit.Emit(context.Background(), "INFO", "session started", &userID)
	return s
}

// bind routes bus events into the state-owning components.
func (s *Session) bind() {
	s.bus.Subscribe(models.EventMessageCreated, func(p any) {
		if msg, ok := p.(models.Message); ok {
			s.store.ApplyMessage(msg)
		}
	})
	s.bus.Subscribe(models.EventMessageDeleted, func(p any) {
		if ev, ok := p.(models.MessageDeleted); ok {
			s.store.ApplyMessageDeleted(ev)
		}
	})
	s.bus.Subscribe(models.EventNotificationMessageReceived, func(p any) {
		if notice, ok := p.(models.MessageNotice); ok {
			s.queue.PushNotice(notice)
		}
	})
	s.bus.Subscribe(models.EventGroupDeleted, func(p any) {
		if ev, ok := p.(models.GroupDeleted); ok {
			s.store.ApplyGroupDeleted(ev.ID)
		}
	})
	s.bus.Subscribe(models.EventGroupCreated, func(p any) {
		if conv, ok := p.(models.Conversation); ok {
			s.store.ApplyGroupCreated(conv)
		}
	})
	s.bus.Subscribe(models.EventGroupUpdated, func(p any) {
		if patch, ok := p.(models.GroupPatch); ok {
			s.store.ApplyGroupUpdated(patch)
		}
	})
	s.bus.Subscribe(models.EventUserBlocked, func(p any) {
		if patch, ok := p.(models.BlockPatch); ok {
			s.store.ApplyUserBlocked(patch)
		}
	})
	s.bus.Subscribe(models.EventContactRenamed, func(p any) {
		if rename, ok := p.(models.ContactRename); ok {
			s.store.ApplyContactRenamed(rename)
		}
	})

	// Channel subscriptions follow the conversation list.
	s.bus.Subscribe(models.EventConversationsUpdated, func(any) {
		s.manager.Reconcile(s.store.Snapshot())
	})

	s.bus.Subscribe(models.EventPresenceHere, func(p any) {
		if members, ok := p.([]models.User); ok {
			s.tracker.Here(members)
		}
	})
	s.bus.Subscribe(models.EventPresenceJoining, func(p any) {
		if member, ok := p.(models.User); ok {
			s.tracker.Joining(member)
		}
	})
	s.bus.Subscribe(models.EventPresenceLeaving, func(p any) {
		if member, ok := p.(models.User); ok {
			s.tracker.Leaving(member)
		}
	})
}

// User returns the session owner.
func (s *Session) User() models.User {
	return s.user
}

// Bus exposes the session bus for render-layer subscribers.
func (s *Session) Bus() *bus.Bus {
	return s.bus
}

// Conversations returns a snapshot of the reconciled conversation list.
func (s *Session) Conversations() []models.Conversation {
	return s.store.Snapshot()
}

// SearchConversations returns a filtered view of the conversation list.
func (s *Session) SearchConversations(query string) []models.Conversation {
	return s.store.Search(query)
}

// Notifications returns a snapshot of the notification queue.
func (s *Session) Notifications() []models.NotificationItem {
	return s.queue.Items()
}

// IsOnline reports a peer's presence.
func (s *Session) IsOnline(userID int) bool {
	return s.tracker.IsOnline(userID)
}

// OnlineCount returns the size of the presence set.
func (s *Session) OnlineCount() int {
	return s.tracker.Count()
}

// OpenChannelKeys lists the currently open realtime channels.
func (s *Session) OpenChannelKeys() []string {
	return s.manager.OpenChannelKeys()
}

// SetActiveConversation records which conversation the user is looking at.
// This is the only source consulted when deciding whether a group deletion
// requires navigating away.
func (s *Session) SetActiveConversation(kind models.ConversationKind, id int) {
	s.store.SetActive(kind, id)
}

// BlockUser blocks a peer server-side, then publishes the patch locally so
// every surface updates without a reload. On failure nothing local moves.
func (s *Session) BlockUser(ctx context.Context, userID int) error {
	patch, err := s.api.BlockUser(ctx, userID)
	if err != nil {
		return err
	}
	s.bus.Publish(models.EventUserBlocked, patch)
	s.audit.Emit(ctx, "INFO", "user blocked", &s.user.ID)
	return nil
}

// UnblockUser lifts a block and publishes the patch.
func (s *Session) UnblockUser(ctx context.Context, userID int) error {
	patch, err := s.api.UnblockUser(ctx, userID)
	if err != nil {
		return err
	}
	s.bus.Publish(models.EventUserBlocked, patch)
	return nil
}

// DeleteGroup removes a group server-side and publishes the deletion.
func (s *Session) DeleteGroup(ctx context.Context, groupID int) error {
	if err := s.api.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.bus.Publish(models.EventGroupDeleted, models.GroupDeleted{ID: groupID})
	s.audit.Emit(ctx, "INFO", "group deleted", &s.user.ID)
	return nil
}

// DeleteMessage deletes a message for everyone and publishes the resulting
// preview patch.
func (s *Session) DeleteMessage(ctx context.Context, kind models.ConversationKind, conversationID, messageID int) error {
	ev, err := s.api.DeleteMessage(ctx, kind, conversationID, messageID)
	if err != nil {
		return err
	}
	s.bus.Publish(models.EventMessageDeleted, ev)
	return nil
}

// RenameContact updates the display-name override and publishes it.
func (s *Session) RenameContact(ctx context.Context, userID int, displayName string) error {
	rename, err := s.api.UpdateContactName(ctx, userID, displayName)
	if err != nil {
		return err
	}
	s.bus.Publish(models.EventContactRenamed, rename)
	return nil
}

// CreateGroup creates a group and publishes the new conversation.
func (s *Session) CreateGroup(ctx context.Context, name string, memberIDs []int) (models.Conversation, error) {
	conv, err := s.api.CreateGroup(ctx, name, memberIDs)
	if err != nil {
		return models.Conversation{}, err
	}
	s.bus.Publish(models.EventGroupCreated, conv)
	return conv, nil
}

// UpdateGroup patches a group and publishes the applied patch.
func (s *Session) UpdateGroup(ctx context.Context, patch models.GroupPatch) error {
	applied, err := s.api.UpdateGroup(ctx, patch)
	if err != nil {
		return err
	}
	s.bus.Publish(models.EventGroupUpdated, applied)
	return nil
}

// ResolveNotification applies a queue action.
func (s *Session) ResolveNotification(ctx context.Context, notificationID string, action notifications.Action) error {
	if err := s.queue.Resolve(ctx, notificationID, action); err != nil {
		return err
	}
	s.audit.Emit(ctx, "INFO", "notification resolved: "+string(action), &s.user.ID)
	return nil
}

// MarkAllNotificationsRead clears the queue, server records first.
func (s *Session) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.queue.MarkAllRead(ctx); err != nil {
		return err
	}
	s.audit.Emit(ctx, "INFO", "all notifications marked read", &s.user.ID)
	return nil
}

// Close tears down channels and the bus exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.audit.Emit(context.Background(), "INFO", "session closed", &s.user.ID)
		s.manager.Close()
		s.bus.Close()
	})
}
