package store

import (
	"strings"
	"sync"

	"chatsync/internal/bus"
	"chatsync/internal/models"
)

// Store owns the canonical client-side conversation collection for one
// session. All mutations go through the Apply methods; every other component
// reads snapshots. The collection stays partitioned: active conversations
// first, blocked ones after, relative order preserved within each partition.
//
// Each applied patch publishes conversations.updated so render-layer
// subscribers re-read state instead of being handed mutable references.
type Store struct {
	mu       sync.RWMutex
	bus      *bus.Bus
	viewerID int

	conversations []models.Conversation

	// Single authoritative source for "currently open conversation".
	activeKind models.ConversationKind
	activeID   int
}

// New seeds the store from the session snapshot. The initial list is
// partitioned once so the invariant holds before the first patch.
func New(b *bus.Bus, viewerID int, initial []models.Conversation) *Store {
	s := &Store{
		bus:           b,
		viewerID:      viewerID,
		conversations: partition(append([]models.Conversation(nil), initial...)),
	}
	return s
}

// Snapshot returns a copy of the canonical collection.
func (s *Store) Snapshot() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Search returns a filtered view: case-insensitive substring match over
// display name and last-message preview. An empty query returns the full
// collection. The canonical collection is never mutated.
func (s *Store) Search(query string) []models.Conversation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.Snapshot()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Conversation
	for _, conv := range s.conversations {
		if strings.Contains(strings.ToLower(conv.DisplayName), query) ||
			strings.Contains(strings.ToLower(conv.LastMessagePreview), query) {
			out = append(out, conv)
		}
	}
	return out
}

// SetActive records the currently open conversation.
func (s *Store) SetActive(kind models.ConversationKind, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeKind = kind
	s.activeID = id
}

// Active returns the currently open conversation; zero values when none.
func (s *Store) Active() (models.ConversationKind, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeKind, s.activeID
}

// ApplyMessage updates the matching conversation's last-message preview and
// timestamp. A message for a conversation not in the visible set is a no-op;
// the next full reload will pick it up.
func (s *Store) ApplyMessage(msg models.Message) {
	kind, id := models.KindGroup, msg.GroupID
	if msg.Direct() {
		kind, id = models.KindUser, msg.PeerID(s.viewerID)
	}

	s.mu.Lock()
	idx := s.indexOf(kind, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	at := msg.CreatedAt
	s.conversations[idx].LastMessagePreview = msg.Content
	s.conversations[idx].LastMessageAt = &at
	if msg.SenderID != s.viewerID {
		s.conversations[idx].UnreadCount++
	}
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyMessageDeleted re-derives the preview from the message that preceded
// the deleted one. With no prior message the preview and timestamp are
// cleared; the conversation shows as empty until the next message arrives.
func (s *Store) ApplyMessageDeleted(ev models.MessageDeleted) {
	s.mu.Lock()
	idx := s.indexOf(ev.ConversationKind, ev.ConversationID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	if ev.Previous != nil {
		at := ev.Previous.CreatedAt
		s.conversations[idx].LastMessagePreview = ev.Previous.Content
		s.conversations[idx].LastMessageAt = &at
	} else {
		s.conversations[idx].LastMessagePreview = ""
		s.conversations[idx].LastMessageAt = nil
	}
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyGroupCreated prepends a new group conversation. An existing id is
// patched in place instead of duplicated.
func (s *Store) ApplyGroupCreated(conv models.Conversation) {
	if conv.Kind != models.KindGroup {
		return
	}

	s.mu.Lock()
	if idx := s.indexOf(models.KindGroup, conv.ID); idx >= 0 {
		s.conversations[idx] = conv
	} else {
		s.conversations = append([]models.Conversation{conv}, s.conversations...)
		s.conversations = partition(s.conversations)
	}
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyGroupUpdated merges the patch into the matching group. Unknown ids
// are a no-op.
func (s *Store) ApplyGroupUpdated(patch models.GroupPatch) {
	s.mu.Lock()
	idx := s.indexOf(models.KindGroup, patch.ID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	if patch.Name != nil {
		s.conversations[idx].DisplayName = *patch.Name
	}
	if patch.OwnerID != nil {
		s.conversations[idx].OwnerID = *patch.OwnerID
	}
	if patch.MemberIDs != nil {
		s.conversations[idx].MemberIDs = append([]int(nil), patch.MemberIDs...)
	}
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyGroupDeleted removes the group from the collection. If the viewer is
// currently looking at that group, a navigation signal is published so the
// rendering layer leaves the dead view.
func (s *Store) ApplyGroupDeleted(id int) {
	s.mu.Lock()
	idx := s.indexOf(models.KindGroup, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	wasActive := s.activeKind == models.KindGroup && s.activeID == id
	if wasActive {
		s.activeKind = ""
		s.activeID = 0
	}
	s.mu.Unlock()

	if wasActive {
		s.bus.Publish(models.EventNavigationRequired, models.NavigationSignal{
			FromKind: models.KindGroup,
			FromID:   id,
		})
	}
	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyUserBlocked merges the block patch into the matching direct
// conversation and re-partitions the collection.
func (s *Store) ApplyUserBlocked(patch models.BlockPatch) {
	s.mu.Lock()
	idx := s.indexOf(models.KindUser, patch.UserID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.conversations[idx].BlockedAt = patch.BlockedAt
	s.conversations = partition(s.conversations)
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// ApplyContactRenamed sets the per-viewer display-name override on a direct
// conversation.
func (s *Store) ApplyContactRenamed(rename models.ContactRename) {
	s.mu.Lock()
	idx := s.indexOf(models.KindUser, rename.UserID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.conversations[idx].DisplayName = rename.DisplayName
	s.mu.Unlock()

	s.bus.Publish(models.EventConversationsUpdated, nil)
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(kind models.ConversationKind, id int) int {
	for i, conv := range s.conversations {
		if conv.Kind == kind && conv.ID == id {
			return i
		}
	}
	return -1
}

// partition reorders the slice so active conversations precede blocked ones,
// keeping relative order within each group. In place, stable.
func partition(conversations []models.Conversation) []models.Conversation {
	active := make([]models.Conversation, 0, len(conversations))
	var blocked []models.Conversation
	for _, conv := range conversations {
		if conv.Blocked() {
			blocked = append(blocked, conv)
		} else {
			active = append(active, conv)
		}
	}
	return append(active, blocked...)
}
