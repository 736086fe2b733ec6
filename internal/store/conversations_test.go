package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/bus"
	"chatsync/internal/models"
)

const viewerID = 1

func direct(id int, name string) models.Conversation {
	return models.Conversation{ID: id, Kind: models.KindUser, DisplayName: name}
}

func group(id int, name string) models.Conversation {
	return models.Conversation{ID: id, Kind: models.KindGroup, DisplayName: name}
}

func TestApplyMessageUpdatesPreviewAndTimestamp(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{
		{ID: 7, Kind: models.KindUser, DisplayName: "ann", LastMessagePreview: "hi"},
	})

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.ApplyMessage(models.Message{SenderID: 3, ReceiverID: viewerID, Content: "yo", CreatedAt: at})

	// Sender id 3 is not a visible conversation: no-op.
	conv := s.Snapshot()[0]
	assert.Equal(t, "hi", conv.LastMessagePreview)

	s.ApplyMessage(models.Message{SenderID: 7, ReceiverID: viewerID, Content: "yo", CreatedAt: at})
	conv = s.Snapshot()[0]
	assert.Equal(t, "yo", conv.LastMessagePreview)
	require.NotNil(t, conv.LastMessageAt)
	assert.Equal(t, at, *conv.LastMessageAt)
	assert.Equal(t, 1, conv.UnreadCount)
}

func TestApplyMessageOwnMessageDoesNotBumpUnread(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{direct(7, "ann")})

	s.ApplyMessage(models.Message{SenderID: viewerID, ReceiverID: 7, Content: "sent", CreatedAt: time.Now()})

	conv := s.Snapshot()[0]
	assert.Equal(t, "sent", conv.LastMessagePreview)
	assert.Zero(t, conv.UnreadCount)
}

func TestApplyMessageGroupMatchesByGroupID(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{group(42, "Team")})

	s.ApplyMessage(models.Message{SenderID: 5, GroupID: 42, Content: "standup?", CreatedAt: time.Now()})

	assert.Equal(t, "standup?", s.Snapshot()[0].LastMessagePreview)
}

func TestApplyMessageDeletedRestoresPriorPreview(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{direct(7, "ann")})
	t0 := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	s.ApplyMessage(models.Message{SenderID: 7, ReceiverID: viewerID, Content: "hi", CreatedAt: t0})
	s.ApplyMessage(models.Message{SenderID: 7, ReceiverID: viewerID, Content: "yo", CreatedAt: t1})

	s.ApplyMessageDeleted(models.MessageDeleted{
		ConversationKind: models.KindUser,
		ConversationID:   7,
		Previous:         &models.Message{Content: "hi", CreatedAt: t0},
	})

	conv := s.Snapshot()[0]
	assert.Equal(t, "hi", conv.LastMessagePreview)
	require.NotNil(t, conv.LastMessageAt)
	assert.Equal(t, t0, *conv.LastMessageAt)
}

func TestApplyMessageDeletedWithoutPriorClearsPreview(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{direct(7, "ann")})
	s.ApplyMessage(models.Message{SenderID: 7, ReceiverID: viewerID, Content: "only", CreatedAt: time.Now()})

	s.ApplyMessageDeleted(models.MessageDeleted{ConversationKind: models.KindUser, ConversationID: 7})

	conv := s.Snapshot()[0]
	assert.Empty(t, conv.LastMessagePreview)
	assert.Nil(t, conv.LastMessageAt)
}

func TestApplyGroupCreatedPrepends(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{direct(7, "ann")})

	s.ApplyGroupCreated(group(42, "Team"))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 42, snap[0].ID)
}

func TestApplyGroupUpdatedMergesPatch(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{
		{ID: 42, Kind: models.KindGroup, DisplayName: "Team", OwnerID: 2, MemberIDs: []int{1, 2}},
	})

	name := "Team Rocket"
	s.ApplyGroupUpdated(models.GroupPatch{ID: 42, Name: &name, MemberIDs: []int{1, 2, 3}})

	conv := s.Snapshot()[0]
	assert.Equal(t, "Team Rocket", conv.DisplayName)
	assert.Equal(t, 2, conv.OwnerID, "owner untouched by nil patch field")
	assert.Equal(t, []int{1, 2, 3}, conv.MemberIDs)
}

func TestApplyGroupDeletedRemovesAndSignalsWhenActive(t *testing.T) {
	b := bus.New()
	s := New(b, viewerID, []models.Conversation{group(42, "Team"), direct(7, "ann")})
	s.SetActive(models.KindGroup, 42)

	var signals []models.NavigationSignal
	b.Subscribe(models.EventNavigationRequired, func(p any) {
		signals = append(signals, p.(models.NavigationSignal))
	})

	s.ApplyGroupDeleted(42)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 7, snap[0].ID)
	require.Len(t, signals, 1)
	assert.Equal(t, models.KindGroup, signals[0].FromKind)
	assert.Equal(t, 42, signals[0].FromID)

	kind, id := s.Active()
	assert.Empty(t, kind)
	assert.Zero(t, id)
}

func TestApplyGroupDeletedInactiveGroupDoesNotSignal(t *testing.T) {
	b := bus.New()
	s := New(b, viewerID, []models.Conversation{group(42, "Team")})
	s.SetActive(models.KindUser, 7)

	var signals int
	b.Subscribe(models.EventNavigationRequired, func(any) { signals++ })

	s.ApplyGroupDeleted(42)
	assert.Zero(t, signals)
}

func TestBlockedPartitionInvariant(t *testing.T) {
	now := time.Now()
	s := New(bus.New(), viewerID, []models.Conversation{
		direct(2, "a"), direct(3, "b"), direct(4, "c"), direct(5, "d"),
	})

	s.ApplyUserBlocked(models.BlockPatch{UserID: 3, BlockedAt: &now})
	s.ApplyUserBlocked(models.BlockPatch{UserID: 2, BlockedAt: &now})

	ids := func() []int {
		var out []int
		for _, c := range s.Snapshot() {
			out = append(out, c.ID)
		}
		return out
	}

	// Active first in original order, then blocked in block-preserving order.
	assert.Equal(t, []int{4, 5, 3, 2}, ids())

	sawBlocked := false
	for _, c := range s.Snapshot() {
		if c.Blocked() {
			sawBlocked = true
		} else {
			assert.False(t, sawBlocked, "active conversation after a blocked one")
		}
	}

	s.ApplyUserBlocked(models.BlockPatch{UserID: 3, BlockedAt: nil})
	assert.Equal(t, []int{4, 5, 3, 2}, ids(), "unblocked entry rejoins the active partition tail")
	assert.False(t, s.Snapshot()[2].Blocked())
}

func TestApplyContactRenamed(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{direct(7, "ann")})

	s.ApplyContactRenamed(models.ContactRename{UserID: 7, DisplayName: "Ann from work"})
	assert.Equal(t, "Ann from work", s.Snapshot()[0].DisplayName)

	s.ApplyContactRenamed(models.ContactRename{UserID: 99, DisplayName: "ghost"})
	require.Len(t, s.Snapshot(), 1)
}

func TestSearchFiltersWithoutMutating(t *testing.T) {
	s := New(bus.New(), viewerID, []models.Conversation{
		{ID: 7, Kind: models.KindUser, DisplayName: "Ann", LastMessagePreview: "see you at standup"},
		{ID: 8, Kind: models.KindUser, DisplayName: "Bob", LastMessagePreview: "ok"},
		{ID: 42, Kind: models.KindGroup, DisplayName: "Standup crew"},
	})

	hits := s.Search("STANDUP")
	require.Len(t, hits, 2)
	assert.Equal(t, 7, hits[0].ID)
	assert.Equal(t, 42, hits[1].ID)

	assert.Len(t, s.Search(""), 3)
	assert.Len(t, s.Snapshot(), 3)
}

func TestEveryPatchPublishesConversationsUpdated(t *testing.T) {
	b := bus.New()
	s := New(b, viewerID, []models.Conversation{direct(7, "ann"), group(42, "Team")})

	var updates int
	b.Subscribe(models.EventConversationsUpdated, func(any) { updates++ })

	now := time.Now()
	s.ApplyMessage(models.Message{SenderID: 7, ReceiverID: viewerID, Content: "x", CreatedAt: now})
	s.ApplyUserBlocked(models.BlockPatch{UserID: 7, BlockedAt: &now})
	s.ApplyGroupUpdated(models.GroupPatch{ID: 42})
	s.ApplyGroupDeleted(42)
	s.ApplyContactRenamed(models.ContactRename{UserID: 7, DisplayName: "A"})

	assert.Equal(t, 5, updates)
}
