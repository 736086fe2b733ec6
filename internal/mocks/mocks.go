package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatsync/internal/api"
	"chatsync/internal/models"
)

type APIMock struct {
	mock.Mock
}

func (m *APIMock) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	args := m.Called(ctx)
	var snap models.Snapshot
	if val := args.Get(0); val != nil {
		snap = val.(models.Snapshot)
	}
	return snap, args.Error(1)
}

func (m *APIMock) AcceptContactRequest(ctx context.Context, requestID int) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *APIMock) RejectContactRequest(ctx context.Context, requestID int) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *APIMock) MarkNotificationRead(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *APIMock) MarkAllNotificationsRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *APIMock) BlockUser(ctx context.Context, userID int) (models.BlockPatch, error) {
	args := m.Called(ctx, userID)
	var patch models.BlockPatch
	if val := args.Get(0); val != nil {
		patch = val.(models.BlockPatch)
	}
	return patch, args.Error(1)
}

func (m *APIMock) UnblockUser(ctx context.Context, userID int) (models.BlockPatch, error) {
	args := m.Called(ctx, userID)
	var patch models.BlockPatch
	if val := args.Get(0); val != nil {
		patch = val.(models.BlockPatch)
	}
	return patch, args.Error(1)
}

func (m *APIMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *APIMock) DeleteMessage(ctx context.Context, kind models.ConversationKind, conversationID, messageID int) (models.MessageDeleted, error) {
	args := m.Called(ctx, kind, conversationID, messageID)
	var ev models.MessageDeleted
	if val := args.Get(0); val != nil {
		ev = val.(models.MessageDeleted)
	}
	return ev, args.Error(1)
}

func (m *APIMock) UpdateContactName(ctx context.Context, userID int, displayName string) (models.ContactRename, error) {
	args := m.Called(ctx, userID, displayName)
	var rename models.ContactRename
	if val := args.Get(0); val != nil {
		rename = val.(models.ContactRename)
	}
	return rename, args.Error(1)
}

func (m *APIMock) CreateGroup(ctx context.Context, name string, memberIDs []int) (models.Conversation, error) {
	args := m.Called(ctx, name, memberIDs)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *APIMock) UpdateGroup(ctx context.Context, patch models.GroupPatch) (models.GroupPatch, error) {
	args := m.Called(ctx, patch)
	var applied models.GroupPatch
	if val := args.Get(0); val != nil {
		applied = val.(models.GroupPatch)
	}
	return applied, args.Error(1)
}

var _ api.API = (*APIMock)(nil)
