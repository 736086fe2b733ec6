package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/models"
)

func TestFetchSnapshotDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/session/snapshot", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current_user": {"id": 1, "username": "me"},
			"conversations": [{"id": 7, "kind": "user", "display_name": "ann"}],
			"notifications": [{"id": "n-9", "kind": "generic", "payload": {"text": "hi"}}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	snap, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentUser.ID)
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, models.KindUser, snap.Conversations[0].Kind)
	require.Len(t, snap.Notifications, 1)
	assert.False(t, snap.Notifications[0].Synthetic())
}

func TestErrorPayloadDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status": 409, "message": "already accepted", "errors": {"request_id": ["stale"]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	err := client.AcceptContactRequest(context.Background(), 5)
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "already accepted", apiErr.Message)
	assert.Equal(t, []string{"stale"}, apiErr.Errors["request_id"])
}

func TestErrorWithoutBodyStillCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.MarkAllNotificationsRead(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
}

func TestBlockUserReturnsPatch(t *testing.T) {
	at := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/7/block", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id": 7, "blocked_at": "` + at.Format(time.RFC3339) + `"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	patch, err := client.BlockUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, patch.UserID)
	require.NotNil(t, patch.BlockedAt)
	assert.True(t, patch.BlockedAt.Equal(at))
}

func TestDeleteMessageRoutesByKind(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conversation_kind": "user", "conversation_id": 7, "previous": {"content": "hi"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")

	ev, err := client.DeleteMessage(context.Background(), models.KindUser, 7, 12)
	require.NoError(t, err)
	require.NotNil(t, ev.Previous)
	assert.Equal(t, "hi", ev.Previous.Content)

	_, err = client.DeleteMessage(context.Background(), models.KindGroup, 42, 12)
	require.NoError(t, err)

	assert.Equal(t, []string{"/chats/7/messages/12/all", "/groups/42/messages/12/all"}, paths)
}

func TestCreateGroupSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/groups", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "kind": "group", "display_name": "Team", "owner_id": 1, "member_ids": [1, 2]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	conv, err := client.CreateGroup(context.Background(), "Team", []int{2})
	require.NoError(t, err)
	assert.Equal(t, 42, conv.ID)
	assert.Equal(t, models.KindGroup, conv.Kind)
	assert.Equal(t, []int{1, 2}, conv.MemberIDs)
}
