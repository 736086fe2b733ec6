package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/mocks"
	"chatsync/internal/models"
	"chatsync/internal/realtime"
	"chatsync/internal/session"
)

type stubTransport struct{}

type stubChannel struct{}

func (stubChannel) Bind(string, func(data json.RawMessage)) {}
func (stubChannel) Unsubscribe() error                      { return nil }

type stubPresence struct{}

func (stubPresence) Here(func([]models.User))  {}
func (stubPresence) Joining(func(models.User)) {}
func (stubPresence) Leaving(func(models.User)) {}
func (stubPresence) Unsubscribe() error        { return nil }

func (stubTransport) Subscribe(string) (realtime.Channel, error) { return stubChannel{}, nil }
func (stubTransport) SubscribePresence(string) (realtime.PresenceChannel, error) {
	return stubPresence{}, nil
}

func setupRouter(t *testing.T, debug bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snap := models.Snapshot{
		CurrentUser: models.User{ID: 1, Username: "me"},
		Conversations: []models.Conversation{
			{ID: 7, Kind: models.KindUser, DisplayName: "ann"},
		},
	}
	sess := session.New(snap, stubTransport{}, new(mocks.APIMock), nil)
	t.Cleanup(sess.Close)

	r := gin.New()
	Register(r, sess, nil, debug)
	return r
}

func TestHealthz(t *testing.T) {
	router := setupRouter(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugStateReturnsSnapshot(t *testing.T) {
	router := setupRouter(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp, "conversations")
	assert.Contains(t, resp, "channels")
}

func TestDebugRoutesDisabled(t *testing.T) {
	router := setupRouter(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/state", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := setupRouter(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatsync_")
}
