package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatsync/internal/models"
	"chatsync/internal/observability"
)

// API covers the server mutation endpoints plus the session snapshot fetch.
// The contract per call: on success the caller applies the matching local
// patch; on failure the returned error is surfaced and nothing local moves.
type API interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
	AcceptContactRequest(ctx context.Context, requestID int) error
	RejectContactRequest(ctx context.Context, requestID int) error
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
	BlockUser(ctx context.Context, userID int) (models.BlockPatch, error)
	UnblockUser(ctx context.Context, userID int) (models.BlockPatch, error)
	DeleteGroup(ctx context.Context, groupID int) error
	DeleteMessage(ctx context.Context, kind models.ConversationKind, conversationID, messageID int) (models.MessageDeleted, error)
	UpdateContactName(ctx context.Context, userID int, displayName string) (models.ContactRename, error)
	CreateGroup(ctx context.Context, name string, memberIDs []int) (models.Conversation, error)
	UpdateGroup(ctx context.Context, patch models.GroupPatch) (models.GroupPatch, error)
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	tracer  trace.Tracer
}

// NewClient builds a Client for the given backend base URL and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		tracer:  otel.Tracer("chatsync/api"),
	}
}

// FetchSnapshot loads the session-start state.
func (c *Client) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := c.do(ctx, "fetch_snapshot", http.MethodGet, "/session/snapshot", nil, &snap)
	return snap, err
}

// AcceptContactRequest accepts a pending contact request.
func (c *Client) AcceptContactRequest(ctx context.Context, requestID int) error {
	return c.do(ctx, "accept_contact_request", http.MethodPost, fmt.Sprintf("/contacts/requests/%d/accept", requestID), nil, nil)
}

// RejectContactRequest rejects a pending contact request.
func (c *Client) RejectContactRequest(ctx context.Context, requestID int) error {
	return c.do(ctx, "reject_contact_request", http.MethodPost, fmt.Sprintf("/contacts/requests/%d/reject", requestID), nil, nil)
}

// MarkNotificationRead marks one durable notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, "mark_notification_read", http.MethodPost, fmt.Sprintf("/notifications/%s/read", notificationID), nil, nil)
}

// MarkAllNotificationsRead marks every durable notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, "mark_all_notifications_read", http.MethodPost, "/notifications/read-all", nil, nil)
}

// BlockUser blocks a direct peer and returns the resulting block patch.
func (c *Client) BlockUser(ctx context.Context, userID int) (models.BlockPatch, error) {
	var patch models.BlockPatch
	err := c.do(ctx, "block_user", http.MethodPost, fmt.Sprintf("/users/%d/block", userID), nil, &patch)
	return patch, err
}

// UnblockUser lifts a block and returns the resulting patch.
func (c *Client) UnblockUser(ctx context.Context, userID int) (models.BlockPatch, error) {
	var patch models.BlockPatch
	err := c.do(ctx, "unblock_user", http.MethodPost, fmt.Sprintf("/users/%d/unblock", userID), nil, &patch)
	return patch, err
}

// DeleteGroup removes a group owned by the viewer.
func (c *Client) DeleteGroup(ctx context.Context, groupID int) error {
	return c.do(ctx, "delete_group", http.MethodDelete, fmt.Sprintf("/groups/%d", groupID), nil, nil)
}

// DeleteMessage deletes a message for everyone. The response carries the
// snapshot of the preceding message so the preview can be re-derived.
func (c *Client) DeleteMessage(ctx context.Context, kind models.ConversationKind, conversationID, messageID int) (models.MessageDeleted, error) {
	path := fmt.Sprintf("/chats/%d/messages/%d/all", conversationID, messageID)
	if kind == models.KindGroup {
		path = fmt.Sprintf("/groups/%d/messages/%d/all", conversationID, messageID)
	}
	var ev models.MessageDeleted
	err := c.do(ctx, "delete_message", http.MethodDelete, path, nil, &ev)
	return ev, err
}

// UpdateContactName sets the viewer's display-name override for a contact.
func (c *Client) UpdateContactName(ctx context.Context, userID int, displayName string) (models.ContactRename, error) {
	body := map[string]string{"display_name": displayName}
	var rename models.ContactRename
	err := c.do(ctx, "update_contact_name", http.MethodPatch, fmt.Sprintf("/contacts/%d/name", userID), body, &rename)
	return rename, err
}

// CreateGroup creates a group and returns its conversation entry.
func (c *Client) CreateGroup(ctx context.Context, name string, memberIDs []int) (models.Conversation, error) {
	body := map[string]any{"name": name, "member_ids": memberIDs}
	var conv models.Conversation
	err := c.do(ctx, "create_group", http.MethodPost, "/groups", body, &conv)
	return conv, err
}

// UpdateGroup applies a group patch server-side and returns the applied patch.
func (c *Client) UpdateGroup(ctx context.Context, patch models.GroupPatch) (models.GroupPatch, error) {
	var applied models.GroupPatch
	err := c.do(ctx, "update_group", http.MethodPut, fmt.Sprintf("/groups/%d", patch.ID), patch, &applied)
	return applied, err
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "api."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.route", path))

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.IncAPIRequest(operation, 0)
		return err
	}
	defer resp.Body.Close()
	observability.IncAPIRequest(operation, resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
