package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"chatsync/internal/models"
	"chatsync/internal/observability"
	"chatsync/internal/telemetry"
)

// MaxItems caps the queue; inserting beyond it evicts the oldest entry.
const MaxItems = 20

// Action resolves one notification.
type Action string

const (
	ActionMarkRead Action = "mark_read"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
)

var (
	// ErrNotFound: the notification is no longer in the queue. Callers racing
	// a removal treat this as a no-op.
	ErrNotFound = errors.New("notification not found")
	// ErrSyntheticID: accept/reject on a session-local item; there is no
	// server record to act on.
	ErrSyntheticID = errors.New("action requires a durable notification id")
	// ErrUnknownAction guards against unmapped actions.
	ErrUnknownAction = errors.New("unknown notification action")
)

// Resolver is the slice of the server API the queue needs.
type Resolver interface {
	AcceptContactRequest(ctx context.Context, requestID int) error
	RejectContactRequest(ctx context.Context, requestID int) error
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Queue merges the server-sourced notification snapshot with live pushes
// into one bounded, newest-first list and owns all mutations to it.
type Queue struct {
	mu    sync.Mutex
	api   Resolver
	audit *telemetry.AuditEmitter
	items []models.NotificationItem
}

// New seeds the queue from the snapshot, newest-first, already capped.
// A nil audit emitter is fine; degraded-integrity handling then only logs.
func New(api Resolver, audit *telemetry.AuditEmitter, initial []models.NotificationItem) *Queue {
	q := &Queue{api: api, audit: audit}
	for i := len(initial) - 1; i >= 0; i-- {
		q.push(initial[i])
	}
	return q
}

// Items returns a copy of the queue, newest first.
func (q *Queue) Items() []models.NotificationItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.NotificationItem, len(q.items))
	copy(out, q.items)
	return out
}

// Push inserts an item at the head, evicting the oldest entry past the cap.
func (q *Queue) Push(item models.NotificationItem) {
	q.mu.Lock()
	evicted := q.push(item)
	q.mu.Unlock()

	for range evicted {
		observability.IncNotificationEviction()
	}
}

func (q *Queue) push(item models.NotificationItem) []models.NotificationItem {
	q.items = append([]models.NotificationItem{item}, q.items...)
	if len(q.items) <= MaxItems {
		return nil
	}
	evicted := append([]models.NotificationItem(nil), q.items[MaxItems:]...)
	q.items = q.items[:MaxItems]
	return evicted
}

// PushNotice converts a live message push into a synthetic-id item at the
// head of the queue.
func (q *Queue) PushNotice(notice models.MessageNotice) {
	q.Push(models.NotificationItem{
		ID:   models.SyntheticIDPrefix + uuid.NewString(),
		Kind: models.NotificationMessageReceived,
		Payload: models.NotificationPayload{
			SenderID:         notice.SenderID,
			SenderName:       notice.SenderName,
			ConversationKind: notice.ConversationKind,
			ConversationID:   notice.ConversationID,
			Preview:          notice.Preview,
		},
		CreatedAt: notice.CreatedAt,
	})
}

// Resolve applies an action to the identified item.
//
// Synthetic items: mark-read removes locally without a server call;
// accept/reject return ErrSyntheticID and never reach the server. Durable
// items: the server call runs first and the item is removed only on success
// (no optimistic removal). A contact item missing its request id is a
// data-integrity failure: it is marked read locally so it cannot clog the
// queue forever.
func (q *Queue) Resolve(ctx context.Context, notificationID string, action Action) error {
	q.mu.Lock()
	idx := q.indexOf(notificationID)
	if idx < 0 {
		q.mu.Unlock()
		return ErrNotFound
	}
	item := q.items[idx]
	q.mu.Unlock()

	if item.Synthetic() {
		switch action {
		case ActionMarkRead:
			q.remove(notificationID)
			return nil
		case ActionAccept, ActionReject:
			return ErrSyntheticID
		default:
			return ErrUnknownAction
		}
	}

	switch action {
	case ActionMarkRead:
		if err := q.api.MarkNotificationRead(ctx, item.ID); err != nil {
			return err
		}
	case ActionAccept, ActionReject:
		if item.Payload.RequestID == 0 {
			log.Printf("notification %s has no request id, degrading to local mark-read", item.ID)
			q.audit.Emit(ctx, "WARN", "notification missing request id, marked read locally", nil)
			q.remove(notificationID)
			return nil
		}
		var err error
		if action == ActionAccept {
			err = q.api.AcceptContactRequest(ctx, item.Payload.RequestID)
		} else {
			err = q.api.RejectContactRequest(ctx, item.Payload.RequestID)
		}
		if err != nil {
			return err
		}
	default:
		return ErrUnknownAction
	}

	q.remove(notificationID)
	return nil
}

// MarkAllRead clears the queue. Durable records are cleared server-side
// first; on failure the queue is left untouched.
func (q *Queue) MarkAllRead(ctx context.Context) error {
	if err := q.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	return nil
}

// remove is a defensive no-op when the item disappeared while a round-trip
// was outstanding.
func (q *Queue) remove(notificationID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if idx := q.indexOf(notificationID); idx >= 0 {
		q.items = append(q.items[:idx:idx], q.items[idx+1:]...)
	}
}

// indexOf must be called with the lock held.
func (q *Queue) indexOf(notificationID string) int {
	for i, item := range q.items {
		if item.ID == notificationID {
			return i
		}
	}
	return -1
}
