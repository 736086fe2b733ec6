package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"chatsync/internal/bus"
	"chatsync/internal/models"
	"chatsync/internal/observability"
)

// Manager keeps the set of open channel subscriptions congruent with the
// current conversation list and translates inbound transport events into bus
// publications. At most one subscription exists per channel key.
type Manager struct {
	transport Transport
	bus       *bus.Bus
	viewerID  int

	mu       sync.Mutex
	open     map[string]Channel
	presence PresenceChannel
	closed   bool
}

// NewManager builds a Manager. No channels are opened until the first
// Reconcile call.
func NewManager(transport Transport, b *bus.Bus, viewerID int) *Manager {
	return &Manager{
		transport: transport,
		bus:       b,
		viewerID:  viewerID,
		open:      make(map[string]Channel),
	}
}

// Reconcile diffs the desired channel-key set for the given conversation
// list against the currently open channels: extraneous ones are closed,
// missing ones opened. Running it twice with an unchanged list issues zero
// transport calls the second time. A subscribe failure is logged and does
// not block the remaining channels; no retry is attempted here.
func (m *Manager) Reconcile(conversations []models.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	desired := make(map[string]models.Conversation, len(conversations)*2)
	for _, conv := range conversations {
		switch conv.Kind {
		case models.KindUser:
			desired[DirectChannelKey(m.viewerID, conv.ID)] = conv
		case models.KindGroup:
			desired[GroupChannelKey(conv.ID)] = conv
			desired[GroupDeletedChannelKey(conv.ID)] = conv
		}
	}

	for key, ch := range m.open {
		if _, want := desired[key]; want {
			continue
		}
		if err := ch.Unsubscribe(); err != nil {
			log.Printf("channel unsubscribe failed key=%s: %v", key, err)
		}
		delete(m.open, key)
		observability.DecOpenChannels()
	}

	for key, conv := range desired {
		if _, ok := m.open[key]; ok {
			continue
		}
		ch, err := m.transport.Subscribe(key)
		if err != nil {
			log.Printf("channel subscribe failed key=%s: %v", key, err)
			observability.IncChannelError("channel")
			continue
		}
		m.bind(key, conv, ch)
		m.open[key] = ch
		observability.IncOpenChannels()
	}
}

func (m *Manager) bind(key string, conv models.Conversation, ch Channel) {
	if conv.Kind == models.KindGroup && key == GroupDeletedChannelKey(conv.ID) {
		ch.Bind(WireGroupDeleted, m.onGroupDeleted)
		return
	}
	ch.Bind(WireMessageCreated, m.onMessageCreated)
	ch.Bind(WireMessageDeleted, m.onMessageDeleted)
}

func (m *Manager) onMessageCreated(data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("malformed MessageCreated payload: %v", err)
		return
	}

	m.bus.Publish(models.EventMessageCreated, msg)

	if msg.SenderID == m.viewerID {
		return
	}
	notice := models.MessageNotice{
		SenderID:         msg.SenderID,
		SenderName:       msg.SenderName,
		ConversationKind: models.KindUser,
		ConversationID:   msg.PeerID(m.viewerID),
		Preview:          msg.Content,
		CreatedAt:        msg.CreatedAt,
	}
	if !msg.Direct() {
		notice.ConversationKind = models.KindGroup
		notice.ConversationID = msg.GroupID
	}
	m.bus.Publish(models.EventNotificationMessageReceived, notice)
}

func (m *Manager) onMessageDeleted(data json.RawMessage) {
	var ev models.MessageDeleted
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("malformed MessageDeleted payload: %v", err)
		return
	}
	m.bus.Publish(models.EventMessageDeleted, ev)
}

func (m *Manager) onGroupDeleted(data json.RawMessage) {
	var ev models.GroupDeleted
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("malformed GroupDeletedEvent payload: %v", err)
		return
	}
	m.bus.Publish(models.EventGroupDeleted, ev)
}

// SubscribePresence opens the global presence channel and forwards its
// signals onto the bus.
func (m *Manager) SubscribePresence() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.presence != nil {
		return nil
	}

	ch, err := m.transport.SubscribePresence(PresenceChannelKey)
	if err != nil {
		observability.IncChannelError("presence")
		return err
	}
	ch.Here(func(members []models.User) { m.bus.Publish(models.EventPresenceHere, members) })
	ch.Joining(func(member models.User) { m.bus.Publish(models.EventPresenceJoining, member) })
	ch.Leaving(func(member models.User) { m.bus.Publish(models.EventPresenceLeaving, member) })
	m.presence = ch
	return nil
}

// OpenChannelKeys returns the keys of currently open channels, for state
// inspection.
func (m *Manager) OpenChannelKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.open))
	for key := range m.open {
		keys = append(keys, key)
	}
	return keys
}

// Close unsubscribes every open channel exactly once. Reconcile becomes a
// no-op afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for key, ch := range m.open {
		if err := ch.Unsubscribe(); err != nil {
			log.Printf("channel unsubscribe failed key=%s: %v", key, err)
		}
		delete(m.open, key)
		observability.DecOpenChannels()
	}
	if m.presence != nil {
		if err := m.presence.Unsubscribe(); err != nil {
			log.Printf("presence unsubscribe failed: %v", err)
		}
		m.presence = nil
	}
}
