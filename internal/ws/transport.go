package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"chatsync/internal/models"
	"chatsync/internal/observability"
	"chatsync/internal/realtime"
)

// Control and presence event names on the wire.
const (
	eventSubscribe   = "subscribe"
	eventUnsubscribe = "unsubscribe"
	eventHere        = "here"
	eventJoining     = "joining"
	eventLeaving     = "leaving"
)

// frame is the wire envelope: every message carries an event name, the
// channel it belongs to, and an opaque payload.
type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var errClosed = errors.New("transport closed")

// Transport multiplexes all channel subscriptions over one websocket
// connection and implements realtime.Transport. One goroutine reads frames
// and fans them out to per-channel handler sets; writes are serialized.
// Reconnect policy is intentionally absent here.
type Transport struct {
	conn   *websocket.Conn
	connID string

	writeMu sync.Mutex

	mu       sync.RWMutex
	channels map[string]*channel
	presence map[string]*presenceChannel
	closed   bool
}

// Dial connects to the backend's websocket endpoint and starts the read
// loop. The bearer token is sent during the handshake.
func Dial(url, token string) (*Transport, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		conn:     conn,
		connID:   newConnID(),
		channels: make(map[string]*channel),
		presence: make(map[string]*presenceChannel),
	}
	go t.readLoop()
	log.Printf("websocket connected conn_id=%s", t.connID)
	return t, nil
}

// ConnID identifies this connection in logs and audit events.
func (t *Transport) ConnID() string {
	return t.connID
}

// Subscribe opens a channel subscription and returns its handle.
func (t *Transport) Subscribe(channelKey string) (realtime.Channel, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errClosed
	}
	if _, ok := t.channels[channelKey]; ok {
		t.mu.Unlock()
		return nil, errors.New("channel already subscribed: " + channelKey)
	}
	ch := &channel{key: channelKey, transport: t, handlers: make(map[string][]func(json.RawMessage))}
	t.channels[channelKey] = ch
	t.mu.Unlock()

	if err := t.writeFrame(frame{Event: eventSubscribe, Channel: channelKey}); err != nil {
		t.mu.Lock()
		delete(t.channels, channelKey)
		t.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

// SubscribePresence opens the shared presence channel.
func (t *Transport) SubscribePresence(channelKey string) (realtime.PresenceChannel, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, errClosed
	}
	if _, ok := t.presence[channelKey]; ok {
		t.mu.Unlock()
		return nil, errors.New("presence channel already subscribed: " + channelKey)
	}
	ch := &presenceChannel{key: channelKey, transport: t}
	t.presence[channelKey] = ch
	t.mu.Unlock()

	if err := t.writeFrame(frame{Event: eventSubscribe, Channel: channelKey}); err != nil {
		t.mu.Lock()
		delete(t.presence, channelKey)
		t.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

// Close tears down the connection. Open channel handles become inert.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.channels = make(map[string]*channel)
	t.presence = make(map[string]*presenceChannel)
	t.mu.Unlock()

	return t.conn.Close()
}

func (t *Transport) writeFrame(f frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteJSON(f); err != nil {
		return err
	}
	observability.IncWSFrame("out")
	return nil
}

func (t *Transport) readLoop() {
	for {
		var f frame
		if err := t.conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.mu.RLock()
				closed := t.closed
				t.mu.RUnlock()
				if !closed {
					log.Printf("websocket read error conn_id=%s: %v", t.connID, err)
				}
			}
			return
		}
		observability.IncWSFrame("in")
		t.dispatch(f)
	}
}

func (t *Transport) dispatch(f frame) {
	t.mu.RLock()
	ch := t.channels[f.Channel]
	pch := t.presence[f.Channel]
	t.mu.RUnlock()

	if pch != nil {
		pch.dispatch(f)
		return
	}
	if ch != nil {
		ch.dispatch(f)
		return
	}
	// Frames for channels we already left are expected during teardown.
}

func (t *Transport) removeChannel(key string) {
	t.mu.Lock()
	delete(t.channels, key)
	delete(t.presence, key)
	t.mu.Unlock()
}

// maxPendingFrames bounds the per-channel buffer for frames that arrive
// between the subscribe frame and the first Bind for their event.
const maxPendingFrames = 32

type channel struct {
	key       string
	transport *Transport

	mu           sync.Mutex
	handlers     map[string][]func(json.RawMessage)
	pending      []frame
	unsubscribed bool
}

// Bind registers a handler and replays any frames for the event that arrived
// before the first handler existed, so the subscribe-to-Bind window loses
// nothing.
func (c *channel) Bind(event string, fn func(data json.RawMessage)) {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], fn)
	var replay []frame
	kept := c.pending[:0]
	for _, f := range c.pending {
		if f.Event == event {
			replay = append(replay, f)
		} else {
			kept = append(kept, f)
		}
	}
	c.pending = kept
	c.mu.Unlock()

	for _, f := range replay {
		fn(f.Data)
	}
}

func (c *channel) Unsubscribe() error {
	c.mu.Lock()
	if c.unsubscribed {
		c.mu.Unlock()
		return nil
	}
	c.unsubscribed = true
	c.mu.Unlock()

	c.transport.removeChannel(c.key)
	return c.transport.writeFrame(frame{Event: eventUnsubscribe, Channel: c.key})
}

func (c *channel) dispatch(f frame) {
	c.mu.Lock()
	fns := append(([]func(json.RawMessage))(nil), c.handlers[f.Event]...)
	if len(fns) == 0 && !c.unsubscribed {
		if len(c.pending) < maxPendingFrames {
			c.pending = append(c.pending, f)
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(f.Data)
	}
}

type presenceChannel struct {
	key       string
	transport *Transport

	mu           sync.Mutex
	here         []func([]models.User)
	joining      []func(models.User)
	leaving      []func(models.User)
	unsubscribed bool
}

func (c *presenceChannel) Here(fn func(members []models.User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.here = append(c.here, fn)
}

func (c *presenceChannel) Joining(fn func(member models.User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joining = append(c.joining, fn)
}

func (c *presenceChannel) Leaving(fn func(member models.User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaving = append(c.leaving, fn)
}

func (c *presenceChannel) Unsubscribe() error {
	c.mu.Lock()
	if c.unsubscribed {
		c.mu.Unlock()
		return nil
	}
	c.unsubscribed = true
	c.mu.Unlock()

	c.transport.removeChannel(c.key)
	return c.transport.writeFrame(frame{Event: eventUnsubscribe, Channel: c.key})
}

func (c *presenceChannel) dispatch(f frame) {
	switch f.Event {
	case eventHere:
		var members []models.User
		if err := json.Unmarshal(f.Data, &members); err != nil {
			log.Printf("malformed presence here payload: %v", err)
			return
		}
		c.mu.Lock()
		fns := append(([]func([]models.User))(nil), c.here...)
		c.mu.Unlock()
		for _, fn := range fns {
			fn(members)
		}
	case eventJoining, eventLeaving:
		var member models.User
		if err := json.Unmarshal(f.Data, &member); err != nil {
			log.Printf("malformed presence member payload: %v", err)
			return
		}
		c.mu.Lock()
		var fns []func(models.User)
		if f.Event == eventJoining {
			fns = append(fns, c.joining...)
		} else {
			fns = append(fns, c.leaving...)
		}
		c.mu.Unlock()
		for _, fn := range fns {
			fn(member)
		}
	}
}

var _ realtime.Transport = (*Transport)(nil)
