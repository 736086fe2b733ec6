package bus

import (
	"log"
	"sync"

	"chatsync/internal/observability"
)

// Handler consumes one published event payload.
type Handler func(payload any)

type subscriber struct {
	id int
	fn Handler
}

// Bus delivers named events to registered subscribers. One Bus exists per
// session; it is constructed at session start and closed at session end.
// Dispatch is synchronous and ordered: within one Publish call, handlers run
// to completion in registration order.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string][]subscriber
	closed   bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]subscriber)}
}

// Subscribe registers fn for the named event and returns a function that
// removes exactly this registration. Calling the returned function more than
// once is a no-op.
func (b *Bus) Subscribe(event string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[event]
		for i, s := range subs {
			if s.id == id {
				b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
				if len(b.handlers[event]) == 0 {
					delete(b.handlers, event)
				}
				return
			}
		}
	}
}

// Publish invokes every handler currently registered for the event, in
// registration order. Handlers registered or removed during dispatch do not
// affect the current pass: dispatch iterates over a snapshot. A handler that
// panics is logged and skipped; remaining handlers still run and the
// publisher never sees the failure. Publishing an event with no subscribers
// is a silent no-op.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := b.handlers[event]
	snapshot := make([]subscriber, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	observability.IncBusEvent(event)
	for _, s := range snapshot {
		dispatch(event, s.fn, payload)
	}
}

func dispatch(event string, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus handler panic event=%s: %v", event, r)
			observability.IncBusHandlerPanic()
		}
	}()
	fn(payload)
}

// Close clears every subscription. Subsequent Publish and Subscribe calls
// are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]subscriber)
	b.closed = true
}
