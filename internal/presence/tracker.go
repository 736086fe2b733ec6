package presence

import (
	"sync"

	"chatsync/internal/models"
)

// Tracker owns the presence set: which peers are currently connected.
// It is fed from the shared presence channel and read-only to everything
// else.
type Tracker struct {
	mu     sync.RWMutex
	online map[int]struct{}
}

// NewTracker starts with an empty presence set.
func NewTracker() *Tracker {
	return &Tracker{online: make(map[int]struct{})}
}

// Here replaces the entire presence set with the channel's member list.
func (t *Tracker) Here(members []models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = make(map[int]struct{}, len(members))
	for _, m := range members {
		t.online[m.ID] = struct{}{}
	}
}

// Joining adds one member; adding an already-present member is a no-op.
func (t *Tracker) Joining(member models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[member.ID] = struct{}{}
}

// Leaving removes one member; removing an absent member is a no-op.
func (t *Tracker) Leaving(member models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, member.ID)
}

// IsOnline is total: an unknown user id is simply offline.
func (t *Tracker) IsOnline(userID int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// Count returns the size of the presence set.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}
