package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatsync/internal/models"
)

func TestPresenceChurn(t *testing.T) {
	tr := NewTracker()

	tr.Here([]models.User{{ID: 1}, {ID: 2}})
	tr.Leaving(models.User{ID: 1})
	tr.Joining(models.User{ID: 3})

	assert.False(t, tr.IsOnline(1))
	assert.True(t, tr.IsOnline(2))
	assert.True(t, tr.IsOnline(3))
	assert.Equal(t, 2, tr.Count())
}

func TestHereReplacesSet(t *testing.T) {
	tr := NewTracker()

	tr.Here([]models.User{{ID: 1}, {ID: 2}})
	tr.Here([]models.User{{ID: 5}})

	assert.False(t, tr.IsOnline(1))
	assert.True(t, tr.IsOnline(5))
	assert.Equal(t, 1, tr.Count())
}

func TestJoiningAndLeavingAreIdempotent(t *testing.T) {
	tr := NewTracker()

	tr.Joining(models.User{ID: 4})
	tr.Joining(models.User{ID: 4})
	assert.Equal(t, 1, tr.Count())

	tr.Leaving(models.User{ID: 4})
	tr.Leaving(models.User{ID: 4})
	assert.Equal(t, 0, tr.Count())
}

func TestIsOnlineIsTotal(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.IsOnline(999))
}
