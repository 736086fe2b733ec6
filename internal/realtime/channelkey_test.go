package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectChannelKeyOrdersParticipants(t *testing.T) {
	assert.Equal(t, "message.user.3-7", DirectChannelKey(7, 3))
	assert.Equal(t, "message.user.3-7", DirectChannelKey(3, 7))
}

func TestGroupChannelKeys(t *testing.T) {
	assert.Equal(t, "message.group.42", GroupChannelKey(42))
	assert.Equal(t, "group.deleted.42", GroupDeletedChannelKey(42))
	assert.Equal(t, "online", PresenceChannelKey)
}
