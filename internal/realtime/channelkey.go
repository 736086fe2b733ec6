package realtime

import "fmt"

// PresenceChannelKey is the single global presence channel.
const PresenceChannelKey = "online"

// DirectChannelKey returns the message channel for a direct conversation.
// The server derives the same key from the sorted participant pair, so the
// format must match bit for bit.
func DirectChannelKey(userA, userB int) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("message.user.%d-%d", userA, userB)
}

// GroupChannelKey returns the message channel for a group conversation.
func GroupChannelKey(groupID int) string {
	return fmt.Sprintf("message.group.%d", groupID)
}

// GroupDeletedChannelKey returns the per-group deletion channel, subscribed
// only while the viewer is a member.
func GroupDeletedChannelKey(groupID int) string {
	return fmt.Sprintf("group.deleted.%d", groupID)
}
