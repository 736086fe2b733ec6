package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a random identifier for one websocket connection.
func newConnID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "conn-unknown"
	}
	return hex.EncodeToString(buf)
}
