package api

import "fmt"

// Error is the server's error payload. Server-call failures surface as a
// user-visible message; local state is never mutated on failure.
type Error struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}
