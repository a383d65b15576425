package handlers

import (
	"errors"

	"github.com/ternarybob/quire/internal/interfaces"
)

// eventPublisher is the narrow broadcast surface handlers need; the
// WebSocket hub satisfies it.
type eventPublisher interface {
	Publish(event string, payload interface{})
}

func isPasswordError(err error) bool {
	var pwErr *interfaces.PasswordProtectedError
	return errors.As(err, &pwErr)
}
