package interfaces

import (
	"context"

	"github.com/ternarybob/quire/internal/models"
)

// SessionBridge is the debounced persistence boundary the workspace commits
// through. ScheduleSave coalesces rapid successive writes and is
// best-effort; failures are logged, never surfaced to the interactive flow.
type SessionBridge interface {
	// ScheduleSave queues a snapshot write after the debounce window,
	// superseding any pending one.
	ScheduleSave(snap *models.SessionSnapshot)

	// Flush writes any pending snapshot immediately.
	Flush()

	// Load returns the stored snapshot, or ErrNoSession.
	Load(ctx context.Context) (*models.SessionSnapshot, error)

	// Clear removes the stored snapshot and cancels any pending save.
	Clear(ctx context.Context) error
}
