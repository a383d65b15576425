package interfaces

import (
	"context"

	"github.com/ternarybob/quire/internal/models"
)

// SessionStorage persists workspace snapshots. Failures are non-fatal to the
// interactive session: callers log and continue with in-memory state.
type SessionStorage interface {
	// Save writes the snapshot, replacing any prior one.
	Save(ctx context.Context, snap *models.SessionSnapshot) error

	// Load returns the stored snapshot, or ErrNoSession if none exists.
	Load(ctx context.Context) (*models.SessionSnapshot, error)

	// Clear removes any stored snapshot.
	Clear(ctx context.Context) error
}
