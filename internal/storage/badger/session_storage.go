package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// sessionKey is the single record the workspace session lives under; there is
// only ever one active session per database.
const sessionKey = "current"

// SessionStorage implements the SessionStorage interface for Badger
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.SessionStorage = (*SessionStorage)(nil)

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) *SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SessionStorage) Save(ctx context.Context, snap *models.SessionSnapshot) error {
	if snap == nil {
		return fmt.Errorf("session snapshot is required")
	}
	snap.ID = sessionKey

	if err := s.db.Store().Upsert(snap.ID, snap); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	s.logger.Debug().
		Int("documents", len(snap.Documents)).
		Int("pages", len(snap.Pages)).
		Msg("Session snapshot saved")
	return nil
}

func (s *SessionStorage) Load(ctx context.Context) (*models.SessionSnapshot, error) {
	var snap models.SessionSnapshot
	if err := s.db.Store().Get(sessionKey, &snap); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SessionStorage) Clear(ctx context.Context) error {
	if err := s.db.Store().Delete(sessionKey, &models.SessionSnapshot{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to clear session snapshot: %w", err)
	}
	return nil
}
