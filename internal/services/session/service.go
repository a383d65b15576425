// Package session debounces workspace snapshot writes so rapid successive
// edits collapse into a single storage operation.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
	"github.com/ternarybob/quire/internal/models"
)

// Service implements interfaces.SessionBridge on top of a SessionStorage.
type Service struct {
	mu       sync.Mutex
	pending  *models.SessionSnapshot
	timer    *time.Timer
	debounce time.Duration
	storage  interfaces.SessionStorage
	logger   arbor.ILogger
}

var _ interfaces.SessionBridge = (*Service)(nil)

// NewService creates a new session bridge. debounceMs below 1 disables
// coalescing and writes immediately.
func NewService(storage interfaces.SessionStorage, debounceMs int, logger arbor.ILogger) *Service {
	return &Service{
		debounce: time.Duration(debounceMs) * time.Millisecond,
		storage:  storage,
		logger:   logger,
	}
}

// ScheduleSave queues the snapshot for writing after the debounce window.
// A newer snapshot supersedes a pending one and restarts the window.
func (s *Service) ScheduleSave(snap *models.SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = snap
	if s.debounce <= 0 {
		s.flushLocked()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.Flush)
}

// Flush writes any pending snapshot immediately.
func (s *Service) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Service) flushLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.pending == nil {
		return
	}
	snap := s.pending
	s.pending = nil

	// Best-effort: a failed save must not disturb the live workspace.
	if err := s.storage.Save(context.Background(), snap); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session snapshot")
	}
}

// Load returns the stored snapshot, or ErrNoSession.
func (s *Service) Load(ctx context.Context) (*models.SessionSnapshot, error) {
	return s.storage.Load(ctx)
}

// Clear cancels any pending save and removes the stored snapshot.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()

	return s.storage.Clear(ctx)
}
