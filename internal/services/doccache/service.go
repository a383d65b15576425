// Package doccache bounds the number of concurrently held parsed document
// handles. Eviction is FIFO by insertion order, deliberately not LRU,
// matching the interactive access pattern where the oldest opened document
// is the least likely to be touched again.
package doccache

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quire/internal/interfaces"
)

type cacheEntry struct {
	handle  interfaces.DocumentHandle
	refs    int
	evicted bool
}

type parseCall struct {
	done chan struct{}
	err  error
}

// Service implements interfaces.DocumentCache
type Service struct {
	mu       sync.Mutex
	capacity int
	codec    interfaces.Codec
	logger   arbor.ILogger
	entries  map[string]*cacheEntry
	order    []string // insertion order, oldest first
	inflight map[string]*parseCall
}

// Compile-time assertion
var _ interfaces.DocumentCache = (*Service)(nil)

// NewService creates a new document cache bounded to capacity handles.
func NewService(codec interfaces.Codec, capacity int, logger arbor.ILogger) *Service {
	if capacity < 1 {
		capacity = 1
	}
	return &Service{
		capacity: capacity,
		codec:    codec,
		logger:   logger,
		entries:  make(map[string]*cacheEntry),
		inflight: make(map[string]*parseCall),
	}
}

// Acquire returns a parsed handle for the document, parsing raw on a miss.
// The returned release func must be called when the borrower is done; an
// evicted handle is only closed once its last borrower releases it.
// Concurrent acquires for the same uncached id share a single parse.
func (s *Service) Acquire(ctx context.Context, docID, name string, raw []byte) (interfaces.DocumentHandle, func(), error) {
	for {
		s.mu.Lock()

		if entry, ok := s.entries[docID]; ok && !entry.evicted {
			entry.refs++
			s.mu.Unlock()
			return entry.handle, s.releaseFunc(docID, entry), nil
		}

		if call, ok := s.inflight[docID]; ok {
			s.mu.Unlock()
			select {
			case <-call.done:
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
			if call.err != nil {
				return nil, nil, call.err
			}
			// Parse succeeded; loop to pick up the inserted entry. It may
			// already have been evicted again, in which case we re-parse.
			continue
		}

		call := &parseCall{done: make(chan struct{})}
		s.inflight[docID] = call
		s.mu.Unlock()

		handle, err := s.codec.Parse(docID, name, raw)

		s.mu.Lock()
		delete(s.inflight, docID)
		if err != nil {
			call.err = err
			close(call.done)
			s.mu.Unlock()
			return nil, nil, err
		}

		entry := &cacheEntry{handle: handle, refs: 1}
		s.entries[docID] = entry
		s.order = append(s.order, docID)
		s.evictOverCapacityLocked()
		close(call.done)
		s.mu.Unlock()

		s.logger.Debug().Str("doc_id", docID).Str("name", name).Msg("Parsed and cached document")
		return handle, s.releaseFunc(docID, entry), nil
	}
}

// Invalidate forcibly evicts a handle, e.g. after content replacement.
func (s *Service) Invalidate(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(docID)
}

// Clear evicts every handle. Used on full workspace reset.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, docID := range append([]string(nil), s.order...) {
		s.evictLocked(docID)
	}
}

func (s *Service) releaseFunc(docID string, entry *cacheEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			entry.refs--
			shouldClose := entry.evicted && entry.refs <= 0
			s.mu.Unlock()
			if shouldClose {
				if err := entry.handle.Close(); err != nil {
					s.logger.Warn().Err(err).Str("doc_id", docID).Msg("Failed to close released document handle")
				}
			}
		})
	}
}

func (s *Service) evictOverCapacityLocked() {
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.logger.Debug().Str("doc_id", oldest).Int("capacity", s.capacity).Msg("Evicting oldest cached document")
		s.evictLocked(oldest)
	}
}

// evictLocked removes an entry from the cache. The handle closes now if no
// borrower holds it, otherwise when the last borrower releases.
func (s *Service) evictLocked(docID string) {
	entry, ok := s.entries[docID]
	if !ok {
		return
	}
	delete(s.entries, docID)
	for i, id := range s.order {
		if id == docID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	entry.evicted = true
	if entry.refs <= 0 {
		if err := entry.handle.Close(); err != nil {
			s.logger.Warn().Err(err).Str("doc_id", docID).Msg("Failed to close evicted document handle")
		}
	}
}
