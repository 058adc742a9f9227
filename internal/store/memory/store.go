// Package memory provides an in-process queue.Store. It enforces the same
// uniqueness and compare-and-set rules as the durable backends and is used by
// tests and the "memory" store backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"printq/internal/queue"
)

var _ queue.Store = (*Store)(nil)

// Store keeps entries in maps guarded by a single RWMutex. Entries are copied
// in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	entries map[string]*queue.Entry
	// active maps a held position to the job reference holding it.
	active map[int64]string

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*queue.Entry),
		active:  make(map[int64]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// Ping always succeeds for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Insert persists a new entry.
func (s *Store) Insert(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return queue.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.JobRef]; exists {
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrDuplicateJob, entry.JobRef)
	}
	if entry.IsActive() {
		if holder, held := s.active[entry.Position]; held {
			return queue.Entry{}, fmt.Errorf("%w: position %d held by %s", queue.ErrPositionConflict, entry.Position, holder)
		}
	}

	now := s.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	cp := entry
	s.entries[entry.JobRef] = &cp
	if entry.IsActive() {
		s.active[entry.Position] = entry.JobRef
	}
	return entry, nil
}

// GetByJob returns a copy of the entry for jobRef, or nil when absent.
func (s *Store) GetByJob(ctx context.Context, jobRef string) (*queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[jobRef]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

// ListActive returns pending and in-progress entries ordered by position.
func (s *Store) ListActive(ctx context.Context) ([]queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]queue.Entry, 0, len(s.active))
	for _, jobRef := range s.active {
		result = append(result, *s.entries[jobRef])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// UpdateStatus applies next only when the stored status equals expected.
func (s *Store) UpdateStatus(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return queue.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[jobRef]
	if !ok {
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrNotFound, jobRef)
	}
	if entry.Status != expected {
		return queue.Entry{}, fmt.Errorf("%w: %s is %s, expected %s", queue.ErrConflict, jobRef, entry.Status, expected)
	}

	wasActive := entry.IsActive()
	nowActive := queue.IsActiveStatus(next)
	if !wasActive && nowActive {
		if holder, held := s.active[entry.Position]; held && holder != jobRef {
			return queue.Entry{}, fmt.Errorf("%w: position %d held by %s", queue.ErrPositionConflict, entry.Position, holder)
		}
	}

	entry.Status = next
	entry.UpdatedAt = s.now()
	switch {
	case wasActive && !nowActive:
		delete(s.active, entry.Position)
	case !wasActive && nowActive:
		s.active[entry.Position] = jobRef
	}
	return *entry, nil
}

// List returns entries in any of statuses ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter := make(map[queue.Status]struct{}, len(statuses))
	for _, status := range statuses {
		filter[status] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]queue.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if len(filter) > 0 {
			if _, ok := filter[entry.Status]; !ok {
				continue
			}
		}
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// Stats returns entry counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[queue.Status]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[queue.Status]int)
	for _, entry := range s.entries {
		stats[entry.Status]++
	}
	return stats, nil
}

// Purge removes completed and failed entries last updated before cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for jobRef, entry := range s.entries {
		if !queue.IsTerminalStatus(entry.Status) || !entry.UpdatedAt.Before(before) {
			continue
		}
		delete(s.entries, jobRef)
		removed++
	}
	return removed, nil
}
