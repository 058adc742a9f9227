package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"printq/internal/logging"
)

// Observer receives notifications about queue mutations. Implementations must
// not block.
type Observer interface {
	EntryEnqueued(entry Entry)
	EntryTransitioned(from Status, entry Entry)
	OperationFailed(op string, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for mutation records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an Observer for mutations and failures.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

// Service drives queue entries through validation and persistence. Each
// method is a single round trip to the Store; the Service holds no state
// between calls and never retries.
type Service struct {
	store    Store
	logger   *slog.Logger
	observer Observer
}

// NewService constructs a Service around store.
func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = logging.NewComponentLogger(svc.logger, "queue")
	return svc
}

// Store returns the backing store.
func (s *Service) Store() Store {
	return s.store
}

// Enqueue appends a pending entry for jobRef after the last active entry.
//
// Position uniqueness is checked locally first and then enforced by the
// store; a concurrent enqueue that wins the same position surfaces as
// ErrPositionConflict.
func (s *Service) Enqueue(ctx context.Context, jobRef string) (Entry, error) {
	jobRef = strings.TrimSpace(jobRef)
	if jobRef == "" {
		return Entry{}, s.fail(ctx, "enqueue", fmt.Errorf("%w: job reference is required", ErrInvalidArgument))
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return Entry{}, s.fail(ctx, "enqueue", fmt.Errorf("list active entries: %w", err))
	}
	position := NextPosition(active)
	entry, err := NewEntry(jobRef, position)
	if err != nil {
		return Entry{}, s.fail(ctx, "enqueue", err)
	}
	if err := AssertUniquePosition(entry.Position, active); err != nil {
		return Entry{}, s.fail(ctx, "enqueue", err)
	}

	stored, err := s.store.Insert(ctx, entry)
	if err != nil {
		return Entry{}, s.fail(ctx, "enqueue", fmt.Errorf("insert %s: %w", jobRef, err))
	}

	logging.WithContext(ctx, s.logger).Info("entry enqueued",
		logging.String(logging.FieldJobRef, stored.JobRef),
		logging.Int64(logging.FieldPosition, stored.Position),
	)
	if s.observer != nil {
		s.observer.EntryEnqueued(stored)
	}
	return stored, nil
}

// Transition moves jobRef to next. The current status read from the store is
// used as the expected value of the compare-and-set, so a concurrent change
// between the read and the write fails with ErrConflict.
func (s *Service) Transition(ctx context.Context, jobRef string, next Status) (Entry, error) {
	jobRef = strings.TrimSpace(jobRef)
	if jobRef == "" {
		return Entry{}, s.fail(ctx, "transition", fmt.Errorf("%w: job reference is required", ErrInvalidArgument))
	}

	current, err := s.store.GetByJob(ctx, jobRef)
	if err != nil {
		return Entry{}, s.fail(ctx, "transition", fmt.Errorf("load %s: %w", jobRef, err))
	}
	if current == nil {
		return Entry{}, s.fail(ctx, "transition", fmt.Errorf("%w: %s", ErrNotFound, jobRef))
	}
	return s.compareAndSet(ctx, *current, next)
}

// TransitionFrom moves jobRef from expected to next without reading the
// current entry first. The transition is validated against expected and the
// store rejects it with ErrConflict if the persisted status differs.
func (s *Service) TransitionFrom(ctx context.Context, jobRef string, expected, next Status) (Entry, error) {
	jobRef = strings.TrimSpace(jobRef)
	if jobRef == "" {
		return Entry{}, s.fail(ctx, "transition", fmt.Errorf("%w: job reference is required", ErrInvalidArgument))
	}
	return s.compareAndSet(ctx, Entry{JobRef: jobRef, Status: expected}, next)
}

func (s *Service) compareAndSet(ctx context.Context, current Entry, next Status) (Entry, error) {
	if _, err := current.WithStatus(next); err != nil {
		return Entry{}, s.fail(ctx, "transition", err)
	}

	updated, err := s.store.UpdateStatus(ctx, current.JobRef, current.Status, next)
	if err != nil {
		return Entry{}, s.fail(ctx, "transition", fmt.Errorf("update %s: %w", current.JobRef, err))
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("entry transitioned",
		logging.String(logging.FieldJobRef, updated.JobRef),
		logging.String("from", string(current.Status)),
		logging.String(logging.FieldStatus, string(updated.Status)),
	)
	if position, released := ReleasePosition(updated); released {
		logger.Debug("position released",
			logging.String(logging.FieldJobRef, updated.JobRef),
			logging.Int64(logging.FieldPosition, position),
		)
	}
	if s.observer != nil {
		s.observer.EntryTransitioned(current.Status, updated)
	}
	return updated, nil
}

// Start moves a pending entry to in-progress.
func (s *Service) Start(ctx context.Context, jobRef string) (Entry, error) {
	return s.Transition(ctx, jobRef, StatusInProgress)
}

// Complete moves an in-progress entry to completed.
func (s *Service) Complete(ctx context.Context, jobRef string) (Entry, error) {
	return s.Transition(ctx, jobRef, StatusCompleted)
}

// Fail moves an in-progress entry to failed.
func (s *Service) Fail(ctx context.Context, jobRef string) (Entry, error) {
	return s.Transition(ctx, jobRef, StatusFailed)
}

// Get returns the entry for jobRef or ErrNotFound.
func (s *Service) Get(ctx context.Context, jobRef string) (Entry, error) {
	entry, err := s.store.GetByJob(ctx, strings.TrimSpace(jobRef))
	if err != nil {
		return Entry{}, fmt.Errorf("load %s: %w", jobRef, err)
	}
	if entry == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, jobRef)
	}
	return *entry, nil
}

// Active returns pending and in-progress entries in position order.
func (s *Service) Active(ctx context.Context) ([]Entry, error) {
	return s.store.ListActive(ctx)
}

// List returns entries filtered by status.
func (s *Service) List(ctx context.Context, statuses ...Status) ([]Entry, error) {
	for _, status := range statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
		}
	}
	return s.store.List(ctx, statuses...)
}

// Stats returns entry counts keyed by status.
func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	return s.store.Stats(ctx)
}

// Health aggregates queue counts.
func (s *Service) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	return SummarizeStats(stats), nil
}

// Purge removes terminal entries last updated before cutoff. Purged job
// references may be enqueued again.
func (s *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, fmt.Errorf("%w: purge cutoff is required", ErrInvalidArgument)
	}
	removed, err := s.store.Purge(ctx, before)
	if err != nil {
		return 0, s.fail(ctx, "purge", fmt.Errorf("purge: %w", err))
	}
	if removed > 0 {
		logging.WithContext(ctx, s.logger).Info("terminal entries purged",
			logging.Int64("removed", removed),
			logging.String("before", before.UTC().Format(time.RFC3339)),
		)
	}
	return removed, nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	logger := logging.WithContext(ctx, s.logger)
	kind := KindOf(err)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("queue operation canceled", logging.String("op", op), logging.Error(err))
	case kind == KindInternal:
		logger.Error("queue operation failed", logging.String("op", op), logging.Error(err))
	default:
		logger.Debug("queue operation rejected",
			logging.String("op", op),
			logging.String("kind", string(kind)),
			logging.Error(err),
		)
	}
	if s.observer != nil {
		s.observer.OperationFailed(op, err)
	}
	return err
}
