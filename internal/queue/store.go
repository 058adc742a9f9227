package queue

import (
	"context"
	"time"
)

// Store is the durable persistence contract for queue entries.
//
// Implementations must enforce, atomically and independent of callers:
// unique job references across all entries, unique positions among pending
// and in-progress entries, and compare-and-set status updates. They own
// CreatedAt and UpdatedAt.
type Store interface {
	// Insert persists a new entry. It fails with ErrDuplicateJob when the job
	// reference exists in any status and ErrPositionConflict when an active
	// entry already holds the position.
	Insert(ctx context.Context, entry Entry) (Entry, error)

	// GetByJob returns the entry for jobRef, or nil when none exists.
	GetByJob(ctx context.Context, jobRef string) (*Entry, error)

	// ListActive returns pending and in-progress entries ordered by position.
	ListActive(ctx context.Context) ([]Entry, error)

	// UpdateStatus sets the status of jobRef to next only if its persisted
	// status equals expected. It fails with ErrNotFound when the entry is
	// missing and ErrConflict when the status no longer matches.
	UpdateStatus(ctx context.Context, jobRef string, expected, next Status) (Entry, error)

	// List returns entries in any of statuses (all entries when none are
	// given), ordered by creation time.
	List(ctx context.Context, statuses ...Status) ([]Entry, error)

	// Stats returns entry counts keyed by status.
	Stats(ctx context.Context) (map[Status]int, error)

	// Purge removes completed and failed entries last updated before cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
