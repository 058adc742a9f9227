package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"printq/internal/queue"
)

// Insert persists a new entry. Job reference and active position uniqueness
// are enforced by the primary key and the partial unique index.
func (s *Store) Insert(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	timestamp := formatTime(now)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_entries (job_ref, position, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		entry.JobRef,
		entry.Position,
		string(entry.Status),
		timestamp,
		timestamp,
	)
	if err != nil {
		if translated := translateConstraint(err, entry); translated != err {
			return queue.Entry{}, translated
		}
		return queue.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

// GetByJob fetches an entry by job reference, returning nil when absent.
func (s *Store) GetByJob(ctx context.Context, jobRef string) (*queue.Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM queue_entries WHERE job_ref = ?`, jobRef)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &entry, nil
}

// ListActive returns pending and in-progress entries ordered by position.
func (s *Store) ListActive(ctx context.Context) ([]queue.Entry, error) {
	args := activeStatusArgs()
	query := `SELECT ` + entryColumns + ` FROM queue_entries
        WHERE status IN (` + makePlaceholders(len(args)) + `)
        ORDER BY position`
	return s.queryEntries(ctx, query, args...)
}

// List returns entries filtered by status set (or all entries when no status is
// provided) ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	if len(statuses) == 0 {
		return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM queue_entries ORDER BY created_at, position`)
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	query := `SELECT ` + entryColumns + ` FROM queue_entries
        WHERE status IN (` + makePlaceholders(len(statuses)) + `)
        ORDER BY created_at, position`
	return s.queryEntries(ctx, query, args...)
}

// UpdateStatus is a compare-and-set: the row changes only while its status
// still equals expected.
func (s *Store) UpdateStatus(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	ctx = ensureContext(ctx)
	var (
		entry   queue.Entry
		scanErr error
	)
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE queue_entries SET status = ?, updated_at = ?
             WHERE job_ref = ? AND status = ?
             RETURNING `+entryColumns,
			string(next),
			formatTime(time.Now()),
			jobRef,
			string(expected),
		)
		entry, scanErr = scanEntry(row)
		return scanErr
	})
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if errors.Is(translateConstraint(err, queue.Entry{JobRef: jobRef}), queue.ErrPositionConflict) {
			return queue.Entry{}, fmt.Errorf("%w: %s cannot rejoin the active set", queue.ErrPositionConflict, jobRef)
		}
		return queue.Entry{}, fmt.Errorf("update status: %w", err)
	}

	current, getErr := s.GetByJob(ctx, jobRef)
	if getErr != nil {
		return queue.Entry{}, getErr
	}
	if current == nil {
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrNotFound, jobRef)
	}
	return queue.Entry{}, fmt.Errorf("%w: %s is %s, expected %s", queue.ErrConflict, jobRef, current.Status, expected)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]queue.Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]queue.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
