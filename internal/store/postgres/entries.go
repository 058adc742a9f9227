package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"printq/internal/queue"
)

// Insert persists a new entry with server-side timestamps.
func (s *Store) Insert(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO queue_entries (job_ref, position, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+entryColumns,
		entry.JobRef, entry.Position, string(entry.Status),
	)
	stored, err := scanEntry(row)
	if err != nil {
		if translated := translateUnique(err, entry); translated != err {
			return queue.Entry{}, translated
		}
		return queue.Entry{}, fmt.Errorf("postgres: insert entry: %w", err)
	}
	return stored, nil
}

// GetByJob fetches an entry by job reference, returning nil when absent.
func (s *Store) GetByJob(ctx context.Context, jobRef string) (*queue.Entry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE job_ref = $1`, jobRef)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get entry: %w", err)
	}
	return &entry, nil
}

// ListActive returns pending and in-progress entries ordered by position.
func (s *Store) ListActive(ctx context.Context) ([]queue.Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE status = ANY($1) ORDER BY position`,
		statusStrings(queue.ActiveStatuses()),
	)
}

// List returns entries in any of statuses, or all entries, ordered by
// creation time.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	if len(statuses) == 0 {
		return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM queue_entries ORDER BY created_at, position`)
	}
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE status = ANY($1) ORDER BY created_at, position`,
		statusStrings(statuses),
	)
}

// UpdateStatus sets next only while the row's status still equals expected.
func (s *Store) UpdateStatus(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE queue_entries SET status = $1, updated_at = NOW()
		 WHERE job_ref = $2 AND status = $3
		 RETURNING `+entryColumns,
		string(next), jobRef, string(expected),
	)
	entry, err := scanEntry(row)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if errors.Is(translateUnique(err, queue.Entry{JobRef: jobRef}), queue.ErrPositionConflict) {
			return queue.Entry{}, fmt.Errorf("%w: %s cannot rejoin the active set", queue.ErrPositionConflict, jobRef)
		}
		return queue.Entry{}, fmt.Errorf("postgres: update status: %w", err)
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

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[queue.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(1) FROM queue_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[queue.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[queue.Status(status)] = count
	}
	return stats, rows.Err()
}

// Purge deletes completed and failed entries last updated before cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM queue_entries WHERE status = ANY($1) AND updated_at < $2`,
		[]string{string(queue.StatusCompleted), string(queue.StatusFailed)},
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]queue.Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]queue.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
