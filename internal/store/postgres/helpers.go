package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"printq/internal/queue"
)

const (
	entryColumns = `job_ref, position, status, created_at, updated_at`

	uniqueViolation      = "23505"
	primaryKeyConstraint = "queue_entries_pkey"
	activePositionIndex  = "queue_entries_active_position_idx"
)

func scanEntry(row pgx.Row) (queue.Entry, error) {
	var (
		entry  queue.Entry
		status string
	)
	if err := row.Scan(&entry.JobRef, &entry.Position, &status, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return queue.Entry{}, err
	}
	entry.Status = queue.Status(status)
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()
	return entry, nil
}

func statusStrings(statuses []queue.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

// translateUnique maps unique violations onto queue sentinels by constraint
// name. Other errors are returned unchanged.
func translateUnique(err error, entry queue.Entry) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case primaryKeyConstraint:
		return fmt.Errorf("%w: %s", queue.ErrDuplicateJob, entry.JobRef)
	case activePositionIndex:
		return fmt.Errorf("%w: position %d", queue.ErrPositionConflict, entry.Position)
	default:
		return err
	}
}
