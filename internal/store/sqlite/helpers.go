package sqlite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "modernc.org/sqlite/lib"

	"printq/internal/queue"
)

const entryColumns = "job_ref, position, status, created_at, updated_at"

// timestampLayout is fixed width so stored timestamps compare correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (queue.Entry, error) {
	var (
		entry      queue.Entry
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&entry.JobRef, &entry.Position, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return queue.Entry{}, err
	}
	entry.Status = queue.Status(statusStr)
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func activeStatusArgs() []any {
	statuses := queue.ActiveStatuses()
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	return args
}

// translateConstraint maps SQLite uniqueness violations on queue_entries to
// queue sentinels. Other errors are returned unchanged.
func translateConstraint(err error, entry queue.Entry) error {
	if err == nil {
		return nil
	}
	var coder interface{ Code() int }
	codeMatched := errors.As(err, &coder) &&
		(coder.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || coder.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE)
	msg := err.Error()
	if !codeMatched && !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "queue_entries.job_ref"):
		return fmt.Errorf("%w: %s", queue.ErrDuplicateJob, entry.JobRef)
	case strings.Contains(msg, "queue_entries.position"):
		return fmt.Errorf("%w: position %d", queue.ErrPositionConflict, entry.Position)
	default:
		return err
	}
}
