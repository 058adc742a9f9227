package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"printq/internal/queue"
)

// DatabaseHealth describes diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	ActiveIndex      bool
	IntegrityCheck   bool
	TotalEntries     int
	Error            string
}

var expectedColumns = []string{"job_ref", "position", "status", "created_at", "updated_at"}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[queue.Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM queue_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[queue.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[queue.Status(status)] = count
	}
	return stats, rows.Err()
}

// Purge deletes completed and failed entries last updated before cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queue_entries WHERE status IN (?, ?) AND updated_at < ?`,
		string(queue.StatusCompleted),
		string(queue.StatusFailed),
		formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("purge entries: %w", err)
	}
	return res.RowsAffected()
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil && !errors.Is(err, sql.ErrNoRows) {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'queue_entries'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		if err := s.inspectColumns(connCtx, &health); err != nil {
			health.Error = err.Error()
			return health, err
		}

		var indexCount int
		row = s.db.QueryRowContext(connCtx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name = 'idx_queue_entries_active_position'")
		if err := row.Scan(&indexCount); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query index info: %w", err)
		}
		health.ActiveIndex = indexCount > 0

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM queue_entries")
		if err := row.Scan(&health.TotalEntries); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count queue entries: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func (s *Store) inspectColumns(ctx context.Context, health *DatabaseHealth) error {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(queue_entries)")
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	present := make(map[string]struct{}, len(health.ColumnsPresent))
	for _, col := range health.ColumnsPresent {
		present[col] = struct{}{}
	}
	for _, col := range expectedColumns {
		if _, ok := present[col]; !ok {
			health.MissingColumns = append(health.MissingColumns, col)
		}
	}
	return nil
}
