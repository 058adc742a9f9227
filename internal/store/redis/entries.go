package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"printq/internal/queue"
)

// timestampLayout is fixed width so the Lua purge script can compare
// timestamps as strings.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func activeFlag(status queue.Status) string {
	if queue.IsActiveStatus(status) {
		return "1"
	}
	return "0"
}

// Insert stores a new entry atomically with its uniqueness checks.
func (s *Store) Insert(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	reply, err := insertScript.Run(ctx, s.client,
		[]string{s.keys.entry(entry.JobRef), s.keys.jobs(), s.keys.active(), s.keys.positions()},
		entry.JobRef, entry.Position, string(entry.Status), formatTime(now), activeFlag(entry.Status),
	).Text()
	if err != nil {
		return queue.Entry{}, fmt.Errorf("redis: insert entry: %w", err)
	}
	switch reply {
	case replyOK:
		return entry, nil
	case replyDuplicate:
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrDuplicateJob, entry.JobRef)
	case replyPosition:
		return queue.Entry{}, fmt.Errorf("%w: position %d", queue.ErrPositionConflict, entry.Position)
	default:
		return queue.Entry{}, fmt.Errorf("redis: insert entry: unexpected reply %q", reply)
	}
}

// GetByJob fetches an entry by job reference, returning nil when absent.
func (s *Store) GetByJob(ctx context.Context, jobRef string) (*queue.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.keys.entry(jobRef)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	entry, err := entryFromMap(fields)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListActive returns pending and in-progress entries ordered by position.
func (s *Store) ListActive(ctx context.Context) ([]queue.Entry, error) {
	refs, err := s.client.ZRange(ctx, s.keys.active(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list active: %w", err)
	}
	entries, err := s.loadEntries(ctx, refs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

// List returns entries in any of statuses, or all entries, ordered by
// creation time.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	refs, err := s.client.SMembers(ctx, s.keys.jobs()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list entries: %w", err)
	}
	entries, err := s.loadEntries(ctx, refs)
	if err != nil {
		return nil, err
	}
	if len(statuses) > 0 {
		filtered := entries[:0]
		for _, entry := range entries {
			for _, status := range statuses {
				if entry.Status == status {
					filtered = append(filtered, entry)
					break
				}
			}
		}
		entries = filtered
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Position < entries[j].Position
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// UpdateStatus sets next only while the stored status equals expected.
func (s *Store) UpdateStatus(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	reply, err := updateScript.Run(ctx, s.client,
		[]string{s.keys.entry(jobRef), s.keys.active(), s.keys.positions()},
		jobRef, string(expected), string(next), formatTime(time.Now()), activeFlag(next),
	).Result()
	if err != nil {
		return queue.Entry{}, fmt.Errorf("redis: update status: %w", err)
	}

	switch v := reply.(type) {
	case string:
		switch v {
		case replyNotFound:
			return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrNotFound, jobRef)
		case replyPosition:
			return queue.Entry{}, fmt.Errorf("%w: %s cannot rejoin the active set", queue.ErrPositionConflict, jobRef)
		}
		if current, ok := strings.CutPrefix(v, "CONFLICT:"); ok {
			return queue.Entry{}, fmt.Errorf("%w: %s is %s, expected %s", queue.ErrConflict, jobRef, current, expected)
		}
		return queue.Entry{}, fmt.Errorf("redis: update status: unexpected reply %q", v)
	case []any:
		fields := make(map[string]string, len(v)/2)
		for i := 0; i+1 < len(v); i += 2 {
			key, _ := v[i].(string)
			value, _ := v[i+1].(string)
			fields[key] = value
		}
		return entryFromMap(fields)
	default:
		return queue.Entry{}, fmt.Errorf("redis: update status: unexpected reply type %T", reply)
	}
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[queue.Status]int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[queue.Status]int)
	for _, entry := range entries {
		stats[entry.Status]++
	}
	return stats, nil
}

// Purge deletes completed and failed entries last updated before cutoff.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	refs, err := s.client.SMembers(ctx, s.keys.jobs()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: purge entries: %w", err)
	}
	cutoff := formatTime(before)
	var removed int64
	for _, ref := range refs {
		n, err := purgeScript.Run(ctx, s.client, []string{s.keys.entry(ref), s.keys.jobs()}, ref, cutoff).Int64()
		if err != nil {
			return removed, fmt.Errorf("redis: purge %s: %w", ref, err)
		}
		removed += n
	}
	return removed, nil
}

func (s *Store) loadEntries(ctx context.Context, refs []string) ([]queue.Entry, error) {
	if len(refs) == 0 {
		return []queue.Entry{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*goredis.MapStringStringCmd, len(refs))
	for i, ref := range refs {
		cmds[i] = pipe.HGetAll(ctx, s.keys.entry(ref))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("redis: load entries: %w", err)
	}

	entries := make([]queue.Entry, 0, len(refs))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("redis: load entry: %w", err)
		}
		// Purged between the index read and the load.
		if len(fields) == 0 {
			continue
		}
		entry, err := entryFromMap(fields)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entryFromMap(fields map[string]string) (queue.Entry, error) {
	position, err := strconv.ParseInt(fields["position"], 10, 64)
	if err != nil {
		return queue.Entry{}, fmt.Errorf("redis: parse position %q: %w", fields["position"], err)
	}
	created, err := time.Parse(timestampLayout, fields["created_at"])
	if err != nil {
		return queue.Entry{}, fmt.Errorf("redis: parse created_at: %w", err)
	}
	updated, err := time.Parse(timestampLayout, fields["updated_at"])
	if err != nil {
		return queue.Entry{}, fmt.Errorf("redis: parse updated_at: %w", err)
	}
	return queue.Entry{
		JobRef:    fields["job_ref"],
		Position:  position,
		Status:    queue.Status(fields["status"]),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}
