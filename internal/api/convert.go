package api

import (
	"fmt"
	"time"

	"printq/internal/queue"
)

// FromEntry converts a queue entry to its API representation.
func FromEntry(entry queue.Entry) Entry {
	dto := Entry{
		JobRef:   entry.JobRef,
		Position: entry.Position,
		Status:   string(entry.Status),
		Active:   entry.IsActive(),
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromEntries converts a slice of queue entries, never returning nil.
func FromEntries(entries []queue.Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// ToEntry converts an API entry back into a queue entry.
func ToEntry(dto Entry) (queue.Entry, error) {
	status, ok := queue.ParseStatus(dto.Status)
	if !ok {
		return queue.Entry{}, fmt.Errorf("%w: unknown status %q", queue.ErrInvalidArgument, dto.Status)
	}
	entry := queue.Entry{
		JobRef:   dto.JobRef,
		Position: dto.Position,
		Status:   status,
	}
	entry.CreatedAt = ParseTime(dto.CreatedAt)
	entry.UpdatedAt = ParseTime(dto.UpdatedAt)
	return entry, nil
}

// ToEntries converts a slice of API entries back into queue entries.
func ToEntries(dtos []Entry) ([]queue.Entry, error) {
	out := make([]queue.Entry, 0, len(dtos))
	for _, dto := range dtos {
		entry, err := ToEntry(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// ParseTime parses an API timestamp, returning the zero time when empty or malformed.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// MergeStats returns counts for every known status, including zeros.
func MergeStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		merged[string(status)] = stats[status]
	}
	for status, count := range stats {
		if _, ok := merged[string(status)]; !ok {
			merged[string(status)] = count
		}
	}
	return merged
}

// FromStats builds a StatsResponse from raw per-status counts.
func FromStats(stats map[queue.Status]int) StatsResponse {
	summary := queue.SummarizeStats(stats)
	return StatsResponse{
		Counts:     MergeStats(stats),
		Total:      summary.Total,
		Active:     summary.Active,
		Pending:    summary.Pending,
		InProgress: summary.InProgress,
		Completed:  summary.Completed,
		Failed:     summary.Failed,
	}
}

// ToStats converts a StatsResponse back into per-status counts.
func ToStats(resp StatsResponse) map[queue.Status]int {
	stats := make(map[queue.Status]int, len(resp.Counts))
	for key, count := range resp.Counts {
		if status, ok := queue.ParseStatus(key); ok {
			stats[status] = count
		}
	}
	return stats
}
