package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var activeStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
}

// Entry is a queue entry as persisted by a Store.
type Entry struct {
	JobRef    string
	Position  int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Active     int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ActiveStatuses returns the statuses whose entries hold a position.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusInProgress}
}

// ParseStatus converts a string into a known Status. Underscores are accepted
// in place of hyphens so "in_progress" parses as StatusInProgress.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" {
		return "", false
	}
	status := Status(normalized)
	_, ok := statusSet[status]
	return status, ok
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// IsActiveStatus reports whether entries in status take part in position uniqueness.
func IsActiveStatus(status Status) bool {
	_, ok := activeStatuses[status]
	return ok
}

// IsTerminalStatus reports whether no transition leaves status.
func IsTerminalStatus(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// IsActive returns true when the entry is pending or in progress.
func (e Entry) IsActive() bool {
	return IsActiveStatus(e.Status)
}

// SummarizeStats folds per-status counts into a HealthSummary.
func SummarizeStats(stats map[Status]int) HealthSummary {
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusInProgress:
			health.InProgress += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	health.Active = health.Pending + health.InProgress
	return health
}
