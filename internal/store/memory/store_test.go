package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"printq/internal/queue"
)

func mustInsert(t *testing.T, s *Store, jobRef string, position int64) queue.Entry {
	t.Helper()
	entry, err := queue.NewEntry(jobRef, position)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	stored, err := s.Insert(context.Background(), entry)
	if err != nil {
		t.Fatalf("Insert %s: %v", jobRef, err)
	}
	return stored
}

func TestInsertStampsTimestamps(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return fixed }))

	stored := mustInsert(t, s, "J1", 1)
	if !stored.CreatedAt.Equal(fixed) || !stored.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected timestamps %v, got %+v", fixed, stored)
	}
}

func TestInsertRejectsDuplicateJob(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)

	entry, _ := queue.NewEntry("J1", 2)
	if _, err := s.Insert(ctx, entry); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}

	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := s.Insert(ctx, entry); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob for terminal entry, got %v", err)
	}
}

func TestInsertRejectsActivePositionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)

	entry, _ := queue.NewEntry("J2", 1)
	if _, err := s.Insert(ctx, entry); !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected ErrPositionConflict, got %v", err)
	}
}

func TestPositionReusableAfterRelease(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)

	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusFailed); err != nil {
		t.Fatalf("fail: %v", err)
	}

	mustInsert(t, s, "J2", 1)
	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].JobRef != "J2" {
		t.Fatalf("expected only J2 active, got %+v", active)
	}
}

func TestUpdateStatusStampsClock(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))
	ctx := context.Background()
	created := mustInsert(t, s, "J1", 1)

	now = now.Add(time.Minute)
	updated, err := s.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected created %v and updated %v, got %+v", created.CreatedAt, now, updated)
	}

	now = now.Add(time.Minute)
	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusFailed); !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := s.GetByJob(ctx, "J1")
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Fatalf("rejected update moved UpdatedAt to %v", got.UpdatedAt)
	}
}

func TestRejectedReactivationLeavesIndexIntact(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)
	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	mustInsert(t, s, "J2", 1)

	if _, err := s.UpdateStatus(ctx, "J1", queue.StatusCompleted, queue.StatusPending); !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected ErrPositionConflict, got %v", err)
	}
	if holder := s.active[1]; holder != "J2" {
		t.Fatalf("position 1 index points at %q, want J2", holder)
	}
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)

	got, err := s.GetByJob(ctx, "J1")
	if err != nil || got == nil {
		t.Fatalf("GetByJob: %v %v", got, err)
	}
	got.Status = queue.StatusFailed

	again, _ := s.GetByJob(ctx, "J1")
	if again.Status != queue.StatusPending {
		t.Fatalf("store mutated through returned pointer: %+v", again)
	}
	if missing, err := s.GetByJob(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing entry, got %v %v", missing, err)
	}
}

func TestListFiltersAndStats(t *testing.T) {
	s := New()
	ctx := context.Background()
	mustInsert(t, s, "J1", 1)
	mustInsert(t, s, "J2", 2)
	mustInsert(t, s, "J3", 3)
	if _, err := s.UpdateStatus(ctx, "J2", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d (%v)", len(all), err)
	}
	pending, err := s.List(ctx, queue.StatusPending)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d (%v)", len(pending), err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusPending] != 2 || stats[queue.StatusInProgress] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestPurgeRemovesOldTerminalEntries(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	mustInsert(t, s, "old", 1)
	mustInsert(t, s, "active", 2)
	if _, err := s.UpdateStatus(ctx, "old", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, "old", queue.StatusInProgress, queue.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	removed, err := s.Purge(ctx, now)
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing purged at cutoff equal to update time, got %d (%v)", removed, err)
	}
	removed, err = s.Purge(ctx, now.Add(time.Second))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 purged, got %d (%v)", removed, err)
	}
	if got, _ := s.GetByJob(ctx, "active"); got == nil {
		t.Fatal("active entry must survive purge")
	}
	mustInsert(t, s, "old", 3)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ListActive(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
