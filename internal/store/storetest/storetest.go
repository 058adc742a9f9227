// Package storetest holds behavioural checks every queue.Store backend must
// pass. Backends call Run from their own tests with a factory that returns an
// empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"printq/internal/queue"
)

// Factory returns a fresh, empty store. It registers its own cleanup.
type Factory func(t *testing.T) queue.Store

// Run executes the full conformance suite against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("UniqueJobRef", func(t *testing.T) { testUniqueJobRef(t, newStore(t)) })
	t.Run("ActivePositionUnique", func(t *testing.T) { testActivePositionUnique(t, newStore(t)) })
	t.Run("CompareAndSet", func(t *testing.T) { testCompareAndSet(t, newStore(t)) })
	t.Run("ReactivationKeepsPositionUnique", func(t *testing.T) { testReactivationKeepsPositionUnique(t, newStore(t)) })
	t.Run("ConcurrentCompareAndSet", func(t *testing.T) { testConcurrentCompareAndSet(t, newStore(t)) })
	t.Run("ListAndStats", func(t *testing.T) { testListAndStats(t, newStore(t)) })
	t.Run("Purge", func(t *testing.T) { testPurge(t, newStore(t)) })
}

func mustInsert(t *testing.T, store queue.Store, jobRef string, position int64) queue.Entry {
	t.Helper()
	entry, err := queue.NewEntry(jobRef, position)
	if err != nil {
		t.Fatalf("new entry %s: %v", jobRef, err)
	}
	stored, err := store.Insert(context.Background(), entry)
	if err != nil {
		t.Fatalf("insert %s: %v", jobRef, err)
	}
	return stored
}

func mustUpdate(t *testing.T, store queue.Store, jobRef string, expected, next queue.Status) queue.Entry {
	t.Helper()
	entry, err := store.UpdateStatus(context.Background(), jobRef, expected, next)
	if err != nil {
		t.Fatalf("update %s %s->%s: %v", jobRef, expected, next, err)
	}
	return entry
}

func testInsertAndGet(t *testing.T, store queue.Store) {
	ctx := context.Background()
	stored := mustInsert(t, store, "J1", 1)
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatalf("expected store to stamp timestamps, got %+v", stored)
	}

	got, err := store.GetByJob(ctx, "J1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Position != 1 || got.Status != queue.StatusPending {
		t.Fatalf("unexpected entry %+v", got)
	}

	missing, err := store.GetByJob(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing entry, got %+v err=%v", missing, err)
	}
}

func testUniqueJobRef(t *testing.T, store queue.Store) {
	mustInsert(t, store, "J1", 1)
	mustUpdate(t, store, "J1", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J1", queue.StatusInProgress, queue.StatusCompleted)

	entry, _ := queue.NewEntry("J1", 2)
	if _, err := store.Insert(context.Background(), entry); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected duplicate job even after completion, got %v", err)
	}
}

func testActivePositionUnique(t *testing.T, store queue.Store) {
	ctx := context.Background()
	mustInsert(t, store, "J1", 1)

	clash, _ := queue.NewEntry("J2", 1)
	if _, err := store.Insert(ctx, clash); !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected position conflict, got %v", err)
	}

	mustUpdate(t, store, "J1", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J1", queue.StatusInProgress, queue.StatusFailed)

	reused := mustInsert(t, store, "J2", 1)
	if reused.Position != 1 {
		t.Fatalf("expected released position to be reusable, got %+v", reused)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].JobRef != "J2" {
		t.Fatalf("unexpected active set %+v", active)
	}
}

func testCompareAndSet(t *testing.T, store queue.Store) {
	ctx := context.Background()
	mustInsert(t, store, "J1", 1)

	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted); !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected conflict on stale expected status, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "missing", queue.StatusPending, queue.StatusInProgress); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updated := mustUpdate(t, store, "J1", queue.StatusPending, queue.StatusInProgress)
	if updated.Status != queue.StatusInProgress || updated.Position != 1 {
		t.Fatalf("unexpected updated entry %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at precedes created_at: %+v", updated)
	}
}

func testReactivationKeepsPositionUnique(t *testing.T, store queue.Store) {
	ctx := context.Background()
	mustInsert(t, store, "J1", 1)
	mustUpdate(t, store, "J1", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J1", queue.StatusInProgress, queue.StatusCompleted)
	mustInsert(t, store, "J2", 1)

	_, err := store.UpdateStatus(ctx, "J1", queue.StatusCompleted, queue.StatusPending)
	if !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected ErrPositionConflict reactivating onto a held position, got %v", err)
	}
	if kind := queue.KindOf(err); kind != queue.KindPositionConflict {
		t.Fatalf("kind = %s, want %s", kind, queue.KindPositionConflict)
	}
	got, err := store.GetByJob(ctx, "J1")
	if err != nil || got == nil {
		t.Fatalf("get J1: %v", err)
	}
	if got.Status != queue.StatusCompleted {
		t.Fatalf("rejected update changed status to %s", got.Status)
	}

	mustUpdate(t, store, "J2", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J2", queue.StatusInProgress, queue.StatusFailed)
	reactivated := mustUpdate(t, store, "J1", queue.StatusCompleted, queue.StatusPending)
	if reactivated.Position != 1 || reactivated.Status != queue.StatusPending {
		t.Fatalf("unexpected reactivated entry %+v", reactivated)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].JobRef != "J1" {
		t.Fatalf("expected J1 alone in the active set, got %+v", active)
	}

	entry, err := queue.NewEntry("J3", 1)
	if err != nil {
		t.Fatalf("new entry: %v", err)
	}
	if _, err := store.Insert(ctx, entry); !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected reactivated entry to hold position 1, got %v", err)
	}
}

func testConcurrentCompareAndSet(t *testing.T, store queue.Store) {
	mustInsert(t, store, "J1", 1)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateStatus(context.Background(), "J1", queue.StatusPending, queue.StatusInProgress)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, queue.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected exactly one winner, got successes=%d conflicts=%d", successes, conflicts)
	}
}

func testListAndStats(t *testing.T, store queue.Store) {
	ctx := context.Background()
	mustInsert(t, store, "J1", 1)
	mustInsert(t, store, "J2", 2)
	mustInsert(t, store, "J3", 3)
	mustUpdate(t, store, "J2", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J2", queue.StatusInProgress, queue.StatusCompleted)

	all, err := store.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %d entries err=%v", len(all), err)
	}
	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil || len(pending) != 2 {
		t.Fatalf("list pending: %+v err=%v", pending, err)
	}
	active, err := store.ListActive(ctx)
	if err != nil || len(active) != 2 || active[0].Position != 1 || active[1].Position != 3 {
		t.Fatalf("list active: %+v err=%v", active, err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[queue.StatusPending] != 2 || stats[queue.StatusCompleted] != 1 || stats[queue.StatusFailed] != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func testPurge(t *testing.T, store queue.Store) {
	ctx := context.Background()
	mustInsert(t, store, "J1", 1)
	mustInsert(t, store, "J2", 2)
	mustUpdate(t, store, "J1", queue.StatusPending, queue.StatusInProgress)
	mustUpdate(t, store, "J1", queue.StatusInProgress, queue.StatusFailed)

	removed, err := store.Purge(ctx, time.Now().Add(-time.Hour))
	if err != nil || removed != 0 {
		t.Fatalf("purge with old cutoff: removed=%d err=%v", removed, err)
	}
	removed, err = store.Purge(ctx, time.Now().Add(time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("purge: removed=%d err=%v", removed, err)
	}
	if got, _ := store.GetByJob(ctx, "J1"); got != nil {
		t.Fatalf("expected J1 purged, got %+v", got)
	}
	if got, _ := store.GetByJob(ctx, "J2"); got == nil {
		t.Fatal("pending entry must survive purge")
	}
}
