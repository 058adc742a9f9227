package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"printq/internal/queue"
	"printq/internal/store/sqlite"
	"printq/internal/testsupport"
)

func newEntry(t *testing.T, jobRef string, position int64) queue.Entry {
	t.Helper()
	entry, err := queue.NewEntry(jobRef, position)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return entry
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stored, err := store.Insert(ctx, newEntry(t, "J1", 1))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be stamped, got %+v", stored)
	}

	fetched, err := store.GetByJob(ctx, "J1")
	if err != nil {
		t.Fatalf("GetByJob failed: %v", err)
	}
	if fetched == nil || fetched.Position != 1 || fetched.Status != queue.StatusPending {
		t.Fatalf("unexpected fetched entry: %#v", fetched)
	}
	if !fetched.CreatedAt.Equal(stored.CreatedAt) {
		t.Fatalf("created_at round trip mismatch: %v vs %v", fetched.CreatedAt, stored.CreatedAt)
	}

	missing, err := store.GetByJob(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing entry, got %v %v", missing, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.Insert(ctx, newEntry(t, "J1", 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	if got, err := second.GetByJob(ctx, "J1"); err != nil || got == nil {
		t.Fatalf("expected J1 after reopen, got %v %v", got, err)
	}
}

func TestSchemaMismatchRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.Store.SQLitePath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := sqlite.Open(cfg); !errors.Is(err, sqlite.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestInsertConstraints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Insert(ctx, newEntry(t, "J1", 1)); err != nil {
		t.Fatalf("Insert J1: %v", err)
	}
	if _, err := store.Insert(ctx, newEntry(t, "J1", 2)); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}
	if _, err := store.Insert(ctx, newEntry(t, "J2", 1)); !errors.Is(err, queue.ErrPositionConflict) {
		t.Fatalf("expected ErrPositionConflict, got %v", err)
	}
}

func TestPartialIndexReleasesTerminalPositions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Insert(ctx, newEntry(t, "J1", 1)); err != nil {
		t.Fatalf("Insert J1: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := store.Insert(ctx, newEntry(t, "J2", 1)); err != nil {
		t.Fatalf("position 1 should be free once J1 is terminal: %v", err)
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].JobRef != "J2" {
		t.Fatalf("unexpected active entries %+v", active)
	}
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, newEntry(t, "J1", 1))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, err := store.UpdateStatus(ctx, "ghost", queue.StatusPending, queue.StatusInProgress); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusFailed); !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	updated, err := store.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != queue.StatusInProgress || updated.Position != 1 {
		t.Fatalf("unexpected updated entry %+v", updated)
	}
	if !updated.UpdatedAt.After(inserted.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", inserted.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(inserted.CreatedAt) {
		t.Fatalf("created_at must not change: %v -> %v", inserted.CreatedAt, updated.CreatedAt)
	}
}

func TestConcurrentUpdateStatusSingleWinner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Insert(ctx, newEntry(t, "J1", 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, queue.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("expected one success and one conflict, got %v", errs)
	}
}

func TestListStatsAndPurge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, ref := range []string{"J1", "J2", "J3"} {
		if _, err := store.Insert(ctx, newEntry(t, ref, int64(i+1))); err != nil {
			t.Fatalf("Insert %s: %v", ref, err)
		}
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusPending, queue.StatusInProgress); err != nil {
		t.Fatalf("start J1: %v", err)
	}
	if _, err := store.UpdateStatus(ctx, "J1", queue.StatusInProgress, queue.StatusFailed); err != nil {
		t.Fatalf("fail J1: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil || len(all) != 3 || all[0].JobRef != "J1" {
		t.Fatalf("unexpected list %+v (%v)", all, err)
	}
	failed, err := store.List(ctx, queue.StatusFailed, queue.StatusCompleted)
	if err != nil || len(failed) != 1 || failed[0].JobRef != "J1" {
		t.Fatalf("unexpected terminal list %+v (%v)", failed, err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusPending] != 2 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	removed, err := store.Purge(ctx, time.Now().Add(-time.Hour))
	if err != nil || removed != 0 {
		t.Fatalf("expected nothing purged before updates, got %d (%v)", removed, err)
	}
	removed, err = store.Purge(ctx, time.Now().Add(time.Minute))
	if err != nil || removed != 1 {
		t.Fatalf("expected one purged entry, got %d (%v)", removed, err)
	}
	if got, _ := store.GetByJob(ctx, "J1"); got != nil {
		t.Fatalf("expected J1 purged, got %+v", got)
	}
}

func TestServiceScenariosOnSQLite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := queue.NewService(testsupport.MustOpenStore(t, cfg))
	ctx := context.Background()

	if got := testsupport.MustEnqueue(t, svc, "J1"); got.Position != 1 {
		t.Fatalf("expected J1 at 1, got %d", got.Position)
	}
	if got := testsupport.MustEnqueue(t, svc, "J2"); got.Position != 2 {
		t.Fatalf("expected J2 at 2, got %d", got.Position)
	}
	testsupport.MustTransition(t, svc, "J1", queue.StatusInProgress)
	if _, err := svc.Complete(ctx, "J2"); !errors.Is(err, queue.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	testsupport.MustTransition(t, svc, "J1", queue.StatusCompleted)
	if _, err := svc.Fail(ctx, "J1"); !errors.Is(err, queue.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if _, err := svc.Enqueue(ctx, "J2"); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	if _, err := store.Insert(ctx, newEntry(t, "J1", 1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health %+v", health)
	}
	if !health.ActiveIndex || !health.IntegrityCheck {
		t.Fatalf("expected index and integrity ok, got %+v", health)
	}
	if len(health.MissingColumns) != 0 || health.TotalEntries != 1 || health.SchemaVersion != 1 {
		t.Fatalf("unexpected health details %+v", health)
	}
	if health.DBPath != filepath.Clean(cfg.Store.SQLitePath) {
		t.Fatalf("unexpected db path %q", health.DBPath)
	}
}
