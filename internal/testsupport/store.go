package testsupport

import (
	"context"
	"testing"

	"printq/internal/config"
	"printq/internal/queue"
	"printq/internal/store/sqlite"
)

// MustOpenStore opens the SQLite store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue enqueues jobRef through svc and fails the test on error.
func MustEnqueue(t testing.TB, svc *queue.Service, jobRef string) queue.Entry {
	t.Helper()

	entry, err := svc.Enqueue(context.Background(), jobRef)
	if err != nil {
		t.Fatalf("Enqueue %s: %v", jobRef, err)
	}
	return entry
}

// MustTransition moves jobRef to next through svc and fails the test on error.
func MustTransition(t testing.TB, svc *queue.Service, jobRef string, next queue.Status) queue.Entry {
	t.Helper()

	entry, err := svc.Transition(context.Background(), jobRef, next)
	if err != nil {
		t.Fatalf("Transition %s -> %s: %v", jobRef, next, err)
	}
	return entry
}
