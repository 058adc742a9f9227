//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"printq/internal/queue"
	"printq/internal/store/postgres"
	"printq/internal/store/storetest"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("printq_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

func openStore(t *testing.T, dsn string) *postgres.Store {
	t.Helper()
	store, err := postgres.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConformance(t *testing.T) {
	dsn := startPostgres(t)
	storetest.Run(t, func(t *testing.T) queue.Store {
		store := openStore(t, dsn)
		if _, err := store.Pool().Exec(context.Background(), `TRUNCATE queue_entries`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	dsn := startPostgres(t)
	store := openStore(t, dsn)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var applied int
	if err := store.Pool().QueryRow(context.Background(), `SELECT COUNT(*) FROM printq_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied migration, got %d", applied)
	}
}

func TestServiceEnqueueOnPostgres(t *testing.T) {
	store := openStore(t, startPostgres(t))
	svc := queue.NewService(store)
	ctx := context.Background()

	first, err := svc.Enqueue(ctx, "J1")
	if err != nil || first.Position != 1 {
		t.Fatalf("enqueue J1: %+v %v", first, err)
	}
	if _, err := svc.Enqueue(ctx, "J1"); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected duplicate job, got %v", err)
	}
	second, err := svc.Enqueue(ctx, "J2")
	if err != nil || second.Position != 2 {
		t.Fatalf("enqueue J2: %+v %v", second, err)
	}
}
