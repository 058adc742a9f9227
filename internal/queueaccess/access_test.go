package queueaccess_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"printq/internal/api"
	"printq/internal/queue"
	"printq/internal/queueaccess"
	"printq/internal/store/memory"
)

func newRemote(t *testing.T, token string) *httptest.Server {
	t.Helper()
	svc := queue.NewService(memory.New())
	srv := httptest.NewServer(api.NewServer(svc, api.WithToken(token)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func exerciseAccess(t *testing.T, access queueaccess.Access) {
	t.Helper()
	ctx := context.Background()

	j1, err := access.Enqueue(ctx, "J1")
	if err != nil {
		t.Fatalf("enqueue J1: %v", err)
	}
	if j1.Position != 1 || j1.Status != queue.StatusPending {
		t.Fatalf("unexpected J1 %+v", j1)
	}
	if _, err := access.Enqueue(ctx, "J2"); err != nil {
		t.Fatalf("enqueue J2: %v", err)
	}
	if _, err := access.Enqueue(ctx, "J1"); !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected duplicate job, got %v", err)
	}

	if _, err := access.Transition(ctx, "J1", queue.StatusCompleted); !errors.Is(err, queue.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if _, err := access.Transition(ctx, "J1", queue.StatusInProgress); err != nil {
		t.Fatalf("start J1: %v", err)
	}
	_, err = access.TransitionFrom(ctx, "J1", queue.StatusPending, queue.StatusInProgress)
	if !errors.Is(err, queue.ErrConflict) || !queue.IsRetryable(err) {
		t.Fatalf("expected retryable conflict, got %v", err)
	}
	done, err := access.TransitionFrom(ctx, "J1", queue.StatusInProgress, queue.StatusCompleted)
	if err != nil {
		t.Fatalf("complete J1: %v", err)
	}
	if done.IsActive() {
		t.Fatalf("completed entry should be inactive: %+v", done)
	}

	if _, err := access.Get(ctx, "missing"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := access.Get(ctx, "J2")
	if err != nil || got.Position != 2 {
		t.Fatalf("get J2: %+v %v", got, err)
	}

	active, err := access.Active(ctx)
	if err != nil || len(active) != 1 || active[0].JobRef != "J2" {
		t.Fatalf("unexpected active %+v %v", active, err)
	}
	completed, err := access.List(ctx, queue.StatusCompleted)
	if err != nil || len(completed) != 1 {
		t.Fatalf("unexpected completed %+v %v", completed, err)
	}
	stats, err := access.Stats(ctx)
	if err != nil || stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats %+v %v", stats, err)
	}
	removed, err := access.Purge(ctx, time.Now().Add(time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("purge: removed=%d err=%v", removed, err)
	}
}

func TestStoreAccess(t *testing.T) {
	exerciseAccess(t, queueaccess.NewStoreAccess(queue.NewService(memory.New())))
}

func TestHTTPAccess(t *testing.T) {
	srv := newRemote(t, "")
	exerciseAccess(t, queueaccess.NewHTTPAccess(srv.URL, "", nil))
}

func TestHTTPAccessUnauthorized(t *testing.T) {
	srv := newRemote(t, "secret")
	access := queueaccess.NewHTTPAccess(srv.URL, "wrong", nil)
	_, err := access.Stats(context.Background())
	if !queueaccess.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestOpenWithFallbackPrefersServer(t *testing.T) {
	srv := newRemote(t, "secret")
	opened := false
	session, err := queueaccess.OpenWithFallback(context.Background(),
		queueaccess.Remote{URL: srv.URL, Token: "secret"},
		func(context.Context) (queue.Store, error) {
			opened = true
			return memory.New(), nil
		},
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer session.Close()
	if !session.Remote || opened {
		t.Fatalf("expected remote session without opening store (remote=%v opened=%v)", session.Remote, opened)
	}
}

func TestOpenWithFallbackUsesStoreWhenServerDown(t *testing.T) {
	srv := newRemote(t, "")
	url := srv.URL
	srv.Close()

	session, err := queueaccess.OpenWithFallback(context.Background(),
		queueaccess.Remote{URL: url},
		func(context.Context) (queue.Store, error) { return memory.New(), nil },
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer session.Close()
	if session.Remote {
		t.Fatal("expected direct store session")
	}
	if _, err := session.Access.Enqueue(context.Background(), "J1"); err != nil {
		t.Fatalf("enqueue through fallback: %v", err)
	}
}

func TestOpenWithFallbackRejectsBadToken(t *testing.T) {
	srv := newRemote(t, "secret")
	_, err := queueaccess.OpenWithFallback(context.Background(),
		queueaccess.Remote{URL: srv.URL, Token: "nope"},
		func(context.Context) (queue.Store, error) { return memory.New(), nil },
	)
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
}

func TestOpenWithFallbackRequiresOpener(t *testing.T) {
	if _, err := queueaccess.OpenWithFallback(context.Background(), queueaccess.Remote{}, nil); err == nil {
		t.Fatal("expected error without store opener")
	}
}
