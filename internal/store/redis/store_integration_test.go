//go:build integration

package redis_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"printq/internal/queue"
	redisstore "printq/internal/store/redis"
	"printq/internal/store/storetest"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConformance(t *testing.T) {
	client := startRedis(t)
	storetest.Run(t, func(t *testing.T) queue.Store {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		return redisstore.New(client, "{printq-test}")
	})
}

func TestPrefixesAreIsolated(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	a := queue.NewService(redisstore.New(client, "a"))
	b := queue.NewService(redisstore.New(client, "b"))

	if _, err := a.Enqueue(ctx, "J1"); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	entry, err := b.Enqueue(ctx, "J1")
	if err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if entry.Position != 1 {
		t.Fatalf("expected independent positions, got %+v", entry)
	}
}
