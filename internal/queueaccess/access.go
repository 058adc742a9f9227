// Package queueaccess gives CLI commands one queue API whether they talk to a
// running printq server or open the configured store directly.
package queueaccess

import (
	"context"
	"time"

	"printq/internal/queue"
)

// Access provides queue operations regardless of HTTP or direct store backing.
type Access interface {
	Enqueue(ctx context.Context, jobRef string) (queue.Entry, error)
	Transition(ctx context.Context, jobRef string, next queue.Status) (queue.Entry, error)
	TransitionFrom(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error)
	Get(ctx context.Context, jobRef string) (queue.Entry, error)
	List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error)
	Active(ctx context.Context) ([]queue.Entry, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// NewStoreAccess returns an Access backed by a queue service over a direct
// store handle.
func NewStoreAccess(svc *queue.Service) Access {
	return &storeAccess{svc: svc}
}

type storeAccess struct {
	svc *queue.Service
}

func (a *storeAccess) Enqueue(ctx context.Context, jobRef string) (queue.Entry, error) {
	return a.svc.Enqueue(ctx, jobRef)
}

func (a *storeAccess) Transition(ctx context.Context, jobRef string, next queue.Status) (queue.Entry, error) {
	return a.svc.Transition(ctx, jobRef, next)
}

func (a *storeAccess) TransitionFrom(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	return a.svc.TransitionFrom(ctx, jobRef, expected, next)
}

func (a *storeAccess) Get(ctx context.Context, jobRef string) (queue.Entry, error) {
	return a.svc.Get(ctx, jobRef)
}

func (a *storeAccess) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	return a.svc.List(ctx, statuses...)
}

func (a *storeAccess) Active(ctx context.Context) ([]queue.Entry, error) {
	return a.svc.Active(ctx)
}

func (a *storeAccess) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return a.svc.Stats(ctx)
}

func (a *storeAccess) Purge(ctx context.Context, before time.Time) (int64, error) {
	return a.svc.Purge(ctx, before)
}
