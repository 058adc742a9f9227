package queueaccess

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"printq/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote is true when operations go through a printq server.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Remote describes a printq server to dial.
type Remote struct {
	URL    string
	Token  string
	Client *http.Client
}

// OpenWithFallback tries the HTTP server first when remote.URL is set, then
// falls back to opening the store directly. A server that answers but rejects
// the token is reported rather than bypassed.
func OpenWithFallback(
	ctx context.Context,
	remote Remote,
	openStore func(ctx context.Context) (queue.Store, error),
	opts ...queue.Option,
) (Session, error) {
	if remote.URL != "" {
		access := NewHTTPAccess(remote.URL, remote.Token, remote.Client).(*httpAccess)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := access.Ping(pingCtx)
		cancel()
		if err == nil {
			if _, err := access.Stats(ctx); IsUnauthorized(err) {
				return Session{}, fmt.Errorf("connect %s: %w", remote.URL, err)
			}
			return Session{Access: access, Remote: true}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(queue.NewService(store, opts...)),
		close:  store.Close,
	}, nil
}
