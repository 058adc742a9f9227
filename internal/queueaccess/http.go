package queueaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"printq/internal/api"
	"printq/internal/queue"
)

// NewHTTPAccess returns an Access that calls the printq HTTP API at baseURL.
// A nil client uses a client with a 30 second timeout.
func NewHTTPAccess(baseURL, token string, client *http.Client) Access {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpAccess{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type httpAccess struct {
	baseURL string
	token   string
	client  *http.Client
}

// RemoteError is a non-2xx response whose kind has no queue sentinel.
type RemoteError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (a *httpAccess) Enqueue(ctx context.Context, jobRef string) (queue.Entry, error) {
	var dto api.Entry
	if err := a.do(ctx, http.MethodPost, "/v1/entries", nil, api.EnqueueRequest{JobRef: jobRef}, &dto); err != nil {
		return queue.Entry{}, err
	}
	return api.ToEntry(dto)
}

func (a *httpAccess) Transition(ctx context.Context, jobRef string, next queue.Status) (queue.Entry, error) {
	return a.transition(ctx, jobRef, api.TransitionRequest{Status: string(next)})
}

func (a *httpAccess) TransitionFrom(ctx context.Context, jobRef string, expected, next queue.Status) (queue.Entry, error) {
	return a.transition(ctx, jobRef, api.TransitionRequest{Status: string(next), Expected: string(expected)})
}

func (a *httpAccess) transition(ctx context.Context, jobRef string, req api.TransitionRequest) (queue.Entry, error) {
	var dto api.Entry
	path := "/v1/entries/" + url.PathEscape(jobRef) + "/transitions"
	if err := a.do(ctx, http.MethodPost, path, nil, req, &dto); err != nil {
		return queue.Entry{}, err
	}
	return api.ToEntry(dto)
}

func (a *httpAccess) Get(ctx context.Context, jobRef string) (queue.Entry, error) {
	var dto api.Entry
	if err := a.do(ctx, http.MethodGet, "/v1/entries/"+url.PathEscape(jobRef), nil, nil, &dto); err != nil {
		return queue.Entry{}, err
	}
	return api.ToEntry(dto)
}

func (a *httpAccess) List(ctx context.Context, statuses ...queue.Status) ([]queue.Entry, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", string(status))
	}
	var resp api.EntryListResponse
	if err := a.do(ctx, http.MethodGet, "/v1/entries", query, nil, &resp); err != nil {
		return nil, err
	}
	return api.ToEntries(resp.Entries)
}

func (a *httpAccess) Active(ctx context.Context) ([]queue.Entry, error) {
	var resp api.EntryListResponse
	if err := a.do(ctx, http.MethodGet, "/v1/entries/active", nil, nil, &resp); err != nil {
		return nil, err
	}
	return api.ToEntries(resp.Entries)
}

func (a *httpAccess) Stats(ctx context.Context) (map[queue.Status]int, error) {
	var resp api.StatsResponse
	if err := a.do(ctx, http.MethodGet, "/v1/stats", nil, nil, &resp); err != nil {
		return nil, err
	}
	return api.ToStats(resp), nil
}

func (a *httpAccess) Purge(ctx context.Context, before time.Time) (int64, error) {
	query := url.Values{}
	query.Set("before", before.UTC().Format(time.RFC3339Nano))
	var resp api.PurgeResponse
	if err := a.do(ctx, http.MethodDelete, "/v1/entries", query, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Ping checks that the server answers /healthz.
func (a *httpAccess) Ping(ctx context.Context) error {
	var resp api.HealthResponse
	return a.do(ctx, http.MethodGet, "/healthz", nil, nil, &resp)
}

func (a *httpAccess) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return decodeError(resp)
}

// decodeError rebuilds the queue sentinel for the response's error kind so
// errors.Is and queue.IsRetryable behave the same as with a direct store.
func decodeError(resp *http.Response) error {
	var body api.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &body); err != nil {
		body.Error = strings.TrimSpace(string(data))
	}
	if sentinel := queue.ErrorForKind(queue.Kind(body.Kind)); sentinel != nil {
		return &kindError{sentinel: sentinel, message: body.Error}
	}
	return &RemoteError{StatusCode: resp.StatusCode, Kind: body.Kind, Message: body.Error}
}

// kindError keeps the server's message while unwrapping to the sentinel.
type kindError struct {
	sentinel error
	message  string
}

func (e *kindError) Error() string {
	if e.message == "" {
		return e.sentinel.Error()
	}
	return e.message
}

func (e *kindError) Unwrap() error { return e.sentinel }

// IsUnauthorized reports whether err is a rejected bearer token.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.StatusCode == http.StatusUnauthorized
}
