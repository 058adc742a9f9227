package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry describes a queue entry in a transport-friendly format.
type Entry struct {
	JobRef    string `json:"jobRef"`
	Position  int64  `json:"position"`
	Status    string `json:"status"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// EnqueueRequest is the body of POST /v1/entries.
type EnqueueRequest struct {
	JobRef string `json:"jobRef"`
}

// TransitionRequest is the body of POST /v1/entries/:jobRef/transitions. When
// Expected is set the server performs a raw compare-and-set against it instead
// of reading the current status first.
type TransitionRequest struct {
	Status   string `json:"status"`
	Expected string `json:"expected,omitempty"`
}

// EntryListResponse wraps a collection of entries.
type EntryListResponse struct {
	Entries []Entry `json:"entries"`
}

// StatsResponse provides per-status counts and the aggregated summary.
type StatsResponse struct {
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	Pending    int            `json:"pending"`
	InProgress int            `json:"inProgress"`
	Completed  int            `json:"completed"`
	Failed     int            `json:"failed"`
}

// PurgeResponse reports how many terminal entries were removed.
type PurgeResponse struct {
	Removed int64 `json:"removed"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
