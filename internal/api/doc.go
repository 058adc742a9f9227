// Package api serves the queue over HTTP and defines its wire format.
//
// # Key Types
//
// Entry: transport representation of a queue entry.
//
// Server: gin router wrapping a queue.Service, with request-id and bearer-token
// middleware, /healthz, and an optional /metrics handler.
//
// # Converters
//
// FromEntry / ToEntry translate between queue.Entry and Entry. MergeStats fills
// zero counts for every known status.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as their lowercase string
// form. Timestamps use RFC3339 with milliseconds. Errors carry the stable
// queue.Kind string next to the message so clients can rebuild the sentinel.
package api
