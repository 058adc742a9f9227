// Package preflight provides readiness checks for the filesystem paths,
// store backend and optional remote server that printq depends on.
//
// `printq serve` runs RunAll before binding and refuses to start when a check
// fails. `printq config validate` prints every result.
package preflight
