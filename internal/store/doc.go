// Package store selects and opens the queue.Store backend named in the
// configuration. Each backend lives in its own subpackage.
package store
