// Package queue defines print-queue entries and the rules that govern them.
//
// An Entry ties a print job reference to a position in the queue and tracks
// its lifecycle through pending, in-progress, completed, and failed. The
// package owns the transition graph, position allocation over the active set
// (pending and in-progress entries), and the Store contract that durable
// backends implement.
//
// Validation here is the fast path only. Stores are the authority: they must
// reject duplicate job references, duplicate active positions, and status
// updates whose expected current status no longer matches. Service threads
// those pieces together as single validate-then-persist round trips and never
// retries on the caller's behalf.
package queue
