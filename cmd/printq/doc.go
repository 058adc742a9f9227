// Command printq manages a durable FIFO queue of print jobs. It talks to the
// configured store directly or, with --server, to a running `printq serve`.
package main
