package redis

import "strings"

const defaultPrefix = "{printq}"

// keyspace builds key names. Wrapping the prefix in braces (for example
// "{printq}") keeps every key in one cluster hash slot, which the Lua
// scripts require on Redis Cluster.
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return keyspace{prefix: prefix}
}

// entry returns the hash key for a job: {printq}:entry:<jobRef>
func (k keyspace) entry(jobRef string) string { return k.prefix + ":entry:" + jobRef }

// jobs is the set of every job reference.
func (k keyspace) jobs() string { return k.prefix + ":jobs" }

// active is the sorted set of active job references scored by position.
func (k keyspace) active() string { return k.prefix + ":active" }

// positions maps active positions to the job reference holding them.
func (k keyspace) positions() string { return k.prefix + ":positions" }
