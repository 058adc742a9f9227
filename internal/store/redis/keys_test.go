package redis

import (
	"strings"
	"testing"
)

func TestKeyspace(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{"", "{printq}:entry:J1"},
		{"  ", "{printq}:entry:J1"},
		{"app:", "app:entry:J1"},
		{"{printq}", "{printq}:entry:J1"},
	}
	for _, tc := range cases {
		if got := newKeyspace(tc.prefix).entry("J1"); got != tc.want {
			t.Fatalf("prefix %q: expected %q, got %q", tc.prefix, tc.want, got)
		}
	}
}

func TestDefaultKeyspaceSharesHashSlot(t *testing.T) {
	keys := newKeyspace("")
	for _, key := range []string{keys.entry("J1"), keys.jobs(), keys.active(), keys.positions()} {
		if !strings.HasPrefix(key, "{printq}:") {
			t.Fatalf("key %q lacks the {printq} hash tag", key)
		}
	}
}

func TestEntryFromMap(t *testing.T) {
	entry, err := entryFromMap(map[string]string{
		"job_ref":    "J1",
		"position":   "3",
		"status":     "pending",
		"created_at": "2026-01-02T03:04:05.000000006Z",
		"updated_at": "2026-01-02T03:04:05.000000007Z",
	})
	if err != nil {
		t.Fatalf("entryFromMap: %v", err)
	}
	if entry.Position != 3 || entry.CreatedAt.Nanosecond() != 6 || !entry.UpdatedAt.After(entry.CreatedAt) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if _, err := entryFromMap(map[string]string{"position": "x"}); err == nil {
		t.Fatal("expected parse error")
	}
}
