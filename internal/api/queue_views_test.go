package api

import "testing"

func TestSortEntriesByPosition(t *testing.T) {
	entries := []Entry{
		{JobRef: "done", Position: 1, Active: false},
		{JobRef: "b", Position: 3, Active: true},
		{JobRef: "a", Position: 2, Active: true},
	}
	sorted := SortEntriesByPosition(entries)
	got := []string{sorted[0].JobRef, sorted[1].JobRef, sorted[2].JobRef}
	want := []string{"a", "b", "done"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if entries[0].JobRef != "done" {
		t.Fatal("input slice was reordered")
	}
	if SortEntriesByPosition(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestSortEntriesNewestFirst(t *testing.T) {
	entries := []Entry{
		{JobRef: "old", Position: 1, CreatedAt: "2026-01-01T00:00:00Z"},
		{JobRef: "tie-low", Position: 2, CreatedAt: "2026-02-01T00:00:00Z"},
		{JobRef: "tie-high", Position: 3, CreatedAt: "2026-02-01T00:00:00Z"},
	}
	sorted := SortEntriesNewestFirst(entries)
	want := []string{"tie-high", "tie-low", "old"}
	for i, name := range want {
		if sorted[i].JobRef != name {
			t.Fatalf("position %d = %s, want %s", i, sorted[i].JobRef, name)
		}
	}
}
