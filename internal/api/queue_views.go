package api

import "sort"

// SortEntriesByPosition orders entries by position ascending, active entries first.
func SortEntriesByPosition(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Active != sorted[j].Active {
			return sorted[i].Active
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

// SortEntriesNewestFirst orders entries by CreatedAt descending, breaking ties by position descending.
func SortEntriesNewestFirst(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := ParseTime(sorted[i].CreatedAt)
		tj := ParseTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].Position > sorted[j].Position
		}
		return ti.After(tj)
	})
	return sorted
}
