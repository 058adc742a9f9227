package queue

import "fmt"

// NextPosition returns the position a new entry should take: one past the
// highest position held by an active entry, or 1 when none is active.
// Entries outside the active set are ignored.
func NextPosition(active []Entry) int64 {
	var highest int64
	for _, entry := range active {
		if !entry.IsActive() {
			continue
		}
		if entry.Position > highest {
			highest = entry.Position
		}
	}
	return highest + 1
}

// AssertUniquePosition fails with ErrPositionConflict when an active entry
// already holds position.
func AssertUniquePosition(position int64, active []Entry) error {
	for _, entry := range active {
		if entry.IsActive() && entry.Position == position {
			return fmt.Errorf("%w: position %d held by %s", ErrPositionConflict, position, entry.JobRef)
		}
	}
	return nil
}

// ReleasePosition reports the position an entry vacated by leaving the active
// set. It returns false while the entry is still active. Vacated positions
// are not compacted and other entries keep their positions.
func ReleasePosition(e Entry) (int64, bool) {
	if e.IsActive() {
		return 0, false
	}
	return e.Position, true
}
