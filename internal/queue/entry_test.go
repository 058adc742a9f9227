package queue

import (
	"errors"
	"testing"
)

func TestNewEntryStartsPending(t *testing.T) {
	entry, err := NewEntry("  J1  ", 1)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if entry.JobRef != "J1" || entry.Position != 1 || entry.Status != StatusPending {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !entry.IsActive() {
		t.Fatal("new entry must be active")
	}
}

func TestNewEntryRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		jobRef   string
		position int64
	}{
		{name: "blank job", jobRef: "   ", position: 1},
		{name: "zero position", jobRef: "J1", position: 0},
		{name: "negative position", jobRef: "J1", position: -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEntry(tt.jobRef, tt.position); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestNewEntryWithStatusRequiresPending(t *testing.T) {
	for _, status := range []Status{StatusInProgress, StatusCompleted, StatusFailed, "archived"} {
		if _, err := NewEntryWithStatus("J1", 1, status); !errors.Is(err, ErrInvalidInitialState) {
			t.Fatalf("status %s: expected ErrInvalidInitialState, got %v", status, err)
		}
	}
}

func TestWithStatusLeavesReceiverUntouched(t *testing.T) {
	entry, _ := NewEntry("J1", 3)

	started, err := entry.WithStatus(StatusInProgress)
	if err != nil {
		t.Fatalf("WithStatus: %v", err)
	}
	if entry.Status != StatusPending {
		t.Fatalf("receiver mutated: %+v", entry)
	}
	if started.Status != StatusInProgress || started.Position != 3 {
		t.Fatalf("unexpected started entry %+v", started)
	}

	if _, err := started.WithStatus(StatusInProgress); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("same-status update must fail, got %v", err)
	}
	if _, err := entry.WithStatus(StatusCompleted); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("pending -> completed must fail, got %v", err)
	}
}
