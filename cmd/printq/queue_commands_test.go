package main

import (
	"encoding/json"
	"errors"
	"testing"

	"printq/internal/api"
	"printq/internal/queue"
)

func TestEnqueueListAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "enqueue", "J1", "J2")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued J1 at position 1")
	requireContains(t, out, "Enqueued J2 at position 2")

	out, _, err = env.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "J1")
	requireContains(t, out, "J2")

	out, _, err = env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "In Progress")
	requireContains(t, out, "Active: 2 of 2")
}

func TestDuplicateEnqueueFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	_, _, err := env.run(t, "enqueue", "--retries", "2", "J1")
	if !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("expected duplicate job, got %v", err)
	}
	if code := exitCode(err); code != 5 {
		t.Fatalf("expected exit code 5, got %d", code)
	}
}

func TestLifecycleCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1", "J2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := env.run(t, "start", "J1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "J1 is now in-progress")

	if out, _, err = env.run(t, "complete", "J1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	requireContains(t, out, "J1 is now completed")

	_, _, err = env.run(t, "complete", "J2")
	if !errors.Is(err, queue.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if code := exitCode(err); code != 6 {
		t.Fatalf("expected exit code 6, got %d", code)
	}

	_, _, err = env.run(t, "fail", "missing")
	if !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	out, _, err = env.run(t, "enqueue", "J3")
	if err != nil {
		t.Fatalf("enqueue J3: %v", err)
	}
	requireContains(t, out, "Enqueued J3 at position 3")
}

func TestTransitionWithExpected(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	_, _, err := env.run(t, "transition", "J1", "completed", "--expected", "in-progress")
	if !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if code := exitCode(err); code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}

	out, _, err := env.run(t, "transition", "J1", "in-progress", "--expected", "pending")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	requireContains(t, out, "J1 is now in-progress")

	if _, _, err := env.run(t, "transition", "J1", "archived"); !errors.Is(err, queue.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestShowJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	out, _, err := env.run(t, "--json", "show", "J1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var entry api.Entry
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if entry.JobRef != "J1" || entry.Position != 1 || entry.Status != "pending" || !entry.Active {
		t.Fatalf("unexpected entry %+v", entry)
	}

	out, _, err = env.run(t, "show", "J1")
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	requireContains(t, out, "Next: in-progress")
}

func TestListFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1", "J2", "J3"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, _, err := env.run(t, "start", "J1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := env.run(t, "fail", "J1"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	out, _, err := env.run(t, "--json", "list", "--active")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	var active api.EntryListResponse
	if err := json.Unmarshal([]byte(out), &active); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(active.Entries) != 2 || active.Entries[0].JobRef != "J2" {
		t.Fatalf("unexpected active entries %+v", active.Entries)
	}

	out, _, err = env.run(t, "--json", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var failed api.EntryListResponse
	if err := json.Unmarshal([]byte(out), &failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(failed.Entries) != 1 || failed.Entries[0].JobRef != "J1" {
		t.Fatalf("unexpected failed entries %+v", failed.Entries)
	}

	if _, _, err := env.run(t, "list", "--active", "--status", "pending"); err == nil {
		t.Fatal("expected error combining --active and --status")
	}
	if _, _, err := env.run(t, "list", "--sort", "random"); err == nil {
		t.Fatal("expected error for unknown sort order")
	}
}

func TestPurgeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "enqueue", "J1", "J2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, _, err := env.run(t, "start", "J1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := env.run(t, "complete", "J1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err := env.run(t, "purge")
	if err != nil {
		t.Fatalf("purge default: %v", err)
	}
	requireContains(t, out, "Purged 0 entries")

	out, _, err = env.run(t, "purge", "--older-than", "0s")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	requireContains(t, out, "Purged 1 entries")

	if _, _, err := env.run(t, "show", "J1"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected J1 purged, got %v", err)
	}
}

func TestSortEntries(t *testing.T) {
	entries := []api.Entry{
		{JobRef: "A", Position: 2, Active: true, CreatedAt: "2026-01-01T00:00:00.000Z"},
		{JobRef: "B", Position: 1, Active: true, CreatedAt: "2026-01-02T00:00:00.000Z"},
	}
	byPosition, err := sortEntries(entries, "position")
	if err != nil || byPosition[0].JobRef != "B" {
		t.Fatalf("position sort: %+v %v", byPosition, err)
	}
	newest, err := sortEntries(entries, "newest")
	if err != nil || newest[0].JobRef != "B" {
		t.Fatalf("newest sort: %+v %v", newest, err)
	}
	created, err := sortEntries(entries, "")
	if err != nil || created[0].JobRef != "A" {
		t.Fatalf("created sort: %+v %v", created, err)
	}
}

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"pending":     "Pending",
		"in-progress": "In Progress",
		"":            "",
	}
	for input, want := range cases {
		if got := formatStatusLabel(input); got != want {
			t.Fatalf("formatStatusLabel(%q) = %q, want %q", input, got, want)
		}
	}
}
