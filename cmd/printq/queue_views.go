package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"printq/internal/api"
	"printq/internal/queue"
)

var titleCaser = cases.Title(language.English)

func buildStatusRows(stats map[queue.Status]int, colorize bool) [][]string {
	rows := make([][]string, 0, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		rows = append(rows, []string{statusCell(string(status), colorize), fmt.Sprintf("%d", stats[status])})
	}
	return rows
}

func buildEntryRows(entries []api.Entry, colorize bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		position := fmt.Sprintf("%d", entry.Position)
		if !entry.Active {
			position = "(" + position + ")"
		}
		rows = append(rows, []string{
			position,
			entry.JobRef,
			statusCell(entry.Status, colorize),
			formatDisplayTime(entry.CreatedAt),
			formatDisplayTime(entry.UpdatedAt),
		})
	}
	return rows
}

func sortEntries(entries []api.Entry, order string) ([]api.Entry, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "created":
		return entries, nil
	case "position":
		return api.SortEntriesByPosition(entries), nil
	case "newest":
		return api.SortEntriesNewestFirst(entries), nil
	default:
		return nil, fmt.Errorf("unknown sort order %q (use created, position or newest)", order)
	}
}

func statusCell(status string, colorize bool) string {
	label := formatStatusLabel(status)
	if !colorize {
		return label
	}
	return statusColors(queue.Status(status)).Sprint(label)
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(status, "-", " "))
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04:05")
	}
	return value
}
