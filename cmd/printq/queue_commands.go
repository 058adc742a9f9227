package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"printq/internal/api"
	"printq/internal/queue"
	"printq/internal/queueaccess"
)

const enqueueRetryBackoff = 25 * time.Millisecond

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "enqueue <jobRef>...",
		Short: "Add jobs to the end of the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if retries < 0 {
				return errors.New("--retries must be >= 0")
			}
			return ctx.withAccess(cmd, func(access queueaccess.Access) error {
				entries := make([]queue.Entry, 0, len(args))
				for _, jobRef := range args {
					entry, err := enqueueWithRetry(cmd, access, jobRef, retries)
					if err != nil {
						return fmt.Errorf("enqueue %s: %w", jobRef, err)
					}
					entries = append(entries, entry)
					if !ctx.JSONMode() {
						fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s at position %d\n", entry.JobRef, entry.Position)
					}
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.EntryListResponse{Entries: api.FromEntries(entries)})
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 0, "Retry this many times when another writer takes the same position")
	return cmd
}

// enqueueWithRetry re-runs Enqueue only for retryable store races. The queue
// core itself never retries.
func enqueueWithRetry(cmd *cobra.Command, access queueaccess.Access, jobRef string, retries int) (queue.Entry, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-cmd.Context().Done():
				return queue.Entry{}, cmd.Context().Err()
			case <-time.After(time.Duration(attempt) * enqueueRetryBackoff):
			}
		}
		entry, err := access.Enqueue(cmd.Context(), jobRef)
		if err == nil {
			return entry, nil
		}
		if !queue.IsRetryable(err) {
			return queue.Entry{}, err
		}
		lastErr = err
	}
	return queue.Entry{}, lastErr
}

func newTransitionCommands(ctx *commandContext) []*cobra.Command {
	shortcuts := []struct {
		use   string
		short string
		next  queue.Status
	}{
		{"start <jobRef>", "Mark a pending job in-progress", queue.StatusInProgress},
		{"complete <jobRef>", "Mark an in-progress job completed", queue.StatusCompleted},
		{"fail <jobRef>", "Mark an in-progress job failed", queue.StatusFailed},
	}

	cmds := make([]*cobra.Command, 0, len(shortcuts)+1)
	for _, shortcut := range shortcuts {
		next := shortcut.next
		cmds = append(cmds, &cobra.Command{
			Use:   shortcut.use,
			Short: shortcut.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTransition(cmd, ctx, args[0], "", next)
			},
		})
	}
	cmds = append(cmds, newTransitionCommand(ctx))
	return cmds
}

func newTransitionCommand(ctx *commandContext) *cobra.Command {
	var expected string

	cmd := &cobra.Command{
		Use:   "transition <jobRef> <status>",
		Short: "Move a job to a new status",
		Long: "Move a job to a new status. Allowed moves are pending -> in-progress,\n" +
			"in-progress -> completed and in-progress -> failed. With --expected the\n" +
			"update is applied only if the job is still in that status.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := parseStatusArg(args[1])
			if err != nil {
				return err
			}
			var from queue.Status
			if strings.TrimSpace(expected) != "" {
				if from, err = parseStatusArg(expected); err != nil {
					return err
				}
			}
			return runTransition(cmd, ctx, args[0], from, next)
		},
	}

	cmd.Flags().StringVar(&expected, "expected", "", "Apply only if the job currently has this status")
	return cmd
}

func runTransition(cmd *cobra.Command, ctx *commandContext, jobRef string, expected, next queue.Status) error {
	return ctx.withAccess(cmd, func(access queueaccess.Access) error {
		var (
			entry queue.Entry
			err   error
		)
		if expected != "" {
			entry, err = access.TransitionFrom(cmd.Context(), jobRef, expected, next)
		} else {
			entry, err = access.Transition(cmd.Context(), jobRef, next)
		}
		if err != nil {
			return err
		}
		if ctx.JSONMode() {
			return writeJSON(cmd, api.FromEntry(entry))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", entry.JobRef, entry.Status)
		return nil
	})
}

func parseStatusArg(value string) (queue.Status, error) {
	status, ok := queue.ParseStatus(value)
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", queue.ErrInvalidArgument, value)
	}
	return status, nil
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobRef>",
		Short: "Show a single queue entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access queueaccess.Access) error {
				entry, err := access.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dto := api.FromEntry(entry)
				if ctx.JSONMode() {
					return writeJSON(cmd, dto)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job: %s\n", dto.JobRef)
				fmt.Fprintf(out, "Position: %d\n", dto.Position)
				fmt.Fprintf(out, "Status: %s\n", formatStatusLabel(dto.Status))
				fmt.Fprintf(out, "Active: %s\n", yesNo(dto.Active))
				fmt.Fprintf(out, "Created: %s\n", formatDisplayTime(dto.CreatedAt))
				fmt.Fprintf(out, "Updated: %s\n", formatDisplayTime(dto.UpdatedAt))
				if next := queue.AllowedTransitions(entry.Status); len(next) > 0 {
					labels := make([]string, 0, len(next))
					for _, status := range next {
						labels = append(labels, string(status))
					}
					fmt.Fprintf(out, "Next: %s\n", strings.Join(labels, ", "))
				}
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		statuses []string
		active   bool
		order    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if active && len(statuses) > 0 {
				return errors.New("specify only one of --active or --status")
			}
			filters := make([]queue.Status, 0, len(statuses))
			for _, value := range statuses {
				status, err := parseStatusArg(value)
				if err != nil {
					return err
				}
				filters = append(filters, status)
			}

			return ctx.withAccess(cmd, func(access queueaccess.Access) error {
				var (
					entries []queue.Entry
					err     error
				)
				if active {
					entries, err = access.Active(cmd.Context())
				} else {
					entries, err = access.List(cmd.Context(), filters...)
				}
				if err != nil {
					return err
				}
				dtos, err := sortEntries(api.FromEntries(entries), order)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if dtos == nil {
						dtos = []api.Entry{}
					}
					return writeJSON(cmd, api.EntryListResponse{Entries: dtos})
				}
				out := cmd.OutOrStdout()
				if len(dtos) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"Pos", "Job", "Status", "Created", "Updated"},
					buildEntryRows(dtos, shouldColorize(out)),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&active, "active", false, "Show only pending and in-progress entries in position order")
	cmd.Flags().StringVar(&order, "sort", "created", "Row order: created, position or newest")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.FromStats(stats))
				}
				summary := queue.SummarizeStats(stats)
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable(
					[]string{"Status", "Count"},
					buildStatusRows(stats, shouldColorize(out)),
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Active: %d of %d\n", summary.Active, summary.Total)
				return nil
			})
		},
	}
}

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete completed and failed entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			before := time.Now().Add(-olderThan)
			return ctx.withAccess(cmd, func(access queueaccess.Access) error {
				removed, err := access.Purge(cmd.Context(), before)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.PurgeResponse{Removed: removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Only purge entries last updated longer ago than this")
	return cmd
}
