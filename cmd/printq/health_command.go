package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/store"
	"printq/internal/store/sqlite"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check store health (SQLite: schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Backend == config.BackendSQLite {
				return runSQLiteHealth(cmd, ctx, cfg)
			}
			return runPingHealth(cmd, ctx, cfg)
		},
	}
}

func runSQLiteHealth(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) error {
	st, err := sqlite.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	health, err := st.CheckHealth(cmd.Context())
	if err != nil {
		return err
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, health)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
	fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
	fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
	fmt.Fprintf(out, "Schema version: %d\n", health.SchemaVersion)
	fmt.Fprintf(out, "queue_entries table present: %s\n", yesNo(health.TableExists))
	if len(health.ColumnsPresent) > 0 {
		cols := append([]string(nil), health.ColumnsPresent...)
		sort.Strings(cols)
		fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
	}
	if len(health.MissingColumns) > 0 {
		missing := append([]string(nil), health.MissingColumns...)
		sort.Strings(missing)
		fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
	} else {
		fmt.Fprintln(out, "Missing columns: none")
	}
	fmt.Fprintf(out, "Active position index: %s\n", yesNo(health.ActiveIndex))
	fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
	fmt.Fprintf(out, "Total entries: %d\n", health.TotalEntries)
	if health.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", health.Error)
	}
	return nil
}

func runPingHealth(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) error {
	logger, err := ctx.cliLogger(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	result := struct {
		Backend   string `json:"backend"`
		Reachable bool   `json:"reachable"`
		Error     string `json:"error,omitempty"`
	}{Backend: cfg.Store.Backend, Reachable: true}

	if pinger, ok := st.(store.Pinger); ok {
		pingCtx, cancel := context.WithTimeout(cmd.Context(), cfg.OperationTimeout())
		defer cancel()
		if err := pinger.Ping(pingCtx); err != nil {
			result.Reachable = false
			result.Error = err.Error()
		}
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend: %s\n", result.Backend)
	fmt.Fprintf(out, "Reachable: %s\n", yesNo(result.Reachable))
	if result.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", result.Error)
	}
	return nil
}
