package preflight

import (
	"context"
	"log/slog"

	"printq/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckPaths(cfg)
	results = append(results, CheckStore(ctx, cfg, logger))
	return results
}

// CheckPaths checks the configured data and log directories.
func CheckPaths(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
