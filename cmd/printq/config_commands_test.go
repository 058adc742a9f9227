package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "printq", "config.toml")

	out, _, err := runCLI(t, context.Background(), []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, context.Background(), []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, context.Background(), []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, context.Background(), []string{"--config", target, "config", "validate"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Store backend: sqlite")
	requireContains(t, out, "[ok] Data directory")
	requireContains(t, out, "[ok] Store (sqlite): Reachable")
}

func TestConfigValidateReportsUnreachableStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[paths]\ndata_dir = \"" + dataDir + "\"\n\n[store]\nbackend = \"redis\"\nredis_addr = \"127.0.0.1:1\"\noperation_timeout_seconds = 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, context.Background(), []string{"--config", path, "config", "validate"})
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, out, "[FAIL] Store (redis)")

	out, _, err = runCLI(t, context.Background(), []string{"--config", path, "config", "validate", "--skip-checks"})
	if err != nil {
		t.Fatalf("config validate --skip-checks: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"cassandra\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, context.Background(), []string{"--config", path, "config", "validate"}); err == nil {
		t.Fatal("expected validation error")
	}
}
