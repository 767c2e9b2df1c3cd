package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BARTER_DB", "BARTER_ADDR", "BARTER_ADMIN_USER", "BARTER_LOG",
		"BARTER_REDIS_ADDR", "BARTER_REDIS_PASSWORD", "BARTER_PROPOSALS_PER_MINUTE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("expected db %q, got %q", DefaultDBPath, cfg.DBPath)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("expected addr %q, got %q", DefaultAddr, cfg.Addr)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected no redis, got %q", cfg.RedisAddr)
	}
	if cfg.ProposalsPerMinute != DefaultProposalsPerMinute {
		t.Errorf("expected %d proposals per minute, got %d", DefaultProposalsPerMinute, cfg.ProposalsPerMinute)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("BARTER_ADDR", ":9090")
	os.Unsetenv("BARTER_DB")
	os.Unsetenv("BARTER_REDIS_ADDR")
	os.Unsetenv("BARTER_PROPOSALS_PER_MINUTE")
	t.Cleanup(func() {
		os.Unsetenv("BARTER_DB")
		os.Unsetenv("BARTER_REDIS_ADDR")
		os.Unsetenv("BARTER_PROPOSALS_PER_MINUTE")
	})

	path := filepath.Join(t.TempDir(), ".env")
	content := "BARTER_DB=/tmp/test.sqlite3\nBARTER_ADDR=:7070\nBARTER_REDIS_ADDR=localhost:6379\nBARTER_PROPOSALS_PER_MINUTE=3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/test.sqlite3" {
		t.Errorf("expected db from file, got %q", cfg.DBPath)
	}
	// Variables already in the environment win over the file.
	if cfg.Addr != ":9090" {
		t.Errorf("expected addr from environment, got %q", cfg.Addr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr from file, got %q", cfg.RedisAddr)
	}
	if cfg.ProposalsPerMinute != 3 {
		t.Errorf("expected 3 proposals per minute, got %d", cfg.ProposalsPerMinute)
	}
}

func TestLoadInvalidRate(t *testing.T) {
	t.Setenv("BARTER_PROPOSALS_PER_MINUTE", "lots")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric rate")
	}
}
