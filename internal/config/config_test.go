package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.WriteMode {
		t.Error("expected write_mode to default to false")
	}
	if cfg.API.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.API.Port)
	}
	if cfg.Queue.Concurrency != 2 {
		t.Errorf("expected default concurrency 2, got %d", cfg.Queue.Concurrency)
	}
}

func TestLoadFromReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := []byte(`write_mode = true

[api]
port = 9000
`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if !cfg.WriteMode {
		t.Error("expected write_mode=true from file")
	}
	if cfg.API.Port != 9000 {
		t.Errorf("expected overridden port 9000, got %d", cfg.API.Port)
	}
}

func TestToTOMLRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WriteMode = true
	cfg.API.Port = 9001

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(cfg.ToTOML()), 0644); err != nil {
		t.Fatalf("write rendered config: %v", err)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom of rendered config failed: %v", err)
	}
	if !reloaded.WriteMode {
		t.Error("expected write_mode=true to round-trip")
	}
	if reloaded.API.Port != 9001 {
		t.Errorf("expected port 9001 to round-trip, got %d", reloaded.API.Port)
	}
}

func TestConfigExists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if ConfigExists() {
		t.Error("expected ConfigExists to report false before any config is saved")
	}
}
