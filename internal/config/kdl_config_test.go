package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadKDLMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project.Root != dir {
		t.Fatalf("expected default root %q, got %q", dir, cfg.Project.Root)
	}
	if cfg.Performance.MaxWorkers != 4 {
		t.Fatalf("expected default MaxWorkers 4, got %d", cfg.Performance.MaxWorkers)
	}
}

func TestLoadKDLOverlay(t *testing.T) {
	dir := t.TempDir()
	kdlContent := `
project {
    name "demo"
}
performance {
    max_workers 8
}
logging {
    level "debug"
}
`
	if err := os.WriteFile(filepath.Join(dir, ".lcserver.kdl"), []byte(kdlContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadKDL(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project.Name != "demo" {
		t.Fatalf("expected project name demo, got %q", cfg.Project.Name)
	}
	if cfg.Performance.MaxWorkers != 8 {
		t.Fatalf("expected MaxWorkers 8, got %d", cfg.Performance.MaxWorkers)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %q", cfg.Logging.Level)
	}
}
