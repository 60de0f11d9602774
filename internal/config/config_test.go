package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Problem != DefaultProblem {
		t.Errorf("Problem = %q, want %q", cfg.Problem, DefaultProblem)
	}
	if cfg.T1 != DefaultT1 {
		t.Errorf("T1 = %g, want %g", cfg.T1, DefaultT1)
	}
	if err := cfg.Solver.Validate(); err != nil {
		t.Errorf("default solver config failed validation: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Problem = "stiff_scalar"
	cfg.T1 = 10

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Problem != "stiff_scalar" || loaded.T1 != 10 {
		t.Errorf("loaded config = %+v, want problem=stiff_scalar t1=10", loaded)
	}
}

func TestLoadRejectsInvalidSolverConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	data := []byte("problem: robertson\nt1: 1\nsolver:\n  rtol: -1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a config with an invalid solver section")
	}
}
