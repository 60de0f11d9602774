package storage

import (
	"path/filepath"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/bdf"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/problems"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "runs"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-9
	cfg.DtMax = 1e-6

	rec := NewRecorder()
	x0 := dae.State{1.0}
	result, err := bdf.Solve(problems.NewStiffScalar(), x0, 1e-5, cfg, rec)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	runID, err := s.Save("stiff_scalar", 1e-5, cfg, result, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Problem != "stiff_scalar" {
		t.Errorf("Problem = %q, want stiff_scalar", meta.Problem)
	}

	times, states, err := s.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if len(times) == 0 || len(states) != len(times) {
		t.Fatalf("trajectory round trip produced %d times, %d states", len(times), len(states))
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("List returned %d runs, want 1", len(runs))
	}
}
