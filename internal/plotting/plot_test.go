package plotting

import (
	"path/filepath"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

func TestTrajectoryWritesPNGFile(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	states := []dae.State{{1, 0}, {0.9, 0.1}, {0.7, 0.2}, {0.5, 0.3}}
	out := filepath.Join(t.TempDir(), "traj.png")

	if err := Trajectory(times, states, nil, "test trajectory", out); err != nil {
		t.Fatalf("Trajectory returned error: %v", err)
	}
}

func TestTrajectoryRejectsEmptyInput(t *testing.T) {
	if err := Trajectory(nil, nil, nil, "empty", "/tmp/unused.png"); err == nil {
		t.Fatal("expected an error for empty trajectory")
	}
}
