package analysis

import (
	"testing"

	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/problems"
)

func TestSpectrumHandlesNonPowerOfTwoLength(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7}
	spectrum := Spectrum(data)
	if len(spectrum) == 0 {
		t.Fatal("expected a non-empty spectrum")
	}
}

func TestSpectrumEmptyInput(t *testing.T) {
	if s := Spectrum(nil); s != nil {
		t.Fatalf("expected nil spectrum for empty input, got %v", s)
	}
}

func TestGeneratePhasePortrait2DProjectsRecordedStates(t *testing.T) {
	states := []dae.State{{1, 2}, {3, 4}, {5, 6}}
	portrait := GeneratePhasePortrait2D(states, 0, 1)
	if portrait == nil || len(portrait.Points) != 3 {
		t.Fatalf("expected 3 projected points, got %+v", portrait)
	}
	if portrait.Points[1].X != 3 || portrait.Points[1].Y != 4 {
		t.Errorf("unexpected projection: %+v", portrait.Points[1])
	}
}

func TestGeneratePoincareSectionFindsRisingCrossing(t *testing.T) {
	states := []dae.State{{-1, 0}, {1, 10}, {-1, 0}, {1, 20}}
	section := GeneratePoincareSection(states, 0, 0, 1, 1)
	if section == nil || len(section.Points) != 2 {
		t.Fatalf("expected 2 crossings, got %+v", section)
	}
}

func TestSensitivityExponentOnDampedScalarIsNonPositive(t *testing.T) {
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-9
	cfg.DtMax = 1e-6

	exponent, err := SensitivityExponent(problems.NewStiffScalar(), dae.State{1.0}, 1e-5, cfg, 1e-6)
	if err != nil {
		t.Fatalf("SensitivityExponent: %v", err)
	}
	if exponent > 0 {
		t.Errorf("expected a non-positive exponent for a strongly damped scalar, got %g", exponent)
	}
}
