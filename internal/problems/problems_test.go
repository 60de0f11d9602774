package problems

import (
	"math"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/bdf"
	"github.com/jangwj7/dae-cpp/internal/dae"
)

func TestRobertsonConservesMassAlongTrajectory(t *testing.T) {
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-6
	cfg.DtMax = 1e4

	x0 := RobertsonInitialCondition()
	var maxDeviation float64
	obs := dae.ObserverFunc(func(x dae.State, tt float64) {
		dev := math.Abs(x[0] + x[1] + x[2] - 1)
		if dev > maxDeviation {
			maxDeviation = dev
		}
	})

	_, err := bdf.Solve(Robertson{}, x0, 400.0, cfg, obs)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if maxDeviation > 1e-6 {
		t.Errorf("conservation law deviation %v exceeds tolerance", maxDeviation)
	}
}

func TestStiffScalarStaysWithinToleranceBand(t *testing.T) {
	p := NewStiffScalar()
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-9
	cfg.DtMax = 1e-4

	x0 := dae.State{1.0}
	result, err := bdf.Solve(p, x0, 1e-5, cfg, nil)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	want := p.Exact(1.0, 1e-5)
	if math.Abs(result.Final[0]-want) > 1e-3*math.Abs(want)+1e-8 {
		t.Errorf("final = %v, want approx %v", result.Final[0], want)
	}
}

func TestDiagonalDecayOrderRampsPastTwo(t *testing.T) {
	p := NewDiagonalDecay(4)
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-4
	cfg.DtMax = 1e-2
	cfg.BDFOrder = 5

	x0 := p.InitialCondition()
	x0Exact := x0.Clone()
	result, err := bdf.Solve(p, x0, 0.2, cfg, nil)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if result.Counters.Steps < 3 {
		t.Fatalf("expected multiple accepted steps, got %d", result.Counters.Steps)
	}
	if result.Counters.FinalOrder < 3 {
		t.Errorf("expected the controller to ramp the order past 2, final order = %d", result.Counters.FinalOrder)
	}

	for i, got := range result.Final {
		want := p.Exact(x0Exact, i, result.FinalT)
		if math.Abs(got-want) > 1e-3*math.Abs(want)+1e-8 {
			t.Errorf("component %d = %v, want approx %v", i, got, want)
		}
	}
}

func TestSingularChainTracksAlgebraicConstraint(t *testing.T) {
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-4
	cfg.DtMax = 0.1

	var maxDeviation float64
	obs := dae.ObserverFunc(func(x dae.State, tt float64) {
		dev := math.Abs(x[1] - x[0]*x[0])
		if dev > maxDeviation {
			maxDeviation = dev
		}
	})

	x0 := SingularChain{}.ConsistentInitialCondition()
	_, err := bdf.Solve(SingularChain{}, x0, 1.0, cfg, obs)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if maxDeviation > 1e-6 {
		t.Errorf("constraint deviation %v exceeds tolerance", maxDeviation)
	}
}

func TestBadPatternSurfacesInconsistentPatternError(t *testing.T) {
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-3
	cfg.DtMax = 1e-2

	_, err := bdf.Solve(&BadPattern{}, dae.State{1.0, 1.0}, 10.0, cfg, nil)
	if err == nil {
		t.Fatal("expected a pattern-mismatch error")
	}
	var solveErr *dae.SolveError
	if !asSolveError(err, &solveErr) {
		t.Fatalf("expected a *dae.SolveError, got %T: %v", err, err)
	}
}

func asSolveError(err error, target **dae.SolveError) bool {
	se, ok := err.(*dae.SolveError)
	if !ok {
		return false
	}
	*target = se
	return true
}

func TestPerovskiteStartsOnManifoldAndRemainsFinite(t *testing.T) {
	p := NewPerovskite()
	cfg := dae.DefaultConfig()
	cfg.DtInit = 1e-5
	cfg.DtMax = 1e-2
	cfg.BDFOrder = 3

	x0 := p.InitialCondition()
	result, err := bdf.Solve(p, x0, 0.05, cfg, nil)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !result.Final.IsValid() {
		t.Fatal("final state contains non-finite values")
	}
}
