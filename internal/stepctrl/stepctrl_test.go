package stepctrl

import (
	"errors"
	"testing"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

func baseConfig() dae.Config {
	cfg := dae.DefaultConfig()
	cfg.DtMin = 1e-8
	cfg.DtMax = 1.0
	cfg.DtIncreaseThreshold = 2
	cfg.DtIncreaseFactor = 2.0
	cfg.DtDecreaseFactor = 0.5
	cfg.MaxRejections = 3
	cfg.BDFOrder = 4
	return cfg
}

func TestOrderRampIsBoundedByHistoryDepth(t *testing.T) {
	c := New(baseConfig())
	d := c.Decide(ConvergedNormal, 0.1, 1, 0) // only 0 accepted steps so far -> can go to order 1 max
	if d.Order != 1 {
		t.Errorf("order = %d, want 1 (not enough history for order 2)", d.Order)
	}
	d = c.Decide(ConvergedNormal, 0.1, 1, 1) // now 1 accepted step -> order 2 allowed
	if d.Order != 2 {
		t.Errorf("order = %d, want 2", d.Order)
	}
}

func TestRejectionShrinksDtAndDropsOrder(t *testing.T) {
	c := New(baseConfig())
	d := c.Decide(Failed, 0.1, 3, 5)
	if d.Accept {
		t.Error("failed step must not be accepted")
	}
	if d.Dt != 0.05 {
		t.Errorf("dt = %v, want 0.05", d.Dt)
	}
	if d.Order != 2 {
		t.Errorf("order = %d, want 2", d.Order)
	}
}

func TestRejectionBudgetExceeded(t *testing.T) {
	c := New(baseConfig())
	var last Decision
	for i := 0; i < 10; i++ {
		last = c.Decide(Failed, 0.1, 1, 0)
		if last.Err != nil {
			break
		}
	}
	if !errors.Is(last.Err, dae.ErrRejectionBudgetExceeded) {
		t.Fatalf("expected rejection budget error, got %v", last.Err)
	}
}

func TestDtUnderflowDetected(t *testing.T) {
	cfg := baseConfig()
	cfg.DtMin = 0.09
	c := New(cfg)
	d := c.Decide(Failed, 0.1, 1, 0)
	if !errors.Is(d.Err, dae.ErrStepUnderflow) {
		t.Fatalf("expected underflow error, got %v", d.Err)
	}
}

func TestIncreaseAfterThresholdEasySteps(t *testing.T) {
	c := New(baseConfig())
	d := c.Decide(ConvergedEasily, 0.1, 4, 10)
	if d.Dt != 0.1 {
		t.Errorf("dt should not increase before threshold, got %v", d.Dt)
	}
	d = c.Decide(ConvergedEasily, 0.1, 4, 11)
	if d.Dt != 0.2 {
		t.Errorf("dt should double after threshold easy steps, got %v", d.Dt)
	}
}

func TestFixedSchemeNeverChangesDt(t *testing.T) {
	cfg := baseConfig()
	cfg.TimeStepping = dae.Fixed
	c := New(cfg)
	for i := 0; i < 5; i++ {
		d := c.Decide(ConvergedEasily, 0.1, 4, 10)
		if d.Dt != 0.1 {
			t.Fatalf("fixed scheme changed dt to %v", d.Dt)
		}
	}
}

func TestDtClampedToMax(t *testing.T) {
	cfg := baseConfig()
	cfg.DtMax = 0.15
	c := New(cfg)
	c.Decide(ConvergedEasily, 0.1, 4, 10)
	d := c.Decide(ConvergedEasily, 0.1, 4, 11)
	if d.Dt != 0.15 {
		t.Errorf("dt = %v, want clamped to dt_max=0.15", d.Dt)
	}
}
