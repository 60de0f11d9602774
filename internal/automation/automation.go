// Package automation drives multi-run batches: scripted scenarios,
// parameter sweeps over a solver setting, and Monte Carlo perturbation
// studies of initial conditions, in the same Load/Run shape as the
// teacher's automation package.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jangwj7/dae-cpp/internal/bdf"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/problems"
)

// Scenario is a named, scripted sequence of solves.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep names one problem and solver configuration to run.
type ScenarioStep struct {
	Problem string     `yaml:"problem"`
	T1      float64    `yaml:"t1"`
	Solver  dae.Config `yaml:"solver"`
	SaveAs  string     `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// StepResult pairs a scenario step's name with its solve outcome.
type StepResult struct {
	SaveAs string
	Result dae.Result
}

// RunScenario executes every step of a scenario in order. Because one
// solve is a synchronous, non-reentrant call into internal/bdf (see the
// concurrency note in SPEC_FULL.md §5), ctx is only checked between
// steps, never inside a single solve: canceling ctx stops the batch
// before its next queued step starts, but an in-flight step always
// finishes or fails on its own terms.
func RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("scenario canceled before step %d/%d: %w", i+1, len(scenario.Steps), err)
		}
		fmt.Printf("running step %d/%d: %s\n", i+1, len(scenario.Steps), step.Problem)

		spec, err := problems.Get(step.Problem)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		x0 := spec.X0.Clone()
		result, err := bdf.Solve(spec.Problem, x0, step.T1, step.Solver, nil)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Problem, err)
		}

		results = append(results, StepResult{SaveAs: step.SaveAs, Result: result})
	}

	return results, nil
}

// Sweep runs the named problem once per value of a solver setting,
// linearly spaced between Min and Max.
type Sweep struct {
	Problem  string
	Setting  string // one of "dt_init", "bdf_order", "rtol", "atol"
	Min, Max float64
	NumSteps int
	T1       float64
	Base     dae.Config
}

// SweepResult captures one sweep point's outcome.
type SweepResult struct {
	SettingValue float64
	Final        dae.State
	Counters     dae.Counters
	Err          error
}

// RunSweep executes the sweep, continuing past a failed point (recorded
// in SweepResult.Err) so one bad parameter choice does not abort the
// whole sweep.
func RunSweep(ctx context.Context, sweep *Sweep) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("automation: sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	spec, err := problems.Get(sweep.Problem)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	step := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		val := sweep.Min + float64(i)*step

		cfg := sweep.Base
		switch sweep.Setting {
		case "dt_init":
			cfg.DtInit = val
		case "bdf_order":
			cfg.BDFOrder = int(val)
		case "rtol":
			cfg.Rtol = val
		case "atol":
			cfg.Atol = val
		default:
			return results, fmt.Errorf("automation: unknown sweep setting %q", sweep.Setting)
		}

		x0 := spec.X0.Clone()
		result, err := bdf.Solve(spec.Problem, x0, sweep.T1, cfg, nil)
		results = append(results, SweepResult{SettingValue: val, Final: result.Final, Counters: result.Counters, Err: err})

		fmt.Printf("sweep %d/%d: %s=%.6g\n", i+1, sweep.NumSteps, sweep.Setting, val)
	}

	return results, nil
}

// MonteCarlo perturbs a problem's initial condition and checks the
// final state stays bounded, a cheap robustness smoke test for the
// Newton damping and step controller.
type MonteCarlo struct {
	Problem      string
	Perturbation float64
	NumTrials    int
	T1           float64
	Solver       dae.Config
	Seed         int64
}

// TrialResult is the outcome of one Monte Carlo trial.
type TrialResult struct {
	TrialID    int
	InitState  dae.State
	FinalState dae.State
	Stable     bool
	Err        error
}

// RunMonteCarlo executes NumTrials solves from perturbed initial
// conditions.
func RunMonteCarlo(ctx context.Context, mc *MonteCarlo) ([]TrialResult, error) {
	spec, err := problems.Get(mc.Problem)
	if err != nil {
		return nil, err
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]TrialResult, 0, mc.NumTrials)
	for trial := 0; trial < mc.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		x0 := make(dae.State, len(spec.X0))
		for i, v := range spec.X0 {
			x0[i] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}

		result, err := bdf.Solve(spec.Problem, x0.Clone(), mc.T1, mc.Solver, nil)

		stable := err == nil && result.Final.IsValid()
		if stable {
			for _, v := range result.Final {
				if v > 1e6 || v < -1e6 {
					stable = false
					break
				}
			}
		}

		results = append(results, TrialResult{
			TrialID:    trial,
			InitState:  x0,
			FinalState: result.Final,
			Stable:     stable,
			Err:        err,
		})

		if (trial+1)%10 == 0 {
			fmt.Printf("monte carlo: %d/%d trials complete\n", trial+1, mc.NumTrials)
		}
	}

	return results, nil
}

// Stats summarizes how many Monte Carlo trials stayed bounded.
func Stats(results []TrialResult) (stableCount, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
