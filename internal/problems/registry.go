package problems

import (
	"fmt"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Spec names one of the library problems together with its canonical
// initial condition, the shape the CLI and scenario automation select
// problems by name instead of constructing Go values directly.
type Spec struct {
	Name    string
	Problem dae.Residual
	X0      dae.State
}

// Get looks up a library problem by name. Recognized names: "robertson",
// "stiff_scalar", "diagonal_decay", "singular_chain", "bad_pattern",
// "perovskite".
func Get(name string) (Spec, error) {
	switch name {
	case "robertson":
		return Spec{Name: name, Problem: Robertson{}, X0: RobertsonInitialCondition()}, nil
	case "stiff_scalar":
		p := NewStiffScalar()
		return Spec{Name: name, Problem: p, X0: dae.State{1.0}}, nil
	case "diagonal_decay":
		p := NewDiagonalDecay(10)
		return Spec{Name: name, Problem: p, X0: p.InitialCondition()}, nil
	case "singular_chain":
		p := SingularChain{}
		return Spec{Name: name, Problem: p, X0: p.ConsistentInitialCondition()}, nil
	case "bad_pattern":
		p := &BadPattern{}
		return Spec{Name: name, Problem: p, X0: dae.State{1.0, 1.0}}, nil
	case "perovskite":
		p := NewPerovskite()
		return Spec{Name: name, Problem: p, X0: p.InitialCondition()}, nil
	default:
		return Spec{}, fmt.Errorf("problems: unknown problem %q", name)
	}
}

// Names lists every problem the registry recognizes, in the order the
// CLI's problem list/help output should present them.
func Names() []string {
	return []string{"robertson", "stiff_scalar", "diagonal_decay", "singular_chain", "bad_pattern", "perovskite"}
}
