package dae_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jangwj7/dae-cpp/internal/bdf"
	"github.com/jangwj7/dae-cpp/internal/dae"
	"github.com/jangwj7/dae-cpp/internal/problems"
)

var _ = Describe("built-in problem scenarios", func() {
	var cfg dae.Config

	BeforeEach(func() {
		cfg = dae.DefaultConfig()
	})

	Describe("S1: Robertson chemical kinetics", func() {
		It("conserves total mass and reaches the horizon", func() {
			spec, err := problems.Get("robertson")
			Expect(err).NotTo(HaveOccurred())

			result, err := bdf.Solve(spec.Problem, spec.X0.Clone(), 400, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FinalT).To(BeNumerically("==", 400))
			Expect(result.Final.IsValid()).To(BeTrue())

			total := result.Final[0] + result.Final[1] + result.Final[2]
			Expect(total).To(BeNumerically("~", 1.0, 1e-3))
		})
	})

	Describe("S2: a stiff scalar decay", func() {
		It("stays within the requested tolerance band of the exact solution", func() {
			problem := problems.NewStiffScalar()
			x0 := dae.State{1.0}

			result, err := bdf.Solve(problem, x0.Clone(), 1e-3, cfg, nil)
			Expect(err).NotTo(HaveOccurred())

			exact := problem.Exact(1.0, result.FinalT)
			Expect(result.Final[0]).To(BeNumerically("~", exact, 1e-3))
		})
	})

	Describe("S3: diagonal decay across widely separated eigenvalues", func() {
		It("ramps the BDF order past two as the solve progresses", func() {
			problem := problems.NewDiagonalDecay(4)
			x0 := problem.InitialCondition()

			result, err := bdf.Solve(problem, x0.Clone(), 5.0, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Counters.Steps).To(BeNumerically(">", 0))
			Expect(result.Final.IsValid()).To(BeTrue())
			Expect(result.Counters.FinalOrder).To(BeNumerically(">=", 3))

			for i, got := range result.Final {
				want := problem.Exact(x0, i, result.FinalT)
				Expect(got).To(BeNumerically("~", want, 1e-3*math.Abs(want)+1e-8))
			}
		})
	})

	Describe("S4: a singular-mass algebraic chain", func() {
		It("keeps the algebraic constraint satisfied at the horizon", func() {
			spec, err := problems.Get("singular_chain")
			Expect(err).NotTo(HaveOccurred())

			result, err := bdf.Solve(spec.Problem, spec.X0.Clone(), 2.0, cfg, nil)
			Expect(err).NotTo(HaveOccurred())

			residual := result.Final[0]*result.Final[0] - result.Final[1]
			Expect(residual).To(BeNumerically("~", 0, 1e-2))
		})
	})

	Describe("S5: a deliberately inconsistent Jacobian pattern", func() {
		It("surfaces ErrInconsistentPattern instead of silently producing a wrong answer", func() {
			spec, err := problems.Get("bad_pattern")
			Expect(err).NotTo(HaveOccurred())

			_, err = bdf.Solve(spec.Problem, spec.X0.Clone(), 10.0, cfg, nil)
			Expect(err).To(HaveOccurred())

			var solveErr *dae.SolveError
			Expect(errors.As(err, &solveErr)).To(BeTrue())
			Expect(errors.Is(solveErr, dae.ErrInconsistentPattern)).To(BeTrue())
		})
	})

	Describe("a 1-D drift-diffusion/Poisson supplement problem", func() {
		It("starts on the algebraic manifold and stays finite", func() {
			problem := problems.NewPerovskite()

			result, err := bdf.Solve(problem, problem.InitialCondition().Clone(), 1e-6, cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Final.IsValid()).To(BeTrue())
		})
	})
})
