// Package stepctrl implements the accept/reject, step-size and
// order state machine of SPEC_FULL.md §4.7. It reacts to the signal
// classification the Newton iterator produces for the step just
// attempted and proposes the (dt, order) pair for the next attempt.
//
// The mechanism below is modeled on the teacher's small stateful
// controller types (internal/control.PID's per-call Compute, which
// accumulates state across calls): Decide is this controller's
// equivalent of Compute, folding in accumulated easy-step and
// rejection counts instead of an error integral. There is no actuation
// input in a DAE solve, so nothing here computes a physical control
// signal -- only a step-size/order decision.
package stepctrl

import (
	"fmt"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Signal summarizes how the Newton iterator classified the step just
// attempted.
type Signal int

const (
	ConvergedEasily Signal = iota
	ConvergedNormal
	Slow
	Failed
	Singular
)

// Decision is the controller's proposal for the next step attempt.
type Decision struct {
	Dt      float64
	Order   int
	Accept  bool // whether the just-attempted step should be committed
	Err     error // non-nil only for an unrecoverable failure
}

// Controller owns the accumulated easy-step and rejection counts; one
// instance belongs to one solve.
type Controller struct {
	scheme dae.TimeStepping

	increaseFactor, decreaseFactor float64
	increaseThreshold              int
	dtMin, dtMax                   float64
	maxOrder                       int
	maxRejections                  int

	consecutiveEasy int
	rejections      int
}

// New builds a controller from the subset of dae.Config relevant to
// step-size and order policy.
func New(cfg dae.Config) *Controller {
	return &Controller{
		scheme:             cfg.TimeStepping,
		increaseFactor:     cfg.DtIncreaseFactor,
		decreaseFactor:     cfg.DtDecreaseFactor,
		increaseThreshold:  cfg.DtIncreaseThreshold,
		dtMin:              cfg.DtMin,
		dtMax:              cfg.DtMax,
		maxOrder:           cfg.BDFOrder,
		maxRejections:      cfg.MaxRejections,
	}
}

// Decide applies the §4.7 policy given the signal from the step just
// attempted at (dt, order), and the number of accepted steps so far
// (used for the order ramp-up: order must not exceed acceptedSteps+1,
// since a degree-k history polynomial needs k+1 known points).
func (c *Controller) Decide(sig Signal, dt float64, order, acceptedSteps int) Decision {
	switch sig {
	case Failed, Singular:
		c.consecutiveEasy = 0
		c.rejections++
		if c.rejections > c.maxRejections {
			return Decision{Accept: false, Err: fmt.Errorf("newton: %w", dae.ErrRejectionBudgetExceeded)}
		}
		newDt := dt * c.decreaseFactor
		if newDt < c.dtMin {
			return Decision{Accept: false, Err: fmt.Errorf("newton: %w", dae.ErrStepUnderflow)}
		}
		newOrder := order
		if newOrder > 1 {
			newOrder--
		}
		return Decision{Dt: newDt, Order: newOrder, Accept: false}

	case Slow:
		c.consecutiveEasy = 0
		c.rejections = 0
		newOrder := c.nextOrder(order, acceptedSteps)
		if c.scheme == dae.AdaptiveOrder && newOrder == order && order > 1 {
			newOrder = order - 1
		}
		newDt := c.clampDt(dt * c.decreaseFactor)
		if c.scheme == dae.Fixed {
			newDt = dt
		}
		return Decision{Dt: newDt, Order: newOrder, Accept: true}

	case ConvergedNormal:
		c.consecutiveEasy = 0
		c.rejections = 0
		return Decision{Dt: dt, Order: c.nextOrder(order, acceptedSteps), Accept: true}

	case ConvergedEasily:
		c.rejections = 0
		newOrder := c.nextOrder(order, acceptedSteps)
		if c.scheme == dae.Fixed {
			return Decision{Dt: dt, Order: newOrder, Accept: true}
		}
		c.consecutiveEasy++
		newDt := dt
		if c.consecutiveEasy >= c.increaseThreshold {
			newDt = c.clampDt(dt * c.increaseFactor)
			c.consecutiveEasy = 0
		}
		return Decision{Dt: newDt, Order: newOrder, Accept: true}
	}
	return Decision{Dt: dt, Order: order, Accept: true}
}

func (c *Controller) nextOrder(order, acceptedSteps int) int {
	max := c.maxOrder
	if max > acceptedSteps+1 {
		max = acceptedSteps + 1
	}
	if order < max {
		return order + 1
	}
	if order > max {
		return max
	}
	return order
}

func (c *Controller) clampDt(dt float64) float64 {
	if c.dtMax > 0 && dt > c.dtMax {
		return c.dtMax
	}
	if dt < c.dtMin {
		return c.dtMin
	}
	return dt
}
