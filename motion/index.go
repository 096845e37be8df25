package motion

import (
	"math"

	"rotor/regs"
)

// IndexTick runs the trapezoidal indexer. It is invoked from a dedicated
// timer whose auto-reload the indexer itself rewrites every tick, which
// is how the step frequency follows the speed profile.
//
// The indexer never touches the pulse hardware. Each active tick applies
// exactly one direction unit to finalPosition with a single aligned
// store; the synchronizer's drain phase turns that into physical pulses.
// Index moves therefore inherit the pulse generator's rate limit and
// compose additively with synchronized motion.
func (e *Engine) IndexTick() {
	w := e.Regs
	ix := &e.index

	// Idle and a new request pending: latch it. Acceptance zeroes
	// indexDeltaSteps, which is the handshake telling the operator the
	// move was taken.
	if w.IndexDeltaSteps() != 0 && ix.currentStep == ix.totalSteps {
		if !e.acceptIndex() {
			return
		}
	}

	// Nothing to do: rearm the tick timer at a slow poll rate and wait
	// for the next request.
	if w.IndexDeltaSteps() == 0 && ix.currentStep == ix.totalSteps {
		e.indexTimer.SetAutoReload(indexIdleInterval)
		e.indexTimer.SetCompare(indexCompare)
		return
	}

	// Acceleration phase, first half of the move only.
	if w.CurrentSpeed() < w.MaxSpeed() && ix.currentStep < ix.totalSteps/2 {
		w.SetCurrentSpeed(w.CurrentSpeed() + w.Acceleration())
		ix.floatAccelInterval = ClockHz * ix.stepRatio / w.CurrentSpeed()

		if w.CurrentSpeed() > w.MaxSpeed() {
			w.SetCurrentSpeed(w.MaxSpeed())
		}
	} else if ix.decelSteps == 0 {
		// First tick past acceleration: remember how many steps it
		// took, which is exactly how many the symmetric deceleration
		// will need. No square root required.
		ix.decelSteps = ix.currentStep
	}

	// Deceleration phase: past the midpoint and within decelSteps of the
	// end.
	if w.CurrentSpeed() > w.MinSpeed() &&
		ix.currentStep > ix.totalSteps/2 &&
		ix.currentStep > ix.totalSteps-ix.decelSteps {
		w.SetCurrentSpeed(w.CurrentSpeed() - w.Acceleration())
		ix.floatAccelInterval = ClockHz * ix.stepRatio / w.CurrentSpeed()
	}

	// Rearm the tick timer for the new speed. The auto-reload register
	// is 16 bits wide.
	if ix.floatAccelInterval > indexMaxInterval {
		e.indexTimer.SetAutoReload(indexMaxInterval)
	} else {
		e.indexTimer.SetAutoReload(uint32(ix.floatAccelInterval))
	}
	e.indexTimer.SetCompare(indexCompare)

	ix.currentStep++
	w.AddFinalPosition(ix.direction)
}

// acceptIndex latches a pending index request. A request with a zero step
// ratio denominator or a non-finite profile parameter cannot produce a
// meaningful tick period; it is refused, left in place, and the
// controller surfaces HALT.
func (e *Engine) acceptIndex() bool {
	w := e.Regs
	ix := &e.index

	if w.StepRatioDen() == 0 ||
		!finite(w.MaxSpeed()) || !finite(w.MinSpeed()) || !finite(w.Acceleration()) {
		w.SetMode(regs.ModeHalt)
		return false
	}

	delta := int32(w.IndexDeltaSteps())
	if delta > 0 {
		ix.direction = 1
	} else {
		ix.direction = -1
	}

	ix.currentStep = 0
	if delta < 0 {
		ix.totalSteps = -delta
	} else {
		ix.totalSteps = delta
	}
	w.SetIndexDeltaSteps(0)

	ix.floatAccelInterval = w.Acceleration()
	w.SetCurrentSpeed(w.MinSpeed())
	ix.stepRatio = float32(w.StepRatioNum()) / float32(w.StepRatioDen())
	ix.decelSteps = 0
	return true
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
