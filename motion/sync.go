package motion

import (
	"rotor/regs"
)

// SyncTick is the fixed-rate synchronizer tick (nominally 50 kHz). It
// works in two phases:
//
// Phase A drains any outstanding target: while finalPosition differs from
// currentPosition it sets the direction line from the sign of the gap and
// arms one pulse, then returns. Pulse emission is therefore rate-limited
// to one step per sync tick regardless of how fast the target advances.
//
// Phase B, reached only with nothing left to drain, folds the master
// movement since the previous tick into finalPosition through the
// Bresenham accumulator. Deciding one slave step per master count is
// integer line rasterization with slope den/num; the accumulated error
// stays within one step and never drifts, which a float ratio could not
// guarantee over hours of slaving.
// https://en.wikipedia.org/wiki/Bresenham%27s_line_algorithm
//
// The scales are sampled on every tick, in every mode, so master counts
// are never lost while the axis is halted.
func (e *Engine) SyncTick() {
	e.Scales.Update()

	w := e.Regs
	if w.Mode() == regs.ModeSynchro && w.FinalPosition() != w.CurrentPosition() {
		e.dir.Set(w.FinalPosition() > w.CurrentPosition())
		if e.syncSource.Running() {
			e.pulse.Request()
		}
		return
	}

	if w.Mode() != regs.ModeSynchro {
		return
	}

	s := &e.sync
	s.positionPrevious = s.positionCurrent
	s.positionCurrent = e.Scales.Position(int(w.SynScaleIndex()))

	num := w.SynRatioNum()
	den := w.SynRatioDen()

	switch {
	case s.positionCurrent > s.positionPrevious:
		e.dir.Set(true)
		s.direction = 1
		for x := s.positionPrevious; x < s.positionCurrent; x++ {
			if s.d > 0 {
				w.AddFinalPosition(s.yi)
				s.d += 2 * (den - num)
			} else {
				s.d += 2 * den
			}
		}
	case s.positionCurrent < s.positionPrevious:
		e.dir.Set(false)
		s.direction = -1
		for x := s.positionPrevious; x > s.positionCurrent; x-- {
			if s.d < 0 {
				w.AddFinalPosition(-s.yi)
				s.d -= 2 * (den - num)
			} else {
				s.d -= 2 * den
			}
		}
	}
}

// SyncInit validates the commanded ratio and arms synchronized motion.
// The ratio must satisfy num > 0, den > 0, num ≥ den (at most one slave
// step per master count); anything else parks the controller in
// SYNCHRO_BAD_RATIO until the operator writes a new mode.
//
// Any outstanding target is discarded by forcing currentPosition onto
// finalPosition, so entering SYNCHRO never replays steps commanded under
// a previous mode. The master snapshot is deliberately not resampled
// here: master movement that happened outside SYNCHRO is folded in on the
// first tick after entry.
func (e *Engine) SyncInit() {
	w := e.Regs

	num := w.SynRatioNum()
	den := w.SynRatioDen()
	if num <= 0 || den <= 0 || den > num {
		w.SetMode(regs.ModeSynchroBadRatio)
		return
	}

	e.sync.yi = 1
	e.sync.d = 2 * (den - num)

	e.pulse.Configure(pulseAutoReload, pulseCompare)

	w.SetCurrentPosition(w.FinalPosition())
	w.SetMode(regs.ModeSynchro)
}
