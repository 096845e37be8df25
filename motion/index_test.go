package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotor/regs"
)

func indexRig(maxSpeed, minSpeed, accel float32, ratioNum, ratioDen int32) *rig {
	r := newRig(1)
	r.w.SetMaxSpeed(maxSpeed)
	r.w.SetMinSpeed(minSpeed)
	r.w.SetAcceleration(accel)
	r.w.SetStepRatioNum(ratioNum)
	r.w.SetStepRatioDen(ratioDen)
	return r
}

func TestIndexAcceptanceHandshake(t *testing.T) {
	r := indexRig(1000, 100, 10, 1, 1)
	r.w.SetIndexDeltaSteps(-200)

	r.eng.IndexTick()

	// within one tick the request is acknowledged and latched
	assert.Equal(t, r.w.IndexDeltaSteps(), int16(0))
	assert.Equal(t, r.eng.index.totalSteps, int32(200))
	assert.Equal(t, r.eng.index.direction, int32(-1))
	assert.Equal(t, r.eng.index.currentStep, int32(1))
	assert.Equal(t, r.w.FinalPosition(), int32(-1))

	// speed restarted from the floor, plus the first acceleration step
	assert.Equal(t, r.w.CurrentSpeed(), float32(110))
}

func TestIndexIdleRearm(t *testing.T) {
	r := indexRig(1000, 100, 10, 1, 1)

	r.eng.IndexTick()
	assert.Equal(t, r.idx.AutoReload(), uint32(10000))
	assert.Equal(t, r.idx.Compare(), uint32(10))
	assert.Equal(t, r.w.FinalPosition(), int32(0))
}

func TestIndexTrapezoid(t *testing.T) {
	// S4: 200 steps, 100..1000 steps/s, 10 steps/s per tick
	r := indexRig(1000, 100, 10, 1, 1)
	r.w.SetIndexDeltaSteps(200)

	var accelTicks, decelTicks int
	prev := float32(100)
	for i := 0; i < 200; i++ {
		r.eng.IndexTick()
		cur := r.w.CurrentSpeed()
		if cur > prev {
			accelTicks++
		}
		if cur < prev {
			decelTicks++
		}
		prev = cur
	}

	assert.Equal(t, r.w.FinalPosition(), int32(200))
	assert.Equal(t, r.eng.index.currentStep, int32(200))
	assert.Equal(t, r.w.IndexDeltaSteps(), int16(0))

	// 90 ticks to reach 1000 from 100, so deceleration is booked to
	// begin 90 steps from the end
	assert.Equal(t, r.eng.index.decelSteps, int32(90))
	assert.Equal(t, accelTicks, 90)
	assert.Equal(t, decelTicks, 89)
	assert.Equal(t, r.w.CurrentSpeed(), float32(110))

	// move complete: the next tick idles the timer again
	r.eng.IndexTick()
	assert.Equal(t, r.idx.AutoReload(), uint32(10000))
	assert.Equal(t, r.w.FinalPosition(), int32(200))
}

func TestIndexTickPeriodFollowsSpeed(t *testing.T) {
	r := indexRig(1000, 100, 10, 1, 1)
	r.w.SetIndexDeltaSteps(200)

	r.eng.IndexTick()
	// first tick runs at 110 steps/s: 1e6/110 cycles
	assert.Equal(t, r.idx.AutoReload(), uint32(9090))
	assert.Equal(t, r.idx.Compare(), uint32(10))

	prev := r.idx.AutoReload()
	for i := 0; i < 89; i++ {
		r.eng.IndexTick()
		cur := r.idx.AutoReload()
		assert.Less(t, cur, prev, "tick %d: interval must shrink while accelerating", i)
		prev = cur
	}
	// at full speed the interval bottoms out at 1e6/1000
	assert.Equal(t, r.idx.AutoReload(), uint32(1000))
}

func TestIndexIntervalClamped(t *testing.T) {
	// a large step ratio pushes the computed interval past the 16-bit
	// auto-reload; it must clamp, not wrap
	r := indexRig(1000, 100, 10, 1000, 1)
	r.w.SetIndexDeltaSteps(10)

	r.eng.IndexTick()
	assert.Equal(t, r.idx.AutoReload(), uint32(65535))
}

func TestIndexRefusedZeroStepRatioDen(t *testing.T) {
	r := indexRig(1000, 100, 10, 1, 0)
	r.w.SetMode(regs.ModeSynchro)
	r.w.SetIndexDeltaSteps(50)

	r.eng.IndexTick()

	// refused: the request stays pending and the controller halts
	assert.Equal(t, r.w.Mode(), regs.ModeHalt)
	assert.Equal(t, r.w.IndexDeltaSteps(), int16(50))
	assert.Equal(t, r.w.FinalPosition(), int32(0))
	assert.Equal(t, r.eng.index.totalSteps, int32(0))
}

func TestIndexRefusedNonFiniteProfile(t *testing.T) {
	for _, bad := range []float32{
		float32(math.NaN()),
		float32(math.Inf(1)),
		float32(math.Inf(-1)),
	} {
		r := indexRig(bad, 100, 10, 1, 1)
		r.w.SetIndexDeltaSteps(50)
		r.eng.IndexTick()
		assert.Equal(t, r.w.Mode(), regs.ModeHalt)
		assert.Equal(t, r.w.IndexDeltaSteps(), int16(50))
		assert.Equal(t, r.w.FinalPosition(), int32(0))
	}
}

func TestIndexShortMoveNeverCruises(t *testing.T) {
	// a move too short to reach maxSpeed decelerates off the midpoint
	r := indexRig(100000, 100, 10, 1, 1)
	r.w.SetIndexDeltaSteps(20)

	for i := 0; i < 20; i++ {
		r.eng.IndexTick()
	}
	assert.Equal(t, r.w.FinalPosition(), int32(20))
	assert.Equal(t, r.eng.index.currentStep, int32(20))

	// it accelerated through the first half only
	assert.Equal(t, r.eng.index.decelSteps, int32(10))
}

func TestIndexRequestWhileBusyWaits(t *testing.T) {
	r := indexRig(1000, 100, 10, 1, 1)
	r.w.SetIndexDeltaSteps(100)

	for i := 0; i < 50; i++ {
		r.eng.IndexTick()
	}
	require.Equal(t, r.eng.index.currentStep, int32(50))

	// a new request mid-move is not accepted until the current move
	// completes
	r.w.SetIndexDeltaSteps(40)
	r.eng.IndexTick()
	assert.Equal(t, r.w.IndexDeltaSteps(), int16(40))
	assert.Equal(t, r.eng.index.totalSteps, int32(100))

	for i := 0; i < 49; i++ {
		r.eng.IndexTick()
	}
	require.Equal(t, r.eng.index.currentStep, int32(100))
	assert.Equal(t, r.w.FinalPosition(), int32(100))

	// idle now; the pending request latches on the next tick
	r.eng.IndexTick()
	assert.Equal(t, r.w.IndexDeltaSteps(), int16(0))
	assert.Equal(t, r.eng.index.totalSteps, int32(40))
	assert.Equal(t, r.w.FinalPosition(), int32(101))
}
