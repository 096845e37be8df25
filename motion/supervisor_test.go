package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rotor/regs"
)

func TestSupervisorTelemetry(t *testing.T) {
	r := newRig(2)
	r.master.Move(77)
	r.sc.Update()

	r.eng.SuperviseTick()
	assert.Equal(t, r.w.ScalePosition(0), int32(77))
	assert.Equal(t, r.w.ScalePosition(1), int32(0))
}

func TestSupervisorSetEncoder(t *testing.T) {
	// S5: preset scale 0 to 12345 and report HALT, all in one pass
	r := newRig(2)
	r.master.Move(500)
	r.sc.Update()

	r.w.SetEncoderPresetIndex(0)
	r.w.SetEncoderPresetValue(12345)
	r.w.SetMode(regs.ModeSetEncoder)
	r.eng.SuperviseTick()

	assert.Equal(t, r.sc.Position(0), int32(12345))
	assert.Equal(t, r.w.ScalePosition(0), int32(12345))
	assert.Equal(t, r.w.Mode(), regs.ModeHalt)

	// the hardware counter was cleared along with the preset, so the
	// next sample yields zero delta
	r.sc.Update()
	assert.Equal(t, r.sc.Position(0), int32(12345))
}

func TestSupervisorSynchroInit(t *testing.T) {
	r := newRig(1)
	r.w.SetSynRatioNum(4)
	r.w.SetSynRatioDen(1)
	r.w.SetMode(regs.ModeSynchroInit)
	r.eng.SuperviseTick()
	assert.Equal(t, r.w.Mode(), regs.ModeSynchro)
}

func TestSupervisorJogIsRecognizedNoop(t *testing.T) {
	for _, m := range []regs.Mode{regs.ModeJog, regs.ModeJogForward, regs.ModeJogBackward, regs.ModeHalt} {
		r := newRig(1)
		r.w.SetMode(m)
		r.eng.SuperviseTick()
		assert.Equal(t, r.w.Mode(), m)
		assert.Equal(t, r.w.FinalPosition(), int32(0))
		assert.False(t, r.pulse.InFlight())
	}
}
