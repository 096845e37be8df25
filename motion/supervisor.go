package motion

import (
	"rotor/regs"
)

// SuperviseTick is one pass of the background supervisor task. It
// refreshes the scale telemetry in the register window and translates
// command modes into subsystem state:
//
//   - SYNCHRO_INIT arms synchronized motion (or parks in
//     SYNCHRO_BAD_RATIO).
//   - SET_ENCODER presets a scale channel and reports HALT when done.
//   - JOG, JOG_FW and JOG_BW are recognized values with no behavior
//     here; everything else is left alone.
func (e *Engine) SuperviseTick() {
	w := e.Regs

	for i := 0; i < e.Scales.Len(); i++ {
		w.SetScalePosition(i, e.Scales.Position(i))
	}

	switch w.Mode() {
	case regs.ModeSynchroInit:
		e.SyncInit()

	case regs.ModeSetEncoder:
		i := int(w.EncoderPresetIndex())
		v := w.EncoderPresetValue()
		e.Scales.Preset(i, v)
		w.SetScalePosition(i, v)
		w.SetMode(regs.ModeHalt)
	}
}
