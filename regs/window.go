// Package regs implements the fieldbus register window: the fixed-layout
// 16-bit register file shared between the motion engine and the fieldbus
// slave.
//
// Rather than aliasing a packed struct onto the slave's register array,
// the layout is explicit: every field has a fixed word offset, 32-bit fields occupy two consecutive registers in
// little-endian word order, and the fieldbus goes through ReadWord /
// WriteWord so each access is serialized per register.
//
// Fields are typed by their intended writer. The engine mutates
// currentPosition, finalPosition, currentSpeed and scalesPosition;
// fieldbus writes to those registers are dropped. Everything the operator
// owns (mode, ratios, profile parameters, preset commands) is accepted
// from either side. All backing storage is 32-bit atomics, so a
// concurrent reader can tear a 32-bit field only across its two-register
// boundary — acceptable for telemetry, and the engine itself always uses
// the typed accessors.

package regs

import (
	"math"
	"sync/atomic"

	"rotor/word"
)

// Mode is the commanded/reported controller mode.
type Mode uint16

const (
	ModeHalt            Mode = 0
	ModeSynchro         Mode = 20
	ModeSynchroInit     Mode = 21
	ModeJog             Mode = 30
	ModeJogForward      Mode = 31
	ModeJogBackward     Mode = 32
	ModeSetEncoder      Mode = 40
	ModeSynchroBadRatio Mode = 101
)

func (m Mode) String() string {
	switch m {
	case ModeHalt:
		return "HALT"
	case ModeSynchro:
		return "SYNCHRO"
	case ModeSynchroInit:
		return "SYNCHRO_INIT"
	case ModeJog:
		return "JOG"
	case ModeJogForward:
		return "JOG_FW"
	case ModeJogBackward:
		return "JOG_BW"
	case ModeSetEncoder:
		return "SET_ENCODER"
	case ModeSynchroBadRatio:
		return "SYNCHRO_BAD_RATIO"
	}
	return "?"
}

// Register word offsets. 32-bit fields occupy the named offset and the
// one after it.
const (
	RegMode               = 0
	RegCurrentPosition    = 2
	RegFinalPosition      = 4
	RegIndexDeltaSteps    = 6
	RegEncoderPresetIndex = 10
	RegEncoderPresetValue = 11
	RegMaxSpeed           = 16
	RegMinSpeed           = 18
	RegCurrentSpeed       = 20
	RegAcceleration       = 22
	RegStepRatioNum       = 24
	RegStepRatioDen       = 26
	RegSynRatioNum        = 30
	RegSynRatioDen        = 32
	RegSynOffset          = 34
	RegSynScaleIndex      = 36
	RegScalesPosition     = 37
)

// Window is the register file. Construct with New; the zero value has no
// scale telemetry slots.
type Window struct {
	mode               atomic.Uint32
	currentPosition    atomic.Int32
	finalPosition      atomic.Int32
	indexDeltaSteps    atomic.Int32 // i16 semantics, sign-extended
	encoderPresetIndex atomic.Uint32
	encoderPresetValue atomic.Int32
	maxSpeed           atomic.Uint32 // float32 bits
	minSpeed           atomic.Uint32
	currentSpeed       atomic.Uint32
	acceleration       atomic.Uint32
	stepRatioNum       atomic.Int32
	stepRatioDen       atomic.Int32
	synRatioNum        atomic.Int32
	synRatioDen        atomic.Int32
	synOffset          atomic.Int32
	synScaleIndex      atomic.Uint32
	scalesPosition     []atomic.Int32
}

// New returns a window with telemetry slots for the given number of
// master scales.
func New(scales int) *Window {
	return &Window{scalesPosition: make([]atomic.Int32, scales)}
}

// Words is the total register count: the fixed block plus two words per
// scale.
func (w *Window) Words() int {
	return RegScalesPosition + 2*len(w.scalesPosition)
}

func (w *Window) Scales() int { return len(w.scalesPosition) }

// Typed accessors. These are the only paths the engine uses.

func (w *Window) Mode() Mode     { return Mode(w.mode.Load()) }
func (w *Window) SetMode(m Mode) { w.mode.Store(uint32(m)) }

func (w *Window) CurrentPosition() int32     { return w.currentPosition.Load() }
func (w *Window) SetCurrentPosition(v int32) { w.currentPosition.Store(v) }
func (w *Window) AddCurrentPosition(d int32) int32 {
	return w.currentPosition.Add(d)
}

func (w *Window) FinalPosition() int32     { return w.finalPosition.Load() }
func (w *Window) SetFinalPosition(v int32) { w.finalPosition.Store(v) }

// AddFinalPosition applies one direction unit (or a sync accept) as a
// single aligned store, which is what makes a lower-priority indexer tick
// safe against a preempting sync tick.
func (w *Window) AddFinalPosition(d int32) int32 {
	return w.finalPosition.Add(d)
}

func (w *Window) IndexDeltaSteps() int16     { return int16(w.indexDeltaSteps.Load()) }
func (w *Window) SetIndexDeltaSteps(v int16) { w.indexDeltaSteps.Store(int32(v)) }

func (w *Window) EncoderPresetIndex() uint16     { return uint16(w.encoderPresetIndex.Load()) }
func (w *Window) SetEncoderPresetIndex(v uint16) { w.encoderPresetIndex.Store(uint32(v)) }
func (w *Window) EncoderPresetValue() int32      { return w.encoderPresetValue.Load() }
func (w *Window) SetEncoderPresetValue(v int32)  { w.encoderPresetValue.Store(v) }

func (w *Window) MaxSpeed() float32         { return math.Float32frombits(w.maxSpeed.Load()) }
func (w *Window) SetMaxSpeed(v float32)     { w.maxSpeed.Store(math.Float32bits(v)) }
func (w *Window) MinSpeed() float32         { return math.Float32frombits(w.minSpeed.Load()) }
func (w *Window) SetMinSpeed(v float32)     { w.minSpeed.Store(math.Float32bits(v)) }
func (w *Window) CurrentSpeed() float32     { return math.Float32frombits(w.currentSpeed.Load()) }
func (w *Window) SetCurrentSpeed(v float32) { w.currentSpeed.Store(math.Float32bits(v)) }
func (w *Window) Acceleration() float32     { return math.Float32frombits(w.acceleration.Load()) }
func (w *Window) SetAcceleration(v float32) { w.acceleration.Store(math.Float32bits(v)) }

func (w *Window) StepRatioNum() int32     { return w.stepRatioNum.Load() }
func (w *Window) SetStepRatioNum(v int32) { w.stepRatioNum.Store(v) }
func (w *Window) StepRatioDen() int32     { return w.stepRatioDen.Load() }
func (w *Window) SetStepRatioDen(v int32) { w.stepRatioDen.Store(v) }

func (w *Window) SynRatioNum() int32     { return w.synRatioNum.Load() }
func (w *Window) SetSynRatioNum(v int32) { w.synRatioNum.Store(v) }
func (w *Window) SynRatioDen() int32     { return w.synRatioDen.Load() }
func (w *Window) SetSynRatioDen(v int32) { w.synRatioDen.Store(v) }

func (w *Window) SynOffset() int32     { return w.synOffset.Load() }
func (w *Window) SetSynOffset(v int32) { w.synOffset.Store(v) }

func (w *Window) SynScaleIndex() uint16     { return uint16(w.synScaleIndex.Load()) }
func (w *Window) SetSynScaleIndex(v uint16) { w.synScaleIndex.Store(uint32(v)) }

func (w *Window) ScalePosition(i int) int32 {
	if i < 0 || i >= len(w.scalesPosition) {
		return 0
	}
	return w.scalesPosition[i].Load()
}

func (w *Window) SetScalePosition(i int, v int32) {
	if i < 0 || i >= len(w.scalesPosition) {
		return
	}
	w.scalesPosition[i].Store(v)
}

// ReadWord returns the 16-bit register at the given word offset.
// Unassigned and reserved words read as zero.
func (w *Window) ReadWord(off int) uint16 {
	switch off {
	case RegMode:
		return uint16(w.mode.Load())
	case RegCurrentPosition:
		return word.Lo(uint32(w.currentPosition.Load()))
	case RegCurrentPosition + 1:
		return word.Hi(uint32(w.currentPosition.Load()))
	case RegFinalPosition:
		return word.Lo(uint32(w.finalPosition.Load()))
	case RegFinalPosition + 1:
		return word.Hi(uint32(w.finalPosition.Load()))
	case RegIndexDeltaSteps:
		return uint16(int16(w.indexDeltaSteps.Load()))
	case RegEncoderPresetIndex:
		return uint16(w.encoderPresetIndex.Load())
	case RegEncoderPresetValue:
		return word.Lo(uint32(w.encoderPresetValue.Load()))
	case RegEncoderPresetValue + 1:
		return word.Hi(uint32(w.encoderPresetValue.Load()))
	case RegMaxSpeed:
		return word.Lo(w.maxSpeed.Load())
	case RegMaxSpeed + 1:
		return word.Hi(w.maxSpeed.Load())
	case RegMinSpeed:
		return word.Lo(w.minSpeed.Load())
	case RegMinSpeed + 1:
		return word.Hi(w.minSpeed.Load())
	case RegCurrentSpeed:
		return word.Lo(w.currentSpeed.Load())
	case RegCurrentSpeed + 1:
		return word.Hi(w.currentSpeed.Load())
	case RegAcceleration:
		return word.Lo(w.acceleration.Load())
	case RegAcceleration + 1:
		return word.Hi(w.acceleration.Load())
	case RegStepRatioNum:
		return word.Lo(uint32(w.stepRatioNum.Load()))
	case RegStepRatioNum + 1:
		return word.Hi(uint32(w.stepRatioNum.Load()))
	case RegStepRatioDen:
		return word.Lo(uint32(w.stepRatioDen.Load()))
	case RegStepRatioDen + 1:
		return word.Hi(uint32(w.stepRatioDen.Load()))
	case RegSynRatioNum:
		return word.Lo(uint32(w.synRatioNum.Load()))
	case RegSynRatioNum + 1:
		return word.Hi(uint32(w.synRatioNum.Load()))
	case RegSynRatioDen:
		return word.Lo(uint32(w.synRatioDen.Load()))
	case RegSynRatioDen + 1:
		return word.Hi(uint32(w.synRatioDen.Load()))
	case RegSynOffset:
		return word.Lo(uint32(w.synOffset.Load()))
	case RegSynOffset + 1:
		return word.Hi(uint32(w.synOffset.Load()))
	case RegSynScaleIndex:
		return uint16(w.synScaleIndex.Load())
	}
	if off >= RegScalesPosition && off < w.Words() {
		i := (off - RegScalesPosition) / 2
		v := uint32(w.scalesPosition[i].Load())
		if (off-RegScalesPosition)%2 == 0 {
			return word.Lo(v)
		}
		return word.Hi(v)
	}
	return 0
}

// WriteWord writes the 16-bit register at the given word offset, if the
// register belongs to an operator-writable field. Writes to engine-owned
// or reserved registers are dropped.
func (w *Window) WriteWord(off int, v uint16) {
	switch off {
	case RegMode:
		w.mode.Store(uint32(v))
	case RegIndexDeltaSteps:
		w.indexDeltaSteps.Store(int32(int16(v)))
	case RegEncoderPresetIndex:
		w.encoderPresetIndex.Store(uint32(v))
	case RegEncoderPresetValue:
		writeLoI32(&w.encoderPresetValue, v)
	case RegEncoderPresetValue + 1:
		writeHiI32(&w.encoderPresetValue, v)
	case RegMaxSpeed:
		writeLoU32(&w.maxSpeed, v)
	case RegMaxSpeed + 1:
		writeHiU32(&w.maxSpeed, v)
	case RegMinSpeed:
		writeLoU32(&w.minSpeed, v)
	case RegMinSpeed + 1:
		writeHiU32(&w.minSpeed, v)
	case RegAcceleration:
		writeLoU32(&w.acceleration, v)
	case RegAcceleration + 1:
		writeHiU32(&w.acceleration, v)
	case RegStepRatioNum:
		writeLoI32(&w.stepRatioNum, v)
	case RegStepRatioNum + 1:
		writeHiI32(&w.stepRatioNum, v)
	case RegStepRatioDen:
		writeLoI32(&w.stepRatioDen, v)
	case RegStepRatioDen + 1:
		writeHiI32(&w.stepRatioDen, v)
	case RegSynRatioNum:
		writeLoI32(&w.synRatioNum, v)
	case RegSynRatioNum + 1:
		writeHiI32(&w.synRatioNum, v)
	case RegSynRatioDen:
		writeLoI32(&w.synRatioDen, v)
	case RegSynRatioDen + 1:
		writeHiI32(&w.synRatioDen, v)
	case RegSynOffset:
		writeLoI32(&w.synOffset, v)
	case RegSynOffset + 1:
		writeHiI32(&w.synOffset, v)
	case RegSynScaleIndex:
		w.synScaleIndex.Store(uint32(v))
	}
}

// The fieldbus delivers 32-bit fields as two single-register writes, so
// each half is a read-modify-write of the backing atomic. The engine
// never races these stores: every register reachable from WriteWord is
// operator-owned.

func writeLoI32(a *atomic.Int32, v uint16) {
	a.Store(int32(word.WithLo(uint32(a.Load()), v)))
}

func writeHiI32(a *atomic.Int32, v uint16) {
	a.Store(int32(word.WithHi(uint32(a.Load()), v)))
}

func writeLoU32(a *atomic.Uint32, v uint16) {
	a.Store(word.WithLo(a.Load(), v))
}

func writeHiU32(a *atomic.Uint32, v uint16) {
	a.Store(word.WithHi(a.Load(), v))
}

// Snapshot is a plain copy of the window for display and assertions.
type Snapshot struct {
	Mode               Mode
	CurrentPosition    int32
	FinalPosition      int32
	IndexDeltaSteps    int16
	EncoderPresetIndex uint16
	EncoderPresetValue int32
	MaxSpeed           float32
	MinSpeed           float32
	CurrentSpeed       float32
	Acceleration       float32
	StepRatioNum       int32
	StepRatioDen       int32
	SynRatioNum        int32
	SynRatioDen        int32
	SynOffset          int32
	SynScaleIndex      uint16
	ScalesPosition     []int32
}

func (w *Window) Snapshot() Snapshot {
	s := Snapshot{
		Mode:               w.Mode(),
		CurrentPosition:    w.CurrentPosition(),
		FinalPosition:      w.FinalPosition(),
		IndexDeltaSteps:    w.IndexDeltaSteps(),
		EncoderPresetIndex: w.EncoderPresetIndex(),
		EncoderPresetValue: w.EncoderPresetValue(),
		MaxSpeed:           w.MaxSpeed(),
		MinSpeed:           w.MinSpeed(),
		CurrentSpeed:       w.CurrentSpeed(),
		Acceleration:       w.Acceleration(),
		StepRatioNum:       w.StepRatioNum(),
		StepRatioDen:       w.StepRatioDen(),
		SynRatioNum:        w.SynRatioNum(),
		SynRatioDen:        w.SynRatioDen(),
		SynOffset:          w.SynOffset(),
		SynScaleIndex:      w.SynScaleIndex(),
	}
	for i := range w.scalesPosition {
		s.ScalesPosition = append(s.ScalesPosition, w.scalesPosition[i].Load())
	}
	return s
}
