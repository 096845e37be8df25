// Package motion implements the real-time motion engine of the axis
// controller: the encoder-synchronized step generator, the trapezoidal
// indexer overlaid on it, and the mode supervisor that turns operator
// commands in the register window into initialized subsystem state.
//
// The engine is a plain struct mutated by tick methods, one per hardware
// interrupt context: PulseDone (pulse-complete),
// SyncTick (fixed-rate sync timer), IndexTick (variable-rate index
// timer), SuperviseTick (background task). The runtime decides what
// invokes them; the engine itself never blocks and never spawns.

package motion

import (
	"context"
	"time"

	"rotor/hal"
	"rotor/regs"
	"rotor/scale"
)

// ClockHz is the motion timer clock. Pulse widths and tick periods are
// expressed in cycles of this clock.
const ClockHz = 1_000_000

// Pulse timing programmed at sync init: one step pulse of 150 cycles with
// a 50% duty edge at 75.
const (
	pulseAutoReload = 150
	pulseCompare    = 75
)

// Index timer programming: a short compare, the idle rearm period
// (100 Hz at ClockHz), and the auto-reload ceiling of the 16-bit timer.
const (
	indexCompare      = 10
	indexIdleInterval = 10000
	indexMaxInterval  = 65535
)

// Profile defaults loaded at startup, before the operator writes real
// values.
const (
	defaultAcceleration = 10
	defaultMaxSpeed     = 10000
	defaultMinSpeed     = 100
)

// supervisePeriod is the cadence of the background supervisor task.
const supervisePeriod = 50 * time.Millisecond

type syncState struct {
	positionPrevious int32
	positionCurrent  int32
	yi               int32
	d                int32
	direction        int32
}

type indexState struct {
	floatAccelInterval float32
	stepRatio          float32
	currentStep        int32
	totalSteps         int32
	decelSteps         int32
	direction          int32
}

// Config hands the engine its peripherals. The engine owns them for the
// process lifetime.
type Config struct {
	Pulse      hal.SinglePulse
	Dir        hal.Pin
	Enable     hal.Pin
	IndexTimer hal.AutoReload
	SyncSource hal.TickSource
}

// Engine is the motion core. Regs is the fieldbus-shared register window,
// Scales the master scale facade; both are also read by collaborators
// outside the engine.
type Engine struct {
	Regs   *regs.Window
	Scales *scale.Scales

	pulse      hal.SinglePulse
	dir        hal.Pin
	enable     hal.Pin
	indexTimer hal.AutoReload
	syncSource hal.TickSource

	sync  syncState
	index indexState
}

func New(w *regs.Window, sc *scale.Scales, cfg Config) *Engine {
	return &Engine{
		Regs:       w,
		Scales:     sc,
		pulse:      cfg.Pulse,
		dir:        cfg.Dir,
		enable:     cfg.Enable,
		indexTimer: cfg.IndexTimer,
		syncSource: cfg.SyncSource,
	}
}

// Start loads the profile defaults and asserts the driver enable line,
// which stays asserted for the life of the process.
func (e *Engine) Start() {
	e.Regs.SetAcceleration(defaultAcceleration)
	e.Regs.SetMaxSpeed(defaultMaxSpeed)
	e.Regs.SetMinSpeed(defaultMinSpeed)
	e.enable.Set(true)
}

// PulseDone is the pulse-complete handler: apart from SyncInit, which
// forces currentPosition onto finalPosition, the only writer of
// currentPosition. It samples the direction line and books the step that
// just finished. Outside SYNCHRO no pulses are requested, and a straggler
// completing across a mode change is not booked.
func (e *Engine) PulseDone() {
	if e.Regs.Mode() != regs.ModeSynchro {
		return
	}
	if e.dir.Get() {
		e.Regs.AddCurrentPosition(1)
	} else {
		e.Regs.AddCurrentPosition(-1)
	}
}

// Run is the supervisor task loop. Telemetry refresh and mode handling
// live in SuperviseTick; Run just paces it.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(supervisePeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.SuperviseTick()
		}
	}
}
