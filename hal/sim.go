package hal

import (
	"sync/atomic"
	"time"
)

// SimPin is an atomic level output.
type SimPin struct {
	high atomic.Bool
}

func (p *SimPin) Set(high bool) { p.high.Store(high) }
func (p *SimPin) Get() bool     { return p.high.Load() }

// SimPulse is a software single-pulse generator. Completion is either
// driven manually (tests call Complete after each requested pulse) or
// scheduled on a wall-clock delay (the runtime sets Width so pulses
// finish on their own).
type SimPulse struct {
	inFlight   atomic.Bool
	autoReload atomic.Uint32
	compare    atomic.Uint32

	// Width, when nonzero, schedules Complete this long after a
	// successful Request.
	Width time.Duration

	onComplete atomic.Value // func()
}

func (p *SimPulse) Configure(autoReload, compare uint32) {
	p.autoReload.Store(autoReload)
	p.compare.Store(compare)
}

// OnComplete installs the completion callback, normally the engine's
// pulse-done handler.
func (p *SimPulse) OnComplete(fn func()) {
	p.onComplete.Store(fn)
}

// Request arms the pulse. Requests made while a pulse is in flight are
// dropped, exactly like starting an already-started one-pulse timer
// channel.
func (p *SimPulse) Request() {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	if p.Width > 0 {
		time.AfterFunc(p.Width, p.Complete)
	}
}

func (p *SimPulse) InFlight() bool { return p.inFlight.Load() }

// Complete fires the completion callback for the pulse in flight, if any.
func (p *SimPulse) Complete() {
	if !p.inFlight.CompareAndSwap(true, false) {
		return
	}
	if fn, ok := p.onComplete.Load().(func()); ok && fn != nil {
		fn()
	}
}

// AutoReload and Compare report the programmed pulse timing.
func (p *SimPulse) AutoReload() uint32 { return p.autoReload.Load() }
func (p *SimPulse) Compare() uint32    { return p.compare.Load() }

// SimTimer is a rewritable periodic timer. It only records what the tick
// handler programs; the runtime polls Period to pace the next tick.
type SimTimer struct {
	autoReload atomic.Uint32
	compare    atomic.Uint32

	// ClockHz converts auto-reload cycles into a wall-clock Period.
	ClockHz uint32
}

func (t *SimTimer) SetAutoReload(v uint32) { t.autoReload.Store(v) }
func (t *SimTimer) SetCompare(v uint32)    { t.compare.Store(v) }

func (t *SimTimer) AutoReload() uint32 { return t.autoReload.Load() }
func (t *SimTimer) Compare() uint32    { return t.compare.Load() }

// Period converts the programmed auto-reload into a duration at ClockHz.
func (t *SimTimer) Period() time.Duration {
	hz := t.ClockHz
	if hz == 0 {
		hz = 1_000_000
	}
	arl := t.autoReload.Load()
	if arl == 0 {
		arl = 1
	}
	return time.Duration(arl) * time.Second / time.Duration(hz)
}

// SimTick is a tick source flag.
type SimTick struct {
	running atomic.Bool
}

func (t *SimTick) Start()        { t.running.Store(true) }
func (t *SimTick) Stop()         { t.running.Store(false) }
func (t *SimTick) Running() bool { return t.running.Load() }

// SimCounter is a free-running 16-bit counter. Move advances it by a
// signed amount, wrapping like the hardware does; only the low 16 bits
// are ever observable.
type SimCounter struct {
	count atomic.Uint32
}

func (c *SimCounter) Count() uint16 { return uint16(c.count.Load()) }
func (c *SimCounter) Reset()        { c.count.Store(0) }

func (c *SimCounter) Move(n int32) {
	c.count.Add(uint32(n))
}
