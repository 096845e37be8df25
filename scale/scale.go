// Package scale software-extends the finite hardware counters behind the
// master scales into unbounded signed positions.
//
// Each channel folds the signed difference between consecutive counter
// samples into an int32 position. The difference is taken modulo 2^16 and
// reinterpreted as int16, so the extension survives counter wraparound in
// either direction as long as the master moves less than half a counter
// range between samples — guaranteed at the sync tick rate.

package scale

import (
	"sync/atomic"

	"rotor/hal"
)

type channel struct {
	hw hal.Counter

	// last holds the previous counter sample. Only Update and Preset
	// touch it; it is atomic because Preset runs on the supervisor task
	// while Update runs on the sync tick.
	last     atomic.Uint32
	position atomic.Int32
}

// Scales is the facade over every master scale channel.
type Scales struct {
	channels []*channel
}

func New(counters ...hal.Counter) *Scales {
	s := &Scales{}
	for _, c := range counters {
		s.channels = append(s.channels, &channel{hw: c})
	}
	return s
}

func (s *Scales) Len() int { return len(s.channels) }

// Update samples every hardware counter once and folds the movement since
// the previous sample into the channel positions. Called on every sync
// tick.
func (s *Scales) Update() {
	for _, ch := range s.channels {
		cur := uint32(ch.hw.Count())
		prev := ch.last.Swap(cur)
		ch.position.Add(int32(int16(uint16(cur) - uint16(prev))))
	}
}

// Position returns the accumulated position of channel i. Out-of-range
// channels read as zero rather than faulting the motion engine.
func (s *Scales) Position(i int) int32 {
	if i < 0 || i >= len(s.channels) {
		return 0
	}
	return s.channels[i].position.Load()
}

// Preset zeroes the hardware counter behind channel i and forces the
// accumulated position to v. The counter and the sample snapshot are both
// cleared, so the next Update yields zero delta.
func (s *Scales) Preset(i int, v int32) {
	if i < 0 || i >= len(s.channels) {
		return
	}
	ch := s.channels[i]
	ch.hw.Reset()
	ch.last.Store(0)
	ch.position.Store(v)
}
