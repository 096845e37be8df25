package word

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitJoin(t *testing.T) {
	assert.Equal(t, Lo(0x12345678), uint16(0x5678))
	assert.Equal(t, Hi(0x12345678), uint16(0x1234))
	assert.Equal(t, Join(0x5678, 0x1234), uint32(0x12345678))

	// a round trip must be lossless for every word pattern that matters
	for _, v := range []uint32{0, 1, 0xffff, 0x10000, 0x7fffffff, 0x80000000, 0xffffffff} {
		assert.Equal(t, Join(Lo(v), Hi(v)), v)
	}
}

func TestHalfReplacement(t *testing.T) {
	assert.Equal(t, WithLo(0x12345678, 0xaaaa), uint32(0x1234aaaa))
	assert.Equal(t, WithHi(0x12345678, 0xaaaa), uint32(0xaaaa5678))

	// the fieldbus writes one register at a time; writing both halves in
	// either order must converge to the same value
	v := uint32(0)
	v = WithLo(v, 0xbeef)
	v = WithHi(v, 0xdead)
	assert.Equal(t, v, uint32(0xdeadbeef))
	v = uint32(0)
	v = WithHi(v, 0xdead)
	v = WithLo(v, 0xbeef)
	assert.Equal(t, v, uint32(0xdeadbeef))
}

func TestSigned(t *testing.T) {
	assert.Equal(t, I32(Lo(uint32(0xffffffff)), Hi(uint32(0xffffffff))), int32(-1))
	assert.Equal(t, I32(0x2d00, 0xffff), int32(-54016))
	assert.Equal(t, I32(0x0001, 0x0000), int32(1))
}

func TestFloat(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 100, 10000, 0.5, -1234.25} {
		lo, hi := F32Words(f)
		assert.Equal(t, F32(lo, hi), f)
	}
}
