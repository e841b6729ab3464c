// Package colormap turns 8-bit sRGB components into the bit-plane values the
// refresh driver streams out. The mapping folds in the global brightness and
// an optional CIE-1931 lightness linearization.
package colormap

import (
	"math"
	"sync"
)

// BitPlanes is the number of PWM bit-planes and the width of a mapped value.
const BitPlanes = 11

const (
	// MinBrightness and MaxBrightness bound the brightness percentage. The
	// lookup table is indexed with brightness-1, so zero is never legal.
	MinBrightness = 1
	MaxBrightness = 100
)

// Mapper holds the color-mapping state. It is mutated only by its owner;
// Map itself is read-only and safe to call from the refresh thread.
type Mapper struct {
	brightness int
	luminance  bool
	inverse    bool
}

// New returns a Mapper at full brightness with luminance correction on,
// matching the panel defaults. inverse flips every mapped value for
// active-low panels.
func New(inverse bool) *Mapper {
	return &Mapper{brightness: MaxBrightness, luminance: true, inverse: inverse}
}

// SetBrightness clamps p into [1..100] and stores it. Clamping rather than
// rejecting keeps a slider UI from ever wedging the mapper in an invalid
// state.
func (m *Mapper) SetBrightness(p int) {
	if p < MinBrightness {
		p = MinBrightness
	}
	if p > MaxBrightness {
		p = MaxBrightness
	}
	m.brightness = p
}

// Brightness returns the current brightness percentage.
func (m *Mapper) Brightness() int { return m.brightness }

// SetLuminanceCorrect switches between the CIE-1931 curve and plain scaling.
func (m *Mapper) SetLuminanceCorrect(on bool) { m.luminance = on }

// LuminanceCorrect reports whether the CIE-1931 curve is active.
func (m *Mapper) LuminanceCorrect() bool { return m.luminance }

// Map converts one 8-bit component into an 11-bit PWM value.
func (m *Mapper) Map(c uint8) uint16 {
	var out uint16
	if m.luminance {
		out = cieTable()[int(c)*100+(m.brightness-1)]
	} else {
		scaled := uint16(uint32(c) * uint32(m.brightness) / 100)
		out = scaled << (BitPlanes - 8)
	}
	if m.inverse {
		out ^= 0xffff
	}
	return out
}

// luminanceCIE1931 evaluates the inverse L* curve for one component at one
// brightness. The low-branch divisor is 902.3, not the canonical 903.3; the
// lookup table is built from this function and the tests compare Map
// against it.
func luminanceCIE1931(c uint8, brightness uint8) uint16 {
	outFactor := float64((1 << BitPlanes) - 1)
	v := float64(c) * float64(brightness) / 255.0
	if v <= 8 {
		return uint16(outFactor * v / 902.3)
	}
	return uint16(outFactor * math.Pow((v+16)/116.0, 3))
}

var (
	cieOnce sync.Once
	cie     []uint16
)

// cieTable returns the 256x100 lookup table, built on first use and
// read-only afterwards.
func cieTable() []uint16 {
	cieOnce.Do(func() {
		cie = make([]uint16, 256*100)
		for i := 0; i < 256; i++ {
			for j := 0; j < 100; j++ {
				cie[i*100+j] = luminanceCIE1931(uint8(i), uint8(j+1))
			}
		}
	})
	return cie
}
