package colormap

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

var TestComponentMapsToExpectedPWM = []struct {
	C          uint8
	Brightness int
	Expect     uint16
}{
	{0, 100, 0},
	{255, 100, (1 << BitPlanes) - 1},
	{255, 1, luminanceCIE1931(255, 1)},
	{128, 50, luminanceCIE1931(128, 50)},
	{1, 100, luminanceCIE1931(1, 100)},
}

func TestMapAgainstCurve(t *testing.T) {
	for k, v := range TestComponentMapsToExpectedPWM {
		t.Run("Given component "+strconv.FormatUint(uint64(k), 10), func(t *testing.T) {
			m := New(false)
			m.SetBrightness(v.Brightness)
			assert.Equal(t, v.Expect, m.Map(v.C), "should be same val")
		})
	}
}

func TestTableMatchesCurveEverywhere(t *testing.T) {
	m := New(false)
	for b := MinBrightness; b <= MaxBrightness; b++ {
		m.SetBrightness(b)
		for c := 0; c < 256; c++ {
			got := m.Map(uint8(c))
			want := luminanceCIE1931(uint8(c), uint8(b))
			if got != want {
				t.Fatalf("Map(%d) at brightness %d: got %d, want %d", c, b, got, want)
			}
		}
	}
}

func TestMapMonotonic(t *testing.T) {
	m := New(false)
	prev := m.Map(0)
	for c := 1; c < 256; c++ {
		cur := m.Map(uint8(c))
		if cur < prev {
			t.Fatalf("Map not monotonic at %d: %d < %d", c, cur, prev)
		}
		prev = cur
	}
}

func TestMapMonotonicInBrightness(t *testing.T) {
	m := New(false)
	for _, c := range []uint8{1, 17, 128, 255} {
		m.SetBrightness(MinBrightness)
		prev := m.Map(c)
		for b := MinBrightness + 1; b <= MaxBrightness; b++ {
			m.SetBrightness(b)
			cur := m.Map(c)
			if cur < prev {
				t.Fatalf("Map(%d) not monotonic at brightness %d: %d < %d", c, b, cur, prev)
			}
			prev = cur
		}
	}
}

func TestMapScaledPath(t *testing.T) {
	m := New(false)
	m.SetLuminanceCorrect(false)

	if got := m.Map(255); got != 255<<(BitPlanes-8) {
		t.Fatalf("full scale: got %d, want %d", got, 255<<(BitPlanes-8))
	}
	m.SetBrightness(50)
	if got, want := m.Map(128), uint16(64)<<(BitPlanes-8); got != want {
		t.Fatalf("half brightness: got %d, want %d", got, want)
	}
}

func TestMapInverse(t *testing.T) {
	m := New(true)
	if got := m.Map(0); got != 0xffff {
		t.Fatalf("inverse dark: got %#x, want 0xffff", got)
	}
	if got, want := m.Map(255), uint16((1<<BitPlanes)-1)^0xffff; got != want {
		t.Fatalf("inverse full: got %#x, want %#x", got, want)
	}
}

func TestBrightnessClamps(t *testing.T) {
	m := New(false)
	m.SetBrightness(0)
	if got := m.Brightness(); got != MinBrightness {
		t.Fatalf("clamp low: got %d", got)
	}
	m.SetBrightness(1000)
	if got := m.Brightness(); got != MaxBrightness {
		t.Fatalf("clamp high: got %d", got)
	}
}

func TestBrightnessDims(t *testing.T) {
	m := New(false)
	full := m.Map(200)
	m.SetBrightness(20)
	dim := m.Map(200)
	if dim >= full {
		t.Fatalf("expected dimmer output, got %d >= %d", dim, full)
	}
}
