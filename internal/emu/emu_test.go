package emu

import (
	"testing"

	"github.com/example/rgbmatrix/internal/pinmap"
)

// clockIn shifts one column's color bits into every chain, the way the
// refresh driver does it: present the colors with the clock low, then
// raise the clock.
func clockIn(p *Panel, m pinmap.Map, pf pinmap.Profile, colors pinmap.Bits) {
	color0, _ := m.ColorMask(1)
	colorClk := uint32(color0 | m.ClockMask(pf))
	p.WriteMaskedBits(uint32(colors), colorClk, 0, 0)
	p.SetBits(uint32(m.ClockMask(pf)), 0)
}

func TestShiftLatchAccumulate(t *testing.T) {
	pf := pinmap.Profile{}
	m := pinmap.ForProfile(pf)
	p := NewPanel(8, 4, 1, pf)

	// Column 2 upper red, column 0 lower red, others dark.
	for col := 0; col < 4; col++ {
		var bits pinmap.Bits
		if col == 2 {
			bits |= m.Chain[0].R1
		}
		if col == 0 {
			bits |= m.Chain[0].R2
		}
		clockIn(p, m, pf, bits)
	}

	// Address double-row 1, latch, light it with plane 0's weight.
	p.WriteMaskedBits(uint32(m.RowAddress(1)), uint32(m.AddressMask()), 0, 0)
	p.SetBits(uint32(m.Strobe), 0)
	p.ClearBits(uint32(m.Strobe), 0)
	p.SendPulse(0)

	if p.Strobes != 1 {
		t.Fatalf("strobes: got %d, want 1", p.Strobes)
	}
	if len(p.PulseIdx) != 1 || p.PulseIdx[0] != 0 {
		t.Fatalf("pulses: got %v", p.PulseIdx)
	}

	// Upper sub-panel row 1, lower sub-panel row 1+doubleRows.
	wantLit := map[int]bool{1*4 + 2: true, 5*4 + 0: true}
	for i, v := range p.accum[0] {
		want := uint32(0)
		if wantLit[i] {
			want = 1
		}
		if v != want {
			t.Fatalf("red accum[%d]: got %d, want %d", i, v, want)
		}
	}
	for _, ch := range []int{1, 2} {
		for i, v := range p.accum[ch] {
			if v != 0 {
				t.Fatalf("channel %d accum[%d] unexpectedly lit", ch, i)
			}
		}
	}
}

func TestPulseWeightIsBinary(t *testing.T) {
	pf := pinmap.Profile{}
	m := pinmap.ForProfile(pf)
	p := NewPanel(8, 2, 1, pf)

	clockIn(p, m, pf, m.Chain[0].G1)
	clockIn(p, m, pf, m.Chain[0].G1)
	p.SetBits(uint32(m.Strobe), 0)
	p.ClearBits(uint32(m.Strobe), 0)

	p.SendPulse(3)
	p.SendPulse(5)

	want := uint32(1<<3 | 1<<5)
	if got := p.accum[1][0]; got != want {
		t.Fatalf("green accum: got %d, want %d", got, want)
	}
}

func TestShiftRegisterDropsOldColumns(t *testing.T) {
	pf := pinmap.Profile{}
	m := pinmap.ForProfile(pf)
	p := NewPanel(8, 2, 1, pf)

	// Three pushes into a two-deep register: the first blue column falls
	// off the end.
	clockIn(p, m, pf, m.Chain[0].B1)
	clockIn(p, m, pf, 0)
	clockIn(p, m, pf, 0)
	p.SetBits(uint32(m.Strobe), 0)
	p.ClearBits(uint32(m.Strobe), 0)
	p.SendPulse(0)

	for i, v := range p.accum[2] {
		if v != 0 {
			t.Fatalf("blue accum[%d] should have been shifted out", i)
		}
	}
}

func TestResetFrame(t *testing.T) {
	pf := pinmap.Profile{}
	m := pinmap.ForProfile(pf)
	p := NewPanel(8, 2, 1, pf)

	clockIn(p, m, pf, m.Chain[0].R1)
	clockIn(p, m, pf, m.Chain[0].R1)
	p.SetBits(uint32(m.Strobe), 0)
	p.ClearBits(uint32(m.Strobe), 0)
	p.SendPulse(2)

	p.ResetFrame()
	if p.Strobes != 0 || p.PulseIdx != nil {
		t.Fatalf("counters survived reset: %d %v", p.Strobes, p.PulseIdx)
	}
	for _, v := range p.accum[0] {
		if v != 0 {
			t.Fatal("accumulator survived reset")
		}
	}
}

func TestInverseProfileFlipsLevels(t *testing.T) {
	pf := pinmap.Profile{Inverse: true}
	m := pinmap.ForProfile(pf)
	p := NewPanel(8, 2, 1, pf)

	// All color lines low means fully lit on an active-low panel.
	clockIn(p, m, pf, 0)
	clockIn(p, m, pf, 0)
	p.SetBits(uint32(m.Strobe), 0)
	p.ClearBits(uint32(m.Strobe), 0)
	p.SendPulse(0)

	if got := p.accum[0][0]; got != 1 {
		t.Fatalf("inverse panel should be lit with low inputs, got %d", got)
	}
}
