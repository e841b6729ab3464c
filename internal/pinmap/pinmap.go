// Package pinmap names the GPIO bits a HUB75 chain occupies on each bank.
// Everything here is static data: the engine only ever works with the
// precomputed masks, never with raw pin numbers.
package pinmap

// Bits is one GPIO bank's worth of output bits. It is an opaque bitfield
// aggregate; callers combine the named masks below instead of interpreting
// the value as a number.
type Bits uint32

// RGB holds the six color masks of one parallel chain: upper sub-panel
// (R1/G1/B1) and lower sub-panel (R2/G2/B2).
type RGB struct {
	R1, G1, B1 Bits
	R2, G2, B2 Bits
}

// All returns the union of the chain's six color bits.
func (c RGB) All() Bits {
	return c.R1 | c.G1 | c.B1 | c.R2 | c.G2 | c.B2
}

// Map assigns every logical panel signal to a physical GPIO bit. Bank 0
// carries the control lines, the address lines and chains 1-3; bank 1 only
// carries the color bits of chains 4-5 on compute-module builds.
type Map struct {
	Clock        Bits
	Strobe       Bits
	OutputEnable Bits

	// Rev-1 boards route two header pins to different GPIOs; the clock and
	// output-enable signals get mirrored onto these when Profile.Rev1Pinout
	// is set.
	ClockRev1        Bits
	OutputEnableRev1 Bits

	Addr [5]Bits // row address lines A..E

	Chain      [3]RGB // chains 1-3 on bank 0
	Bank1Chain [2]RGB // chains 4-5 on bank 1
}

func bit(n uint) Bits { return 1 << n }

// regularMap is the direct-wiring layout for the 40-pin header.
var regularMap = Map{
	OutputEnable:     bit(2),
	OutputEnableRev1: bit(0),
	Clock:            bit(3),
	ClockRev1:        bit(1),
	Strobe:           bit(4),

	Addr: [5]Bits{bit(7), bit(8), bit(9), bit(10), bit(11)},

	Chain: [3]RGB{
		{R1: bit(12), G1: bit(13), B1: bit(14), R2: bit(15), G2: bit(16), B2: bit(17)},
		{R1: bit(18), G1: bit(19), B1: bit(20), R2: bit(22), G2: bit(23), B2: bit(24)},
		{R1: bit(25), G1: bit(26), B1: bit(28), R2: bit(29), G2: bit(30), B2: bit(31)},
	},

	Bank1Chain: [2]RGB{
		{R1: bit(2), G1: bit(3), B1: bit(4), R2: bit(5), G2: bit(6), B2: bit(7)},
		{R1: bit(8), G1: bit(9), B1: bit(10), R2: bit(11), G2: bit(12), B2: bit(13)},
	},
}

// adafruitHATMap matches the Adafruit RGB Matrix HAT / Bonnet wiring. The
// HAT breaks out a single chain, so chains 2-5 stay zero.
var adafruitHATMap = Map{
	OutputEnable: bit(4),
	Clock:        bit(17),
	Strobe:       bit(21),

	Addr: [5]Bits{bit(22), bit(26), bit(27), bit(20), bit(24)},

	Chain: [3]RGB{
		{R1: bit(5), G1: bit(13), B1: bit(6), R2: bit(12), G2: bit(16), B2: bit(23)},
	},
}

// Profile selects the wiring variant. It is fixed for the life of the
// engine; all branching on it happens while masks are precomputed.
type Profile struct {
	AdafruitHAT    bool // single-chain HAT, software OE pulsing
	AdafruitHATPWM bool // single-chain HAT with the PWM jumper mod
	Rev1Pinout     bool // duplicate clock and OE on the rev-1 positions
	CM5Chain       bool // compute module: bank 1, chains 4-5
	SwapGreenBlue  bool // panels with G and B lines crossed
	Inverse        bool // active-low color inputs
	SingleSubPanel bool // unusual 1:N panels without the lower half
}

// MaxParallel is the highest chain count the profile supports.
func (p Profile) MaxParallel() int {
	switch {
	case p.AdafruitHAT || p.AdafruitHATPWM:
		return 1
	case p.CM5Chain:
		return 5
	default:
		return 3
	}
}

// SubPanels is 2 for regular HUB75 scanning, 1 for single-sub-panel builds.
func (p Profile) SubPanels() int {
	if p.SingleSubPanel {
		return 1
	}
	return 2
}

// ForProfile returns the pin map the profile selects.
func ForProfile(p Profile) Map {
	if p.AdafruitHAT || p.AdafruitHATPWM {
		return adafruitHATMap
	}
	return regularMap
}

// ClockMask is the clock bit, with the rev-1 duplicate merged in when the
// profile asks for it.
func (m Map) ClockMask(p Profile) Bits {
	c := m.Clock
	if p.Rev1Pinout {
		c |= m.ClockRev1
	}
	return c
}

// OEMask is the output-enable bit, with the rev-1 duplicate merged in when
// the profile asks for it.
func (m Map) OEMask(p Profile) Bits {
	oe := m.OutputEnable
	if p.Rev1Pinout {
		oe |= m.OutputEnableRev1
	}
	return oe
}

// AddressMask is the union of all five address lines.
func (m Map) AddressMask() Bits {
	return m.Addr[0] | m.Addr[1] | m.Addr[2] | m.Addr[3] | m.Addr[4]
}

// UsedAddressMask is the union of the address lines a panel with the given
// double-row count actually drives.
func (m Map) UsedAddressMask(doubleRows int) Bits {
	mask := m.Addr[0]
	if doubleRows >= 4 {
		mask |= m.Addr[1]
	}
	if doubleRows >= 8 {
		mask |= m.Addr[2]
	}
	if doubleRows >= 16 {
		mask |= m.Addr[3]
	}
	if doubleRows >= 32 {
		mask |= m.Addr[4]
	}
	return mask
}

// RowAddress spreads the double-row index over the address lines.
func (m Map) RowAddress(d int) Bits {
	var w Bits
	for i := range m.Addr {
		if d&(1<<i) != 0 {
			w |= m.Addr[i]
		}
	}
	return w
}

// ColorMask returns the union of the color bits of the first `parallel`
// chains, split by bank.
func (m Map) ColorMask(parallel int) (bank0, bank1 Bits) {
	for i := 0; i < parallel && i < len(m.Chain); i++ {
		bank0 |= m.Chain[i].All()
	}
	for i := 3; i < parallel; i++ {
		bank1 |= m.Bank1Chain[i-3].All()
	}
	return bank0, bank1
}

// Put sets or clears the masked bits of w.
func Put(w *Bits, mask Bits, on bool) {
	if on {
		*w |= mask
	} else {
		*w &^= mask
	}
}
