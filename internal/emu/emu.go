// Package emu is a software HUB75 panel. It sits behind the gpio.Writer
// interface, decodes the clock/strobe/address traffic the refresh driver
// produces, and reconstructs the displayed image. It doubles as the
// output-enable pulser so each lit window carries its exact bit-plane
// weight instead of wall-clock time.
package emu

import (
	"image"
	"image/color"
	"sync"

	"github.com/example/rgbmatrix/internal/colormap"
	"github.com/example/rgbmatrix/internal/pinmap"
)

// Panel emulates the chained panels of one display.
type Panel struct {
	mu sync.Mutex

	pm       pinmap.Map
	profile  pinmap.Profile
	rows     int
	columns  int
	parallel int

	subPanels  int
	doubleRows int

	level0, level1 uint32

	// shift[chain][sub][color] is the chain's shift register, one bool per
	// column position.
	shift [][][][]bool
	// latch[dRow][chain][sub][color] holds what the last strobe made
	// visible for that address row.
	latch [][][][][]bool

	// accum[color][y*columns+x] sums the bit-plane weights of every pulse
	// the pixel was lit for; a full frame leaves the mapped PWM value.
	accum [3][]uint32

	// Counters for tests and diagnostics.
	Strobes  int
	PulseIdx []int
}

// NewPanel builds an emulated display with the given geometry.
func NewPanel(rows, columns, parallel int, pf pinmap.Profile) *Panel {
	p := &Panel{
		pm:       pinmap.ForProfile(pf),
		profile:  pf,
		rows:     rows,
		columns:  columns,
		parallel: parallel,
	}
	p.subPanels = pf.SubPanels()
	p.doubleRows = rows / p.subPanels

	newRegs := func() [][][][]bool {
		regs := make([][][][]bool, parallel)
		for c := range regs {
			regs[c] = make([][][]bool, p.subPanels)
			for s := range regs[c] {
				regs[c][s] = make([][]bool, 3)
				for col := range regs[c][s] {
					regs[c][s][col] = make([]bool, columns)
				}
			}
		}
		return regs
	}
	p.shift = newRegs()
	p.latch = make([][][][][]bool, p.doubleRows)
	for d := range p.latch {
		p.latch[d] = newRegs()
	}
	for i := range p.accum {
		p.accum[i] = make([]uint32, rows*parallel*columns)
	}
	return p
}

// chainMasks returns the six color masks and the bank of chain c.
func (p *Panel) chainMasks(c int) (rgb pinmap.RGB, bank1 bool) {
	if c < len(p.pm.Chain) {
		return p.pm.Chain[c], false
	}
	return p.pm.Bank1Chain[c-len(p.pm.Chain)], true
}

func (p *Panel) colorLevel(mask pinmap.Bits, bank1 bool) bool {
	lv := p.level0
	if bank1 {
		lv = p.level1
	}
	lit := lv&uint32(mask) != 0
	if p.profile.Inverse {
		lit = !lit
	}
	return lit
}

// shiftColumn pushes the current color levels into every chain's shift
// register, dropping the oldest column.
func (p *Panel) shiftColumn() {
	for c := 0; c < p.parallel; c++ {
		rgb, bank1 := p.chainMasks(c)
		masks := [2][3]pinmap.Bits{
			{rgb.R1, rgb.G1, rgb.B1},
			{rgb.R2, rgb.G2, rgb.B2},
		}
		for s := 0; s < p.subPanels; s++ {
			for col := 0; col < 3; col++ {
				reg := p.shift[c][s][col]
				copy(reg, reg[1:])
				reg[len(reg)-1] = p.colorLevel(masks[s][col], bank1)
			}
		}
	}
}

// latchRow copies the shift registers into the latch of the currently
// addressed double-row.
func (p *Panel) latchRow() {
	d := p.addressedRow()
	for c := range p.shift {
		for s := range p.shift[c] {
			for col := range p.shift[c][s] {
				copy(p.latch[d][c][s][col], p.shift[c][s][col])
			}
		}
	}
	p.Strobes++
}

func (p *Panel) addressedRow() int {
	d := 0
	for i, m := range p.pm.Addr {
		if p.level0&uint32(m) != 0 {
			d |= 1 << i
		}
	}
	return d & (p.doubleRows - 1)
}

func (p *Panel) applyLevels(new0, new1 uint32) {
	clockRising := new0&uint32(p.pm.Clock) != 0 && p.level0&uint32(p.pm.Clock) == 0
	strobeRising := new0&uint32(p.pm.Strobe) != 0 && p.level0&uint32(p.pm.Strobe) == 0
	p.level0, p.level1 = new0, new1
	if clockRising {
		p.shiftColumn()
	}
	if strobeRising {
		p.latchRow()
	}
}

// InitOutputs0 accepts every bank-0 pin; a software panel has no pin limit.
func (p *Panel) InitOutputs0(mask uint32) uint32 { return mask }

// InitOutputs1 accepts every bank-1 pin.
func (p *Panel) InitOutputs1(mask uint32) uint32 { return mask }

func (p *Panel) SetBits(bank0, bank1 uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLevels(p.level0|bank0, p.level1|bank1)
}

func (p *Panel) ClearBits(bank0, bank1 uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLevels(p.level0&^bank0, p.level1&^bank1)
}

func (p *Panel) WriteMaskedBits(value0, mask0, value1, mask1 uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLevels((p.level0&^mask0)|(value0&mask0), (p.level1&^mask1)|(value1&mask1))
}

// SendPulse lights the latched row with the plane's binary weight. The
// panel stands in for the pulser, so the weight is exact rather than
// measured.
func (p *Panel) SendPulse(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	weight := uint32(1) << idx
	d := p.addressedRow()
	for c := 0; c < p.parallel; c++ {
		for s := 0; s < p.subPanels; s++ {
			y := c*p.rows + s*p.doubleRows + d
			for col := 0; col < 3; col++ {
				reg := p.latch[d][c][s][col]
				for x, lit := range reg {
					if lit {
						p.accum[col][y*p.columns+x] += weight
					}
				}
			}
		}
	}
	p.PulseIdx = append(p.PulseIdx, idx)
}

// WaitPulseFinished is immediate: the emulated pulse has no duration.
func (p *Panel) WaitPulseFinished() {}

// ResetFrame clears the accumulators before a new frame is dumped.
func (p *Panel) ResetFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.accum {
		for j := range p.accum[i] {
			p.accum[i][j] = 0
		}
	}
	p.Strobes = 0
	p.PulseIdx = nil
}

// Image renders the accumulated frame. The accumulator holds linear PWM
// values; they are scaled straight to 8 bits without undoing the CIE curve.
func (p *Panel) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, h := p.columns, p.rows*p.parallel
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	full := uint32(1)<<colormap.BitPlanes - 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(p.accum[0][i] * 255 / full),
				G: uint8(p.accum[1][i] * 255 / full),
				B: uint8(p.accum[2][i] * 255 / full),
				A: 255,
			})
		}
	}
	return img
}
