// Package framebuffer is the workhorse of the matrix engine: it keeps the
// frame in a bit-plane-major layout that can be streamed to chained HUB75
// panels with no per-pixel work in the hot loop.
package framebuffer

import (
	"fmt"

	"github.com/example/rgbmatrix/internal/colormap"
	"github.com/example/rgbmatrix/internal/pinmap"
)

// BitPlanes is the number of PWM bit-planes kept per pixel.
const BitPlanes = colormap.BitPlanes

// Framebuffer owns the bit-plane store for one display. One goroutine owns
// the refresh; writers on other goroutines must synchronize externally.
type Framebuffer struct {
	rows     int
	columns  int
	parallel int
	height   int

	subPanels  int
	doubleRows int
	rowMask    int

	profile pinmap.Profile
	pm      pinmap.Map
	mapper  *colormap.Mapper
	pwmBits int

	// One word per (double-row, bit-plane, column), bit-plane in the middle
	// so a plane's column sweep is contiguous.
	plane0 []pinmap.Bits
	plane1 []pinmap.Bits // nil unless the profile carries bank 1
}

func validGeometry(rows, parallel int, pf pinmap.Profile) error {
	switch rows {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("framebuffer: rows must be 8, 16, 32 or 64, got %d", rows)
	}
	if parallel < 1 || parallel > pf.MaxParallel() {
		return fmt.Errorf("framebuffer: parallel must be in [1..%d], got %d",
			pf.MaxParallel(), parallel)
	}
	return nil
}

// New allocates a cleared framebuffer for the given geometry. rows is the
// panel height, columns the chain-extended width, parallel the number of
// chains driven simultaneously.
func New(rows, columns, parallel int, pf pinmap.Profile) (*Framebuffer, error) {
	if err := validGeometry(rows, parallel, pf); err != nil {
		return nil, err
	}
	if columns < 1 {
		return nil, fmt.Errorf("framebuffer: columns must be positive, got %d", columns)
	}

	f := &Framebuffer{
		rows:       rows,
		columns:    columns,
		parallel:   parallel,
		height:     rows * parallel,
		subPanels:  pf.SubPanels(),
		profile:    pf,
		pm:         pinmap.ForProfile(pf),
		mapper:     colormap.New(pf.Inverse),
		pwmBits:    BitPlanes,
	}
	f.doubleRows = rows / f.subPanels
	f.rowMask = f.doubleRows - 1

	f.plane0 = make([]pinmap.Bits, f.doubleRows*BitPlanes*columns)
	if pf.CM5Chain {
		f.plane1 = make([]pinmap.Bits, f.doubleRows*BitPlanes*columns)
	}
	f.Clear()
	return f, nil
}

// Geometry accessors.
func (f *Framebuffer) Width() int  { return f.columns }
func (f *Framebuffer) Height() int { return f.height }

// PWMBits returns the number of bit-planes the refresh currently emits.
func (f *Framebuffer) PWMBits() int { return f.pwmBits }

// SetPWMBits constrains the refresh to the top k bit-planes. Values outside
// [1..BitPlanes] are rejected and leave the setting unchanged.
func (f *Framebuffer) SetPWMBits(k int) bool {
	if k < 1 || k > BitPlanes {
		return false
	}
	f.pwmBits = k
	return true
}

// Brightness returns the brightness percentage in [1..100].
func (f *Framebuffer) Brightness() int { return f.mapper.Brightness() }

// SetBrightness clamps p into [1..100] and applies it to the color mapper.
func (f *Framebuffer) SetBrightness(p int) { f.mapper.SetBrightness(p) }

// LuminanceCorrect reports whether CIE-1931 correction is active.
func (f *Framebuffer) LuminanceCorrect() bool { return f.mapper.LuminanceCorrect() }

// SetLuminanceCorrect switches CIE-1931 correction on or off.
func (f *Framebuffer) SetLuminanceCorrect(on bool) { f.mapper.SetLuminanceCorrect(on) }

// wordAt indexes the bit-plane store: double-row major, then plane, then
// column.
func (f *Framebuffer) wordAt(buf []pinmap.Bits, dRow, plane, col int) *pinmap.Bits {
	return &buf[dRow*(f.columns*BitPlanes)+plane*f.columns+col]
}

// Clear resets the frame to the dark encoding: every word zero normally. On
// inverse (active-low) panels it is Fill(0, 0, 0), which sets the color bits
// of the active chains in the planes selected by SetPWMBits.
func (f *Framebuffer) Clear() {
	if f.profile.Inverse {
		f.Fill(0, 0, 0)
		return
	}
	for i := range f.plane0 {
		f.plane0[i] = 0
	}
	for i := range f.plane1 {
		f.plane1[i] = 0
	}
}

// Fill sets every pixel of every active chain to the color. The per-plane word is
// identical across the whole plane, so this runs as a column memset rather
// than a SetPixel loop.
func (f *Framebuffer) Fill(r, g, b uint8) {
	if f.profile.SwapGreenBlue {
		g, b = b, g
	}
	red := f.mapper.Map(r)
	green := f.mapper.Map(g)
	blue := f.mapper.Map(b)

	for plane := BitPlanes - f.pwmBits; plane < BitPlanes; plane++ {
		mask := uint16(1) << plane

		var w0 pinmap.Bits
		for i, c := range f.pm.Chain {
			if i >= f.parallel {
				break
			}
			pinmap.Put(&w0, c.R1|c.R2, red&mask != 0)
			pinmap.Put(&w0, c.G1|c.G2, green&mask != 0)
			pinmap.Put(&w0, c.B1|c.B2, blue&mask != 0)
		}

		var w1 pinmap.Bits
		if f.plane1 != nil {
			for i, c := range f.pm.Bank1Chain {
				if len(f.pm.Chain)+i >= f.parallel {
					break
				}
				pinmap.Put(&w1, c.R1|c.R2, red&mask != 0)
				pinmap.Put(&w1, c.G1|c.G2, green&mask != 0)
				pinmap.Put(&w1, c.B1|c.B2, blue&mask != 0)
			}
		}

		for dRow := 0; dRow < f.doubleRows; dRow++ {
			base := dRow*(f.columns*BitPlanes) + plane*f.columns
			row0 := f.plane0[base : base+f.columns]
			for i := range row0 {
				row0[i] = w0
			}
			if f.plane1 != nil {
				row1 := f.plane1[base : base+f.columns]
				for i := range row1 {
					row1[i] = w1
				}
			}
		}
	}
}

// SetPixel writes one pixel. Out-of-range coordinates are silently dropped.
// Only the planes selected by SetPWMBits are touched; lower planes keep
// their previous value and are skipped by the refresh anyway.
func (f *Framebuffer) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || x >= f.columns || y < 0 || y >= f.height {
		return
	}
	if f.profile.SwapGreenBlue {
		g, b = b, g
	}
	red := f.mapper.Map(r)
	green := f.mapper.Map(g)
	blue := f.mapper.Map(b)

	chain := y / f.rows
	rowInChain := y % f.rows
	dRow := rowInChain & f.rowMask
	lower := f.subPanels == 2 && rowInChain >= f.doubleRows

	var rgb pinmap.RGB
	buf := f.plane0
	if chain < len(f.pm.Chain) {
		rgb = f.pm.Chain[chain]
	} else {
		rgb = f.pm.Bank1Chain[chain-len(f.pm.Chain)]
		buf = f.plane1
	}

	rMask, gMask, bMask := rgb.R1, rgb.G1, rgb.B1
	if lower {
		rMask, gMask, bMask = rgb.R2, rgb.G2, rgb.B2
	}

	for plane := BitPlanes - f.pwmBits; plane < BitPlanes; plane++ {
		mask := uint16(1) << plane
		w := f.wordAt(buf, dRow, plane, x)
		pinmap.Put(w, rMask, red&mask != 0)
		pinmap.Put(w, gMask, green&mask != 0)
		pinmap.Put(w, bMask, blue&mask != 0)
	}
}
