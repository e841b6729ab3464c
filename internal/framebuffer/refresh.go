package framebuffer

import (
	"github.com/example/rgbmatrix/internal/gpio"
	"github.com/example/rgbmatrix/internal/pinmap"
)

// DumpToMatrix streams one complete frame to the panels. The walk is
// address-row major: all active bit-planes of one double-row go out before
// the row address changes, since row switches ghost if done too often.
// Within a row, the next plane's data is clocked in while the previous
// plane's output-enable pulse is still running.
//
// Init must have been called; the output-enable pulser is process-wide.
func (f *Framebuffer) DumpToMatrix(io gpio.Writer) {
	p := outputEnablePulser
	if p == nil {
		panic("framebuffer: Init not called before DumpToMatrix")
	}

	clock := f.pm.ClockMask(f.profile)
	strobe := f.pm.Strobe

	// Color bits of the active chains plus the clock line: the masked write
	// below drops the clock low while presenting the column's colors.
	color0, color1 := f.pm.ColorMask(f.parallel)
	colorClk0 := color0 | clock
	colorClk1 := color1

	addrMask := f.pm.UsedAddressMask(f.doubleRows)

	pwmToShow := f.pwmBits // local copy, the setter may race a frame
	for dRow := 0; dRow < f.doubleRows; dRow++ {
		rowAddr := f.pm.RowAddress(dRow)
		io.WriteMaskedBits(uint32(rowAddr), uint32(addrMask), 0, 0)

		for plane := BitPlanes - pwmToShow; plane < BitPlanes; plane++ {
			base := dRow*(f.columns*BitPlanes) + plane*f.columns
			row0 := f.plane0[base : base+f.columns]
			var row1 []pinmap.Bits
			if f.plane1 != nil {
				row1 = f.plane1[base : base+f.columns]
			}

			// Clock in the columns while the previous plane is still lit.
			for col := 0; col < f.columns; col++ {
				var v1 uint32
				if row1 != nil {
					v1 = uint32(row1[col])
				}
				io.WriteMaskedBits(uint32(row0[col]), uint32(colorClk0), v1, uint32(colorClk1))
				io.SetBits(uint32(clock), 0) // rising edge shifts the colors in
			}
			io.ClearBits(uint32(colorClk0), uint32(colorClk1))

			// The previous plane's lit window must end before we latch.
			p.WaitPulseFinished()

			io.SetBits(uint32(strobe), 0)
			io.ClearBits(uint32(strobe), 0)

			p.SendPulse(plane)
		}
		p.WaitPulseFinished()
	}
}
