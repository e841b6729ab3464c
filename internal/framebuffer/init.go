package framebuffer

import (
	"fmt"
	"time"

	"github.com/example/rgbmatrix/internal/gpio"
	"github.com/example/rgbmatrix/internal/pinmap"
	"github.com/example/rgbmatrix/internal/pulser"
)

// BaseTime is the lit duration of the lowest bit-plane; plane b is lit for
// BaseTime << b. Lower values raise the refresh rate at the cost of a
// dimmer display; useful values sit between 100 and 200 ns.
const BaseTime = 130 * time.Nanosecond

// The one timing-correct output-enable pulser of the process.
var outputEnablePulser pulser.PinPulser

// Init declares every pin the engine will touch as an output and builds the
// process-wide output-enable pulser with its bit-plane width table. The
// second and later calls are no-ops.
func Init(io gpio.Writer, rows, parallel int, pf pinmap.Profile) error {
	if outputEnablePulser != nil {
		return nil
	}
	if err := declareOutputs(io, rows, parallel, pf); err != nil {
		return err
	}

	widths := make([]time.Duration, BitPlanes)
	for b := range widths {
		widths[b] = BaseTime << b
	}
	pm := pinmap.ForProfile(pf)
	p, err := pulser.NewTimer(io, uint32(pm.OEMask(pf)), widths)
	if err != nil {
		return fmt.Errorf("framebuffer: output-enable pulser: %w", err)
	}
	outputEnablePulser = p
	return nil
}

// InitWithPulser is Init with a caller-supplied pulser, for targets where
// the timer-based one cannot meet timing (hardware PWM) and for the panel
// emulator.
func InitWithPulser(io gpio.Writer, rows, parallel int, pf pinmap.Profile, p pulser.PinPulser) error {
	if outputEnablePulser != nil {
		return nil
	}
	if p == nil {
		return fmt.Errorf("framebuffer: nil pulser")
	}
	if err := declareOutputs(io, rows, parallel, pf); err != nil {
		return err
	}
	outputEnablePulser = p
	return nil
}

// declareOutputs computes the union of all bits the engine drives for this
// geometry and switches them to outputs. A partial acceptance is fatal: the
// engine cannot run with a subset of its pins.
func declareOutputs(io gpio.Writer, rows, parallel int, pf pinmap.Profile) error {
	if err := validGeometry(rows, parallel, pf); err != nil {
		return err
	}
	pm := pinmap.ForProfile(pf)
	doubleRows := rows / pf.SubPanels()

	color0, color1 := pm.ColorMask(parallel)
	b0 := pm.OEMask(pf) | pm.ClockMask(pf) | pm.Strobe |
		pm.UsedAddressMask(doubleRows) | color0

	if got := io.InitOutputs0(uint32(b0)); got != uint32(b0) {
		return fmt.Errorf("framebuffer: bank 0 outputs: requested %#08x, accepted %#08x",
			uint32(b0), got)
	}
	if pf.CM5Chain && color1 != 0 {
		if got := io.InitOutputs1(uint32(color1)); got != uint32(color1) {
			return fmt.Errorf("framebuffer: bank 1 outputs: requested %#08x, accepted %#08x",
				uint32(color1), got)
		}
	}
	return nil
}
