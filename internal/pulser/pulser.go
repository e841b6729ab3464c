// Package pulser produces the calibrated output-enable pulses that give
// each bit-plane its binary-weighted share of a row's lit time.
package pulser

import (
	"errors"
	"time"

	"github.com/example/rgbmatrix/internal/gpio"
)

// PinPulser issues one pulse at a time on a fixed set of pins. SendPulse
// returns immediately; the caller overlaps work with the pulse and later
// collects it with WaitPulseFinished.
type PinPulser interface {
	// SendPulse starts pulse number idx from the width table. Callers must
	// not send again before WaitPulseFinished returns.
	SendPulse(idx int)
	// WaitPulseFinished blocks until the in-flight pulse is done. No-op
	// when idle.
	WaitPulseFinished()
}

var errNoPulseWidths = errors.New("pulser: empty pulse width table")

// spinThreshold: naps shorter than this are busy-waited, the scheduler
// cannot be trusted to wake us in time.
const spinThreshold = 30 * time.Microsecond

// Timer is a software PinPulser: it drives the OE pins low for the pulse
// duration and times the interval itself. Output-enable is active low, so
// "pulse on" is a ClearBits.
type Timer struct {
	io      gpio.Writer
	oeMask  uint32
	widths  []time.Duration
	end     time.Time
	pulsing bool
}

// NewTimer builds a Timer for the masked bank-0 pins with the given width
// table.
func NewTimer(io gpio.Writer, oeMask uint32, widths []time.Duration) (*Timer, error) {
	if len(widths) == 0 {
		return nil, errNoPulseWidths
	}
	if oeMask == 0 {
		return nil, errors.New("pulser: no output-enable pins")
	}
	return &Timer{io: io, oeMask: oeMask, widths: widths}, nil
}

func (t *Timer) SendPulse(idx int) {
	t.io.ClearBits(t.oeMask, 0) // panel on
	t.end = time.Now().Add(t.widths[idx])
	t.pulsing = true
}

func (t *Timer) WaitPulseFinished() {
	if !t.pulsing {
		return
	}
	if remaining := time.Until(t.end); remaining > spinThreshold {
		time.Sleep(remaining - spinThreshold)
	}
	for time.Now().Before(t.end) {
	}
	t.io.SetBits(t.oeMask, 0) // panel off
	t.pulsing = false
}
