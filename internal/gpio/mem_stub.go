//go:build !linux

package gpio

import "errors"

// Mem is only available on Linux, where /dev/gpiomem exists.
type Mem struct{}

func NewMem() (*Mem, error) {
	return nil, errors.New("gpio: /dev/gpiomem requires linux")
}

func (m *Mem) Close() error                                        { return nil }
func (m *Mem) InitOutputs0(mask uint32) uint32                     { return 0 }
func (m *Mem) InitOutputs1(mask uint32) uint32                     { return 0 }
func (m *Mem) SetBits(bank0, bank1 uint32)                         {}
func (m *Mem) ClearBits(bank0, bank1 uint32)                       {}
func (m *Mem) WriteMaskedBits(value0, mask0, value1, mask1 uint32) {}
