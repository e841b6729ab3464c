//go:build linux

package gpio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Register offsets into the BCM283x GPIO block, in 32-bit words.
const (
	gpfsel0 = 0x00 / 4 // function select, 3 bits per pin
	gpset0  = 0x1c / 4
	gpset1  = 0x20 / 4
	gpclr0  = 0x28 / 4
	gpclr1  = 0x2c / 4
)

// bank1Base is the first GPIO of bank 1; bank-1 bit n maps to GPIO 32+n.
const bank1Base = 32

// Mem drives the GPIO block through /dev/gpiomem. SetBits and ClearBits are
// single stores into the set/clear registers, so they are as atomic as the
// hardware allows; WriteMaskedBits is a clear store followed by a set store.
type Mem struct {
	raw  []byte
	regs []uint32
}

// NewMem maps the GPIO register page. It needs the gpio group (or root) to
// open /dev/gpiomem but no full /dev/mem access.
func NewMem() (*Mem, error) {
	fd, err := unix.Open("/dev/gpiomem", unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/gpiomem: %w", err)
	}
	defer unix.Close(fd)

	raw, err := unix.Mmap(fd, 0, 4096, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap gpio registers: %w", err)
	}

	m := &Mem{
		raw:  raw,
		regs: unsafe.Slice((*uint32)(unsafe.Pointer(&raw[0])), len(raw)/4),
	}
	return m, nil
}

// Close unmaps the register page.
func (m *Mem) Close() error {
	if m.raw == nil {
		return nil
	}
	err := unix.Munmap(m.raw)
	m.raw = nil
	m.regs = nil
	return err
}

func (m *Mem) setOutput(pin int) {
	reg := gpfsel0 + pin/10
	shift := uint(pin%10) * 3
	v := m.regs[reg]
	v &^= 7 << shift
	v |= 1 << shift // 001 = output
	m.regs[reg] = v
}

// InitOutputs0 switches the masked bank-0 pins to outputs. Every bit of a
// 32-bit bank is addressable, so the full mask comes back.
func (m *Mem) InitOutputs0(mask uint32) uint32 {
	for pin := 0; pin < 32; pin++ {
		if mask&(1<<pin) != 0 {
			m.setOutput(pin)
		}
	}
	return mask
}

// InitOutputs1 switches the masked bank-1 pins (GPIO 32 and up) to outputs.
func (m *Mem) InitOutputs1(mask uint32) uint32 {
	for bitPos := 0; bitPos < 22; bitPos++ {
		if mask&(1<<bitPos) != 0 {
			m.setOutput(bank1Base + bitPos)
		}
	}
	return mask & (1<<22 - 1)
}

func (m *Mem) SetBits(bank0, bank1 uint32) {
	if bank0 != 0 {
		m.regs[gpset0] = bank0
	}
	if bank1 != 0 {
		m.regs[gpset1] = bank1
	}
}

func (m *Mem) ClearBits(bank0, bank1 uint32) {
	if bank0 != 0 {
		m.regs[gpclr0] = bank0
	}
	if bank1 != 0 {
		m.regs[gpclr1] = bank1
	}
}

func (m *Mem) WriteMaskedBits(value0, mask0, value1, mask1 uint32) {
	m.ClearBits(^value0&mask0, ^value1&mask1)
	m.SetBits(value0&mask0, value1&mask1)
}
