// Package gpiotest records GPIO traffic so tests can assert on the exact
// bit patterns a refresh pass produces.
package gpiotest

import "sync"

// OpKind discriminates the recorded operations.
type OpKind string

const (
	OpSet    OpKind = "set"
	OpClear  OpKind = "clear"
	OpMasked OpKind = "masked"
)

// Op is one bulk GPIO call. For OpSet and OpClear only V0/V1 are meaningful.
type Op struct {
	Kind   OpKind
	V0, M0 uint32
	V1, M1 uint32
}

// Record implements gpio.Writer and keeps every call plus the resulting pin
// levels. Accept masks default to everything; tests narrow them to provoke
// init failures.
type Record struct {
	mu sync.Mutex

	// Accept0/Accept1 limit which pins InitOutputs reports as usable once
	// set through Restrict0/Restrict1; until then every pin is accepted.
	Accept0, Accept1 uint32
	accept0Set       bool
	accept1Set       bool

	Out0, Out1     uint32 // pins declared as outputs
	Level0, Level1 uint32 // current simulated levels
	Ops            []Op
}

// Restrict0 makes InitOutputs0 accept only the given pins.
func (r *Record) Restrict0(mask uint32) {
	r.Accept0 = mask
	r.accept0Set = true
}

// Restrict1 makes InitOutputs1 accept only the given pins.
func (r *Record) Restrict1(mask uint32) {
	r.Accept1 = mask
	r.accept1Set = true
}

func (r *Record) InitOutputs0(mask uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accept0Set {
		mask &= r.Accept0
	}
	r.Out0 |= mask
	return mask
}

func (r *Record) InitOutputs1(mask uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accept1Set {
		mask &= r.Accept1
	}
	r.Out1 |= mask
	return mask
}

func (r *Record) SetBits(bank0, bank1 uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Level0 |= bank0
	r.Level1 |= bank1
	r.Ops = append(r.Ops, Op{Kind: OpSet, V0: bank0, V1: bank1})
}

func (r *Record) ClearBits(bank0, bank1 uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Level0 &^= bank0
	r.Level1 &^= bank1
	r.Ops = append(r.Ops, Op{Kind: OpClear, V0: bank0, V1: bank1})
}

func (r *Record) WriteMaskedBits(value0, mask0, value1, mask1 uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Level0 = (r.Level0 &^ mask0) | (value0 & mask0)
	r.Level1 = (r.Level1 &^ mask1) | (value1 & mask1)
	r.Ops = append(r.Ops, Op{Kind: OpMasked, V0: value0, M0: mask0, V1: value1, M1: mask1})
}

// TouchedBits unions the bits every recorded op could have driven.
func (r *Record) TouchedBits() (bank0, bank1 uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range r.Ops {
		switch op.Kind {
		case OpMasked:
			bank0 |= op.M0
			bank1 |= op.M1
		default:
			bank0 |= op.V0
			bank1 |= op.V1
		}
	}
	return bank0, bank1
}

// Reset drops the recorded ops but keeps output declarations and levels.
func (r *Record) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ops = nil
}
