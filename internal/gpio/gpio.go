// Package gpio provides the bulk pin interface the matrix engine drives and
// a memory-mapped implementation of it for the BCM283x family.
package gpio

// Writer is the engine's view of the GPIO peripheral: bulk set/clear and
// masked writes over two banks. The engine only passes non-zero bank-1
// arguments on compute-module builds.
type Writer interface {
	// InitOutputs0 declares the masked bank-0 pins as outputs and returns
	// the subset that was actually accepted.
	InitOutputs0(mask uint32) uint32
	// InitOutputs1 does the same for bank 1.
	InitOutputs1(mask uint32) uint32
	// SetBits drives the listed bits high, one bank register write each.
	SetBits(bank0, bank1 uint32)
	// ClearBits drives the listed bits low.
	ClearBits(bank0, bank1 uint32)
	// WriteMaskedBits sets the bits where mask&value is one, clears the
	// bits where mask covers a zero value bit, and leaves the rest alone.
	WriteMaskedBits(value0, mask0, value1, mask1 uint32)
}
