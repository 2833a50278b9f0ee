// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the trigger and disable inputs.
type Reader interface {
	// Read returns the logical input levels. Inputs are wired to ground
	// through a push button, so a raw low level reads as true.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// Levels is one sample of every input, already in logical form.
type Levels struct {
	Triggers []bool // one per slot, in slot order
	Disable  bool
}

// DefaultChip is the Raspberry Pi header's GPIO chip.
const DefaultChip = "gpiochip0"

// Unwired marks a pin that is not connected. Its level always reads false.
const Unwired = -1

// Wired reports whether pin names a line. Any negative pin is unwired.
func Wired(pin int) bool {
	return pin >= 0
}
