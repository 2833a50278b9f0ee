//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip     *gpiocdev.Chip
	triggers []*gpiocdev.Line // nil entries are unwired
	disable  *gpiocdev.Line
}

// NewRealReader requests triggerPins (BCM offsets, one per slot) and
// disablePin on chip. Negative pins are unwired and skipped.
func NewRealReader(chip string, triggerPins []int, disablePin int) (*RealReader, error) {
	if chip == "" {
		chip = DefaultChip
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	r := &RealReader{chip: c, triggers: make([]*gpiocdev.Line, len(triggerPins))}

	for i, pin := range triggerPins {
		if !Wired(pin) {
			continue
		}
		l, err := requestInput(c, pin)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request trigger %d pin %d: %w", i, pin, err)
		}
		r.triggers[i] = l
	}

	if Wired(disablePin) {
		l, err := requestInput(c, disablePin)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request disable pin %d: %w", disablePin, err)
		}
		r.disable = l
	}
	return r, nil
}

// Buttons pull the line to ground, so the line is active low with the
// internal pull-up holding it high while released.
func requestInput(c *gpiocdev.Chip, pin int) (*gpiocdev.Line, error) {
	return c.RequestLine(pin, gpiocdev.AsInput, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
}

// Read samples every requested line.
func (r *RealReader) Read() (Levels, error) {
	lv := Levels{Triggers: make([]bool, len(r.triggers))}
	for i, l := range r.triggers {
		if l == nil {
			continue
		}
		v, err := l.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read trigger %d: %w", i, err)
		}
		lv.Triggers[i] = v == 1
	}
	if r.disable != nil {
		v, err := r.disable.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read disable: %w", err)
		}
		lv.Disable = v == 1
	}
	return lv, nil
}

// Close releases GPIO resources.
// Lines are reconfigured to plain inputs with pull-down (matching Pi boot
// defaults) before closing.
func (r *RealReader) Close() error {
	var errs []error

	lines := append([]*gpiocdev.Line{r.disable}, r.triggers...)
	for _, l := range lines {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.Offset(), err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
