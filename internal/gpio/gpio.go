// Package gpio connects the motion input and indicator outputs to GPIO
// lines. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/sensor"
)

// Chip hands out individual lines.
type Chip interface {
	// Input requests offset as an active-high input.
	Input(offset int) (sensor.MotionSource, error)

	// Output requests offset as an output, initially low.
	Output(offset int) (actuator.DigitalOutput, error)

	// Close releases every requested line and the chip.
	Close() error
}

// Pins holds line offsets (BCM numbering).
type Pins struct {
	PIR        int
	ColdLED    int
	ComfortLED int
	WarmLED    int
	MotionLED  int
	AlertLED   int
}

// DefaultPins matches the reference wiring.
var DefaultPins = Pins{
	PIR:        27,
	ColdLED:    5,
	ComfortLED: 6,
	WarmLED:    13,
	MotionLED:  19,
	AlertLED:   26,
}

// Bank is the set of lines the device uses.
type Bank struct {
	PIR        sensor.MotionSource
	ColdLED    actuator.DigitalOutput
	ComfortLED actuator.DigitalOutput
	WarmLED    actuator.DigitalOutput
	MotionLED  actuator.DigitalOutput
	AlertLED   actuator.DigitalOutput

	chip Chip
}

// NewBank requests every line in p from chip. On failure the chip is closed.
func NewBank(chip Chip, p Pins) (*Bank, error) {
	b := &Bank{chip: chip}

	pir, err := chip.Input(p.PIR)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("request PIR pin %d: %w", p.PIR, err), chip.Close())
	}
	b.PIR = pir

	outputs := []struct {
		name   string
		offset int
		dst    *actuator.DigitalOutput
	}{
		{"cold LED", p.ColdLED, &b.ColdLED},
		{"comfort LED", p.ComfortLED, &b.ComfortLED},
		{"warm LED", p.WarmLED, &b.WarmLED},
		{"motion LED", p.MotionLED, &b.MotionLED},
		{"alert LED", p.AlertLED, &b.AlertLED},
	}
	for _, o := range outputs {
		out, err := chip.Output(o.offset)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("request %s pin %d: %w", o.name, o.offset, err), chip.Close())
		}
		*o.dst = out
	}
	return b, nil
}

// Close releases the lines.
func (b *Bank) Close() error {
	return b.chip.Close()
}
