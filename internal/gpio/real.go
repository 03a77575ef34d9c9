//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/sensor"
	"github.com/warthog618/go-gpiocdev"
)

// LineChip hands out lines from a Linux GPIO character device.
type LineChip struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*LineChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &LineChip{chip: chip}, nil
}

// Input requests offset as an input with pull-down, so an unplugged PIR
// reads as no motion.
func (c *LineChip) Input(offset int) (sensor.MotionSource, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, err
	}
	c.lines = append(c.lines, line)
	return &motionLine{line: line}, nil
}

// Output requests offset as an output driven low.
func (c *LineChip) Output(offset int) (actuator.DigitalOutput, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	c.lines = append(c.lines, line)
	return &outputLine{line: line}, nil
}

// Close reconfigures every line to input with pull-down (matching Pi boot
// defaults) before closing, so LEDs are not left lit after shutdown.
func (c *LineChip) Close() error {
	var errs []error
	for _, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	c.lines = nil
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}
	return errors.Join(errs...)
}

type motionLine struct {
	line *gpiocdev.Line
}

func (m *motionLine) Motion() (bool, error) {
	v, err := m.line.Value()
	if err != nil {
		return false, fmt.Errorf("read PIR line: %w", err)
	}
	return v == 1, nil
}

type outputLine struct {
	line *gpiocdev.Line
}

func (o *outputLine) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set line %d: %w", o.line.Offset(), err)
	}
	return nil
}
