//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/sensor"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// LineChip is not available on non-Linux platforms.
type LineChip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(string) (*LineChip, error) {
	return nil, errUnsupported
}

func (c *LineChip) Input(int) (sensor.MotionSource, error) {
	return nil, errUnsupported
}

func (c *LineChip) Output(int) (actuator.DigitalOutput, error) {
	return nil, errUnsupported
}

func (c *LineChip) Close() error {
	return nil
}
