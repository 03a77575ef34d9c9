package gpio

import (
	"errors"
	"fmt"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/sensor"
)

// FakeChip is a Chip backed by in-memory lines.
type FakeChip struct {
	// Inputs and Outputs hold the lines handed out, by offset.
	Inputs  map[int]*sensor.FakeMotion
	Outputs map[int]*actuator.FakeDigital

	// FailOffset, if non-negative, makes the request for that offset fail.
	FailOffset int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		Inputs:     make(map[int]*sensor.FakeMotion),
		Outputs:    make(map[int]*actuator.FakeDigital),
		FailOffset: -1,
	}
}

func (f *FakeChip) request(offset int) error {
	if offset == f.FailOffset {
		return errors.New("device or resource busy")
	}
	if _, ok := f.Inputs[offset]; ok {
		return fmt.Errorf("line %d already requested", offset)
	}
	if _, ok := f.Outputs[offset]; ok {
		return fmt.Errorf("line %d already requested", offset)
	}
	return nil
}

// Input returns a FakeMotion for offset.
func (f *FakeChip) Input(offset int) (sensor.MotionSource, error) {
	if err := f.request(offset); err != nil {
		return nil, err
	}
	in := &sensor.FakeMotion{}
	f.Inputs[offset] = in
	return in, nil
}

// Output returns a FakeDigital for offset.
func (f *FakeChip) Output(offset int) (actuator.DigitalOutput, error) {
	if err := f.request(offset); err != nil {
		return nil, err
	}
	out := &actuator.FakeDigital{}
	f.Outputs[offset] = out
	return out, nil
}

// Close marks the chip as closed.
func (f *FakeChip) Close() error {
	f.Closed = true
	return nil
}
