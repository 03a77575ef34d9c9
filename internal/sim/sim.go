// Package sim provides drifting sensor sources and logging outputs so the
// device can run without hardware.
package sim

import (
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// Environment is a shared random walk of the room's conditions.
type Environment struct {
	mu          sync.Mutex
	rng         *rand.Rand
	temperature float64
	humidity    float64
	gasRaw      int
	motion      bool
}

// NewEnvironment starts a walk at comfortable conditions.
func NewEnvironment(seed int64) *Environment {
	return &Environment{
		rng:         rand.New(rand.NewSource(seed)),
		temperature: 22,
		humidity:    50,
		gasRaw:      400,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sample implements sensor.ClimateSource.
func (e *Environment) Sample() (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.temperature = clamp(e.temperature+e.rng.Float64()-0.5, 10, 40)
	e.humidity = clamp(e.humidity+2*e.rng.Float64()-1, 15, 90)
	return e.temperature, e.humidity, nil
}

// Motion implements sensor.MotionSource. Motion flips about once per ten reads.
func (e *Environment) Motion() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rng.Intn(10) == 0 {
		e.motion = !e.motion
	}
	return e.motion, nil
}

// Raw implements sensor.GasSource on a 12-bit scale.
func (e *Environment) Raw() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gasRaw = int(clamp(float64(e.gasRaw+e.rng.Intn(201)-100), 0, 4095))
	return e.gasRaw, nil
}

// Output logs writes to an indicator or servo.
type Output struct {
	name string
	log  zerolog.Logger
}

// NewOutput returns an Output logging at debug level under name.
func NewOutput(name string, log zerolog.Logger) *Output {
	return &Output{name: name, log: log}
}

// Set implements actuator.DigitalOutput.
func (o *Output) Set(on bool) error {
	o.log.Debug().Str("output", o.name).Bool("on", on).Msg("sim write")
	return nil
}

// Write implements actuator.PositionOutput.
func (o *Output) Write(degrees int) error {
	o.log.Debug().Str("output", o.name).Int("degrees", degrees).Msg("sim write")
	return nil
}
