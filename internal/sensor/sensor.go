// Package sensor turns raw samples from hardware sources into events.
//
// Each sensor owns its source and reports to an optional downstream
// reactor.EventHandler. Sources are narrow interfaces so the same sensors run
// against real hardware (see internal/gpio and internal/sysfs) or the fakes in
// this package.
package sensor

// ClimateSource provides temperature (°C) and relative humidity (%) samples.
// A failed conversion may be reported either as an error or as NaN.
type ClimateSource interface {
	Sample() (temperature, humidity float64, err error)
}

// MotionSource provides the level of a passive-infrared output.
type MotionSource interface {
	Motion() (bool, error)
}

// GasSource provides a raw analog sample from a gas-concentration sensor.
type GasSource interface {
	Raw() (int, error)
}
