// Package actuator executes commands against output sinks.
//
// Every actuator updates its stored state first, writes the physical output,
// then passes the received command on to its downstream handler whether or
// not it recognised it.
package actuator

// DigitalOutput drives a single on/off line.
type DigitalOutput interface {
	Set(on bool) error
}

// PositionOutput drives a positional actuator in degrees.
type PositionOutput interface {
	Write(degrees int) error
}
