// Package logic contains the decision core of the monitor: the Device that
// owns every sensor and actuator and turns events into actuator commands and
// outbound notifications.
//
// This package performs no I/O of its own. Hardware is reached through the
// sensor and actuator sources/sinks, notifications through the publisher
// interfaces below, and time is always injected: the current time as a
// parameter to Update, delays through Config.Sleep.
package logic

import (
	"math"
	"time"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

// AlertType classifies an alert.
type AlertType string

const (
	AlertMotion      AlertType = "motion"
	AlertSmoke       AlertType = "smoke"
	AlertTemperature AlertType = "temperature"
)

// Severity grades an alert.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert is an outbound notification.
type Alert struct {
	Type      AlertType
	Severity  Severity
	Message   string
	Timestamp int64 // ms since device start
}

// InvalidReading is reported in telemetry in place of a missing climate value.
const InvalidReading = -999.0

// Telemetry is the periodic state report.
type Telemetry struct {
	Temperature    float64
	Humidity       float64
	MotionDetected bool
	SmokeLevel     float64
	ServoPosition  int
	Servo2Position int
	Timestamp      int64 // ms since device start
}

// ServoCommand is an inbound request to move one of the positional
// actuators. Servo is 1 (climate) or 2 (gas).
type ServoCommand struct {
	Position int
	Servo    int
}

// AlertPublisher delivers alerts.
type AlertPublisher interface {
	PublishAlert(a Alert) error
}

// TelemetryPublisher delivers telemetry.
type TelemetryPublisher interface {
	PublishTelemetry(t Telemetry) error
}

// Observer is notified of activity inside the device, for metrics.
type Observer interface {
	EventObserved(e reactor.Event)
	CommandExecuted(c reactor.Command)
	AlertRaised(a Alert)
	PublishFailed(transport string)
	SensorFailed(sensor string)
}

type nopObserver struct{}

func (nopObserver) EventObserved(reactor.Event)     {}
func (nopObserver) CommandExecuted(reactor.Command) {}
func (nopObserver) AlertRaised(Alert)               {}
func (nopObserver) PublishFailed(string)            {}
func (nopObserver) SensorFailed(string)             {}

// Hardware groups the sources and sinks the Device is assembled from.
type Hardware struct {
	Climate sensor.ClimateSource
	Motion  sensor.MotionSource
	Gas     sensor.GasSource

	ColdLED    actuator.DigitalOutput // cold or dry
	ComfortLED actuator.DigitalOutput
	WarmLED    actuator.DigitalOutput // warm or humid
	MotionLED  actuator.DigitalOutput
	AlertLED   actuator.DigitalOutput

	ClimateServo actuator.PositionOutput
	GasServo     actuator.PositionOutput
}

// Config holds the device's timing and threshold settings.
type Config struct {
	SensorInterval time.Duration
	DataInterval   time.Duration
	RetryDelay     time.Duration
	ServoDebounce  time.Duration

	GasMedium float64
	GasHigh   float64
	GasRawMax int

	// Sleep blocks for the DHT retry delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns the stock timings and thresholds.
func DefaultConfig() Config {
	return Config{
		SensorInterval: 2000 * time.Millisecond,
		DataInterval:   5000 * time.Millisecond,
		RetryDelay:     500 * time.Millisecond,
		ServoDebounce:  5000 * time.Millisecond,
		GasMedium:      sensor.DefaultMediumPPM,
		GasHigh:        sensor.DefaultHighPPM,
		GasRawMax:      sensor.DefaultRawMax,
	}
}

// Climate thresholds.
const (
	coldBelow     = 18.0
	dryBelow      = 40.0
	warmAbove     = 28.0
	humidAbove    = 70.0
	overheatAbove = 32.0
	ventPosition  = 90
	restPosition  = 0
)

// Counts tallies what the device has seen and done since startup.
type Counts struct {
	Events   map[int]int
	Commands map[int]int
	Alerts   int
}

func (c Counts) clone() Counts {
	out := Counts{
		Events:   make(map[int]int, len(c.Events)),
		Commands: make(map[int]int, len(c.Commands)),
		Alerts:   c.Alerts,
	}
	for k, v := range c.Events {
		out.Events[k] = v
	}
	for k, v := range c.Commands {
		out.Commands[k] = v
	}
	return out
}

// State is a point-in-time copy of the device's readings and outputs.
type State struct {
	Temperature float64 // NaN until the first valid reading
	Humidity    float64
	Motion      bool
	SmokePPM    float64

	Cold      bool
	Comfort   bool
	Warm      bool
	MotionLED bool
	AlertLED  bool

	ClimateServo int
	GasServo     int

	GasAlertActive bool
	GasMedium      float64
	GasHigh        float64

	Uptime time.Duration
	Counts Counts
}

// Telemetry converts the state to the outbound telemetry message.
func (s State) Telemetry() Telemetry {
	return Telemetry{
		Temperature:    orInvalid(s.Temperature),
		Humidity:       orInvalid(s.Humidity),
		MotionDetected: s.Motion,
		SmokeLevel:     s.SmokePPM,
		ServoPosition:  s.ClimateServo,
		Servo2Position: s.GasServo,
		Timestamp:      s.Uptime.Milliseconds(),
	}
}

func orInvalid(v float64) float64 {
	if math.IsNaN(v) {
		return InvalidReading
	}
	return v
}
