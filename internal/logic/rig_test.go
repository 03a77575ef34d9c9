package logic

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type alertRecorder struct {
	alerts []Alert
	err    error
}

func (r *alertRecorder) PublishAlert(a Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *alertRecorder) ofType(typ AlertType) []Alert {
	var out []Alert
	for _, a := range r.alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

type telemetryRecorder struct {
	sent []Telemetry
	err  error
}

func (r *telemetryRecorder) PublishTelemetry(t Telemetry) error {
	r.sent = append(r.sent, t)
	return r.err
}

type observerRecorder struct {
	events         []reactor.Event
	commands       []reactor.Command
	publishFails   map[string]int
	sensorFailures map[string]int
}

func newObserverRecorder() *observerRecorder {
	return &observerRecorder{publishFails: map[string]int{}, sensorFailures: map[string]int{}}
}

func (o *observerRecorder) EventObserved(e reactor.Event)     { o.events = append(o.events, e) }
func (o *observerRecorder) CommandExecuted(c reactor.Command) { o.commands = append(o.commands, c) }
func (o *observerRecorder) AlertRaised(Alert)                 {}
func (o *observerRecorder) PublishFailed(t string)            { o.publishFails[t]++ }
func (o *observerRecorder) SensorFailed(s string)             { o.sensorFailures[s]++ }

// rig wires a Device to fakes. The gas source is scaled so raw == ppm.
type rig struct {
	climate *sensor.FakeClimate
	motion  *sensor.FakeMotion
	gas     *sensor.FakeGas

	cold, comfort, warm, motionLED, alertLED *actuator.FakeDigital
	servo1, servo2                           *actuator.FakePosition

	alerts    *alertRecorder
	telemetry *telemetryRecorder
	obs       *observerRecorder
	sleeps    []time.Duration

	dev *Device
}

func newRig(t *testing.T, samples ...sensor.ClimateSample) *rig {
	t.Helper()
	r := &rig{
		climate:   sensor.NewFakeClimate(samples...),
		motion:    &sensor.FakeMotion{},
		gas:       &sensor.FakeGas{},
		cold:      &actuator.FakeDigital{},
		comfort:   &actuator.FakeDigital{},
		warm:      &actuator.FakeDigital{},
		motionLED: &actuator.FakeDigital{},
		alertLED:  &actuator.FakeDigital{},
		servo1:    &actuator.FakePosition{},
		servo2:    &actuator.FakePosition{},
		alerts:    &alertRecorder{},
		telemetry: &telemetryRecorder{},
		obs:       newObserverRecorder(),
	}

	cfg := DefaultConfig()
	cfg.GasRawMax = 1000
	cfg.Sleep = func(d time.Duration) { r.sleeps = append(r.sleeps, d) }

	r.dev = NewDevice(Hardware{
		Climate:      r.climate,
		Motion:       r.motion,
		Gas:          r.gas,
		ColdLED:      r.cold,
		ComfortLED:   r.comfort,
		WarmLED:      r.warm,
		MotionLED:    r.motionLED,
		AlertLED:     r.alertLED,
		ClimateServo: r.servo1,
		GasServo:     r.servo2,
	}, cfg, testStart, zerolog.Nop())
	r.dev.AddAlertPublisher("test-alerts", r.alerts)
	r.dev.AddTelemetryPublisher("test", r.telemetry)
	r.dev.SetObserver(r.obs)

	if err := r.dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return r
}

// at runs Update at start+ms.
func (r *rig) at(ms int) {
	r.dev.Update(testStart.Add(time.Duration(ms) * time.Millisecond))
}

func (r *rig) eventIDs() []int {
	var ids []int
	for _, e := range r.obs.events {
		ids = append(ids, e.ID)
	}
	return ids
}

var errPublish = errors.New("broker unavailable")
