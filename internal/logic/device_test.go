package logic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

func TestBeginParksServos(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 22, Humidity: 50})

	assert.Equal(t, 0, r.servo1.Degrees)
	assert.Equal(t, 0, r.servo2.Degrees)
	assert.Contains(t, r.obs.commands, actuator.MoveTo0Command)
	assert.Equal(t, 2, r.dev.State().Counts.Commands[actuator.MoveTo0CommandID])
}

func TestNoSensorReadBeforeInterval(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 22, Humidity: 50})
	calls := r.climate.Calls

	r.at(1999)

	assert.Equal(t, calls, r.climate.Calls)
	assert.Empty(t, r.obs.events)
}

func TestSensorIntervalSchedule(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 22, Humidity: 50})
	calls := r.climate.Calls

	for _, ms := range []int{2000, 2500, 3999, 4000, 5000, 6000} {
		r.at(ms)
	}

	// Reads at 2000, 4000 and 6000.
	assert.Equal(t, calls+3, r.climate.Calls)
}

func TestDataIntervalPublishesTelemetry(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 21.5, Humidity: 48})
	r.gas.Value = 120
	r.motion.Level = true

	r.at(2000)
	r.at(4000)
	require.Empty(t, r.telemetry.sent)

	r.at(5000)
	require.Len(t, r.telemetry.sent, 1)

	got := r.telemetry.sent[0]
	assert.Equal(t, 21.5, got.Temperature)
	assert.Equal(t, 48.0, got.Humidity)
	assert.True(t, got.MotionDetected)
	assert.Equal(t, 120.0, got.SmokeLevel)
	assert.Equal(t, 0, got.ServoPosition)
	assert.Equal(t, 0, got.Servo2Position)
	assert.Equal(t, int64(5000), got.Timestamp)

	r.at(9999)
	assert.Len(t, r.telemetry.sent, 1)
	r.at(10000)
	assert.Len(t, r.telemetry.sent, 2)
}

func TestTelemetryUsesSentinelForMissingClimate(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: math.NaN(), Humidity: math.NaN()})

	r.at(5000)

	require.Len(t, r.telemetry.sent, 1)
	assert.Equal(t, InvalidReading, r.telemetry.sent[0].Temperature)
	assert.Equal(t, InvalidReading, r.telemetry.sent[0].Humidity)
}

func TestTelemetryPublishFailureIsNotFatal(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 22, Humidity: 50})
	failing := &telemetryRecorder{err: errPublish}
	r.dev.AddTelemetryPublisher("http", failing)

	r.at(5000)
	r.at(10000)

	assert.Len(t, r.telemetry.sent, 2, "healthy publisher still receives every report")
	assert.Len(t, failing.sent, 2, "failing publisher is retried next cycle")
	assert.Equal(t, 2, r.obs.publishFails["http"])
}

func TestAlertPublishFailureIsNotFatal(t *testing.T) {
	r := newRig(t, sensor.ClimateSample{Temperature: 22, Humidity: 50})
	r.alerts.err = errPublish
	r.motion.Level = true

	r.at(2000)

	assert.Len(t, r.alerts.alerts, 1)
	assert.True(t, r.dev.State().MotionLED)
	assert.Equal(t, 1, r.obs.publishFails["test-alerts"])
}

func TestHandleIsTerminalObserver(t *testing.T) {
	r := newRig(t)
	before := len(r.obs.commands)

	r.dev.Handle(reactor.Command{ID: 42})

	assert.Len(t, r.obs.commands, before+1)
	assert.Equal(t, 1, r.dev.State().Counts.Commands[42])
	assert.Equal(t, 0, r.servo1.Degrees)
	assert.Empty(t, r.alerts.alerts)
}

func TestDHTRetryOnceAfterDelay(t *testing.T) {
	r := newRig(t,
		sensor.ClimateSample{Temperature: 22, Humidity: 50}, // consumed by Begin's probe
		sensor.ClimateSample{Temperature: 120, Humidity: 50},
		sensor.ClimateSample{Temperature: 23, Humidity: 51},
	)

	r.at(2000)

	assert.Equal(t, []time.Duration{500 * time.Millisecond}, r.sleeps)
	st := r.dev.State()
	assert.Equal(t, 23.0, st.Temperature)
	assert.Equal(t, 51.0, st.Humidity)
	assert.Equal(t, 1, r.obs.sensorFailures["dht"])
}

func TestDHTFailureKeepsLastGoodValue(t *testing.T) {
	r := newRig(t,
		sensor.ClimateSample{Temperature: 22, Humidity: 50},
		sensor.ClimateSample{Temperature: 24, Humidity: 45},
	)
	r.at(2000)

	r.climate.Push(sensor.ClimateSample{Temperature: math.NaN(), Humidity: 45})
	r.at(4000)

	st := r.dev.State()
	assert.Equal(t, 24.0, st.Temperature)
	assert.Equal(t, 45.0, st.Humidity)
	assert.Len(t, r.sleeps, 1)
	assert.True(t, st.Comfort, "decision still runs on the last good values")
}

func TestApplyServoCommandRoundTrip(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.dev.ApplyServoCommand(ServoCommand{Position: 120, Servo: 2}))

	assert.Equal(t, 120, r.dev.gasServo.Target())
	assert.Equal(t, 120, r.dev.State().GasServo)
	assert.Equal(t, 120, r.servo2.Degrees)
	assert.Equal(t, 0, r.servo1.Degrees)
	assert.Equal(t, actuator.MoveToTargetCommand, r.obs.commands[len(r.obs.commands)-1])
}

func TestApplyServoCommandServo1(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.dev.ApplyServoCommand(ServoCommand{Position: 45, Servo: 1}))

	assert.Equal(t, 45, r.servo1.Degrees)
}

func TestApplyServoCommandRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  ServoCommand
	}{
		{"position too high", ServoCommand{Position: 181, Servo: 1}},
		{"position negative", ServoCommand{Position: -5, Servo: 2}},
		{"unknown servo", ServoCommand{Position: 90, Servo: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			before := len(r.obs.commands)

			err := r.dev.ApplyServoCommand(tt.cmd)

			assert.ErrorIs(t, err, ErrInvalidCommand)
			assert.Equal(t, 0, r.servo1.Degrees)
			assert.Equal(t, 0, r.servo2.Degrees)
			assert.Len(t, r.obs.commands, before)
		})
	}
}

func TestSetGasThresholds(t *testing.T) {
	r := newRig(t)

	r.dev.SetGasThresholds(100, 200)

	st := r.dev.State()
	assert.Equal(t, 100.0, st.GasMedium)
	assert.Equal(t, 200.0, st.GasHigh)
}

func TestStateCountsAreCopies(t *testing.T) {
	r := newRig(t)
	st := r.dev.State()
	st.Counts.Commands[actuator.MoveTo0CommandID] = 99

	assert.Equal(t, 2, r.dev.State().Counts.Commands[actuator.MoveTo0CommandID])
}
