package metrics

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/logic"
	"github.com/sweeney/smartsuite/internal/sensor"
)

func TestObserverCounters(t *testing.T) {
	m := New()

	m.EventObserved(sensor.TemperatureReadEvent)
	m.EventObserved(sensor.TemperatureReadEvent)
	m.EventObserved(sensor.GasHighEvent)
	m.CommandExecuted(actuator.MoveTo90Command)
	m.AlertRaised(logic.Alert{Type: logic.AlertSmoke, Severity: logic.SeverityHigh})
	m.PublishFailed("mqtt")
	m.SensorFailed("dht")
	m.SensorFailed("dht")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("temperature_read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("gas_high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("move_to_90")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("smoke", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors.WithLabelValues("mqtt")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SensorFailures.WithLabelValues("dht")))
}

func TestUpdate(t *testing.T) {
	m := New()
	m.Update(logic.State{
		Temperature:    23.5,
		Humidity:       45,
		SmokePPM:       420,
		ClimateServo:   90,
		GasServo:       0,
		GasAlertActive: true,
	}, true)

	assert.Equal(t, 23.5, testutil.ToFloat64(m.Temperature))
	assert.Equal(t, 45.0, testutil.ToFloat64(m.Humidity))
	assert.Equal(t, 420.0, testutil.ToFloat64(m.Smoke))
	assert.Equal(t, 90.0, testutil.ToFloat64(m.ServoPosition.WithLabelValues("climate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ServoPosition.WithLabelValues("gas")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GasAlert))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MQTTConnected))

	m.Update(logic.State{Temperature: math.NaN(), Humidity: math.NaN()}, false)
	assert.Equal(t, 23.5, testutil.ToFloat64(m.Temperature), "NaN keeps last value")
	assert.Equal(t, 45.0, testutil.ToFloat64(m.Humidity))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MQTTConnected))
}

func TestHandler(t *testing.T) {
	m := New()
	m.EventObserved(sensor.MotionDetectedEvent)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `smartsuite_events_total{event="motion_detected"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
