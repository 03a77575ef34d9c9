package web

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/smartsuite/internal/logic"
	"github.com/sweeney/smartsuite/internal/metrics"
	"github.com/sweeney/smartsuite/internal/sensor"
	"github.com/sweeney/smartsuite/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		DeviceID:         "lounge",
		Hardware:         "sim",
		Broker:           "tcp://192.168.0.237:1883",
		TopicData:        "smartsuite/sensors/data",
		TopicAlerts:      "smartsuite/alerts",
		TopicCommand:     "smartsuite/servo/command",
		StatusAddr:       ":8080",
		SensorIntervalMs: 2000,
		DataIntervalMs:   5000,
	}
	tr := status.NewTracker(start, cfg)
	m := metrics.New()
	m.EventObserved(sensor.GasHighEvent)
	srv := New(":0", tr, m.Handler(), zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.State{
		Temperature:  25,
		Humidity:     50,
		Comfort:      true,
		ClimateServo: 0,
		GasServo:     90,
		Counts:       logic.Counts{Events: map[int]int{sensor.HumidityReadEventID: 3}},
	})
	tr.SetMQTT("connected", true)

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	require.NotNil(t, sj.Status.Readings.Temperature)
	assert.Equal(t, 25.0, *sj.Status.Readings.Temperature)
	assert.True(t, sj.Status.Indicators.Comfort)
	assert.Equal(t, 90, sj.Status.Servos.Gas)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, "connected", sj.Status.MQTT.State)
	assert.Equal(t, 3, sj.Status.Counts.Events["humidity_read"])
	assert.Equal(t, "lounge", sj.Status.DeviceID)
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.State{
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
		SmokePPM:    650,
		AlertLED:    true,
		GasServo:    90,
		GasMedium:   300,
		GasHigh:     600,

		GasAlertActive: true,
	})
	require.NoError(t, tr.PublishAlert(logic.Alert{
		Type: logic.AlertSmoke, Severity: logic.SeverityHigh, Message: "High gas level detected: 650 ppm",
	}))

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "SmartSuite lounge")
	assert.Contains(t, body, "no reading")
	assert.Contains(t, body, "650 ppm (medium 300, high 600)")
	assert.Contains(t, body, "90°")
	assert.Contains(t, body, "(latched)")
	assert.Contains(t, body, "High gas level detected: 650 ppm")
	assert.Contains(t, body, "disconnected")
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.State{
		Temperature: 21.25,
		Humidity:    45,
		Counts:      logic.Counts{Events: map[int]int{sensor.TemperatureReadEventID: 7}},
	})

	resp, body := get(t, ts.URL+"/index.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "21.2°C")
	assert.Contains(t, body, "45.0%")
	assert.Contains(t, body, "temperature_read")
	assert.Contains(t, body, "<p>none</p>", "no alerts yet")
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `smartsuite_events_total{event="gas_high"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)

	resp, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := get(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	tr.Update(logic.State{ClimateServo: 0})
	_, body := get(t, ts.URL+"/index.json")
	var first status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &first))
	assert.Equal(t, 0, first.Status.Servos.Climate)

	tr.Update(logic.State{ClimateServo: 90})
	_, body = get(t, ts.URL+"/index.json")
	var second status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &second))
	assert.Equal(t, 90, second.Status.Servos.Climate)
}
