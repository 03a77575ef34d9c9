package status

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	DeviceID      string         `json:"device_id"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Readings      ReadingsJSON   `json:"readings"`
	Indicators    IndicatorsJSON `json:"indicators"`
	Servos        ServosJSON     `json:"servos"`
	Gas           GasJSON        `json:"gas"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	RecentAlerts  []AlertJSON    `json:"recent_alerts"`
	Config        ConfigJSON     `json:"config"`
}

// ReadingsJSON holds the last sensor values. Climate values are null until
// the first valid reading.
type ReadingsJSON struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Motion      bool     `json:"motion"`
	SmokePPM    float64  `json:"smoke_ppm"`
}

type IndicatorsJSON struct {
	Cold    bool `json:"cold"`
	Comfort bool `json:"comfort"`
	Warm    bool `json:"warm"`
	Motion  bool `json:"motion"`
	Alert   bool `json:"alert"`
}

type ServosJSON struct {
	Climate int `json:"climate"`
	Gas     int `json:"gas"`
}

type GasJSON struct {
	AlertActive bool    `json:"alert_active"`
	MediumPPM   float64 `json:"medium_ppm"`
	HighPPM     float64 `json:"high_ppm"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts, keyed by name.
type CountsJSON struct {
	Events   map[string]int `json:"events"`
	Commands map[string]int `json:"commands"`
	Alerts   int            `json:"alerts"`
}

type AlertJSON struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ConfigJSON is the JSON representation of device config.
type ConfigJSON struct {
	Hardware         string `json:"hardware"`
	Broker           string `json:"broker"`
	TopicData        string `json:"topic_data"`
	TopicAlerts      string `json:"topic_alerts"`
	TopicCommand     string `json:"topic_command"`
	HTTPEndpoint     string `json:"http_endpoint,omitempty"`
	StatusAddr       string `json:"status_addr"`
	SSID             string `json:"ssid,omitempty"`
	SensorIntervalMs int64  `json:"sensor_interval_ms"`
	DataIntervalMs   int64  `json:"data_interval_ms"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// eventCounts re-keys event counts by event name.
func eventCounts(counts map[int]int) map[string]int {
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[sensor.EventName(reactor.Event{ID: id})] = n
	}
	return out
}

func commandCounts(counts map[int]int) map[string]int {
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[actuator.CommandName(reactor.Command{ID: id})] = n
	}
	return out
}

// SortedKeys returns the keys of m in order, for stable rendering.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Build converts a snapshot to its JSON form.
func Build(snap Snapshot) StatusInner {
	d := snap.Device
	alerts := make([]AlertJSON, 0, len(snap.RecentAlerts))
	for _, a := range snap.RecentAlerts {
		alerts = append(alerts, AlertJSON{
			Type:      string(a.Type),
			Severity:  string(a.Severity),
			Message:   a.Message,
			Timestamp: a.Timestamp,
		})
	}

	return StatusInner{
		DeviceID:      snap.Config.DeviceID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Readings: ReadingsJSON{
			Temperature: optional(d.Temperature),
			Humidity:    optional(d.Humidity),
			Motion:      d.Motion,
			SmokePPM:    d.SmokePPM,
		},
		Indicators: IndicatorsJSON{
			Cold:    d.Cold,
			Comfort: d.Comfort,
			Warm:    d.Warm,
			Motion:  d.MotionLED,
			Alert:   d.AlertLED,
		},
		Servos: ServosJSON{Climate: d.ClimateServo, Gas: d.GasServo},
		Gas: GasJSON{
			AlertActive: d.GasAlertActive,
			MediumPPM:   d.GasMedium,
			HighPPM:     d.GasHigh,
		},
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			State:     snap.MQTTState,
			Broker:    snap.Config.Broker,
		},
		Counts: CountsJSON{
			Events:   eventCounts(d.Counts.Events),
			Commands: commandCounts(d.Counts.Commands),
			Alerts:   d.Counts.Alerts,
		},
		RecentAlerts: alerts,
		Config: ConfigJSON{
			Hardware:         snap.Config.Hardware,
			Broker:           snap.Config.Broker,
			TopicData:        snap.Config.TopicData,
			TopicAlerts:      snap.Config.TopicAlerts,
			TopicCommand:     snap.Config.TopicCommand,
			HTTPEndpoint:     snap.Config.HTTPEndpoint,
			StatusAddr:       snap.Config.StatusAddr,
			SSID:             snap.Config.SSID,
			SensorIntervalMs: snap.Config.SensorIntervalMs,
			DataIntervalMs:   snap.Config.DataIntervalMs,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Build(snap)}, "", "  ")
	return data
}
