// Package status provides a thread-safe status tracker for the device.
// It is written by the polling loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/smartsuite/internal/logic"
)

// MaxRecentAlerts bounds the alert history kept for display.
const MaxRecentAlerts = 10

// Config contains device configuration for display.
type Config struct {
	DeviceID         string
	Hardware         string
	Broker           string
	TopicData        string
	TopicAlerts      string
	TopicCommand     string
	HTTPEndpoint     string
	StatusAddr       string
	SSID             string
	SensorIntervalMs int64
	DataIntervalMs   int64
}

// Snapshot is a point-in-time view of device state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Device        logic.State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTState     string
	RecentAlerts  []logic.Alert // newest first
	Config        Config
}

// Uptime returns the duration since the device started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable device state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			MQTTState: "disconnected",
			Config:    cfg,
		},
	}
}

// Update stores the device state. Called from the loop on every tick.
func (t *Tracker) Update(s logic.State) {
	t.mu.Lock()
	t.snap.Device = s
	t.mu.Unlock()
}

// SetMQTT sets the broker connection state.
func (t *Tracker) SetMQTT(state string, connected bool) {
	t.mu.Lock()
	t.snap.MQTTState = state
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetConfig replaces the displayed config after a reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// PublishAlert records a for display. It implements logic.AlertPublisher.
func (t *Tracker) PublishAlert(a logic.Alert) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	alerts := append([]logic.Alert{a}, t.snap.RecentAlerts...)
	if len(alerts) > MaxRecentAlerts {
		alerts = alerts[:MaxRecentAlerts]
	}
	t.snap.RecentAlerts = alerts
	return nil
}

// Snapshot returns a point-in-time copy of the device state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.RecentAlerts = append([]logic.Alert(nil), t.snap.RecentAlerts...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
