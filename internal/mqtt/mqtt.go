// Package mqtt carries the device's telemetry and alerts to an MQTT broker
// and turns inbound servo command messages into logic.ServoCommand values.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweeney/smartsuite/internal/logic"
)

// Default topics.
const (
	DefaultTopicData    = "smartsuite/sensors/data"
	DefaultTopicAlerts  = "smartsuite/alerts"
	DefaultTopicCommand = "smartsuite/servo/command"
)

var (
	// ErrNotConnected is returned when publishing while the link is down.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrMissingPosition is returned for a command message without a position.
	ErrMissingPosition = errors.New("mqtt: command has no position")
)

// Topics names the outbound and inbound topics.
type Topics struct {
	Data    string
	Alerts  string
	Command string
}

// DefaultTopics returns the default topic set.
func DefaultTopics() Topics {
	return Topics{
		Data:    DefaultTopicData,
		Alerts:  DefaultTopicAlerts,
		Command: DefaultTopicCommand,
	}
}

// Publisher publishes device output to the broker.
type Publisher interface {
	logic.TelemetryPublisher
	logic.AlertPublisher

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TelemetryPayload is the JSON form of logic.Telemetry.
type TelemetryPayload struct {
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	MotionDetected bool    `json:"motionDetected"`
	SmokeLevel     float64 `json:"smokeLevel"`
	ServoPosition  int     `json:"servoPosition"`
	Servo2Position int     `json:"servo2Position"`
	Timestamp      int64   `json:"timestamp"`
}

// NewTelemetryPayload converts t to its wire form.
func NewTelemetryPayload(t logic.Telemetry) TelemetryPayload {
	return TelemetryPayload{
		Temperature:    t.Temperature,
		Humidity:       t.Humidity,
		MotionDetected: t.MotionDetected,
		SmokeLevel:     t.SmokeLevel,
		ServoPosition:  t.ServoPosition,
		Servo2Position: t.Servo2Position,
		Timestamp:      t.Timestamp,
	}
}

// FormatTelemetry creates the JSON payload for a telemetry report.
func FormatTelemetry(t logic.Telemetry) ([]byte, error) {
	return json.Marshal(NewTelemetryPayload(t))
}

// AlertPayload is the JSON form of logic.Alert.
type AlertPayload struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// FormatAlert creates the JSON payload for an alert.
func FormatAlert(a logic.Alert) ([]byte, error) {
	return json.Marshal(AlertPayload{
		Type:      string(a.Type),
		Severity:  string(a.Severity),
		Message:   a.Message,
		Timestamp: a.Timestamp,
	})
}

// CommandPayload is the inbound servo command message.
type CommandPayload struct {
	Position *int `json:"position"`
	Servo    *int `json:"servo,omitempty"`
}

// ParseCommand decodes an inbound servo command. servo defaults to 1. The
// position range is checked by the device, not here.
func ParseCommand(payload []byte) (logic.ServoCommand, error) {
	var p CommandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return logic.ServoCommand{}, fmt.Errorf("decode command: %w", err)
	}
	if p.Position == nil {
		return logic.ServoCommand{}, ErrMissingPosition
	}
	cmd := logic.ServoCommand{Position: *p.Position, Servo: 1}
	if p.Servo != nil {
		cmd.Servo = *p.Servo
	}
	return cmd, nil
}
