package mqtt

import (
	"time"

	"github.com/sweeney/smartsuite/internal/logic"
)

// FakePublisher records published telemetry and alerts for test assertions.
type FakePublisher struct {
	// Telemetry contains all telemetry reports that were published.
	Telemetry []logic.Telemetry

	// Alerts contains all alerts that were published.
	Alerts []logic.Alert

	// Payloads contains every JSON payload published, in order.
	Payloads [][]byte

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected and Maintain.
	Connected bool

	// Maintained counts calls to Maintain.
	Maintained int

	// Topics holds the last topics passed to SetTopics.
	Topics Topics
}

// NewFakePublisher creates a connected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true, Topics: DefaultTopics()}
}

// PublishTelemetry records the report.
func (f *FakePublisher) PublishTelemetry(t logic.Telemetry) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatTelemetry(t)
	if err != nil {
		return err
	}
	f.Telemetry = append(f.Telemetry, t)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishAlert records the alert.
func (f *FakePublisher) PublishAlert(a logic.Alert) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatAlert(a)
	if err != nil {
		return err
	}
	f.Alerts = append(f.Alerts, a)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Maintain counts the call and reports the Connected field as state.
func (f *FakePublisher) Maintain(time.Time) State {
	f.Maintained++
	if f.Connected {
		return StateConnected
	}
	return StateDisconnected
}

// SetTopics records the new topics.
func (f *FakePublisher) SetTopics(t Topics) {
	f.Topics = t
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded output.
func (f *FakePublisher) Reset() {
	f.Telemetry = nil
	f.Alerts = nil
	f.Payloads = nil
	f.PublishError = nil
	f.Closed = false
	f.Maintained = 0
}
