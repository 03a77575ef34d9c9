// Package httppush posts telemetry reports to an HTTP endpoint.
package httppush

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweeney/smartsuite/internal/logic"
	"github.com/sweeney/smartsuite/internal/mqtt"
)

// UserAgent is sent with every request.
const UserAgent = "SmartSuite-Go/1.0"

const defaultTimeout = 5 * time.Second

// ErrPostFailed wraps transport errors and unexpected status codes.
var ErrPostFailed = errors.New("httppush: post failed")

// Payload is the telemetry document plus the reporting device.
type Payload struct {
	mqtt.TelemetryPayload
	DeviceID string `json:"deviceId"`
	Source   string `json:"source"`
}

// Options configures a Client.
type Options struct {
	Endpoint string
	DeviceID string
	Source   string
	Timeout  time.Duration
}

// Client posts telemetry. An empty endpoint disables posting.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
	deviceID   string
	source     string
	timeout    time.Duration

	mu       sync.RWMutex
	endpoint string
}

// New creates a Client.
func New(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{},
		log:        log.With().Str("component", "httppush").Logger(),
		deviceID:   opts.DeviceID,
		source:     opts.Source,
		timeout:    opts.Timeout,
		endpoint:   opts.Endpoint,
	}
}

// SetEndpoint changes the target URL for subsequent posts.
func (c *Client) SetEndpoint(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = url
}

// Endpoint returns the current target URL.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// PublishTelemetry posts t. It is a no-op when no endpoint is configured.
func (c *Client) PublishTelemetry(t logic.Telemetry) error {
	endpoint := c.Endpoint()
	if endpoint == "" {
		c.log.Trace().Msg("no endpoint configured, skipping post")
		return nil
	}

	body, err := json.Marshal(Payload{
		TelemetryPayload: mqtt.NewTelemetryPayload(t),
		DeviceID:         c.deviceID,
		Source:           c.source,
	})
	if err != nil {
		return fmt.Errorf("encode telemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPostFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPostFailed, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrPostFailed, resp.StatusCode)
	}
	c.log.Debug().Int("status", resp.StatusCode).Msg("telemetry posted")
	return nil
}
