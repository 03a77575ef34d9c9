package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sweeney/smartsuite/internal/logic"
)

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Default client settings.
const (
	DefaultClientID       = "SmartSuite_ESP32"
	DefaultBackoff        = 5 * time.Second
	DefaultPublishTimeout = 2 * time.Second
	DefaultBufferSize     = 32
)

// Options configures a Client.
type Options struct {
	Broker         string // tcp://host:port
	ClientID       string
	Username       string
	Password       string
	Topics         Topics
	Backoff        time.Duration
	PublishTimeout time.Duration
	BufferSize     int
}

func (o *Options) applyDefaults() {
	if o.ClientID == "" {
		o.ClientID = DefaultClientID
	}
	if o.Topics == (Topics{}) {
		o.Topics = DefaultTopics()
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = DefaultPublishTimeout
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
}

// CommandFunc receives decoded servo commands. It is called from the paho
// delivery goroutine and must not block.
type CommandFunc func(logic.ServoCommand)

// Client is a paho-backed publisher whose connection is driven by Maintain.
// Connecting never blocks the caller: Maintain starts an attempt and checks
// its token on later calls. Apart from inbound delivery, all methods must be
// called from the same goroutine.
type Client struct {
	client    paho.Client
	opts      Options
	onCommand CommandFunc
	log       zerolog.Logger

	state       State
	connTok     paho.Token
	subTok      paho.Token
	nextAttempt time.Time
	alerts      *alertQueue
}

// NewClient creates a Client for the given broker. No connection is made
// until the first call to Maintain.
func NewClient(opts Options, onCommand CommandFunc, log zerolog.Logger) *Client {
	opts.applyDefaults()
	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(10 * time.Second).
		SetCleanSession(true)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}
	return newClient(paho.NewClient(po), opts, onCommand, log)
}

func newClient(pc paho.Client, opts Options, onCommand CommandFunc, log zerolog.Logger) *Client {
	opts.applyDefaults()
	if onCommand == nil {
		onCommand = func(logic.ServoCommand) {}
	}
	log = log.With().Str("component", "mqtt").Logger()
	return &Client{
		client:    pc,
		opts:      opts,
		onCommand: onCommand,
		log:       log,
		alerts:    newAlertQueue(opts.BufferSize, log),
	}
}

// Maintain advances the connection state machine and returns the new state.
func (c *Client) Maintain(now time.Time) State {
	switch c.state {
	case StateDisconnected:
		if now.Before(c.nextAttempt) {
			break
		}
		c.log.Info().Str("broker", c.opts.Broker).Str("client_id", c.opts.ClientID).Msg("connecting")
		c.connTok = c.client.Connect()
		c.state = StateConnecting

	case StateConnecting:
		select {
		case <-c.connTok.Done():
		default:
			return c.state
		}
		if err := c.connTok.Error(); err != nil {
			c.log.Warn().Err(err).Dur("retry_in", c.opts.Backoff).Msg("connect failed")
			c.state = StateDisconnected
			c.nextAttempt = now.Add(c.opts.Backoff)
			break
		}
		c.onConnect()

	case StateConnected:
		if c.subTok != nil {
			select {
			case <-c.subTok.Done():
				if err := c.subTok.Error(); err != nil {
					c.log.Warn().Err(err).Str("topic", c.opts.Topics.Command).Msg("subscribe failed")
				}
				c.subTok = nil
			default:
			}
		}
		if !c.client.IsConnectionOpen() {
			c.log.Warn().Msg("connection lost")
			c.state = StateDisconnected
			c.subTok = nil
			c.nextAttempt = now
		}
	}
	return c.state
}

func (c *Client) onConnect() {
	c.state = StateConnected
	c.log.Info().Str("broker", c.opts.Broker).Msg("connected")

	c.subTok = c.client.Subscribe(c.opts.Topics.Command, 1, c.handleMessage)

	pending, dropped := c.alerts.drain()
	if len(pending) == 0 {
		return
	}
	c.log.Info().Int("count", len(pending)).Int("dropped", dropped).Msg("replaying buffered alerts")
	for i, a := range pending {
		if err := c.sendAlert(a); err != nil {
			c.log.Warn().Err(err).Int("remaining", len(pending)-i).Msg("replay failed, requeueing")
			c.alerts.requeue(pending[i:])
			return
		}
	}
}

func (c *Client) handleMessage(_ paho.Client, m paho.Message) {
	cmd, err := ParseCommand(m.Payload())
	if err != nil {
		c.log.Warn().Err(err).Str("topic", m.Topic()).Bytes("payload", m.Payload()).Msg("ignoring command")
		return
	}
	c.log.Debug().Int("servo", cmd.Servo).Int("position", cmd.Position).Msg("command received")
	c.onCommand(cmd)
}

// PublishTelemetry sends a telemetry report. Reports are dropped while the
// link is down.
func (c *Client) PublishTelemetry(t logic.Telemetry) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	payload, err := FormatTelemetry(t)
	if err != nil {
		return fmt.Errorf("format telemetry: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return c.publish(c.opts.Topics.Data, 0, false, payload)
}

// PublishAlert sends an alert. Alerts raised while the link is down are
// buffered and sent after the next successful connect.
func (c *Client) PublishAlert(a logic.Alert) error {
	if c.state != StateConnected {
		c.alerts.push(a)
		c.log.Debug().Int("buffered", c.alerts.len()).Msg("alert buffered while disconnected")
		return nil
	}
	return c.sendAlert(a)
}

func (c *Client) sendAlert(a logic.Alert) error {
	payload, err := FormatAlert(a)
	if err != nil {
		return fmt.Errorf("format alert: %w", err)
	}
	// QoS 1 (at-least-once) for alerts
	return c.publish(c.opts.Topics.Alerts, 1, false, payload)
}

func (c *Client) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// SetTopics replaces the topic set. Outbound topics apply to the next
// publish; a changed command topic is resubscribed when connected.
func (c *Client) SetTopics(t Topics) {
	old := c.opts.Topics
	c.opts.Topics = t
	if old.Command == t.Command || c.state != StateConnected {
		return
	}
	c.client.Unsubscribe(old.Command)
	c.subTok = c.client.Subscribe(t.Command, 1, c.handleMessage)
	c.log.Info().Str("topic", t.Command).Msg("command topic changed")
}

// IsConnected reports whether the broker link is up.
func (c *Client) IsConnected() bool {
	return c.state == StateConnected
}

// Buffered returns the number of alerts waiting for a connection.
func (c *Client) Buffered() int {
	return c.alerts.len()
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	if c.state == StateConnected {
		c.client.Disconnect(1000) // 1 second timeout
	}
	c.state = StateDisconnected
	return nil
}
