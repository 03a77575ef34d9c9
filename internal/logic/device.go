package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
	"github.com/sweeney/smartsuite/internal/sensor"
)

// ErrInvalidCommand is returned for an inbound servo command that names an
// unknown servo or an out-of-range position.
var ErrInvalidCommand = errors.New("invalid servo command")

// Device owns every sensor and actuator and is the downstream handler for all
// of them. It is not safe for concurrent use: Update, On, Handle and
// ApplyServoCommand must all be called from the same loop goroutine.
type Device struct {
	cfg Config
	log zerolog.Logger
	obs Observer

	dht *sensor.DHT
	pir *sensor.PIR
	gas *sensor.Gas

	cold    *actuator.Binary
	comfort *actuator.Binary
	warm    *actuator.Binary
	motion  *actuator.Binary
	alert   *actuator.Binary

	climateServo *actuator.Position
	gasServo     *actuator.Position

	alerts    []namedAlerts
	telemetry []namedTelemetry

	start          time.Time
	now            time.Time
	lastSensorRead time.Time
	lastDataSent   time.Time

	gasAlertActive  bool
	lastServoAction time.Time

	counts Counts
}

type namedTelemetry struct {
	name string
	pub  TelemetryPublisher
}

type namedAlerts struct {
	name string
	pub  AlertPublisher
}

// NewDevice assembles a device from hw. start anchors outbound timestamps and
// the polling schedule.
func NewDevice(hw Hardware, cfg Config, start time.Time, log zerolog.Logger) *Device {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	d := &Device{
		cfg:             cfg,
		log:             log,
		obs:             nopObserver{},
		start:           start,
		now:             start,
		lastSensorRead:  start,
		lastDataSent:    start,
		lastServoAction: start,
		counts: Counts{
			Events:   make(map[int]int),
			Commands: make(map[int]int),
		},
	}

	d.dht = sensor.NewDHT(hw.Climate, d, log)
	d.pir = sensor.NewPIR(hw.Motion, d, log)
	d.gas = sensor.NewGas(hw.Gas, cfg.GasMedium, cfg.GasHigh, d, log)
	d.gas.SetRawMax(cfg.GasRawMax)

	d.cold = actuator.NewBinary("cold", hw.ColdLED, false, d, log)
	d.comfort = actuator.NewBinary("comfort", hw.ComfortLED, false, d, log)
	d.warm = actuator.NewBinary("warm", hw.WarmLED, false, d, log)
	d.motion = actuator.NewBinary("motion", hw.MotionLED, false, d, log)
	d.alert = actuator.NewBinary("alert", hw.AlertLED, false, d, log)

	d.climateServo = actuator.NewPosition("climate-servo", hw.ClimateServo, restPosition, d, log)
	d.gasServo = actuator.NewPosition("gas-servo", hw.GasServo, restPosition, d, log)

	return d
}

// SetObserver installs o. nil restores the no-op observer.
func (d *Device) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	d.obs = o
}

// AddAlertPublisher adds an alert destination. name labels failures.
// With none installed alerts are only logged.
func (d *Device) AddAlertPublisher(name string, p AlertPublisher) {
	d.alerts = append(d.alerts, namedAlerts{name: name, pub: p})
}

// AddTelemetryPublisher adds a telemetry destination. name labels failures.
func (d *Device) AddTelemetryPublisher(name string, p TelemetryPublisher) {
	d.telemetry = append(d.telemetry, namedTelemetry{name: name, pub: p})
}

// SetGasThresholds replaces the gas thresholds used by both the sensor and
// the gas decision. The caller must pass medium <= high.
func (d *Device) SetGasThresholds(medium, high float64) {
	d.gas.SetThresholds(medium, high)
}

// Begin initializes sensors and actuators and parks both servos at 0.
func (d *Device) Begin() error {
	if err := d.dht.Begin(); err != nil {
		return fmt.Errorf("begin dht: %w", err)
	}
	if err := d.pir.Begin(); err != nil {
		return fmt.Errorf("begin pir: %w", err)
	}
	if err := d.gas.Begin(); err != nil {
		return fmt.Errorf("begin gas: %w", err)
	}
	if err := d.climateServo.Begin(); err != nil {
		return fmt.Errorf("begin climate servo: %w", err)
	}
	if err := d.gasServo.Begin(); err != nil {
		return fmt.Errorf("begin gas servo: %w", err)
	}

	d.climateServo.Handle(actuator.MoveTo0Command)
	d.gasServo.Handle(actuator.MoveTo0Command)

	d.log.Info().
		Dur("sensor_interval", d.cfg.SensorInterval).
		Dur("data_interval", d.cfg.DataInterval).
		Msg("device initialized")
	return nil
}

// Update runs one pass of the polling loop. Sensors are sampled when the
// sensor interval has elapsed and telemetry is published when the data
// interval has elapsed; both are measured from the previous run.
func (d *Device) Update(now time.Time) {
	d.now = now

	if now.Sub(d.lastSensorRead) >= d.cfg.SensorInterval {
		d.lastSensorRead = now
		d.readSensors()
		d.processClimate()
		d.processGas()
	}

	if now.Sub(d.lastDataSent) >= d.cfg.DataInterval {
		d.lastDataSent = now
		d.publishTelemetry()
	}
}

// readSensors samples every sensor. A failed DHT read is retried once after
// RetryDelay.
func (d *Device) readSensors() {
	if !d.dht.Read() {
		d.obs.SensorFailed("dht")
		d.cfg.Sleep(d.cfg.RetryDelay)
		if !d.dht.Read() {
			d.obs.SensorFailed("dht")
			d.log.Warn().Msg("dht read failed after retry, keeping last values")
		}
	}
	d.pir.Read()
	d.gas.Read()
}

// On reacts to sensor events.
func (d *Device) On(e reactor.Event) {
	d.counts.Events[e.ID]++
	d.obs.EventObserved(e)
	d.log.Debug().Int("event", e.ID).Msg("event")

	switch e {
	case sensor.TemperatureReadEvent, sensor.HumidityReadEvent:
		d.processClimate()
	case sensor.MotionDetectedEvent:
		d.motion.Handle(actuator.TurnOnCommand)
		d.raise(AlertMotion, SeverityMedium, "Motion detected in the area")
	case sensor.MotionStoppedEvent:
		d.motion.Handle(actuator.TurnOffCommand)
	case sensor.GasMediumEvent:
		d.processGas()
		d.raise(AlertSmoke, SeverityMedium, fmt.Sprintf("Gas level detected: %.2f ppm", d.gas.Level()))
	case sensor.GasHighEvent:
		d.processGas()
		d.raise(AlertSmoke, SeverityHigh, fmt.Sprintf("High gas level detected: %.2f ppm", d.gas.Level()))
	case sensor.GasClearEvent:
		d.alert.Handle(actuator.TurnOffCommand)
		d.gasServo.Handle(actuator.MoveTo0Command)
	}
}

// Handle records a command that an actuator has executed. It never
// dispatches further.
func (d *Device) Handle(c reactor.Command) {
	d.counts.Commands[c.ID]++
	d.obs.CommandExecuted(c)
	d.log.Debug().Int("command", c.ID).Msg("command executed")
}

// ApplyServoCommand applies an inbound servo command: it sets the named
// servo's target and moves it there.
func (d *Device) ApplyServoCommand(cmd ServoCommand) error {
	if !actuator.InRange(cmd.Position) {
		return fmt.Errorf("%w: position %d out of range", ErrInvalidCommand, cmd.Position)
	}

	var servo *actuator.Position
	switch cmd.Servo {
	case 1:
		servo = d.climateServo
	case 2:
		servo = d.gasServo
	default:
		return fmt.Errorf("%w: unknown servo %d", ErrInvalidCommand, cmd.Servo)
	}

	servo.SetTargetPosition(cmd.Position)
	servo.Handle(actuator.MoveToTargetCommand)
	d.log.Info().Int("servo", cmd.Servo).Int("position", servo.Current()).Msg("servo moved by remote command")
	return nil
}

func (d *Device) raise(typ AlertType, sev Severity, msg string) {
	a := Alert{
		Type:      typ,
		Severity:  sev,
		Message:   msg,
		Timestamp: d.now.Sub(d.start).Milliseconds(),
	}
	d.counts.Alerts++
	d.obs.AlertRaised(a)
	d.log.Info().Str("type", string(typ)).Str("severity", string(sev)).Msg(msg)

	for _, na := range d.alerts {
		if err := na.pub.PublishAlert(a); err != nil {
			d.obs.PublishFailed(na.name)
			d.log.Warn().Err(err).Str("transport", na.name).Msg("alert publish failed")
		}
	}
}

func (d *Device) publishTelemetry() {
	t := d.State().Telemetry()
	for _, nt := range d.telemetry {
		if err := nt.pub.PublishTelemetry(t); err != nil {
			d.obs.PublishFailed(nt.name)
			d.log.Warn().Err(err).Str("transport", nt.name).Msg("telemetry publish failed")
		}
	}
}

// State returns a copy of the current readings and outputs.
func (d *Device) State() State {
	medium, high := d.gas.Thresholds()
	return State{
		Temperature:    d.dht.Temperature(),
		Humidity:       d.dht.Humidity(),
		Motion:         d.pir.Motion(),
		SmokePPM:       d.gas.Level(),
		Cold:           d.cold.State(),
		Comfort:        d.comfort.State(),
		Warm:           d.warm.State(),
		MotionLED:      d.motion.State(),
		AlertLED:       d.alert.State(),
		ClimateServo:   d.climateServo.Current(),
		GasServo:       d.gasServo.Current(),
		GasAlertActive: d.gasAlertActive,
		GasMedium:      medium,
		GasHigh:        high,
		Uptime:         d.now.Sub(d.start),
		Counts:         d.counts.clone(),
	}
}
