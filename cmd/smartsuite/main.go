// Command smartsuite runs the environmental monitor: it samples climate,
// motion and gas sensors, drives indicators and vent servos, and reports to
// MQTT and optionally an HTTP endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/sweeney/smartsuite/internal/config"
	"github.com/sweeney/smartsuite/internal/gpio"
	"github.com/sweeney/smartsuite/internal/httppush"
	"github.com/sweeney/smartsuite/internal/logging"
	"github.com/sweeney/smartsuite/internal/logic"
	"github.com/sweeney/smartsuite/internal/metrics"
	"github.com/sweeney/smartsuite/internal/mqtt"
	"github.com/sweeney/smartsuite/internal/sensor"
	"github.com/sweeney/smartsuite/internal/sim"
	"github.com/sweeney/smartsuite/internal/status"
	"github.com/sweeney/smartsuite/internal/sysfs"
	"github.com/sweeney/smartsuite/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("smartsuite", pflag.ExitOnError)
	config.RegisterFlags(flags)
	printState := flags.Bool("print-state", false, "Print one sensor reading as JSON and exit")
	flags.Parse(os.Args[1:])

	boot := logging.New("info", "text", os.Stderr)
	cfgs, err := config.Load(flags, boot)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	cfg := cfgs.Config()
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	if err := run(cfgs, *printState, log); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// link is the MQTT side of the device as seen by the loop.
type link interface {
	logic.TelemetryPublisher
	logic.AlertPublisher
	Maintain(now time.Time) mqtt.State
	IsConnected() bool
	SetTopics(mqtt.Topics)
	Close() error
}

func run(cfgs *config.Manager, printState bool, log zerolog.Logger) error {
	cfg := cfgs.Config()

	hw, closeHW, err := openHardware(cfg, log)
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	defer func() {
		if err := closeHW(); err != nil {
			log.Warn().Err(err).Msg("close hardware")
		}
	}()

	if printState {
		return printReading(os.Stdout, hw, cfg.Gas.RawMax)
	}

	start := time.Now()
	device := logic.NewDevice(hw, deviceConfig(cfg), start, log.With().Str("component", "device").Logger())

	commands := make(chan logic.ServoCommand, 8)
	client := mqtt.NewClient(mqtt.Options{
		Broker:   cfg.MQTT.URL(),
		ClientID: cfg.MQTTClientID(),
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Topics:   topics(cfg),
		Backoff:  cfg.MQTT.ReconnectBackoff,
	}, func(cmd logic.ServoCommand) {
		select {
		case commands <- cmd:
		default:
			log.Warn().Msg("command queue full, dropping command")
		}
	}, log)
	defer client.Close()

	push := httppush.New(httppush.Options{
		Endpoint: cfg.HTTP.Endpoint,
		DeviceID: cfg.Device.ID,
		Source:   cfg.Device.Source,
		Timeout:  cfg.HTTP.Timeout,
	}, log)

	m := metrics.New()
	tracker := status.NewTracker(start, statusConfig(cfg))

	device.SetObserver(m)
	device.AddAlertPublisher("mqtt", client)
	device.AddAlertPublisher("status", tracker)
	device.AddTelemetryPublisher("mqtt", client)
	device.AddTelemetryPublisher("http", push)

	if err := device.Begin(); err != nil {
		return fmt.Errorf("begin device: %w", err)
	}

	if cfg.Status.Addr != "" {
		srv := web.New(cfg.Status.Addr, tracker, m.Handler(), log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.Status.Addr).Msg("http status server listening")
	}

	reloads := make(chan config.Config, 1)
	cfgs.OnChange(func(c config.Config) {
		// Keep only the newest pending config.
		select {
		case <-reloads:
		default:
		}
		reloads <- c
	})
	cfgs.Watch()

	log.Info().
		Str("device_id", cfg.Device.ID).
		Str("hardware", cfg.Hardware).
		Str("broker", cfg.MQTT.URL()).
		Str("config", cfgs.File()).
		Msg("started")

	ticker := time.NewTicker(cfg.Loop.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	a := &app{
		device:  device,
		link:    client,
		push:    push,
		tracker: tracker,
		metrics: m,
		log:     log,
	}
	return a.runLoop(time.Now, ticker.C, sigCh, commands, reloads)
}

// app holds everything the loop touches.
type app struct {
	device  *logic.Device
	link    link
	push    *httppush.Client
	tracker *status.Tracker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// runLoop is the single goroutine that mutates the device. Inbound commands
// and config reloads arrive over channels and are applied between ticks.
func (a *app) runLoop(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, commands <-chan logic.ServoCommand, reloads <-chan config.Config) error {
	for {
		select {
		case s := <-sig:
			a.log.Info().Str("signal", s.String()).Msg("shutting down")
			return nil

		case cmd := <-commands:
			if err := a.device.ApplyServoCommand(cmd); err != nil {
				a.log.Warn().Err(err).Int("servo", cmd.Servo).Int("position", cmd.Position).Msg("rejected servo command")
			}
			a.publishState()

		case cfg := <-reloads:
			a.applyConfig(cfg)

		case <-tick:
			t := now()
			state := a.link.Maintain(t)
			a.device.Update(t)
			a.tracker.SetMQTT(state.String(), a.link.IsConnected())
			a.publishState()
		}
	}
}

func (a *app) publishState() {
	s := a.device.State()
	a.tracker.Update(s)
	a.metrics.Update(s, a.link.IsConnected())
}

// applyConfig applies the settings that can change without a restart.
// Connection settings (broker, credentials) need one.
func (a *app) applyConfig(cfg config.Config) {
	a.link.SetTopics(topics(cfg))
	a.push.SetEndpoint(cfg.HTTP.Endpoint)
	a.device.SetGasThresholds(cfg.Gas.Medium, cfg.Gas.High)
	a.tracker.SetConfig(statusConfig(cfg))
	a.log.Info().
		Str("topic_data", cfg.MQTT.Topics.Data).
		Float64("gas_medium", cfg.Gas.Medium).
		Float64("gas_high", cfg.Gas.High).
		Msg("config reloaded")
}

func deviceConfig(cfg config.Config) logic.Config {
	dc := logic.DefaultConfig()
	dc.SensorInterval = cfg.Loop.SensorInterval
	dc.DataInterval = cfg.Loop.DataInterval
	dc.RetryDelay = cfg.Loop.RetryDelay
	dc.GasMedium = cfg.Gas.Medium
	dc.GasHigh = cfg.Gas.High
	dc.GasRawMax = cfg.Gas.RawMax
	return dc
}

func topics(cfg config.Config) mqtt.Topics {
	return mqtt.Topics{
		Data:    cfg.MQTT.Topics.Data,
		Alerts:  cfg.MQTT.Topics.Alerts,
		Command: cfg.MQTT.Topics.Command,
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		DeviceID:         cfg.Device.ID,
		Hardware:         cfg.Hardware,
		Broker:           cfg.MQTT.URL(),
		TopicData:        cfg.MQTT.Topics.Data,
		TopicAlerts:      cfg.MQTT.Topics.Alerts,
		TopicCommand:     cfg.MQTT.Topics.Command,
		HTTPEndpoint:     cfg.HTTP.Endpoint,
		StatusAddr:       cfg.Status.Addr,
		SSID:             cfg.WiFi.SSID,
		SensorIntervalMs: cfg.Loop.SensorInterval.Milliseconds(),
		DataIntervalMs:   cfg.Loop.DataInterval.Milliseconds(),
	}
}

// openHardware builds the sources and sinks for the configured backend.
func openHardware(cfg config.Config, log zerolog.Logger) (logic.Hardware, func() error, error) {
	if cfg.Hardware == config.HardwareSim {
		env := sim.NewEnvironment(time.Now().UnixNano())
		simLog := log.With().Str("component", "sim").Logger()
		return logic.Hardware{
			Climate:      env,
			Motion:       env,
			Gas:          env,
			ColdLED:      sim.NewOutput("cold", simLog),
			ComfortLED:   sim.NewOutput("comfort", simLog),
			WarmLED:      sim.NewOutput("warm", simLog),
			MotionLED:    sim.NewOutput("motion", simLog),
			AlertLED:     sim.NewOutput("alert", simLog),
			ClimateServo: sim.NewOutput("climate-servo", simLog),
			GasServo:     sim.NewOutput("gas-servo", simLog),
		}, func() error { return nil }, nil
	}

	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return logic.Hardware{}, nil, err
	}
	bank, err := gpio.NewBank(chip, gpio.Pins{
		PIR:        cfg.Pins.PIR,
		ColdLED:    cfg.Pins.ColdLED,
		ComfortLED: cfg.Pins.ComfortLED,
		WarmLED:    cfg.Pins.WarmLED,
		MotionLED:  cfg.Pins.MotionLED,
		AlertLED:   cfg.Pins.AlertLED,
	})
	if err != nil {
		return logic.Hardware{}, nil, err
	}
	climateServo := sysfs.NewServo(cfg.Pins.ClimateServo)
	gasServo := sysfs.NewServo(cfg.Pins.GasServo)

	closer := func() error {
		return errors.Join(climateServo.Disable(), gasServo.Disable(), bank.Close())
	}
	return logic.Hardware{
		Climate:      sysfs.NewClimate(cfg.Pins.Climate),
		Motion:       bank.PIR,
		Gas:          sysfs.NewADC(cfg.Pins.Gas, 0),
		ColdLED:      bank.ColdLED,
		ComfortLED:   bank.ComfortLED,
		WarmLED:      bank.WarmLED,
		MotionLED:    bank.MotionLED,
		AlertLED:     bank.AlertLED,
		ClimateServo: climateServo,
		GasServo:     gasServo,
	}, closer, nil
}

// reading is the --print-state output.
type reading struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Motion      *bool    `json:"motion"`
	GasRaw      *int     `json:"gas_raw"`
	GasPPM      *float64 `json:"gas_ppm"`
	Errors      []string `json:"errors,omitempty"`
}

// printReading samples each source once without touching any output.
func printReading(w io.Writer, hw logic.Hardware, rawMax int) error {
	var r reading
	if t, h, err := hw.Climate.Sample(); err != nil {
		r.Errors = append(r.Errors, "climate: "+err.Error())
	} else {
		r.Temperature, r.Humidity = &t, &h
	}
	if m, err := hw.Motion.Motion(); err != nil {
		r.Errors = append(r.Errors, "motion: "+err.Error())
	} else {
		r.Motion = &m
	}
	if raw, err := hw.Gas.Raw(); err != nil {
		r.Errors = append(r.Errors, "gas: "+err.Error())
	} else {
		ppm := sensor.RawToPPM(raw, rawMax)
		r.GasRaw, r.GasPPM = &raw, &ppm
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	if len(r.Errors) > 0 {
		return fmt.Errorf("%d sensor(s) failed", len(r.Errors))
	}
	return nil
}
