// Package config loads device settings from defaults, a YAML file, the
// environment and command-line flags, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, so mqtt.broker is
// read from SMARTSUITE_MQTT_BROKER.
const EnvPrefix = "SMARTSUITE"

// Hardware backends.
const (
	HardwareGPIO = "gpio"
	HardwareSim  = "sim"
)

// Config is the complete device configuration.
type Config struct {
	Device   DeviceConfig `mapstructure:"device"`
	WiFi     WiFiConfig   `mapstructure:"wifi"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	HTTP     HTTPConfig   `mapstructure:"http"`
	Status   StatusConfig `mapstructure:"status"`
	Loop     LoopConfig   `mapstructure:"loop"`
	Gas      GasConfig    `mapstructure:"gas"`
	Pins     PinsConfig   `mapstructure:"pins"`
	Log      LogConfig    `mapstructure:"log"`
	Hardware string       `mapstructure:"hardware"`
}

type DeviceConfig struct {
	ID     string `mapstructure:"id"`
	Source string `mapstructure:"source"`
}

// WiFiConfig is informational; association is handled by the OS.
type WiFiConfig struct {
	SSID     string `mapstructure:"ssid"`
	Password string `mapstructure:"password"`
}

type TopicsConfig struct {
	Data    string `mapstructure:"data"`
	Alerts  string `mapstructure:"alerts"`
	Command string `mapstructure:"command"`
}

type MQTTConfig struct {
	Broker           string        `mapstructure:"broker"`
	Port             int           `mapstructure:"port"`
	ClientID         string        `mapstructure:"client_id"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	Topics           TopicsConfig  `mapstructure:"topics"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
}

// URL returns the paho broker address.
func (m MQTTConfig) URL() string {
	return fmt.Sprintf("tcp://%s:%d", m.Broker, m.Port)
}

// MQTTClientID returns mqtt.client_id, falling back to the device id.
func (c Config) MQTTClientID() string {
	if c.MQTT.ClientID != "" {
		return c.MQTT.ClientID
	}
	return c.Device.ID
}

type HTTPConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoopConfig struct {
	SensorInterval time.Duration `mapstructure:"sensor_interval"`
	DataInterval   time.Duration `mapstructure:"data_interval"`
	Tick           time.Duration `mapstructure:"tick"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

type GasConfig struct {
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
	RawMax int     `mapstructure:"raw_max"`
}

// PinsConfig maps device functions to hardware. GPIO lines are offsets on
// Chip; climate and gas are IIO device directories; servos are PWM channel
// directories.
type PinsConfig struct {
	Chip         string `mapstructure:"chip"`
	PIR          int    `mapstructure:"pir"`
	ColdLED      int    `mapstructure:"cold_led"`
	ComfortLED   int    `mapstructure:"comfort_led"`
	WarmLED      int    `mapstructure:"warm_led"`
	MotionLED    int    `mapstructure:"motion_led"`
	AlertLED     int    `mapstructure:"alert_led"`
	Climate      string `mapstructure:"climate"`
	Gas          string `mapstructure:"gas"`
	ClimateServo string `mapstructure:"climate_servo"`
	GasServo     string `mapstructure:"gas_servo"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults installs the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("device.id", "smartsuite-"+uuid.NewString()[:8])
	v.SetDefault("device.source", "smartsuite-go")

	v.SetDefault("wifi.ssid", "")
	v.SetDefault("wifi.password", "")

	v.SetDefault("mqtt.broker", "192.168.0.237")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topics.data", "smartsuite/sensors/data")
	v.SetDefault("mqtt.topics.alerts", "smartsuite/alerts")
	v.SetDefault("mqtt.topics.command", "smartsuite/servo/command")
	v.SetDefault("mqtt.reconnect_backoff", 5*time.Second)

	v.SetDefault("http.endpoint", "")
	v.SetDefault("http.timeout", 5*time.Second)

	v.SetDefault("status.addr", ":8080")

	v.SetDefault("loop.sensor_interval", 2*time.Second)
	v.SetDefault("loop.data_interval", 5*time.Second)
	v.SetDefault("loop.tick", 100*time.Millisecond)
	v.SetDefault("loop.retry_delay", 500*time.Millisecond)

	v.SetDefault("gas.medium", 300.0)
	v.SetDefault("gas.high", 600.0)
	v.SetDefault("gas.raw_max", 4095)

	v.SetDefault("pins.chip", "gpiochip0")
	v.SetDefault("pins.pir", 27)
	v.SetDefault("pins.cold_led", 5)
	v.SetDefault("pins.comfort_led", 6)
	v.SetDefault("pins.warm_led", 13)
	v.SetDefault("pins.motion_led", 19)
	v.SetDefault("pins.alert_led", 26)
	v.SetDefault("pins.climate", "/sys/bus/iio/devices/iio:device0")
	v.SetDefault("pins.gas", "/sys/bus/iio/devices/iio:device1")
	v.SetDefault("pins.climate_servo", "/sys/class/pwm/pwmchip0/pwm0")
	v.SetDefault("pins.gas_servo", "/sys/class/pwm/pwmchip0/pwm1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("hardware", HardwareGPIO)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"broker":        "mqtt.broker",
	"port":          "mqtt.port",
	"http-endpoint": "http.endpoint",
	"status-addr":   "status.addr",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"hardware":      "hardware",
	"device-id":     "device.id",
}

// RegisterFlags defines the command-line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file (default: smartsuite.yaml in ., ./config, /etc/smartsuite)")
	fs.String("broker", "", "MQTT broker host")
	fs.Int("port", 0, "MQTT broker port")
	fs.String("http-endpoint", "", "URL to POST telemetry to")
	fs.String("status-addr", "", "status server listen address")
	fs.String("log-level", "", "log level (trace, debug, info, warn, error)")
	fs.String("log-format", "", "log format (text, json)")
	fs.String("hardware", "", "hardware backend (gpio, sim)")
	fs.String("device-id", "", "device identifier")
}

// Validate checks values the device cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is empty"))
	}
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Errorf("mqtt.port %d out of range", c.MQTT.Port))
	}
	if c.Loop.SensorInterval <= 0 {
		errs = append(errs, errors.New("loop.sensor_interval must be positive"))
	}
	if c.Loop.DataInterval <= 0 {
		errs = append(errs, errors.New("loop.data_interval must be positive"))
	}
	if c.Loop.Tick <= 0 {
		errs = append(errs, errors.New("loop.tick must be positive"))
	}
	if c.Gas.Medium < 0 || c.Gas.High < 0 {
		errs = append(errs, errors.New("gas thresholds must not be negative"))
	}
	if c.Gas.RawMax <= 0 {
		errs = append(errs, errors.New("gas.raw_max must be positive"))
	}
	if c.Hardware != HardwareGPIO && c.Hardware != HardwareSim {
		errs = append(errs, fmt.Errorf("hardware %q: want %q or %q", c.Hardware, HardwareGPIO, HardwareSim))
	}
	return errors.Join(errs...)
}

// Manager owns the viper instance and the current Config.
type Manager struct {
	v   *viper.Viper
	log zerolog.Logger

	mu        sync.RWMutex
	current   Config
	listeners []func(Config)
}

// Load reads configuration. flags may be nil; when given it should have been
// set up with RegisterFlags and parsed. A missing config file is not an
// error.
func Load(flags *pflag.FlagSet, log zerolog.Logger) (*Manager, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var file string
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := flags.Lookup("config"); f != nil {
			file = f.Value.String()
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("smartsuite")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/smartsuite")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Info().Msg("no config file found, using defaults")
	}

	m := &Manager{v: v, log: log}
	cfg, err := m.decode()
	if err != nil {
		return nil, err
	}
	m.current = cfg
	return m, nil
}

func (m *Manager) decode() (Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Config returns the current configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// File returns the config file in use, or "" when running on defaults.
func (m *Manager) File() string {
	return m.v.ConfigFileUsed()
}

// OnChange registers fn to receive the new Config after each valid reload.
// fn runs on the watcher goroutine.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Watch starts watching the config file. It is a no-op without a file.
func (m *Manager) Watch() {
	if m.File() == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		m.log.Info().Str("file", e.Name).Str("op", e.Op.String()).Msg("config file changed")
		m.reload()
	})
	m.v.WatchConfig()
}

// reload re-decodes the config and notifies listeners. An invalid file keeps
// the previous values.
func (m *Manager) reload() {
	cfg, err := m.decode()
	if err != nil {
		m.log.Error().Err(err).Msg("config reload rejected")
		return
	}
	m.mu.Lock()
	m.current = cfg
	listeners := append([]func(Config){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}
