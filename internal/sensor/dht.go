package sensor

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/reactor"
)

// Climate event ids.
const (
	TemperatureReadEventID = 100
	HumidityReadEventID    = 101
)

var (
	TemperatureReadEvent = reactor.Event{ID: TemperatureReadEventID}
	HumidityReadEvent    = reactor.Event{ID: HumidityReadEventID}
)

// Validity bounds for a DHT-class sample.
const (
	MinTemperature = -40.0
	MaxTemperature = 80.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// DHT is a temperature and humidity sensor with range validation.
type DHT struct {
	reactor.Sensor
	src         ClimateSource
	log         zerolog.Logger
	temperature float64
	humidity    float64
}

// NewDHT creates a DHT sensor. Temperature and humidity read as NaN until the
// first successful Read.
func NewDHT(src ClimateSource, h reactor.EventHandler, log zerolog.Logger) *DHT {
	return &DHT{
		Sensor:      reactor.NewSensor(h),
		src:         src,
		log:         log.With().Str("sensor", "dht").Logger(),
		temperature: math.NaN(),
		humidity:    math.NaN(),
	}
}

// Begin probes the source once and logs whether it answered. Stored values
// and events are not affected.
func (d *DHT) Begin() error {
	t, h, err := d.src.Sample()
	switch {
	case err != nil:
		d.log.Warn().Err(err).Msg("initial probe failed, check wiring and power")
	case math.IsNaN(t) || math.IsNaN(h):
		d.log.Warn().Msg("initial probe returned no data")
	default:
		d.log.Info().Float64("temperature", t).Float64("humidity", h).Msg("sensor initialized")
	}
	return nil
}

// Read samples the source. On a valid sample it stores both values and emits
// TemperatureReadEvent then HumidityReadEvent. It returns false, leaving the
// stored values untouched, when the sample is missing or out of range.
func (d *DHT) Read() bool {
	t, h, err := d.src.Sample()
	if err != nil {
		d.log.Debug().Err(err).Msg("read failed")
		return false
	}
	if !Valid(t, h) {
		d.log.Debug().Float64("temperature", t).Float64("humidity", h).Msg("sample rejected")
		return false
	}

	d.temperature = t
	d.humidity = h
	d.Emit(TemperatureReadEvent)
	d.Emit(HumidityReadEvent)
	return true
}

// Temperature returns the last valid temperature, or NaN.
func (d *DHT) Temperature() float64 { return d.temperature }

// Humidity returns the last valid humidity, or NaN.
func (d *DHT) Humidity() float64 { return d.humidity }

// Valid reports whether a temperature/humidity pair is a plausible reading.
func Valid(temperature, humidity float64) bool {
	if math.IsNaN(temperature) || math.IsNaN(humidity) {
		return false
	}
	return temperature >= MinTemperature && temperature <= MaxTemperature &&
		humidity >= MinHumidity && humidity <= MaxHumidity
}
