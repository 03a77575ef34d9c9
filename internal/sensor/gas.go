package sensor

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/reactor"
)

// Gas event ids.
const (
	GasDetectedEventID = 300
	GasMediumEventID   = 301
	GasHighEventID     = 302
	GasClearEventID    = 303
)

var (
	GasDetectedEvent = reactor.Event{ID: GasDetectedEventID}
	GasMediumEvent   = reactor.Event{ID: GasMediumEventID}
	GasHighEvent     = reactor.Event{ID: GasHighEventID}
	GasClearEvent    = reactor.Event{ID: GasClearEventID}
)

// Defaults for a 12-bit ADC and the MQ-2 alert levels.
const (
	DefaultRawMax    = 4095
	DefaultMediumPPM = 300.0
	DefaultHighPPM   = 600.0
	fullScalePPM     = 1000.0
)

// Gas estimates a concentration from a raw analog sample and raises events
// when the estimate crosses its thresholds.
type Gas struct {
	reactor.Sensor
	src    GasSource
	log    zerolog.Logger
	rawMax int
	medium float64
	high   float64
	ppm    float64
}

// NewGas creates a gas sensor. The caller must pass medium <= high.
func NewGas(src GasSource, medium, high float64, h reactor.EventHandler, log zerolog.Logger) *Gas {
	return &Gas{
		Sensor: reactor.NewSensor(h),
		src:    src,
		log:    log.With().Str("sensor", "gas").Logger(),
		rawMax: DefaultRawMax,
		medium: medium,
		high:   high,
	}
}

// RawToPPM scales a raw ADC value to the 0..1000 ppm estimate.
func RawToPPM(raw, rawMax int) float64 {
	return float64(raw) / float64(rawMax) * fullScalePPM
}

// Begin is a no-op; analog inputs need no setup.
func (g *Gas) Begin() error { return nil }

// SetRawMax sets the raw value that maps to full scale. Non-positive values
// are ignored.
func (g *Gas) SetRawMax(max int) {
	if max > 0 {
		g.rawMax = max
	}
}

// SetThresholds replaces both thresholds. Ordering is not checked: the caller
// must pass medium <= high.
func (g *Gas) SetThresholds(medium, high float64) {
	g.medium = medium
	g.high = high
}

// Thresholds returns the medium and high thresholds.
func (g *Gas) Thresholds() (medium, high float64) { return g.medium, g.high }

// Level returns the last estimated concentration in ppm.
func (g *Gas) Level() float64 { return g.ppm }

// Read samples the source, stores the new estimate and emits at most one
// event. On a source error the previous estimate is kept and returned.
func (g *Gas) Read() float64 {
	raw, err := g.src.Raw()
	if err != nil {
		g.log.Debug().Err(err).Msg("read failed")
		return g.ppm
	}

	prev := g.ppm
	cur := RawToPPM(raw, g.rawMax)
	g.ppm = cur

	if e, ok := g.transition(prev, cur); ok {
		g.Emit(e)
	}
	return cur
}

// transition applies the crossing rules in precedence order.
func (g *Gas) transition(prev, cur float64) (reactor.Event, bool) {
	switch {
	case cur >= g.high && prev < g.high:
		return GasHighEvent, true
	case cur >= g.medium && prev < g.medium:
		return GasMediumEvent, true
	case cur > 0 && prev == 0:
		return GasDetectedEvent, true
	case cur < g.medium && prev >= g.medium:
		return GasClearEvent, true
	}
	return reactor.Event{}, false
}
