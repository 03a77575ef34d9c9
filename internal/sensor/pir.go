package sensor

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/reactor"
)

// Motion event ids.
const (
	MotionDetectedEventID = 200
	MotionStoppedEventID  = 201
)

var (
	MotionDetectedEvent = reactor.Event{ID: MotionDetectedEventID}
	MotionStoppedEvent  = reactor.Event{ID: MotionStoppedEventID}
)

// PIR is an edge-triggered motion sensor.
type PIR struct {
	reactor.Sensor
	src    MotionSource
	log    zerolog.Logger
	motion bool
}

// NewPIR creates a PIR sensor. The initial state is "no motion".
func NewPIR(src MotionSource, h reactor.EventHandler, log zerolog.Logger) *PIR {
	return &PIR{
		Sensor: reactor.NewSensor(h),
		src:    src,
		log:    log.With().Str("sensor", "pir").Logger(),
	}
}

// Begin is a no-op; the input line is configured by the source.
func (p *PIR) Begin() error { return nil }

// Read samples the input and emits MotionDetectedEvent on a rising edge or
// MotionStoppedEvent on a falling edge. An unchanged level emits nothing.
// On a source error the last state is returned unchanged.
func (p *PIR) Read() bool {
	cur, err := p.src.Motion()
	if err != nil {
		p.log.Debug().Err(err).Msg("read failed")
		return p.motion
	}
	if cur == p.motion {
		return cur
	}

	p.motion = cur
	if cur {
		p.Emit(MotionDetectedEvent)
	} else {
		p.Emit(MotionStoppedEvent)
	}
	return cur
}

// Motion returns the last observed level.
func (p *PIR) Motion() bool { return p.motion }
