package actuator

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/reactor"
)

// Binary command ids.
const (
	ToggleCommandID  = 0
	TurnOnCommandID  = 1
	TurnOffCommandID = 2
)

var (
	ToggleCommand  = reactor.Command{ID: ToggleCommandID}
	TurnOnCommand  = reactor.Command{ID: TurnOnCommandID}
	TurnOffCommand = reactor.Command{ID: TurnOffCommandID}
)

// Binary is an on/off output such as an indicator LED.
type Binary struct {
	reactor.Actuator
	name string
	out  DigitalOutput
	log  zerolog.Logger
	on   bool
}

// NewBinary creates a binary actuator and drives the output to initial.
func NewBinary(name string, out DigitalOutput, initial bool, h reactor.CommandHandler, log zerolog.Logger) *Binary {
	b := &Binary{
		Actuator: reactor.NewActuator(h),
		name:     name,
		out:      out,
		log:      log.With().Str("actuator", name).Logger(),
	}
	b.SetState(initial)
	return b
}

// Name returns the actuator's name.
func (b *Binary) Name() string { return b.name }

// Handle executes c and propagates it downstream.
func (b *Binary) Handle(c reactor.Command) {
	switch c {
	case ToggleCommand:
		b.SetState(!b.on)
	case TurnOnCommand:
		b.SetState(true)
	case TurnOffCommand:
		b.SetState(false)
	}
	b.Propagate(c)
}

// State returns the stored output state.
func (b *Binary) State() bool { return b.on }

// SetState stores and writes the output state without propagating.
func (b *Binary) SetState(on bool) {
	b.on = on
	if err := b.out.Set(on); err != nil {
		b.log.Warn().Err(err).Bool("on", on).Msg("output write failed")
	}
}
