package actuator

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/reactor"
)

// Position command ids.
const (
	MoveToTargetCommandID = 10
	MoveTo0CommandID      = 11
	MoveTo90CommandID     = 12
	MoveTo180CommandID    = 13
)

var (
	MoveToTargetCommand = reactor.Command{ID: MoveToTargetCommandID}
	MoveTo0Command      = reactor.Command{ID: MoveTo0CommandID}
	MoveTo90Command     = reactor.Command{ID: MoveTo90CommandID}
	MoveTo180Command    = reactor.Command{ID: MoveTo180CommandID}
)

// Range of a positional actuator in degrees.
const (
	MinPosition = 0
	MaxPosition = 180
)

// Position is a 0–180 degree actuator such as a hobby servo.
type Position struct {
	reactor.Actuator
	name    string
	out     PositionOutput
	log     zerolog.Logger
	current int
	target  int
}

// NewPosition creates a positional actuator. initial is used for both the
// current and target position and is not written until Begin.
func NewPosition(name string, out PositionOutput, initial int, h reactor.CommandHandler, log zerolog.Logger) *Position {
	return &Position{
		Actuator: reactor.NewActuator(h),
		name:     name,
		out:      out,
		log:      log.With().Str("actuator", name).Logger(),
		current:  initial,
		target:   initial,
	}
}

// Name returns the actuator's name.
func (p *Position) Name() string { return p.name }

// Begin writes the current position to the output.
func (p *Position) Begin() error {
	return p.out.Write(p.current)
}

// Handle executes c and propagates it downstream.
func (p *Position) Handle(c reactor.Command) {
	switch c {
	case MoveToTargetCommand:
		p.MoveTo(p.target)
	case MoveTo0Command:
		p.MoveTo(0)
	case MoveTo90Command:
		p.MoveTo(90)
	case MoveTo180Command:
		p.MoveTo(180)
	}
	p.Propagate(c)
}

// MoveTo moves to position. Values outside [0,180] are ignored.
func (p *Position) MoveTo(position int) {
	if !InRange(position) {
		return
	}
	p.current = position
	if err := p.out.Write(position); err != nil {
		p.log.Warn().Err(err).Int("position", position).Msg("output write failed")
	}
}

// SetTargetPosition stores the target for MoveToTargetCommand. Values outside
// [0,180] are ignored.
func (p *Position) SetTargetPosition(position int) {
	if InRange(position) {
		p.target = position
	}
}

// Current returns the current position.
func (p *Position) Current() int { return p.current }

// Target returns the stored target position.
func (p *Position) Target() int { return p.target }

// InRange reports whether position is a valid actuator position.
func InRange(position int) bool {
	return position >= MinPosition && position <= MaxPosition
}
