package actuator

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sweeney/smartsuite/internal/reactor"
)

type commandRecorder struct {
	commands []reactor.Command
}

func (r *commandRecorder) Handle(c reactor.Command) { r.commands = append(r.commands, c) }

func TestBinaryInitialState(t *testing.T) {
	out := &FakeDigital{}
	b := NewBinary("red", out, true, nil, zerolog.Nop())

	assert.True(t, b.State())
	assert.True(t, out.On)
	assert.Equal(t, "red", b.Name())
}

func TestBinaryCommands(t *testing.T) {
	out := &FakeDigital{}
	rec := &commandRecorder{}
	b := NewBinary("blue", out, false, rec, zerolog.Nop())

	b.Handle(TurnOnCommand)
	assert.True(t, b.State())
	assert.True(t, out.On)

	b.Handle(ToggleCommand)
	assert.False(t, b.State())
	assert.False(t, out.On)

	b.Handle(ToggleCommand)
	assert.True(t, b.State())

	b.Handle(TurnOffCommand)
	assert.False(t, b.State())

	assert.Equal(t, []reactor.Command{TurnOnCommand, ToggleCommand, ToggleCommand, TurnOffCommand}, rec.commands)
}

func TestBinaryUnknownCommandPropagatesOnly(t *testing.T) {
	out := &FakeDigital{}
	rec := &commandRecorder{}
	b := NewBinary("green", out, false, rec, zerolog.Nop())
	writes := len(out.Writes)

	b.Handle(reactor.Command{ID: 99})

	assert.False(t, b.State())
	assert.Len(t, out.Writes, writes)
	assert.Equal(t, []reactor.Command{{ID: 99}}, rec.commands)
}

func TestBinaryWriteErrorKeepsState(t *testing.T) {
	out := &FakeDigital{Err: errors.New("line released")}
	b := NewBinary("alert", out, false, nil, zerolog.Nop())

	b.Handle(TurnOnCommand)

	assert.True(t, b.State())
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "toggle", CommandName(ToggleCommand))
	assert.Equal(t, "move_to_180", CommandName(MoveTo180Command))
	assert.Equal(t, "42", CommandName(reactor.Command{ID: 42}))
}
