package actuator

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/smartsuite/internal/reactor"
)

func TestPositionBeginWritesInitial(t *testing.T) {
	out := &FakePosition{}
	p := NewPosition("servo1", out, 45, nil, zerolog.Nop())

	require.NoError(t, p.Begin())

	assert.Equal(t, []int{45}, out.Writes)
	assert.Equal(t, 45, p.Current())
	assert.Equal(t, 45, p.Target())
}

func TestPositionFixedCommands(t *testing.T) {
	tests := []struct {
		cmd  reactor.Command
		want int
	}{
		{MoveTo0Command, 0},
		{MoveTo90Command, 90},
		{MoveTo180Command, 180},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			out := &FakePosition{}
			rec := &commandRecorder{}
			p := NewPosition("servo", out, 30, rec, zerolog.Nop())

			p.Handle(tt.cmd)

			assert.Equal(t, tt.want, p.Current())
			assert.Equal(t, tt.want, out.Degrees)
			assert.Equal(t, []reactor.Command{tt.cmd}, rec.commands)
		})
	}
}

func TestPositionMoveToTarget(t *testing.T) {
	out := &FakePosition{}
	p := NewPosition("servo2", out, 0, nil, zerolog.Nop())

	p.SetTargetPosition(120)
	assert.Equal(t, 0, p.Current())

	p.Handle(MoveToTargetCommand)
	assert.Equal(t, 120, p.Current())
	assert.Equal(t, 120, out.Degrees)
}

func TestPositionRejectsOutOfRange(t *testing.T) {
	for _, bad := range []int{-1, 181, -180, 1000} {
		out := &FakePosition{}
		p := NewPosition("servo", out, 60, nil, zerolog.Nop())

		p.MoveTo(bad)
		p.SetTargetPosition(bad)

		assert.Equal(t, 60, p.Current(), "MoveTo(%d)", bad)
		assert.Equal(t, 60, p.Target(), "SetTargetPosition(%d)", bad)
		assert.Empty(t, out.Writes)
	}
}

func TestPositionAcceptsBounds(t *testing.T) {
	p := NewPosition("servo", &FakePosition{}, 90, nil, zerolog.Nop())

	p.MoveTo(0)
	assert.Equal(t, 0, p.Current())
	p.MoveTo(180)
	assert.Equal(t, 180, p.Current())
}

func TestPositionUnknownCommandPropagates(t *testing.T) {
	out := &FakePosition{}
	rec := &commandRecorder{}
	p := NewPosition("servo", out, 10, rec, zerolog.Nop())

	p.Handle(reactor.Command{ID: 77})

	assert.Equal(t, 10, p.Current())
	assert.Empty(t, out.Writes)
	assert.Equal(t, []reactor.Command{{ID: 77}}, rec.commands)
}
