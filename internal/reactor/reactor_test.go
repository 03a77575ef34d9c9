package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventEqualityByID(t *testing.T) {
	assert.Equal(t, Event{ID: 100}, Event{ID: 100})
	assert.NotEqual(t, Event{ID: 100}, Event{ID: 101})
	assert.True(t, Command{ID: 1} == Command{ID: 1})
}

func TestSensorEmitWithoutHandlerIsNoop(t *testing.T) {
	var s Sensor
	assert.NotPanics(t, func() { s.Emit(Event{ID: 1}) })
}

func TestSensorEmitForwards(t *testing.T) {
	var got []Event
	s := NewSensor(EventHandlerFunc(func(e Event) { got = append(got, e) }))

	s.Emit(Event{ID: 200})
	s.Emit(Event{ID: 201})

	assert.Equal(t, []Event{{ID: 200}, {ID: 201}}, got)
}

func TestSensorSetHandler(t *testing.T) {
	var first, second int
	s := NewSensor(EventHandlerFunc(func(Event) { first++ }))
	s.Emit(Event{ID: 1})

	s.SetHandler(EventHandlerFunc(func(Event) { second++ }))
	s.Emit(Event{ID: 1})

	s.SetHandler(nil)
	s.Emit(Event{ID: 1})

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestActuatorPropagate(t *testing.T) {
	var got []Command
	a := NewActuator(CommandHandlerFunc(func(c Command) { got = append(got, c) }))

	a.Propagate(Command{ID: 10})

	assert.Equal(t, []Command{{ID: 10}}, got)
}

func TestActuatorPropagateWithoutHandlerIsNoop(t *testing.T) {
	a := NewActuator(nil)
	assert.NotPanics(t, func() { a.Propagate(Command{ID: 2}) })
}

// Handling a command may issue further commands on other actuators.
func TestReentrantPropagation(t *testing.T) {
	var log []int
	leaf := NewActuator(CommandHandlerFunc(func(c Command) { log = append(log, c.ID) }))
	root := NewActuator(CommandHandlerFunc(func(c Command) {
		log = append(log, c.ID)
		leaf.Propagate(Command{ID: c.ID + 1})
	}))

	root.Propagate(Command{ID: 1})

	assert.Equal(t, []int{1, 2}, log)
}
