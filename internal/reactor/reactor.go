// Package reactor defines the event and command values that flow between
// sensors, actuators and the device that owns them.
//
// Sensors push Events up to an EventHandler; actuators execute Commands and
// then pass the same Command on to a CommandHandler. Both handlers are
// optional: a component with no handler attached simply drops propagation.
package reactor

import "fmt"

// Event is a signal raised by a sensing component. Identity is the ID only.
type Event struct {
	ID int
}

// Command is an instruction for an actuating component. Identity is the ID only.
type Command struct {
	ID int
}

func (e Event) String() string   { return fmt.Sprintf("event(%d)", e.ID) }
func (c Command) String() string { return fmt.Sprintf("command(%d)", c.ID) }

// EventHandler reacts to events.
type EventHandler interface {
	On(e Event)
}

// CommandHandler reacts to commands.
type CommandHandler interface {
	Handle(c Command)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(Event)

// On calls f(e).
func (f EventHandlerFunc) On(e Event) { f(e) }

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(Command)

// Handle calls f(c).
func (f CommandHandlerFunc) Handle(c Command) { f(c) }
