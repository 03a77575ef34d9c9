package reactor

// Sensor is embedded by concrete sensors. It holds a non-owning reference to
// the downstream event handler.
type Sensor struct {
	handler EventHandler
}

// NewSensor returns a Sensor base reporting to h. h may be nil.
func NewSensor(h EventHandler) Sensor {
	return Sensor{handler: h}
}

// SetHandler replaces the downstream handler. nil detaches it.
func (s *Sensor) SetHandler(h EventHandler) {
	s.handler = h
}

// Emit forwards e to the downstream handler, if any.
func (s *Sensor) Emit(e Event) {
	if s.handler != nil {
		s.handler.On(e)
	}
}

// Actuator is embedded by concrete actuators. It holds a non-owning reference
// to the downstream command handler.
type Actuator struct {
	handler CommandHandler
}

// NewActuator returns an Actuator base reporting to h. h may be nil.
func NewActuator(h CommandHandler) Actuator {
	return Actuator{handler: h}
}

// SetHandler replaces the downstream handler. nil detaches it.
func (a *Actuator) SetHandler(h CommandHandler) {
	a.handler = h
}

// Propagate forwards c to the downstream handler, if any.
func (a *Actuator) Propagate(c Command) {
	if a.handler != nil {
		a.handler.Handle(c)
	}
}
