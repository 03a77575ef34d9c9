package logic

import (
	"fmt"
	"math"

	"github.com/sweeney/smartsuite/internal/actuator"
	"github.com/sweeney/smartsuite/internal/reactor"
)

// processClimate recomputes the indicator and climate servo outputs from the
// latest temperature and humidity. Without a valid reading it instead makes a
// single direct re-read attempt.
func (d *Device) processClimate() {
	t, h := d.dht.Temperature(), d.dht.Humidity()
	if math.IsNaN(t) || math.IsNaN(h) {
		d.log.Warn().Msg("no valid climate reading, retrying sensor")
		if d.dht.Read() {
			d.log.Info().Msg("climate retry succeeded")
		} else {
			d.obs.SensorFailed("dht")
			d.log.Warn().Msg("climate retry failed, check sensor wiring and power")
		}
		return
	}

	switch {
	case t < coldBelow || h < dryBelow:
		d.setIndicators(true, false, false)
	case t > warmAbove || h > humidAbove:
		d.setIndicators(false, false, true)
	default:
		d.setIndicators(false, true, false)
	}

	if t > overheatAbove {
		if d.climateServo.Current() != ventPosition {
			d.climateServo.Handle(actuator.MoveTo90Command)
			d.raise(AlertTemperature, SeverityHigh, fmt.Sprintf("High temperature detected: %.2f°C", t))
		}
	} else if d.climateServo.Current() != restPosition {
		d.climateServo.Handle(actuator.MoveTo0Command)
	}
}

func (d *Device) setIndicators(cold, comfort, warm bool) {
	d.cold.Handle(onOff(cold))
	d.comfort.Handle(onOff(comfort))
	d.warm.Handle(onOff(warm))
}

func onOff(on bool) reactor.Command {
	if on {
		return actuator.TurnOnCommand
	}
	return actuator.TurnOffCommand
}
