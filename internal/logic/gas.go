package logic

import (
	"fmt"

	"github.com/sweeney/smartsuite/internal/actuator"
)

// processGas drives the alert indicator and gas servo from the latest gas
// level. Servo movements are rate limited to one per ServoDebounce window
// while the alert is active so that readings flickering around a threshold
// cannot thrash the mechanism.
func (d *Device) processGas() {
	ppm := d.gas.Level()
	medium, high := d.gas.Thresholds()
	elapsed := d.now.Sub(d.lastServoAction) > d.cfg.ServoDebounce

	if ppm > medium {
		d.alert.Handle(actuator.TurnOnCommand)
		if d.gasServo.Current() != ventPosition && (!d.gasAlertActive || elapsed) {
			d.gasServo.Handle(actuator.MoveTo90Command)
			d.lastServoAction = d.now
			d.gasAlertActive = true

			sev := SeverityMedium
			if ppm > high {
				sev = SeverityHigh
			}
			d.raise(AlertSmoke, sev, fmt.Sprintf("Smoke level detected: %.2f ppm", ppm))
		}
		return
	}

	if d.gasAlertActive && elapsed {
		d.alert.Handle(actuator.TurnOffCommand)
		if d.gasServo.Current() != restPosition {
			d.gasServo.Handle(actuator.MoveTo0Command)
			d.lastServoAction = d.now
		}
		d.gasAlertActive = false
		d.log.Info().Float64("ppm", ppm).Msg("gas cleared")
	}
}
