package sensor

import (
	"strconv"

	"github.com/sweeney/smartsuite/internal/reactor"
)

var eventNames = map[int]string{
	TemperatureReadEventID: "temperature_read",
	HumidityReadEventID:    "humidity_read",
	MotionDetectedEventID:  "motion_detected",
	MotionStoppedEventID:   "motion_stopped",
	GasDetectedEventID:     "gas_detected",
	GasMediumEventID:       "gas_medium",
	GasHighEventID:         "gas_high",
	GasClearEventID:        "gas_clear",
}

// EventName returns a short name for e, or its ID for unknown events.
func EventName(e reactor.Event) string {
	if name, ok := eventNames[e.ID]; ok {
		return name
	}
	return strconv.Itoa(e.ID)
}
