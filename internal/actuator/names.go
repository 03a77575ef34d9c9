package actuator

import (
	"strconv"

	"github.com/sweeney/smartsuite/internal/reactor"
)

var commandNames = map[int]string{
	ToggleCommandID:       "toggle",
	TurnOnCommandID:       "turn_on",
	TurnOffCommandID:      "turn_off",
	MoveToTargetCommandID: "move_to_target",
	MoveTo0CommandID:      "move_to_0",
	MoveTo90CommandID:     "move_to_90",
	MoveTo180CommandID:    "move_to_180",
}

// CommandName returns a short name for c, or its ID for unknown commands.
func CommandName(c reactor.Command) string {
	if name, ok := commandNames[c.ID]; ok {
		return name
	}
	return strconv.Itoa(c.ID)
}
