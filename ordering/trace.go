package ordering

import (
	"fmt"

	"orderclient/types"
)

// Sentinel trace lines that do not correspond to a status event
const (
	LineFinished  = "Done!"
	LineCancelled = "Cancelled"
)

// TraceLine maps a status event to the line shown to the operator.
// Unrecognized states produce no line.
func TraceLine(ev types.StatusEvent) (string, bool) {
	switch ev.State {
	case types.StatusStarted:
		return "Started", true
	case types.StatusInProgress:
		return fmt.Sprintf("In Progress to %s", ev.NextFunction), true
	case types.StatusDone:
		return "Done", true
	case types.StatusPathInUseTooOften:
		return "PathInUseTooOften", true
	case types.StatusNoPathFound:
		return "NoPathFound", true
	case types.StatusPlottingFailed:
		return "PlottingFailed", true
	case types.StatusTransportFailed:
		return "TransportFailed", true
	default:
		return "", false
	}
}

// DiagnosticLine renders a stream failure as a single readable line
func DiagnosticLine(category string, err error) string {
	return fmt.Sprintf("Error! %s: %v", category, err)
}
