package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DrawFunction is one of the plotting operations an order can request
type DrawFunction int

const (
	DrawRed DrawFunction = iota
	DrawGreen
	DrawBlue
	DrawYellow
)

var drawFunctionNames = map[DrawFunction]string{
	DrawRed:    "DrawRed",
	DrawGreen:  "DrawGreen",
	DrawBlue:   "DrawBlue",
	DrawYellow: "DrawYellow",
}

// DrawFunctions lists every known function in declaration order
func DrawFunctions() []DrawFunction {
	return []DrawFunction{DrawRed, DrawGreen, DrawBlue, DrawYellow}
}

func (f DrawFunction) String() string {
	if name, ok := drawFunctionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("DrawFunction(%d)", int(f))
}

// Valid reports whether f is a member of the closed set
func (f DrawFunction) Valid() bool {
	_, ok := drawFunctionNames[f]
	return ok
}

// ParseDrawFunction accepts "DrawBlue", "drawblue" or the bare colour "blue"
func ParseDrawFunction(s string) (DrawFunction, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for f, name := range drawFunctionNames {
		lower := strings.ToLower(name)
		if needle == lower || needle == strings.TrimPrefix(lower, "draw") {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown draw function %q", s)
}

// MarshalJSON encodes the function by name
func (f DrawFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts either the name or the numeric value of a known function
func (f *DrawFunction) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseDrawFunction(name)
		if err != nil {
			return err
		}
		*f = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("draw function must be a name or number: %w", err)
	}
	if !DrawFunction(n).Valid() {
		return fmt.Errorf("unknown draw function %d", n)
	}
	*f = DrawFunction(n)
	return nil
}

// StatusKind is the state tag carried by a StatusEvent
type StatusKind int

const (
	StatusUnrecognized StatusKind = iota
	StatusStarted
	StatusInProgress
	StatusDone
	StatusPathInUseTooOften
	StatusNoPathFound
	StatusPlottingFailed
	StatusTransportFailed
)

var statusKindNames = map[StatusKind]string{
	StatusUnrecognized:      "Unrecognized",
	StatusStarted:           "Started",
	StatusInProgress:        "InProgress",
	StatusDone:              "Done",
	StatusPathInUseTooOften: "PathInUseTooOften",
	StatusNoPathFound:       "NoPathFound",
	StatusPlottingFailed:    "PlottingFailed",
	StatusTransportFailed:   "TransportFailed",
}

func (k StatusKind) String() string {
	if name, ok := statusKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// Terminal reports whether no further events are expected after k
func (k StatusKind) Terminal() bool {
	switch k {
	case StatusDone, StatusPathInUseTooOften, StatusNoPathFound, StatusPlottingFailed, StatusTransportFailed:
		return true
	}
	return false
}

// Failure reports whether k is a server-reported terminal failure
func (k StatusKind) Failure() bool {
	return k.Terminal() && k != StatusDone
}

// MarshalJSON encodes the kind by name
func (k StatusKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON maps unknown names and numbers onto StatusUnrecognized
func (k *StatusKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*k = StatusUnrecognized
		for kind, n := range statusKindNames {
			if strings.EqualFold(n, name) {
				*k = kind
				break
			}
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("status kind must be a name or number: %w", err)
	}
	*k = StatusKind(n)
	if _, ok := statusKindNames[*k]; !ok {
		*k = StatusUnrecognized
	}
	return nil
}

// OrderRequest is the immutable snapshot sent to the plotting service
type OrderRequest struct {
	ID        string         `json:"id,omitempty"`
	Customer  string         `json:"customer"`
	Functions []DrawFunction `json:"functions"`
}

// StatusEvent is one update in an order's status stream.
// NextFunction is only meaningful when State is StatusInProgress.
type StatusEvent struct {
	State        StatusKind   `json:"state"`
	NextFunction DrawFunction `json:"next_function"`
}

// OrderEventKind distinguishes trace lines from lifecycle transitions
type OrderEventKind string

const (
	OrderEventTrace     OrderEventKind = "trace"
	OrderEventLifecycle OrderEventKind = "lifecycle"
)

// OrderEvent is what the relay publishes for downstream consumers
type OrderEvent struct {
	OrderID   string         `json:"order_id"`
	Customer  string         `json:"customer"`
	Kind      OrderEventKind `json:"kind"`
	Line      string         `json:"line,omitempty"`
	Busy      bool           `json:"busy"`
	Outcome   string         `json:"outcome,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
