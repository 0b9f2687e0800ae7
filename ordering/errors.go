package ordering

import (
	"errors"
)

var (
	// ErrBusy is returned by Submit while another order is in flight
	ErrBusy = errors.New("an order is already in progress")

	// ErrNotReady is returned by Submit when the form is invalid or no target is set
	ErrNotReady = errors.New("order is not ready to submit")
)

// Fallback categories when the transport error carries none
const (
	CategoryOpenFailure    = "StreamOpenFailure"
	CategoryConsumeFailure = "StreamConsumeFailure"
)

// categorized is implemented by transport errors that know their failure class
type categorized interface {
	Category() string
}

// ErrorCategory returns the category name carried by err, or fallback
func ErrorCategory(err error, fallback string) string {
	var c categorized
	if errors.As(err, &c) && c.Category() != "" {
		return c.Category()
	}
	return fallback
}
