package transport

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is a failed transport operation with the gRPC status it produced
type Error struct {
	Op      string
	Code    codes.Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Category names the failure class shown in the operator's log.
// Errors that never reached the wire carry no category.
func (e *Error) Category() string {
	if e.Code == codes.Unknown {
		return ""
	}
	return e.Code.String()
}

// wrap classifies err for op; context errors keep their identity for errors.Is
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		st = status.FromContextError(err)
		if st.Code() == codes.Unknown {
			return &Error{Op: op, Code: codes.Unknown, Message: err.Error(), Err: err}
		}
	}
	return &Error{Op: op, Code: st.Code(), Message: st.Message(), Err: err}
}

// IsCanceled reports whether err came from a cancelled call
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var te *Error
	return errors.As(err, &te) && te.Code == codes.Canceled
}
