package ordering

import (
	"context"
	"errors"
	"io"
	"sync"

	"orderclient/observable"
	"orderclient/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Session property names raised on the session's notifier
const (
	PropBusy          = "Busy"
	PropLog           = "Log"
	PropCanSubmit     = "CanSubmit"
	PropTargetAddress = "TargetAddress"
	PropOutcome       = "Outcome"
)

// Outcome summarises how the most recent order ended
type Outcome string

const (
	OutcomeNone          Outcome = "none"
	OutcomeCompleted     Outcome = "completed"
	OutcomeServerFailure Outcome = "server_failure"
	OutcomeError         Outcome = "error"
	OutcomeCancelled     Outcome = "cancelled"
)

// StatusStream is an open server-streaming order call
type StatusStream interface {
	// Recv blocks until the next event; io.EOF marks a normal end of stream
	Recv() (types.StatusEvent, error)
	// Close releases the call. It is safe to call more than once.
	Close() error
}

// StreamOpener starts an order call against a transport target
type StreamOpener interface {
	OpenOrderStream(ctx context.Context, target string, req types.OrderRequest) (StatusStream, error)
}

// StreamOpenerFunc adapts a function to StreamOpener
type StreamOpenerFunc func(ctx context.Context, target string, req types.OrderRequest) (StatusStream, error)

func (f StreamOpenerFunc) OpenOrderStream(ctx context.Context, target string, req types.OrderRequest) (StatusStream, error) {
	return f(ctx, target, req)
}

// TargetURI prefixes a bare host:port with the scheme the transport resolves
func TargetURI(address string) string {
	return "dns:///" + address
}

// Snapshot is a read-only copy of session and form state
type Snapshot struct {
	Busy          bool                 `json:"busy"`
	CanSubmit     bool                 `json:"can_submit"`
	TargetAddress string               `json:"target_address"`
	OrderID       string               `json:"order_id,omitempty"`
	Outcome       Outcome              `json:"outcome"`
	Customer      string               `json:"customer"`
	Functions     []types.DrawFunction `json:"functions"`
	IsValid       bool                 `json:"is_valid"`
	CanEdit       bool                 `json:"can_edit"`
	Log           []string             `json:"log"`
}

// Session owns the lifecycle of one in-flight order at a time
type Session struct {
	form   *Form
	opener StreamOpener
	logger logrus.FieldLogger

	notifier *observable.Notifier
	target   *observable.Property[string]
	busy     *observable.Property[bool]
	outcome  *observable.Property[Outcome]
	log      *observable.List[string]

	// gate admits one submission; busy is its observable mirror
	gate *semaphore.Weighted

	mu       sync.Mutex
	cancel   context.CancelFunc
	orderID  string
	customer string
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the process logger used for diagnostics
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTargetAddress sets the initial host:port of the plotting service
func WithTargetAddress(address string) Option {
	return func(s *Session) { s.target = observable.NewProperty(s.notifier, PropTargetAddress, address) }
}

// NewSession creates an idle session submitting orders built from form
func NewSession(form *Form, opener StreamOpener, opts ...Option) *Session {
	n := observable.NewNotifier()
	n.DependsOn(PropCanSubmit, PropBusy, PropTargetAddress)

	s := &Session{
		form:     form,
		opener:   opener,
		logger:   logrus.StandardLogger(),
		notifier: n,
		target:   observable.NewProperty(n, PropTargetAddress, ""),
		busy:     observable.NewProperty(n, PropBusy, false),
		outcome:  observable.NewProperty(n, PropOutcome, OutcomeNone),
		log:      observable.NewList[string](n, PropLog),
		gate:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}

	form.Subscribe(func(property string) {
		if property == PropIsValid {
			n.Raise(PropCanSubmit)
		}
	})
	return s
}

// Subscribe registers an observer for the session's properties
func (s *Session) Subscribe(o observable.Observer) func() {
	return s.notifier.Subscribe(o)
}

// Form returns the form this session submits
func (s *Session) Form() *Form { return s.form }

// Busy is true strictly between submission start and stream termination
func (s *Session) Busy() bool { return s.busy.Get() }

// Outcome reports how the most recent order ended
func (s *Session) Outcome() Outcome { return s.outcome.Get() }

// Log returns a copy of the trace for the current or most recent order
func (s *Session) Log() []string { return s.log.Items() }

// TargetAddress returns the host:port orders are sent to
func (s *Session) TargetAddress() string { return s.target.Get() }

// CanSubmit is the readiness gate for the submit action
func (s *Session) CanSubmit() bool {
	return !s.busy.Get() && s.form.IsValid() && !isBlank(s.target.Get())
}

// OrderID returns the id of the current or most recent order
func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

// Customer returns the customer of the current or most recent order
func (s *Session) Customer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// SetTargetAddress changes the service address. Rejected while busy.
func (s *Session) SetTargetAddress(address string) bool {
	if s.busy.Get() {
		return false
	}
	s.target.Set(address)
	return true
}

// Snapshot copies the observable state of session and form
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Busy:          s.Busy(),
		CanSubmit:     s.CanSubmit(),
		TargetAddress: s.TargetAddress(),
		OrderID:       s.OrderID(),
		Outcome:       s.Outcome(),
		Customer:      s.form.Customer(),
		Functions:     s.form.Functions(),
		IsValid:       s.form.IsValid(),
		CanEdit:       s.form.CanEdit(),
		Log:           s.Log(),
	}
}

// Submit sends the form as an order and consumes its status stream until it
// ends. Stream failures are reported in the log, not returned; the only
// errors are ErrBusy and ErrNotReady, in which case nothing was changed.
func (s *Session) Submit(ctx context.Context) error {
	run, err := s.begin(ctx)
	if err != nil {
		return err
	}
	run()
	return nil
}

// SubmitAsync is Submit with the stream consumed in the background.
// The returned channel is closed once cleanup has finished.
func (s *Session) SubmitAsync(ctx context.Context) (<-chan struct{}, error) {
	run, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		run()
	}()
	return done, nil
}

// Cancel stops the in-flight order, if any, and reports whether there was one
func (s *Session) Cancel() bool {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// begin performs the entry bookkeeping and returns the consume step
func (s *Session) begin(parent context.Context) (func(), error) {
	if !s.gate.TryAcquire(1) {
		return nil, ErrBusy
	}
	address := s.target.Get()
	if !s.form.IsValid() || isBlank(address) {
		s.gate.Release(1)
		return nil, ErrNotReady
	}

	s.mu.Lock()
	s.form.storeEditable(false)
	s.busy.Store(true)
	s.mu.Unlock()

	req := s.form.Snapshot()
	if isBlank(req.Customer) || len(req.Functions) == 0 {
		// edited between the readiness check and the lock
		s.mu.Lock()
		s.form.storeEditable(true)
		s.busy.Store(false)
		s.gate.Release(1)
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	req.ID = uuid.NewString()

	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancel = cancel
	s.orderID = req.ID
	s.customer = req.Customer
	s.mu.Unlock()

	// busy, the form lock and the gate agree before anyone is notified
	s.log.Reset()
	s.outcome.Set(OutcomeNone)
	s.form.notifier.Raise(PropCanEdit)
	s.notifier.Raise(PropBusy)

	logger := s.logger.WithFields(logrus.Fields{
		"order_id":  req.ID,
		"customer":  req.Customer,
		"target":    address,
		"functions": len(req.Functions),
	})
	logger.Info("order submitted")

	return func() {
		defer s.finish(cancel)
		outcome := s.consume(ctx, logger, TargetURI(address), req)
		s.outcome.Set(outcome)
		logger.WithField("outcome", outcome).Info("order finished")
	}, nil
}

// finish runs on every exit path of a submission
func (s *Session) finish(cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	s.cancel = nil
	s.form.storeEditable(true)
	s.busy.Store(false)
	s.gate.Release(1)
	s.mu.Unlock()

	s.form.notifier.Raise(PropCanEdit)
	s.notifier.Raise(PropBusy)
}

type recvResult struct {
	event types.StatusEvent
	err   error
}

// consume opens the stream and appends one line per event in arrival order
func (s *Session) consume(ctx context.Context, logger logrus.FieldLogger, target string, req types.OrderRequest) Outcome {
	stream, err := s.opener.OpenOrderStream(ctx, target, req)
	if err != nil {
		if ctx.Err() != nil {
			s.log.Append(LineCancelled)
			return OutcomeCancelled
		}
		logger.WithError(err).Warn("failed to open order stream")
		s.log.Append(DiagnosticLine(ErrorCategory(err, CategoryOpenFailure), err))
		return OutcomeError
	}
	defer stream.Close()

	results := make(chan recvResult)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			ev, err := stream.Recv()
			select {
			case results <- recvResult{event: ev, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	last := types.StatusUnrecognized
	for {
		var res recvResult
		select {
		case <-ctx.Done():
			s.log.Append(LineCancelled)
			logger.Info("order cancelled")
			return OutcomeCancelled
		case res = <-results:
		}

		if ctx.Err() != nil {
			s.log.Append(LineCancelled)
			logger.Info("order cancelled")
			return OutcomeCancelled
		}

		if errors.Is(res.err, io.EOF) {
			s.log.Append(LineFinished)
			if last.Failure() {
				return OutcomeServerFailure
			}
			return OutcomeCompleted
		}
		if res.err != nil {
			logger.WithError(res.err).Warn("order stream failed")
			s.log.Append(DiagnosticLine(ErrorCategory(res.err, CategoryConsumeFailure), res.err))
			return OutcomeError
		}

		logger.WithFields(logrus.Fields{
			"event": res.event.State.String(),
			"next":  res.event.NextFunction.String(),
		}).Debug("status event")

		if line, ok := TraceLine(res.event); ok {
			s.log.Append(line)
		}
		if res.event.State != types.StatusUnrecognized {
			last = res.event.State
		}
	}
}
