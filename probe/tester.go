package probe

import (
	"context"
	"time"

	"orderclient/observable"
	"orderclient/ordering"
	"orderclient/types"

	"github.com/sirupsen/logrus"
)

// Fixed order used to check that the plotting service answers end to end
const (
	ProbeCustomer = "Martin"
	ProbeFunction = types.DrawBlue
)

// Result describes one connection test
type Result struct {
	OK        bool             `json:"ok"`
	Target    string           `json:"target"`
	Outcome   ordering.Outcome `json:"outcome"`
	Log       []string         `json:"log"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// Tester runs a fixed order through its own form and session
type Tester struct {
	session *ordering.Session
	logger  logrus.FieldLogger
}

// NewTester creates a tester sending its order to target through opener
func NewTester(opener ordering.StreamOpener, target string, logger logrus.FieldLogger) *Tester {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	form := ordering.NewForm()
	form.SetCustomer(ProbeCustomer)
	form.AddFunction(ProbeFunction)

	return &Tester{
		session: ordering.NewSession(form, opener,
			ordering.WithLogger(logger.WithField("component", "probe")),
			ordering.WithTargetAddress(target),
		),
		logger: logger,
	}
}

// Ready reports whether a test can start now
func (t *Tester) Ready() bool { return t.session.CanSubmit() }

// Running reports whether a test is in flight
func (t *Tester) Running() bool { return t.session.Busy() }

// Log returns the trace of the current or last test
func (t *Tester) Log() []string { return t.session.Log() }

// Target returns the address the test runs against
func (t *Tester) Target() string { return t.session.TargetAddress() }

// SetTarget changes the address. Rejected while a test runs.
func (t *Tester) SetTarget(address string) bool { return t.session.SetTargetAddress(address) }

// Subscribe observes the underlying session
func (t *Tester) Subscribe(o observable.Observer) func() { return t.session.Subscribe(o) }

// Run performs one connection test. It fails only with ordering.ErrBusy or
// ordering.ErrNotReady; a failed test is reported in the result.
func (t *Tester) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	if err := t.session.Submit(ctx); err != nil {
		return Result{}, err
	}

	res := Result{
		Target:    t.session.TargetAddress(),
		Outcome:   t.session.Outcome(),
		Log:       t.session.Log(),
		StartedAt: start,
		Duration:  time.Since(start),
	}
	res.OK = succeeded(res.Log)

	t.logger.WithFields(logrus.Fields{
		"target":   res.Target,
		"ok":       res.OK,
		"duration": res.Duration.String(),
	}).Info("connection test finished")
	return res, nil
}

// succeeded requires a Done event followed by the end-of-stream line
func succeeded(log []string) bool {
	n := len(log)
	return n >= 2 && log[n-1] == ordering.LineFinished && log[n-2] == "Done"
}
