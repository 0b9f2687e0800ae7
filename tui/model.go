package tui

import (
	"context"

	"orderclient/observable"
	"orderclient/ordering"
	"orderclient/probe"

	tea "github.com/charmbracelet/bubbletea"
)

// Focus is the input that receives typed text
type Focus int

const (
	FocusCustomer Focus = iota
	FocusTarget
	FocusFunctions
)

// Model is the order entry screen. Order state lives in the session; the
// model keeps the text being typed and a snapshot for rendering.
type Model struct {
	ctx     context.Context
	Session *ordering.Session
	Tester  *probe.Tester
	changes <-chan struct{}
	stop    func()

	Focus         Focus
	CustomerInput string
	TargetInput   string
	Selected      int

	Snapshot     ordering.Snapshot
	ProbeRunning bool
	ProbeResult  *probe.Result
	Err          error
	Width        int
}

// NewModel creates the screen for session. tester may be nil.
func NewModel(ctx context.Context, session *ordering.Session, tester *probe.Tester) Model {
	subscribers := []func(observable.Observer) func(){session.Subscribe, session.Form().Subscribe}
	if tester != nil {
		subscribers = append(subscribers, tester.Subscribe)
	}
	changes, stop := Watch(subscribers...)

	return Model{
		ctx:           ctx,
		Session:       session,
		Tester:        tester,
		changes:       changes,
		stop:          stop,
		Focus:         FocusCustomer,
		CustomerInput: session.Form().Customer(),
		TargetInput:   session.TargetAddress(),
		Snapshot:      session.Snapshot(),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// Close unsubscribes the model from the session
func (m Model) Close() {
	if m.stop != nil {
		m.stop()
	}
}

// hint explains what is missing before the order can be submitted
func (m Model) hint() string {
	s := m.Snapshot
	switch {
	case s.Busy:
		return TextBusy
	case s.CanSubmit:
		return TextReady
	case isBlank(s.Customer):
		return TextNeedsName
	case len(s.Functions) == 0:
		return TextNeedsFn
	default:
		return TextNeedsTarget
	}
}
