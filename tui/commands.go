package tui

import (
	"context"

	"orderclient/ordering"
	"orderclient/probe"

	tea "github.com/charmbracelet/bubbletea"
)

// waitForChange blocks until the session signals, then asks for a redraw
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return SessionChangedMsg{}
	}
}

// submitOrder runs the order to completion off the update loop
func submitOrder(ctx context.Context, session *ordering.Session) tea.Cmd {
	return func() tea.Msg {
		return OrderFinishedMsg{Err: session.Submit(ctx)}
	}
}

// runProbe runs the connection test off the update loop
func runProbe(ctx context.Context, tester *probe.Tester) tea.Cmd {
	return func() tea.Msg {
		res, err := tester.Run(ctx)
		return ProbeFinishedMsg{Result: res, Err: err}
	}
}
