package tui

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"orderclient/ordering"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	case SessionChangedMsg:
		m = m.refresh()
		return m, waitForChange(m.changes)
	case OrderFinishedMsg:
		return m.handleOrderFinished(msg)
	case ProbeFinishedMsg:
		return m.handleProbeFinished(msg)
	}
	return m, nil
}

// refresh copies session state into the model
func (m Model) refresh() Model {
	m.Snapshot = m.Session.Snapshot()
	if n := len(m.Snapshot.Functions); m.Selected >= n {
		m.Selected = max(n-1, 0)
	}
	return m
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.Session.Form()

	switch msg.String() {
	case "ctrl+c":
		m.Session.Cancel()
		m.Close()
		return m, tea.Quit
	case "tab":
		m.Focus = (m.Focus + 1) % 3
		return m, nil
	case "shift+tab":
		m.Focus = (m.Focus + 2) % 3
		return m, nil
	case "ctrl+r":
		form.AddRed()
	case "ctrl+g":
		form.AddGreen()
	case "ctrl+b":
		form.AddBlue()
	case "ctrl+y":
		form.AddYellow()
	case "up":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, nil
	case "down":
		if m.Selected < len(m.Snapshot.Functions)-1 {
			m.Selected++
		}
		return m, nil
	case "ctrl+x":
		form.RemoveFunctionAt(m.Selected)
	case "enter":
		if !m.Session.CanSubmit() {
			return m, nil
		}
		m.Err = nil
		return m.refresh(), submitOrder(m.ctx, m.Session)
	case "esc":
		m.Session.Cancel()
		return m, nil
	case "ctrl+t":
		if m.Tester == nil || m.ProbeRunning || !m.Tester.Ready() {
			return m, nil
		}
		m.ProbeRunning = true
		m.ProbeResult = nil
		return m, runProbe(m.ctx, m.Tester)
	case "backspace":
		m = m.editFocused(func(s string) string {
			if s == "" {
				return s
			}
			_, size := utf8.DecodeLastRuneInString(s)
			return s[:len(s)-size]
		})
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			typed := string(msg.Runes)
			if msg.Type == tea.KeySpace {
				typed = " "
			}
			m = m.editFocused(func(s string) string { return s + typed })
		}
	}
	return m.refresh(), nil
}

// editFocused applies edit to the focused text field. Edits the session
// rejects leave the field unchanged.
func (m Model) editFocused(edit func(string) string) Model {
	switch m.Focus {
	case FocusCustomer:
		next := edit(m.CustomerInput)
		if m.Session.Form().Locked() {
			return m
		}
		m.Session.Form().SetCustomer(next)
		m.CustomerInput = next
	case FocusTarget:
		next := edit(m.TargetInput)
		if !m.Session.SetTargetAddress(strings.TrimSpace(next)) {
			return m
		}
		m.TargetInput = next
		if m.Tester != nil {
			m.Tester.SetTarget(strings.TrimSpace(next))
		}
	}
	return m
}

// handleOrderFinished records why a submission was refused
func (m Model) handleOrderFinished(msg OrderFinishedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		m.Err = nil
	case errors.Is(msg.Err, ordering.ErrBusy), errors.Is(msg.Err, ordering.ErrNotReady):
		m.Err = msg.Err
	default:
		m.Err = fmt.Errorf("order failed: %w", msg.Err)
	}
	return m.refresh(), nil
}

// handleProbeFinished stores the connection test result
func (m Model) handleProbeFinished(msg ProbeFinishedMsg) (tea.Model, tea.Cmd) {
	m.ProbeRunning = false
	if msg.Err != nil {
		m.Err = fmt.Errorf("connection test: %w", msg.Err)
		return m, nil
	}
	res := msg.Result
	m.ProbeResult = &res
	return m, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
