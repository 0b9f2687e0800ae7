package tui

import (
	"fmt"
	"strings"
	"time"

	"orderclient/ordering"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render(TextTitle))
	b.WriteString("\n")

	// Form
	box := BoxStyle
	if !m.Snapshot.CanEdit {
		box = LockedBoxStyle
	}
	b.WriteString(box.Render(m.formView()))
	b.WriteString("\n")

	// Readiness
	if m.Snapshot.CanSubmit || m.Snapshot.Busy {
		b.WriteString(StatusStyle.Render(m.hint()))
	} else {
		b.WriteString(InfoStyle.Render(m.hint()))
	}
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("❌ " + m.Err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Log
	if len(m.Snapshot.Log) > 0 {
		b.WriteString(InfoStyle.Render(TextLogTitle))
		if m.Snapshot.OrderID != "" {
			b.WriteString(InfoStyle.Render(" (" + m.Snapshot.OrderID + ")"))
		}
		b.WriteString("\n")
		for _, line := range m.Snapshot.Log {
			b.WriteString("   " + renderLogLine(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Connection test
	if m.ProbeRunning {
		b.WriteString(StatusStyle.Render(TextProbeTitle + ": running..."))
		b.WriteString("\n\n")
	} else if r := m.ProbeResult; r != nil {
		verdict := ErrorStyle.Render("failed")
		if r.OK {
			verdict = StatusStyle.Render("ok")
		}
		b.WriteString(fmt.Sprintf("%s: %s (%s, %s)\n\n", InfoStyle.Render(TextProbeTitle), verdict, r.Target, r.Duration.Round(time.Millisecond)))
	}

	b.WriteString(InfoStyle.Render(TextFooter))
	return b.String()
}

func (m Model) formView() string {
	var b strings.Builder

	b.WriteString(m.field(FocusCustomer, TextCustomerLabel, m.CustomerInput))
	b.WriteString("\n")
	b.WriteString(m.field(FocusTarget, TextTargetLabel, m.TargetInput))
	b.WriteString("\n\n")

	b.WriteString(m.label(FocusFunctions, TextFunctionsLabel))
	b.WriteString("\n")
	if len(m.Snapshot.Functions) == 0 {
		b.WriteString(InfoStyle.Render("  " + TextNoFunctions))
	}
	for i, fn := range m.Snapshot.Functions {
		line := fmt.Sprintf("%d. %s", i+1, fn)
		if m.Focus == FocusFunctions && i == m.Selected {
			b.WriteString(HighlightStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < len(m.Snapshot.Functions)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) field(f Focus, label, value string) string {
	cursor := ""
	if m.Focus == f && m.Snapshot.CanEdit {
		cursor = "█"
	}
	return fmt.Sprintf("%s: %s%s", m.label(f, label), value, cursor)
}

func (m Model) label(f Focus, text string) string {
	if m.Focus == f {
		return FocusStyle.Render(text)
	}
	return text
}

func renderLogLine(line string) string {
	switch {
	case strings.HasPrefix(line, "Error!"):
		return ErrorStyle.Render(line)
	case line == ordering.LineFinished, line == "Done":
		return StatusStyle.Render(line)
	case line == ordering.LineCancelled:
		return InfoStyle.Render(line)
	case line == "PathInUseTooOften", line == "NoPathFound", line == "PlottingFailed", line == "TransportFailed":
		return ErrorStyle.Render(line)
	default:
		return line
	}
}
