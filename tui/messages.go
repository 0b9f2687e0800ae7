package tui

import "orderclient/probe"

// Messages for the tea program

// SessionChangedMsg is sent when the session or form raised a notification
type SessionChangedMsg struct{}

// OrderFinishedMsg is sent when a submission returns
type OrderFinishedMsg struct {
	Err error
}

// ProbeFinishedMsg is sent when a connection test returns
type ProbeFinishedMsg struct {
	Result probe.Result
	Err    error
}
