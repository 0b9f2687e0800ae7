package tui

// UI Text Constants
const (
	TextTitle = "🖨  Plot Order Client"

	TextCustomerLabel  = "Customer"
	TextTargetLabel    = "Service "
	TextFunctionsLabel = "Functions"
	TextNoFunctions    = "(none yet: ctrl+r red, ctrl+g green, ctrl+b blue, ctrl+y yellow)"

	TextReady       = "✅ Ready: press enter to submit"
	TextBusy        = "⏳ Order in progress: press esc to cancel"
	TextNeedsName   = "Enter a customer name"
	TextNeedsFn     = "Add at least one function"
	TextNeedsTarget = "Enter the service address"

	TextLogTitle   = "📝 Order Log"
	TextProbeTitle = "🔌 Connection Test"

	TextFooter = "tab focus | ctrl+r/g/b/y add | ↑/↓ select | ctrl+x remove | enter submit | esc cancel | ctrl+t test | ctrl+c quit"
)
