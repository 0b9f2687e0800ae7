package ordering

import (
	"strings"
	"sync"

	"orderclient/observable"
	"orderclient/types"
)

// Form property names raised on the form's notifier
const (
	PropCustomer  = "Customer"
	PropFunctions = "Functions"
	PropIsValid   = "IsValid"
	PropCanEdit   = "CanEdit"
)

// Form holds the pending order while the operator edits it.
// IsValid is derived from Customer and Functions.
type Form struct {
	notifier  *observable.Notifier
	customer  *observable.Property[string]
	functions *observable.List[types.DrawFunction]
	canEdit   *observable.Property[bool]

	// editMu makes the locked check and the mutation one step.
	// Observers must not mutate the form from inside a notification.
	editMu sync.Mutex
}

// NewForm creates an empty, editable form
func NewForm() *Form {
	n := observable.NewNotifier()
	n.DependsOn(PropIsValid, PropCustomer, PropFunctions)

	return &Form{
		notifier:  n,
		customer:  observable.NewProperty(n, PropCustomer, ""),
		functions: observable.NewList[types.DrawFunction](n, PropFunctions),
		canEdit:   observable.NewProperty(n, PropCanEdit, true),
	}
}

// Subscribe registers an observer for the form's properties
func (f *Form) Subscribe(o observable.Observer) func() {
	return f.notifier.Subscribe(o)
}

// Customer returns the customer name as typed
func (f *Form) Customer() string { return f.customer.Get() }

// Functions returns a copy of the function list in plotting order
func (f *Form) Functions() []types.DrawFunction { return f.functions.Items() }

// CanEdit is false while an order built from this form is in flight
func (f *Form) CanEdit() bool { return f.canEdit.Get() }

// Locked is the inverse of CanEdit
func (f *Form) Locked() bool { return !f.canEdit.Get() }

// IsValid reports a non-blank customer and at least one function
func (f *Form) IsValid() bool {
	return !isBlank(f.customer.Get()) && f.functions.Len() > 0
}

// SetCustomer updates the customer name. It returns false when the form is
// locked or the name is unchanged.
func (f *Form) SetCustomer(name string) bool {
	f.editMu.Lock()
	defer f.editMu.Unlock()

	if f.Locked() {
		return false
	}
	return f.customer.Set(name)
}

// AddFunction appends fn. Duplicates are allowed; unknown values are rejected.
func (f *Form) AddFunction(fn types.DrawFunction) bool {
	if !fn.Valid() {
		return false
	}

	f.editMu.Lock()
	defer f.editMu.Unlock()

	if f.Locked() {
		return false
	}
	f.functions.Append(fn)
	return true
}

func (f *Form) AddRed() bool    { return f.AddFunction(types.DrawRed) }
func (f *Form) AddGreen() bool  { return f.AddFunction(types.DrawGreen) }
func (f *Form) AddBlue() bool   { return f.AddFunction(types.DrawBlue) }
func (f *Form) AddYellow() bool { return f.AddFunction(types.DrawYellow) }

// RemoveFunctionAt deletes the function at index i.
// Out-of-range indices and locked forms are ignored.
func (f *Form) RemoveFunctionAt(i int) bool {
	f.editMu.Lock()
	defer f.editMu.Unlock()

	if f.Locked() {
		return false
	}
	return f.functions.RemoveAt(i)
}

// Lock rejects further edits until Unlock
func (f *Form) Lock() {
	if f.storeEditable(false) {
		f.notifier.Raise(PropCanEdit)
	}
}

// Unlock re-enables edits
func (f *Form) Unlock() {
	if f.storeEditable(true) {
		f.notifier.Raise(PropCanEdit)
	}
}

// storeEditable flips CanEdit without notifying; the session raises it after
// its own busy state matches.
func (f *Form) storeEditable(editable bool) bool {
	f.editMu.Lock()
	defer f.editMu.Unlock()
	return f.canEdit.Store(editable)
}

// Snapshot copies the form into a request that later edits cannot touch
func (f *Form) Snapshot() types.OrderRequest {
	return types.OrderRequest{
		Customer:  f.customer.Get(),
		Functions: f.functions.Items(),
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
