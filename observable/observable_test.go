package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	names []string
}

func (r *recorder) observe(property string) { r.names = append(r.names, property) }

func TestPropertySetNotifiesOnlyOnChange(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	n.Subscribe(rec.observe)

	p := NewProperty(n, "Customer", "")
	assert.True(t, p.Set("Martin"))
	assert.False(t, p.Set("Martin"))
	assert.True(t, p.Set(""))

	assert.Equal(t, []string{"Customer", "Customer"}, rec.names)
	assert.Equal(t, "", p.Get())
}

func TestPropertyStoreDefersNotification(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	n.Subscribe(rec.observe)

	p := NewProperty(n, "Busy", false)
	assert.True(t, p.Store(true))
	assert.False(t, p.Store(true))
	assert.True(t, p.Get())
	assert.Empty(t, rec.names)

	n.Raise(p.Name())
	assert.Equal(t, []string{"Busy"}, rec.names)
}

func TestNotifierRegistrationOrder(t *testing.T) {
	n := NewNotifier()
	var calls []int
	for i := 0; i < 3; i++ {
		i := i
		n.Subscribe(func(string) { calls = append(calls, i) })
	}

	n.Raise("X")
	assert.Equal(t, []int{0, 1, 2}, calls)
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := NewNotifier()
	first, second := &recorder{}, &recorder{}
	unsubscribe := n.Subscribe(first.observe)
	n.Subscribe(second.observe)

	unsubscribe()
	unsubscribe()
	n.Raise("X")

	assert.Empty(t, first.names)
	assert.Equal(t, []string{"X"}, second.names)
}

func TestDerivedCascade(t *testing.T) {
	n := NewNotifier()
	n.DependsOn("IsValid", "Customer", "Functions")
	n.DependsOn("CanSubmit", "IsValid", "Busy")

	rec := &recorder{}
	n.Subscribe(rec.observe)

	NewProperty(n, "Customer", "").Set("Martin")
	assert.Equal(t, []string{"Customer", "IsValid", "CanSubmit"}, rec.names)

	rec.names = nil
	NewProperty(n, "Busy", false).Set(true)
	assert.Equal(t, []string{"Busy", "CanSubmit"}, rec.names)
}

func TestDerivedCycleTerminates(t *testing.T) {
	n := NewNotifier()
	n.DependsOn("A", "B")
	n.DependsOn("B", "A")

	rec := &recorder{}
	n.Subscribe(rec.observe)
	n.Raise("A")

	assert.Equal(t, []string{"A", "B"}, rec.names)
}

func TestObserverMaySubscribeDuringRaise(t *testing.T) {
	n := NewNotifier()
	late := &recorder{}
	n.Subscribe(func(string) { n.Subscribe(late.observe) })

	n.Raise("X")
	assert.Empty(t, late.names, "observers added mid-raise wait for the next raise")

	n.Raise("Y")
	assert.Contains(t, late.names, "Y")
}

func TestList(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	n.Subscribe(rec.observe)

	l := NewList[string](n, "Log")
	l.Reset()
	assert.Empty(t, rec.names, "resetting an empty list is silent")

	l.Append("a", "b")
	l.Append()
	assert.Equal(t, []string{"Log"}, rec.names)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last)

	assert.False(t, l.RemoveAt(5))
	assert.False(t, l.RemoveAt(-1))
	assert.True(t, l.RemoveAt(0))
	assert.Equal(t, []string{"b"}, l.Items())

	items := l.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"b"}, l.Items())

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, []string{"Log", "Log", "Log"}, rec.names)
}
