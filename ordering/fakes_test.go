package ordering

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"orderclient/types"
)

// fakeStream replays scripted events, then ends with err (io.EOF when nil).
// With hang set it blocks after the script until its context is done.
type fakeStream struct {
	ctx    context.Context
	events []types.StatusEvent
	err    error
	hang   bool

	next   int
	closed atomic.Int32
}

func (f *fakeStream) Recv() (types.StatusEvent, error) {
	if f.next < len(f.events) {
		ev := f.events[f.next]
		f.next++
		return ev, nil
	}
	if f.hang {
		<-f.ctx.Done()
		return types.StatusEvent{}, f.ctx.Err()
	}
	if f.err != nil {
		return types.StatusEvent{}, f.err
	}
	return types.StatusEvent{}, io.EOF
}

func (f *fakeStream) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeOpener struct {
	events  []types.StatusEvent
	err     error
	openErr error
	hang    bool
	onOpen  func()

	mu      sync.Mutex
	calls   int
	target  string
	request types.OrderRequest
	stream  *fakeStream
	opened  chan struct{}
}

func newFakeOpener(events ...types.StatusEvent) *fakeOpener {
	return &fakeOpener{events: events, opened: make(chan struct{}, 8)}
}

func (f *fakeOpener) OpenOrderStream(ctx context.Context, target string, req types.OrderRequest) (StatusStream, error) {
	f.mu.Lock()
	f.calls++
	f.target = target
	f.request = req
	f.mu.Unlock()

	if f.onOpen != nil {
		f.onOpen()
	}
	f.opened <- struct{}{}

	if f.openErr != nil {
		return nil, f.openErr
	}

	s := &fakeStream{ctx: ctx, events: f.events, err: f.err, hang: f.hang}
	f.mu.Lock()
	f.stream = s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeOpener) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func started() types.StatusEvent { return types.StatusEvent{State: types.StatusStarted} }

func inProgress(fn types.DrawFunction) types.StatusEvent {
	return types.StatusEvent{State: types.StatusInProgress, NextFunction: fn}
}

func event(kind types.StatusKind) types.StatusEvent { return types.StatusEvent{State: kind} }
