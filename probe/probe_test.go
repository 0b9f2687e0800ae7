package probe

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"orderclient/ordering"
	"orderclient/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptStream struct {
	ctx    context.Context
	events []types.StatusEvent
	block  chan struct{}
}

func (s *scriptStream) Recv() (types.StatusEvent, error) {
	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		return ev, nil
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-s.ctx.Done():
			return types.StatusEvent{}, s.ctx.Err()
		}
	}
	return types.StatusEvent{}, io.EOF
}

func (s *scriptStream) Close() error { return nil }

func scripted(block chan struct{}, events ...types.StatusEvent) (ordering.StreamOpener, *types.OrderRequest) {
	var seen types.OrderRequest
	return ordering.StreamOpenerFunc(func(ctx context.Context, _ string, req types.OrderRequest) (ordering.StatusStream, error) {
		seen = req
		return &scriptStream{ctx: ctx, events: append([]types.StatusEvent(nil), events...), block: block}, nil
	}), &seen
}

func TestTesterSendsFixedOrder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opener, seen := scripted(nil,
		types.StatusEvent{State: types.StatusStarted},
		types.StatusEvent{State: types.StatusInProgress, NextFunction: types.DrawBlue},
		types.StatusEvent{State: types.StatusDone},
	)
	tester := NewTester(opener, "localhost:5010", logger)
	require.True(t, tester.Ready())

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, "Martin", seen.Customer)
	assert.Equal(t, []types.DrawFunction{types.DrawBlue}, seen.Functions)
	assert.Equal(t, []string{"Started", "In Progress to DrawBlue", "Done", "Done!"}, res.Log)
	assert.Equal(t, ordering.OutcomeCompleted, res.Outcome)
	assert.Equal(t, "localhost:5010", res.Target)
}

func TestTesterReportsFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()

	failing, _ := scripted(nil, types.StatusEvent{State: types.StatusStarted}, types.StatusEvent{State: types.StatusNoPathFound})
	res, err := NewTester(failing, "localhost:5010", logger).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, []string{"Started", "NoPathFound", "Done!"}, res.Log)

	unreachable := ordering.StreamOpenerFunc(func(context.Context, string, types.OrderRequest) (ordering.StatusStream, error) {
		return nil, errors.New("connection refused")
	})
	res, err = NewTester(unreachable, "localhost:5010", logger).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, ordering.OutcomeError, res.Outcome)
}

func TestTesterNotReadyWithoutTarget(t *testing.T) {
	opener, _ := scripted(nil)
	tester := NewTester(opener, "", nil)
	assert.False(t, tester.Ready())

	_, err := tester.Run(context.Background())
	assert.ErrorIs(t, err, ordering.ErrNotReady)

	assert.True(t, tester.SetTarget("localhost:5010"))
	assert.True(t, tester.Ready())
}

func TestSchedulerSkipsWhileRunning(t *testing.T) {
	logger, _ := test.NewNullLogger()
	block := make(chan struct{})
	opener, _ := scripted(block, types.StatusEvent{State: types.StatusDone})
	tester := NewTester(opener, "localhost:5010", logger)

	results := make(chan Result, 4)
	s := NewScheduler(tester, time.Second, logger, func(r Result) { results <- r })

	go s.tick()
	require.Eventually(t, tester.Running, time.Second, 5*time.Millisecond)

	// overlapping tick returns immediately without a result
	s.tick()
	_, ok := s.Last()
	assert.False(t, ok)

	close(block)
	select {
	case r := <-results:
		assert.True(t, r.OK)
	case <-time.After(2 * time.Second):
		t.Fatal("probe never finished")
	}

	last, ok := s.Last()
	assert.True(t, ok)
	assert.True(t, last.OK)
	assert.Empty(t, results)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	opener, _ := scripted(nil)
	s := NewScheduler(NewTester(opener, "localhost:5010", nil), time.Second, nil, nil)
	assert.Error(t, s.Start("not a schedule"))
	<-s.Stop().Done()
}
