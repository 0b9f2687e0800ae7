package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"orderclient/api"
	"orderclient/events"
	"orderclient/ordering"
	"orderclient/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev types.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []types.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.OrderEvent(nil), p.events...)
}

type hangingStream struct{ ctx context.Context }

func (s *hangingStream) Recv() (types.StatusEvent, error) {
	<-s.ctx.Done()
	return types.StatusEvent{}, s.ctx.Err()
}

func (s *hangingStream) Close() error { return nil }

func TestDrainOrdersPublishesFinalEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	opener := ordering.StreamOpenerFunc(func(ctx context.Context, _ string, _ types.OrderRequest) (ordering.StatusStream, error) {
		return &hangingStream{ctx: ctx}, nil
	})
	form := ordering.NewForm()
	form.SetCustomer("Martin")
	form.AddBlue()
	session := ordering.NewSession(form, opener, ordering.WithTargetAddress("localhost:5010"), ordering.WithLogger(logger))

	pub := &recordingPublisher{}
	relay := events.NewRelay(session, pub, 16, logger)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Run(relayCtx)
	}()

	apiServer := api.NewServer(context.Background(), session, nil, logger)
	w := httptest.NewRecorder()
	apiServer.NewRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/order/submit", nil))
	require.Equal(t, http.StatusAccepted, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	drainOrders(ctx, apiServer, stopRelay, logger)

	select {
	case <-relayDone:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}

	evs := pub.Events()
	require.NotEmpty(t, evs)

	var lines []string
	for _, ev := range evs {
		if ev.Kind == types.OrderEventTrace {
			lines = append(lines, ev.Line)
		}
	}
	assert.Equal(t, []string{ordering.LineCancelled}, lines)

	last := evs[len(evs)-1]
	assert.Equal(t, types.OrderEventLifecycle, last.Kind)
	assert.False(t, last.Busy)
	assert.Equal(t, string(ordering.OutcomeCancelled), last.Outcome)
}
