package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"orderclient/config"
	"orderclient/ordering"
	"orderclient/types"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	mu     sync.Mutex
	events []types.OrderEvent
	err    error
}

func (p *memPublisher) Publish(_ context.Context, ev types.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *memPublisher) Close() error { return nil }

func (p *memPublisher) Events() []types.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.OrderEvent(nil), p.events...)
}

type doneStream struct{ sent bool }

func (s *doneStream) Recv() (types.StatusEvent, error) {
	if s.sent {
		return types.StatusEvent{}, io.EOF
	}
	s.sent = true
	return types.StatusEvent{State: types.StatusDone}, nil
}

func (s *doneStream) Close() error { return nil }

func newSession() *ordering.Session {
	form := ordering.NewForm()
	form.SetCustomer("Martin")
	form.AddBlue()
	opener := ordering.StreamOpenerFunc(func(context.Context, string, types.OrderRequest) (ordering.StatusStream, error) {
		return &doneStream{}, nil
	})
	return ordering.NewSession(form, opener, ordering.WithTargetAddress("localhost:5010"))
}

func TestRelayPublishesTraceAndLifecycle(t *testing.T) {
	logger, _ := test.NewNullLogger()
	session := newSession()
	pub := &memPublisher{}
	relay := NewRelay(session, pub, 16, logger)

	require.NoError(t, session.Submit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = relay.Run(ctx)
	}()

	require.Eventually(t, func() bool { return len(pub.Events()) == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	evs := pub.Events()
	assert.Equal(t, types.OrderEventLifecycle, evs[0].Kind)
	assert.True(t, evs[0].Busy)

	assert.Equal(t, types.OrderEventTrace, evs[1].Kind)
	assert.Equal(t, "Done", evs[1].Line)
	assert.Equal(t, "Done!", evs[2].Line)

	assert.Equal(t, types.OrderEventLifecycle, evs[3].Kind)
	assert.False(t, evs[3].Busy)
	assert.Equal(t, string(ordering.OutcomeCompleted), evs[3].Outcome)

	for _, ev := range evs {
		assert.Equal(t, session.OrderID(), ev.OrderID)
		assert.Equal(t, "Martin", ev.Customer)
	}
	assert.Zero(t, relay.Dropped())
}

func TestRelayRestartsLineCountOnNewOrder(t *testing.T) {
	session := newSession()
	pub := &memPublisher{}
	relay := NewRelay(session, pub, 32, nil)

	require.NoError(t, session.Submit(context.Background()))
	require.NoError(t, session.Submit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, relay.Run(ctx))

	var lines []string
	for _, ev := range pub.Events() {
		if ev.Kind == types.OrderEventTrace {
			lines = append(lines, ev.Line)
		}
	}
	assert.Equal(t, []string{"Done", "Done!", "Done", "Done!"}, lines)
}

func TestRelayDropsWhenFull(t *testing.T) {
	session := newSession()
	relay := NewRelay(session, &memPublisher{}, 1, nil)

	require.NoError(t, session.Submit(context.Background()))

	// four events, one slot, no worker running
	assert.Equal(t, int64(3), relay.Dropped())
}

func TestRelayKeepsGoingOnPublishError(t *testing.T) {
	session := newSession()
	pub := &memPublisher{err: errors.New("broker down")}
	relay := NewRelay(session, pub, 16, nil)
	require.NoError(t, session.Submit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, relay.Run(ctx))
	assert.Len(t, pub.Events(), 4)
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "order-1" {
			return errors.New("unexpected key " + string(key))
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var ev types.OrderEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		if ev.Line != "Started" || msg.Topic != "order-events" {
			return errors.New("unexpected message")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "order-events")
	require.NoError(t, pub.Publish(context.Background(), types.OrderEvent{OrderID: "order-1", Kind: types.OrderEventTrace, Line: "Started"}))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherReportsFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "order-events")
	err := pub.Publish(context.Background(), types.OrderEvent{OrderID: "x"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

type fakeChannel struct {
	exchange string
	msgs     []amqp.Publishing
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestAMQPPublisherFansOut(t *testing.T) {
	ch := &fakeChannel{}
	pub := &AMQPPublisher{ch: ch, exchange: DefaultExchange}

	require.NoError(t, pub.Publish(context.Background(), types.OrderEvent{OrderID: "o-1", Kind: types.OrderEventLifecycle, Busy: true}))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, "o-1", ch.msgs[0].CorrelationId)
	assert.Equal(t, "lifecycle", ch.msgs[0].Type)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	assert.NoError(t, pub.Close())
}

func TestTypedMessageHandler(t *testing.T) {
	var got []types.OrderEvent
	h := &TypedMessageHandler[types.OrderEvent]{
		Validate: func(ev *types.OrderEvent) bool { return ev.OrderID != "" },
		Process: func(_ context.Context, ev *types.OrderEvent) error {
			if ev.Line == "boom" {
				return errors.New("boom")
			}
			got = append(got, *ev)
			return nil
		},
		AlwaysMark: true,
	}

	cases := []struct {
		name     string
		body     string
		wantMark bool
		wantErr  bool
	}{
		{"valid", `{"order_id":"a","kind":"trace","line":"Started"}`, true, false},
		{"garbage", `{`, true, false},
		{"rejected", `{"kind":"trace"}`, true, false},
		{"process error", `{"order_id":"a","line":"boom"}`, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mark, err := h.HandleMessage(context.Background(), []byte(c.body))
			assert.Equal(t, c.wantMark, mark)
			assert.Equal(t, c.wantErr, err != nil)
		})
	}
	require.Len(t, got, 1)
	assert.Equal(t, "Started", got[0].Line)
}

func TestConsumeDeliveriesStopsOnClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	deliveries := make(chan amqp.Delivery, 2)
	var lines []string
	h := &TypedMessageHandler[types.OrderEvent]{
		Process: func(_ context.Context, ev *types.OrderEvent) error {
			lines = append(lines, ev.Line)
			return nil
		},
	}

	deliveries <- amqp.Delivery{Body: []byte(`{"order_id":"a","line":"Started"}`)}
	deliveries <- amqp.Delivery{Body: []byte(`{"order_id":"a","line":"Done"}`)}
	close(deliveries)

	err := consumeDeliveries(context.Background(), deliveries, h, logger)
	assert.Error(t, err)
	assert.Equal(t, []string{"Started", "Done"}, lines)
}

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(config.EventsConfig{Backend: config.BackendNone})
	require.NoError(t, err)
	assert.Nil(t, pub)

	_, err = NewPublisher(config.EventsConfig{Backend: "smoke-signals"})
	assert.Error(t, err)
}
