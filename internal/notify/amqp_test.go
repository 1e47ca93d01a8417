package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeSession records publishes. When release is set, Publish waits for it to be closed.
type fakeSession struct {
	release chan struct{}

	mu        sync.Mutex
	published []published
	closed    bool
}

func (s *fakeSession) Publish(exchange, key string, msg amqp.Publishing) error {
	if s.release != nil {
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return amqp.ErrClosed
	}
	s.published = append(s.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) Published() []published {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]published(nil), s.published...)
}

func (s *fakeSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func failingDial() (publisher, <-chan *amqp.Error, error) {
	return nil, nil, errors.New("broker unreachable")
}

func statusEvent(id string) Event {
	return Event{
		Type:          EventReservationStatusChanged,
		ReservationID: id,
		MemberID:      "m1",
		VenueID:       "v1",
		From:          "PENDING",
		To:            "CONFIRMED",
		OccurredAt:    time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
	}
}

func TestAMQPNotifierPublishesEvents(t *testing.T) {
	session := &fakeSession{}
	n := newAMQPNotifier(session, nil, failingDial, "care.reservations", 8, time.Millisecond, zap.NewNop())
	t.Cleanup(func() { _ = n.Close() })

	n.Notify(context.Background(), statusEvent("r1"))

	require.Eventually(t, func() bool { return len(session.Published()) == 1 }, time.Second, 5*time.Millisecond)

	got := session.Published()[0]
	assert.Equal(t, "care.reservations", got.exchange)
	assert.Equal(t, "reservation.status_changed", got.key)
	assert.Equal(t, "r1", got.msg.MessageId)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var body Event
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "CONFIRMED", body.To)
}

func TestAMQPNotifierStalledBrokerDoesNotBlockCallers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	session := &fakeSession{release: make(chan struct{})}
	n := newAMQPNotifier(session, nil, failingDial, "care.reservations", 2, time.Millisecond, zap.New(core))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 10 {
			n.Notify(context.Background(), statusEvent(fmt.Sprintf("r%d", i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked while the broker was stalled")
	}

	// At most one event is in flight and two are queued.
	assert.GreaterOrEqual(t, logs.FilterMessage("notification queue full, dropping event").Len(), 7)

	close(session.release)
	require.NoError(t, n.Close())
	assert.NotEmpty(t, session.Published())
}

func TestAMQPNotifierReconnectsAfterConnectionLoss(t *testing.T) {
	first := &fakeSession{}
	second := &fakeSession{}
	firstClosed := make(chan *amqp.Error, 1)

	var dials atomic.Int32
	dial := func() (publisher, <-chan *amqp.Error, error) {
		if dials.Add(1) < 3 {
			return nil, nil, errors.New("connection refused")
		}
		return second, make(chan *amqp.Error, 1), nil
	}

	n := newAMQPNotifier(first, firstClosed, dial, "care.reservations", 8, time.Millisecond, zap.NewNop())
	t.Cleanup(func() { _ = n.Close() })

	firstClosed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED"}

	require.Eventually(t, func() bool { return dials.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, first.IsClosed())

	n.Notify(context.Background(), statusEvent("r1"))

	require.Eventually(t, func() bool { return len(second.Published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, first.Published())
}

func TestAMQPNotifierRedialsAfterPublishFailure(t *testing.T) {
	first := &fakeSession{closed: true}
	second := &fakeSession{}

	dial := func() (publisher, <-chan *amqp.Error, error) {
		return second, nil, nil
	}

	n := newAMQPNotifier(first, nil, dial, "care.reservations", 8, time.Millisecond, zap.NewNop())
	t.Cleanup(func() { _ = n.Close() })

	// The first event is lost with the dead channel; later ones go through the new session.
	n.Notify(context.Background(), statusEvent("lost"))
	n.Notify(context.Background(), statusEvent("r2"))

	require.Eventually(t, func() bool { return len(second.Published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "r2", second.Published()[0].msg.MessageId)
}

func TestAMQPNotifierCloseFlushesQueue(t *testing.T) {
	session := &fakeSession{release: make(chan struct{})}
	n := newAMQPNotifier(session, nil, failingDial, "care.reservations", 8, time.Millisecond, zap.NewNop())

	for i := range 3 {
		n.Notify(context.Background(), statusEvent(fmt.Sprintf("r%d", i)))
	}
	close(session.release)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())

	got := session.Published()
	require.Len(t, got, 3)
	for i, p := range got {
		assert.Equal(t, fmt.Sprintf("r%d", i), p.msg.MessageId)
	}
	assert.True(t, session.IsClosed())
}
