package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultQueueSize  = 256
	redialBaseDelay   = 500 * time.Millisecond
	redialMaxDelay    = 30 * time.Second
	closeFlushTimeout = 5 * time.Second
)

// publisher is the part of an AMQP session the dispatcher uses.
type publisher interface {
	Publish(exchange, key string, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a session. closed receives at most one value when the connection goes away.
type dialFunc func() (pub publisher, closed <-chan *amqp.Error, err error)

// AMQPNotifier publishes events as JSON to a topic exchange, using the event type as routing key.
// Notify only enqueues; a single background goroutine owns the session, publishes in order and
// reconnects with exponential backoff when the broker drops the connection.
type AMQPNotifier struct {
	exchange   string
	logger     *zap.Logger
	dial       dialFunc
	redialBase time.Duration

	queue     chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewAMQPNotifier(url, exchange string, logger *zap.Logger) (*AMQPNotifier, error) {
	dial := func() (publisher, <-chan *amqp.Error, error) {
		return dialSession(url, exchange)
	}

	pub, closed, err := dial()
	if err != nil {
		return nil, err
	}
	return newAMQPNotifier(pub, closed, dial, exchange, defaultQueueSize, redialBaseDelay, logger), nil
}

func newAMQPNotifier(
	pub publisher,
	closed <-chan *amqp.Error,
	dial dialFunc,
	exchange string,
	queueSize int,
	redialBase time.Duration,
	logger *zap.Logger,
) *AMQPNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &AMQPNotifier{
		exchange:   exchange,
		logger:     logger,
		dial:       dial,
		redialBase: redialBase,
		queue:      make(chan Event, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go n.run(pub, closed)
	return n
}

// Notify never waits on the broker. When the queue is full the event is dropped and logged.
func (n *AMQPNotifier) Notify(_ context.Context, e Event) {
	select {
	case n.queue <- e:
	default:
		n.logger.Warn("notification queue full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("reservation_id", e.ReservationID),
		)
	}
}

// Close stops the publisher after flushing queued events, waiting at most closeFlushTimeout.
func (n *AMQPNotifier) Close() error {
	n.closeOnce.Do(n.cancel)

	timer := time.NewTimer(closeFlushTimeout)
	defer timer.Stop()

	select {
	case <-n.done:
		return nil
	case <-timer.C:
		return errors.New("timed out flushing reservation events")
	}
}

func (n *AMQPNotifier) run(pub publisher, closed <-chan *amqp.Error) {
	defer close(n.done)

	for {
		if pub == nil {
			var err error
			if pub, closed, err = n.redial(); err != nil {
				return
			}
			n.logger.Info("amqp connection restored")
		}

		select {
		case <-n.ctx.Done():
			n.flush(pub)
			_ = pub.Close()
			return

		case amqpErr := <-closed:
			fields := []zap.Field{}
			if amqpErr != nil {
				fields = append(fields, zap.Error(amqpErr))
			}
			n.logger.Warn("amqp connection closed, reconnecting", fields...)
			_ = pub.Close()
			pub = nil

		case e := <-n.queue:
			if err := n.publish(pub, e); err != nil {
				_ = pub.Close()
				pub = nil
			}
		}
	}
}

// redial retries until a session opens or the notifier is closed.
func (n *AMQPNotifier) redial() (publisher, <-chan *amqp.Error, error) {
	var (
		pub    publisher
		closed <-chan *amqp.Error
	)

	backoff := retry.WithCappedDuration(redialMaxDelay, retry.NewExponential(n.redialBase))
	err := retry.Do(n.ctx, backoff, func(ctx context.Context) error {
		var err error
		pub, closed, err = n.dial()
		if err != nil {
			n.logger.Warn("amqp redial failed", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	return pub, closed, err
}

func (n *AMQPNotifier) flush(pub publisher) {
	for {
		select {
		case e := <-n.queue:
			if err := n.publish(pub, e); err != nil {
				return
			}
		default:
			return
		}
	}
}

// publish reports only session failures; an event that cannot be encoded is logged and skipped.
func (n *AMQPNotifier) publish(pub publisher, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		n.logger.Error("marshal reservation event", zap.Error(err))
		return nil
	}

	err = pub.Publish(n.exchange, string(e.Type), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ReservationID,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		n.logger.Warn("publish reservation event failed",
			zap.String("type", string(e.Type)),
			zap.String("reservation_id", e.ReservationID),
			zap.Error(err),
		)
	}
	return err
}

type amqpSession struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func dialSession(url, exchange string) (publisher, <-chan *amqp.Error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	return &amqpSession{conn: conn, ch: ch}, closed, nil
}

func (s *amqpSession) Publish(exchange, key string, msg amqp.Publishing) error {
	return s.ch.Publish(exchange, key, false, false, msg)
}

func (s *amqpSession) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}
