package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"go-commerce/pkg/logger"
)

// Connection owns one AMQP connection and channel. When the broker drops the
// connection it is redialed in the background; publishers pick up the new
// channel on their next call, consumers have to be restarted.
type Connection struct {
	url     string
	maxWait time.Duration
	log     *logger.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done chan struct{}
	once sync.Once
}

// NewConnection dials url, retrying with exponential backoff for up to
// maxWait while the broker starts.
func NewConnection(url string, maxWait time.Duration, log *logger.Logger) (*Connection, error) {
	c := &Connection{
		url:     url,
		maxWait: maxWait,
		log:     log,
		done:    make(chan struct{}),
	}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) dial() error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxWait

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		c.log.Warn("RabbitMQ not reachable, retrying",
			zap.Error(err),
			zap.Duration("next_attempt", next),
			zap.Int("attempt", attempt),
		)
	}
	return backoff.RetryNotify(c.connect, policy, notify)
}

func (c *Connection) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	c.log.Info("connected to RabbitMQ")
	return nil
}

// watch redials after an unexpected close. A nil error means Close was called.
func (c *Connection) watch(closed <-chan *amqp.Error) {
	select {
	case <-c.done:
		return
	case amqpErr, ok := <-closed:
		if !ok || amqpErr == nil {
			return
		}
		c.log.Error("RabbitMQ connection lost", zap.String("reason", amqpErr.Reason), zap.Int("code", amqpErr.Code))
	}

	if err := c.dial(); err != nil {
		c.log.Error("RabbitMQ reconnect gave up", zap.Error(err))
	}
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close stops reconnecting and closes the channel and connection
func (c *Connection) Close() error {
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// DeclareTopic declares a durable topic exchange. Publishers and consumers
// both call it so either side may start first.
func DeclareTopic(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// Publisher sends JSON messages to one topic exchange
type Publisher struct {
	conn     *Connection
	exchange string
	log      *logger.Logger
}

// NewPublisher declares exchange and returns a publisher bound to it
func NewPublisher(conn *Connection, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := DeclareTopic(conn.Channel(), exchange); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, exchange: exchange, log: log}, nil
}

// Publish marshals message and sends it persistently under routingKey. The
// context trace id travels as correlation id and x-trace-id header.
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", routingKey, err)
	}

	traceID := logger.GetTraceID(ctx)
	msg := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		CorrelationId: traceID,
		Headers:       amqp.Table{traceHeader: traceID},
	}
	if err := p.conn.Channel().PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", routingKey, p.exchange, err)
	}

	p.log.WithContext(ctx).Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.Int("bytes", len(body)),
	)
	return nil
}

const (
	traceHeader = "x-trace-id"

	// unacked deliveries held by one consumer
	prefetch = 16
	// pause before a failed delivery goes back to the queue
	redeliveryDelay = time.Second
)

// Consumer reads one durable queue bound to a topic exchange. Rejected
// messages are dead-lettered to <exchange>.dlx and parked in <queue>.dead.
type Consumer struct {
	conn        *Connection
	queue       string
	exchange    string
	routingKeys []string
	log         *logger.Logger
}

// NewConsumer declares the exchange, its dead-letter pair and the queue, and
// binds the queue for each routing key.
func NewConsumer(conn *Connection, queue, exchange string, routingKeys []string, log *logger.Logger) (*Consumer, error) {
	ch := conn.Channel()

	if err := DeclareTopic(ch, exchange); err != nil {
		return nil, err
	}

	dlx := exchange + ".dlx"
	if err := ch.ExchangeDeclare(dlx, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", dlx, err)
	}
	dead := queue + ".dead"
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", dead, err)
	}
	if err := ch.QueueBind(dead, "", dlx, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", dead, err)
	}

	args := amqp.Table{"x-dead-letter-exchange": dlx}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, args); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s to %s: %w", queue, key, err)
		}
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	return &Consumer{
		conn:        conn,
		queue:       queue,
		exchange:    exchange,
		routingKeys: routingKeys,
		log:         log,
	}, nil
}

// MessageHandler processes one delivery body
type MessageHandler func(ctx context.Context, body []byte) error

// ErrDiscard wraps handler errors that a redelivery cannot fix, such as a
// malformed body. Such messages are rejected to the dead-letter exchange.
type ErrDiscard struct {
	Err error
}

func (e *ErrDiscard) Error() string { return "discard message: " + e.Err.Error() }

func (e *ErrDiscard) Unwrap() error { return e.Err }

// Consume delivers messages to handler on a background goroutine until ctx
// ends. Success acks, ErrDiscard dead-letters, any other error requeues.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.conn.Channel().Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.log.Warn("delivery channel closed", zap.String("queue", c.queue))
					return
				}
				c.dispatch(ctx, msg, handler)
			}
		}
	}()

	c.log.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Strings("routing_keys", c.routingKeys),
	)
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, msg amqp.Delivery, handler MessageHandler) {
	traceID, _ := msg.Headers[traceHeader].(string)
	if traceID == "" {
		traceID = msg.CorrelationId
	}
	msgCtx := logger.WithTraceIDContext(ctx, traceID)
	log := c.log.WithContext(msgCtx)

	err := handler(msgCtx, msg.Body)
	if err == nil {
		_ = msg.Ack(false)
		return
	}

	var discard *ErrDiscard
	if errors.As(err, &discard) {
		log.Warn("dead-lettering message",
			zap.Error(err),
			zap.String("queue", c.queue),
			zap.String("routing_key", msg.RoutingKey),
		)
		_ = msg.Nack(false, false)
		return
	}

	log.Error("message handling failed, requeueing",
		zap.Error(err),
		zap.String("queue", c.queue),
		zap.Bool("redelivered", msg.Redelivered),
	)
	select {
	case <-ctx.Done():
	case <-time.After(redeliveryDelay):
	}
	_ = msg.Nack(false, true)
}
