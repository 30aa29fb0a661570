// Package amqp publishes budget events to RabbitMQ and consumes them.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
	dialAttempts   = 3
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects and declares the budget exchange and queue.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel
	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{RoutingBudgetSaved, RoutingMonthlyMovements} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue to %s: %w", key, err)
		}
	}
	return nil
}

// ensureConnected redials with backoff when the connection was lost.
func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil {
		return nil
	}
	c.closeLocked()

	var err error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if err = c.connectLocked(); err == nil {
			slog.InfoContext(ctx, "Reconnected to AMQP", "exchange", c.exchangeName, "attempt", attempt+1)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}
	return err
}

// PublishBudgetSaved announces a persisted budget.
func (c *Client) PublishBudgetSaved(ctx context.Context, id, name string) error {
	body, err := NewBudgetSavedMessage(id, name).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, RoutingBudgetSaved, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published budget saved message", "budget_id", id, "exchange", c.exchangeName)
	return nil
}

// PublishMonthlyMovements sends the payments due for one account and month.
func (c *Client) PublishMonthlyMovements(ctx context.Context, msg *MonthlyMovementsMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, RoutingMonthlyMovements, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published monthly movements message",
		"budget_id", msg.BudgetID,
		"account", msg.Account,
		"month", msg.Month,
		"count", len(msg.Movements))
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", routingKey, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.ensureConnected(ctx); err != nil {
		c.recordFailure()
		return fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	err := channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         routingKey,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.closeLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// Handler processes one delivery. Returning an error requeues it.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consume delivers messages from the queue to handler until ctx is done.
// Undecodable messages are expected to be rejected by handler returning
// ErrDiscard.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	if err := c.ensureConnected(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming budget messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			err := handler(ctx, delivery.RoutingKey, delivery.Body)
			switch {
			case err == nil:
				delivery.Ack(false)
			case errors.Is(err, ErrDiscard):
				slog.ErrorContext(ctx, "Discarding message", "routing_key", delivery.RoutingKey, "error", err)
				delivery.Nack(false, false)
			default:
				slog.ErrorContext(ctx, "Failed to handle message", "routing_key", delivery.RoutingKey, "error", err)
				delivery.Nack(false, true)
			}
		}
	}
}

// ErrDiscard marks a message that must not be redelivered.
var ErrDiscard = errors.New("discard message")

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()

	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures ||
		atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit breaker opened", "failures", atomic.LoadInt64(&c.failureCount))
		}
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
