package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

const DefaultQueue = "task_audit_logs"

// Client owns one AMQP connection with a durable audit queue declared on it.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// Dial connects and declares queueName, or DefaultQueue when it is empty.
func Dial(url, queueName string) (*Client, error) {
	if queueName == "" {
		queueName = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queueName, err)
	}

	return &Client{conn: conn, channel: channel, queue: queue}, nil
}

// Consume opens a separate channel so acks never contend with publishes.
func (c *Client) Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	return consume(ch, c.queue.Name, consumerTag, prefetch)
}

type amqpConsumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// consume closes ch when it cannot start delivering.
func consume(ch amqpConsumer, queue, consumerTag string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(
		queue,       // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %q: %w", queue, err)
	}
	return deliveries, nil
}

func (c *Client) Publisher(logger *zap.Logger) *Publisher {
	return NewPublisher(c.channel, c.queue.Name, logger)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher emits events as persistent JSON messages on the audit queue.
type Publisher struct {
	mu     sync.Mutex
	ch     amqpPublisher
	queue  string
	logger *zap.Logger
}

func NewPublisher(ch amqpPublisher, queue string, logger *zap.Logger) *Publisher {
	return &Publisher{ch: ch, queue: queue, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, e model.AuditEvent) {
	body, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("marshal audit event", zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("publish audit event",
			zap.String("action", string(e.Action)),
			zap.Int64("subject_id", e.SubjectID),
			zap.Error(err),
		)
	}
}
