package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPoisonMessage — сообщение нельзя разобрать; оно уходит в DLQ без повторов.
var ErrPoisonMessage = errors.New("poison message")

// Handler обрабатывает одно сообщение.
type Handler func(ctx context.Context, msg *Message) error

// Consumer потребляет сообщения из очереди.
//
// Успешно обработанные сообщения подтверждаются. Сообщения, на которых
// Handler вернул ошибку, отклоняются без повтора и попадают в DLQ:
// ошибка распознавания обычно не исчезает при повторе.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue    Queue
	Handler  Handler
	Prefetch int // default: 1
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run потребляет сообщения до отмены ctx, переживая переподключения.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("deliveries interrupted, waiting for reconnect")
		if err := c.conn.Wait(ctx); err != nil {
			return err
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения, пока канал открыт и ctx жив.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			if err := c.handle(ctx, raw.Body); err != nil {
				c.logger.Error("message rejected", "message_id", raw.MessageId, "error", err)
				_ = raw.Nack(false, false)
				continue
			}
			_ = raw.Ack(false)
		}
	}
}

// handle разбирает конверт и вызывает Handler.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
	}
	c.logger.Debug("received message", "message_id", msg.ID, "type", msg.Type)
	return c.handler(ctx, &msg)
}

// ParsePayload разбирает payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		return result, fmt.Errorf("%w: unmarshal payload: %v", ErrPoisonMessage, err)
	}
	return result, nil
}

// JobHandler превращает задания job.recognize в вызовы process.
func JobHandler(process func(ctx context.Context, job JobPayload) error) Handler {
	return func(ctx context.Context, msg *Message) error {
		if msg.Type != MessageTypeJobRecognize {
			return fmt.Errorf("%w: unexpected type %q", ErrPoisonMessage, msg.Type)
		}
		job, err := ParsePayload[JobPayload](msg)
		if err != nil {
			return err
		}
		if job.Path == "" {
			return fmt.Errorf("%w: empty path", ErrPoisonMessage)
		}
		return process(ctx, job)
	}
}
