package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Glyph/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

const (
	MessageTypeOutcomeSucceeded MessageType = "outcome.succeeded"
	MessageTypeOutcomeFailed    MessageType = "outcome.failed"
	MessageTypeJobRecognize     MessageType = "job.recognize"
)

// Message — конверт всех сообщений.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// JobPayload — задание распознать файл, видимый glyph-watcher.
type JobPayload struct {
	Path    string `json:"path"`
	Profile string `json:"profile,omitempty"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// outcomeRoute возвращает тип сообщения и routing key для outcome.
func outcomeRoute(o domain.BatchItemOutcome) (MessageType, RoutingKey) {
	if o.Success {
		return MessageTypeOutcomeSucceeded, RoutingKeySucceeded
	}
	return MessageTypeOutcomeFailed, RoutingKeyFailed
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, key RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// Record публикует outcome. Реализует orchestrator.Sink.
func (p *Publisher) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	msgType, key := outcomeRoute(rec.Outcome)
	msg, err := NewMessage(msgType, rec)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeOutcomes, key, msg)
}

// PublishJob ставит файл в очередь распознавания.
func (p *Publisher) PublishJob(ctx context.Context, job JobPayload) error {
	msg, err := NewMessage(MessageTypeJobRecognize, job)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeJobs, RoutingKeyRecognize, msg)
}
