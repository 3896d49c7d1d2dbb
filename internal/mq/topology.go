package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeOutcomes Exchange = "glyph.outcomes"
	ExchangeJobs     Exchange = "glyph.jobs"
	ExchangeDLQ      Exchange = "glyph.dlq"
)

const (
	QueueOutcomes Queue = "outcomes.all"
	QueueJobs     Queue = "jobs.recognize"
	QueueDLQJobs  Queue = "dlq.jobs"
)

const (
	RoutingKeySucceeded RoutingKey = "outcome.succeeded"
	RoutingKeyFailed    RoutingKey = "outcome.failed"
	RoutingKeyOutcomes  RoutingKey = "outcome.#"
	RoutingKeyRecognize RoutingKey = "recognize"
	RoutingKeyDLQJobs   RoutingKey = "jobs"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue    Queue
	key      RoutingKey
	exchange Exchange
}

// topology — объявления в порядке применения.
func topology() ([]exchangeDecl, []queueDecl, []bindingDecl) {
	exchanges := []exchangeDecl{
		{ExchangeOutcomes, amqp.ExchangeTopic},
		{ExchangeJobs, amqp.ExchangeDirect},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}
	queues := []queueDecl{
		{QueueOutcomes, nil},
		// Отклонённые задания уходят в DLQ.
		{QueueJobs, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQJobs),
		}},
		{QueueDLQJobs, nil},
	}
	bindings := []bindingDecl{
		{QueueOutcomes, RoutingKeyOutcomes, ExchangeOutcomes},
		{QueueJobs, RoutingKeyRecognize, ExchangeJobs},
		{QueueDLQJobs, RoutingKeyDLQJobs, ExchangeDLQ},
	}
	return exchanges, queues, bindings
}

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		exchanges, queues, bindings := topology()

		for _, ex := range exchanges {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}
		for _, q := range queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}
		for _, b := range bindings {
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Glyph RabbitMQ Topology:

    glyph.outcomes (topic)
    └── outcomes.all [routing: outcome.#]

    glyph.jobs (direct)
    └── jobs.recognize [routing: recognize]
            Consumer: glyph-watcher
            DLQ: dlq.jobs

    glyph.dlq (direct)
    └── dlq.jobs [routing: jobs]
  `
}
