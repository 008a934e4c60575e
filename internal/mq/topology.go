package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeWork   Exchange = "agenthub.work"
	ExchangeEvents Exchange = "agenthub.events"
	ExchangeDLQ    Exchange = "agenthub.dlq"
)

// Queues — имена очередей.
const (
	QueueWorkReady     Queue = "work.ready"
	QueueWorkCompleted Queue = "work.completed"
	QueueEvents        Queue = "events.workflow"
	QueueDLQWork       Queue = "dlq.work"
)

// Routing keys.
const (
	RoutingKeyReady     RoutingKey = "ready"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyEvent     RoutingKey = "workflow"
	RoutingKeyDLQWork   RoutingKey = "work"
)

// SetupTopology объявляет exchanges, очереди и их привязки.
// Идемпотентна: повторное объявление существующей топологии безопасно.
func SetupTopology(conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return ErrNotConnected
	}

	if err := declareExchanges(ch); err != nil {
		return err
	}
	if err := declareQueues(ch); err != nil {
		return err
	}
	return bindQueues(ch)
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeWork, "direct"},
		{ExchangeEvents, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQWork),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// work.ready — с DLQ (работа может уйти в DLQ, если агент её не взял)
		{QueueWorkReady, dlqArgs},

		// work.completed — без DLQ (сигналы завершения обрабатываются один раз)
		{QueueWorkCompleted, nil},

		// events.workflow — без DLQ (наблюдательные события)
		{QueueEvents, nil},

		// dlq.work — сама DLQ очередь
		{QueueDLQWork, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueWorkReady, RoutingKeyReady, ExchangeWork},
		{QueueWorkCompleted, RoutingKeyCompleted, ExchangeWork},
		{QueueEvents, RoutingKeyEvent, ExchangeEvents},
		{QueueDLQWork, RoutingKeyDLQWork, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
