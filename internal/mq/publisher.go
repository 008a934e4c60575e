package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeWorkReady     MessageType = "work.ready"
	MessageTypeWorkCompleted MessageType = "work.completed"
	MessageTypeWorkflowEvent MessageType = "workflow.event"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// WorkReadyPayload — payload о работе, ожидающей агента.
type WorkReadyPayload struct {
	WorkItemID uuid.UUID `json:"work_item_id"`
	TaskID     uuid.UUID `json:"task_id"`
	NodeID     string    `json:"node_id"`
	Title      string    `json:"title"`
	Role       string    `json:"role,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
}

// WorkCompletedPayload — payload сигнала о завершённой работе.
// Это callback внешнего исполнителя оркестратору.
type WorkCompletedPayload struct {
	WorkItemID uuid.UUID `json:"work_item_id"`

	// Status — SUCCEEDED или FAILED.
	Status string `json:"status"`

	// Result — непрозрачный результат работы.
	Result string `json:"result,omitempty"`

	// Error — текст ошибки при Status=FAILED.
	Error string `json:"error,omitempty"`
}

// WorkflowEventPayload — payload наблюдательного события фазы workflow.
type WorkflowEventPayload struct {
	TaskID     uuid.UUID `json:"task_id"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	Kind       string    `json:"kind"`
	NodeID     string    `json:"node_id,omitempty"`
	Note       string    `json:"note,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return ErrNotConnected
	}

	err = ch.PublishWithContext(
		ctx,
		string(exchange),
		string(routingKey),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	return nil
}

// PublishWorkReady публикует событие о работе, готовой к выполнению.
// Потребитель: внешняя среда выполнения агентов.
func (p *Publisher) PublishWorkReady(ctx context.Context, item *domain.WorkItem) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeWorkReady,
		Payload: WorkReadyPayload{
			WorkItemID: item.ID,
			TaskID:     item.TaskID,
			NodeID:     item.NodeID,
			Title:      item.Title,
			Role:       item.Role,
			AssigneeID: item.AssigneeID,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWork, RoutingKeyReady, msg)
}

// PublishWorkCompleted публикует сигнал о завершённой работе.
// Потребитель: Orchestrator.
func (p *Publisher) PublishWorkCompleted(ctx context.Context, workItemID uuid.UUID, status domain.WorkItemStatus, result, errMsg string) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeWorkCompleted,
		Payload: WorkCompletedPayload{
			WorkItemID: workItemID,
			Status:     string(status),
			Result:     result,
			Error:      errMsg,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWork, RoutingKeyCompleted, msg)
}

// PublishWorkflowEvent публикует наблюдательное событие фазы workflow.
//
// События fire-and-forget: для корректности выполнения они не нужны,
// ошибку публикации вызывающая сторона может просто залогировать.
func (p *Publisher) PublishWorkflowEvent(ctx context.Context, taskID, workflowID uuid.UUID, kind, nodeID, note string) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeWorkflowEvent,
		Payload: WorkflowEventPayload{
			TaskID:     taskID,
			WorkflowID: workflowID,
			Kind:       kind,
			NodeID:     nodeID,
			Note:       note,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyEvent, msg)
}
