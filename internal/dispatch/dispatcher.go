package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/mq"
	"github.com/JohnPitter/agenthub-sub003/internal/repo"
)

// Dispatcher — диспетчер внешних работ поверх Postgres и RabbitMQ.
// Реализует контракт WorkerDispatcher оркестратора.
type Dispatcher struct {
	items     *repo.WorkItemRepo
	agents    *repo.AgentRepo
	publisher *mq.Publisher
	logger    *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	Items     *repo.WorkItemRepo
	Agents    *repo.AgentRepo
	Publisher *mq.Publisher
	Logger    *slog.Logger
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		items:     cfg.Items,
		agents:    cfg.Agents,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// DispatchWork создаёт единицу работы для agent-узла и публикует
// work.ready. Возвращает ID работы для корреляции с callback'ом.
func (d *Dispatcher) DispatchWork(ctx context.Context, task *domain.Task, node *domain.Node) (uuid.UUID, error) {
	item := &domain.WorkItem{
		ID:        uuid.New(),
		TaskID:    task.ID,
		NodeID:    node.ID,
		Title:     node.Label,
		Role:      node.AgentRole,
		Status:    domain.WorkItemStatusQueued,
		CreatedAt: time.Now(),
	}

	if err := d.items.Create(ctx, item); err != nil {
		return uuid.Nil, fmt.Errorf("create work item: %w", err)
	}

	if d.publisher != nil {
		if err := d.publisher.PublishWorkReady(ctx, item); err != nil {
			// Работа уже в БД — среда агентов может забрать её оттуда
			d.logger.Warn("failed to publish work.ready",
				"work_item_id", item.ID,
				"task_id", item.TaskID,
				"error", err,
			)
		}
	}

	d.logger.Debug("work item dispatched",
		"work_item_id", item.ID,
		"task_id", item.TaskID,
		"node_id", item.NodeID,
	)

	return item.ID, nil
}

// Assign назначает конкретного агента на работу.
// Возвращает ErrAgentNotEligible, если агент не существует или неактивен.
func (d *Dispatcher) Assign(ctx context.Context, workItemID uuid.UUID, agentID string) error {
	agent, err := d.agents.GetByID(ctx, agentID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrAgentNotEligible, agentID)
	}
	if err != nil {
		return fmt.Errorf("get agent: %w", err)
	}
	if !agent.IsActive {
		return fmt.Errorf("%w: %s is inactive", ErrAgentNotEligible, agentID)
	}

	if err := d.items.SetAssignee(ctx, workItemID, agentID); err != nil {
		return fmt.Errorf("set assignee: %w", err)
	}

	if err := d.agents.SetBusy(ctx, agentID, true); err != nil {
		d.logger.Warn("failed to mark agent busy", "agent_id", agentID, "error", err)
	}

	d.logger.Debug("work item assigned",
		"work_item_id", workItemID,
		"agent_id", agentID,
	)

	return nil
}

// AutoAssign назначает любого доступного агента ("бери что есть").
func (d *Dispatcher) AutoAssign(ctx context.Context, workItemID uuid.UUID) error {
	agentID, err := d.agents.AnyActive(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNoAgentsAvailable
	}
	if err != nil {
		return fmt.Errorf("pick agent: %w", err)
	}

	return d.Assign(ctx, workItemID, agentID)
}

// IsBusy возвращает true, если агент занят другой работой.
func (d *Dispatcher) IsBusy(ctx context.Context, agentID string) (bool, error) {
	return d.agents.IsBusy(ctx, agentID)
}

// ListEligible возвращает ID активных агентов с указанной ролью.
func (d *Dispatcher) ListEligible(ctx context.Context, role string) ([]string, error) {
	return d.agents.ListActiveByRole(ctx, role)
}
