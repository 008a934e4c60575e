package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// Внешние коллабораторы оркестратора. Оркестратор принимает
// интерфейсы; эталонные реализации живут в repo, dispatch и mq.

// GraphStore загружает определения графов workflow.
// Реализация: repo.WorkflowRepo.
type GraphStore interface {
	// LoadGraph возвращает граф по ID workflow.
	// Отсутствие определения — ожидаемая ошибка, а не авария.
	LoadGraph(ctx context.Context, workflowID uuid.UUID) (*domain.WorkflowGraph, error)
}

// TaskStore — доступ к задачам-владельцам экземпляров.
// Реализация: repo.TaskRepo.
type TaskStore interface {
	// GetByID возвращает задачу по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Transition переводит задачу в новую фазу с заметкой.
	Transition(ctx context.Context, id uuid.UUID, status domain.TaskStatus, note string) error
}

// WorkerDispatcher — внешний диспетчер работ. Оркестратор вызывает
// его для agent-узлов; диспетчер отвечает асинхронным callback'ом
// о завершении (OnExternalCompletion).
// Реализация: dispatch.Dispatcher.
type WorkerDispatcher interface {
	// DispatchWork создаёт единицу внешней работы для узла
	// и возвращает её ID для корреляции.
	DispatchWork(ctx context.Context, task *domain.Task, node *domain.Node) (uuid.UUID, error)

	// Assign назначает конкретного агента; ошибка означает,
	// что агент не подходит (не существует / неактивен).
	Assign(ctx context.Context, workItemID uuid.UUID, agentID string) error

	// AutoAssign назначает любого доступного агента.
	AutoAssign(ctx context.Context, workItemID uuid.UUID) error

	// IsBusy возвращает true, если агент занят.
	IsBusy(ctx context.Context, agentID string) (bool, error)

	// ListEligible возвращает ID активных агентов с указанной ролью.
	ListEligible(ctx context.Context, role string) ([]string, error)
}

// Виды наблюдательных событий workflow.
const (
	EventStarted    = "started"
	EventDispatched = "node.dispatched"
	EventCompleted  = "completed"
	EventCancelled  = "cancelled"
	EventFailed     = "failed"
)

// EventSink — приёмник наблюдательных событий фаз workflow.
// События fire-and-forget: ошибки публикации логируются и не влияют
// на выполнение. Реализация: mq.Publisher.
type EventSink interface {
	PublishWorkflowEvent(ctx context.Context, taskID, workflowID uuid.UUID, kind, nodeID, note string) error
}
