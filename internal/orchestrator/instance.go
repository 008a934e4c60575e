package orchestrator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/engine"
)

// InstanceStatus — статус экземпляра выполнения workflow.
//
// Жизненный цикл:
//
//	RUNNING → COMPLETED
//	        ↘ CANCELLED (по запросу)
//	        ↘ FAILED (только в режиме FailureHalts)
type InstanceStatus string

const (
	// InstanceStatusRunning — экземпляр выполняется.
	InstanceStatusRunning InstanceStatus = "RUNNING"

	// InstanceStatusCompleted — все узлы графа исчерпаны.
	InstanceStatusCompleted InstanceStatus = "COMPLETED"

	// InstanceStatusCancelled — выполнение остановлено по запросу.
	InstanceStatusCancelled InstanceStatus = "CANCELLED"

	// InstanceStatusFailed — остановлен из-за ошибки внешней работы
	// (режим FailureHalts).
	InstanceStatusFailed InstanceStatus = "FAILED"
)

// Instance — состояние одного выполняющегося экземпляра workflow.
//
// Экземпляр создаётся в StartInstance и удаляется из реестра при
// финализации. Все мутабельные поля защищены mu: оркестратор держит
// мьютекс на протяжении всего цикла "пометить завершённым → вычислить
// следующие узлы → проверить финализацию → выполнить следующие".
// Это делает проверку финализации и продвижение join-узлов атомарными
// относительно конкурирующих сигналов завершения.
type Instance struct {
	// TaskID — задача-владелец (ключ реестра).
	TaskID uuid.UUID

	// WorkflowID — выполняемое определение workflow.
	WorkflowID uuid.UUID

	// Task — снапшот задачи на момент старта.
	Task *domain.Task

	// Graph — индексированный неизменяемый граф.
	Graph *engine.Graph

	// mu сериализует все мутации экземпляра.
	// Порядок блокировок: mu экземпляра может быть взят раньше
	// mu реестра оркестратора, но никогда наоборот.
	mu sync.Mutex

	// status — текущий статус (под mu).
	status InstanceStatus

	// completed — ID завершённых узлов.
	completed map[string]bool

	// active — ID узлов, отправленных во внешнюю работу.
	active map[string]bool

	// pending — количество узлов текущей партии (посев входных узлов
	// или next после завершения), ещё не прошедших через execute.
	// Учитывается в idle: мгновенный узел партии, завершаясь раньше
	// своих соседей, не должен финализировать экземпляр.
	pending int

	// results — накопленные результаты узлов (ID узла → payload).
	// Используются контекстом условных узлов.
	results map[string]string

	// correlations — соответствие ID внешней работы → ID узла.
	// Запись потребляется не более одного раза.
	correlations map[uuid.UUID]string

	// initialCtx — начальный контекст, переданный при старте.
	initialCtx map[string]string
}

// NewInstance создаёт новый Instance со статусом RUNNING.
func NewInstance(task *domain.Task, workflowID uuid.UUID, graph *engine.Graph, initialCtx map[string]string) *Instance {
	return &Instance{
		TaskID:       task.ID,
		WorkflowID:   workflowID,
		Task:         task,
		Graph:        graph,
		status:       InstanceStatusRunning,
		completed:    make(map[string]bool),
		active:       make(map[string]bool),
		results:      make(map[string]string),
		correlations: make(map[uuid.UUID]string),
		initialCtx:   initialCtx,
	}
}

// --- Хелперы ниже не берут mu: их вызывает оркестратор, уже держащий блокировку. ---

// markCompleted помечает узел завершённым и снимает его с активных.
func (in *Instance) markCompleted(nodeID string) {
	in.completed[nodeID] = true
	delete(in.active, nodeID)
}

// markActive помечает узел как отправленный во внешнюю работу.
func (in *Instance) markActive(nodeID string) {
	in.active[nodeID] = true
}

// correlate запоминает соответствие работы узлу.
func (in *Instance) correlate(workItemID uuid.UUID, nodeID string) {
	in.correlations[workItemID] = nodeID
}

// consumeCorrelation атомарно потребляет корреляцию.
// Второй вызов с тем же ID вернёт false.
func (in *Instance) consumeCorrelation(workItemID uuid.UUID) (string, bool) {
	nodeID, ok := in.correlations[workItemID]
	if ok {
		delete(in.correlations, workItemID)
	}
	return nodeID, ok
}

// idle возвращает true, если нет ни работ в полёте, ни узлов
// текущей партии, ожидающих выполнения.
func (in *Instance) idle() bool {
	return len(in.active) == 0 && in.pending == 0
}

// InstanceStats — статистика экземпляра.
type InstanceStats struct {
	TotalNodes     int
	CompletedNodes int
	ActiveNodes    int
	Status         InstanceStatus
}

// Stats возвращает статистику выполнения. Безопасна для конкурентного вызова.
func (in *Instance) Stats() InstanceStats {
	in.mu.Lock()
	defer in.mu.Unlock()

	return InstanceStats{
		TotalNodes:     in.Graph.Size(),
		CompletedNodes: len(in.completed),
		ActiveNodes:    len(in.active),
		Status:         in.status,
	}
}

// Status возвращает текущий статус. Безопасен для конкурентного вызова.
func (in *Instance) Status() InstanceStatus {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status
}
