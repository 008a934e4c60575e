package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/engine"
	"github.com/JohnPitter/agenthub-sub003/internal/mq"
	"github.com/JohnPitter/agenthub-sub003/internal/telemetry"
)

// Orchestrator управляет выполнением экземпляров workflow.
//
// Центральный компонент системы:
//   - Запускает экземпляры по запросу вызывающей стороны
//   - Получает сигналы work.completed из RabbitMQ (event-driven, без polling)
//   - Продвигает граф каждого экземпляра через движок engine
//   - Финализирует экземпляры и переводит задачи-владельцев по фазам
//
// Один Orchestrator создаётся на процесс и передаётся по ссылке —
// глобального состояния нет.
type Orchestrator struct {
	// Коллабораторы
	graphs     GraphStore
	tasks      TaskStore
	dispatcher WorkerDispatcher
	events     EventSink

	// MQ (опционально: без соединения callbacks зовутся напрямую)
	conn         *mq.Connection
	workConsumer *mq.Consumer

	// FailureHalts: ошибочное завершение внешней работы останавливает
	// экземпляр вместо обычного продвижения графа.
	failureHalts bool

	// Реестр активных экземпляров (task_id → Instance) и индекс
	// корреляций (work_item_id → task_id). Оба под mu.
	instances    map[uuid.UUID]*Instance
	correlations map[uuid.UUID]uuid.UUID
	mu           sync.RWMutex

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Коллабораторы (обязательные)
	Graphs     GraphStore
	Tasks      TaskStore
	Dispatcher WorkerDispatcher

	// Events — приёмник наблюдательных событий (опционально).
	Events EventSink

	// Conn — соединение с RabbitMQ для потребления work.completed.
	// Nil допустим: тогда завершения доставляются только прямыми
	// вызовами OnExternalCompletion.
	Conn *mq.Connection

	// FailureHalts включает режим "ошибка работы останавливает workflow".
	// По умолчанию выключен: любое завершение, успех или ошибка,
	// одинаково продвигает граф.
	FailureHalts bool

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		graphs:       cfg.Graphs,
		tasks:        cfg.Tasks,
		dispatcher:   cfg.Dispatcher,
		events:       cfg.Events,
		conn:         cfg.Conn,
		failureHalts: cfg.FailureHalts,
		instances:    make(map[uuid.UUID]*Instance),
		correlations: make(map[uuid.UUID]uuid.UUID),
		logger:       logger,
	}
}

// Start запускает потребление сигналов work.completed.
// Без MQ соединения просто no-op: оркестратор остаётся доступным
// для прямых вызовов.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	if o.conn == nil {
		o.logger.Info("orchestrator started without MQ, direct callbacks only")
		return nil
	}

	o.workConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueWorkCompleted),
		Handler:  o.handleWorkCompleted,
		Prefetch: 10,
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.workConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("work consumer error", "error", err)
		}
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator.
func (o *Orchestrator) Stop() {
	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}
	if o.workConsumer != nil {
		o.workConsumer.Stop()
	}

	o.wg.Wait()

	o.logger.Info("orchestrator stopped",
		"active_instances", o.ActiveInstancesCount(),
	)
}

// StartInstance запускает выполнение workflow для задачи.
//
// Последовательность:
//  1. Загрузка графа; отсутствие определения — отказ.
//  2. Структурная валидация; каждая ошибка логируется.
//  3. Разрешение задачи-владельца.
//  4. Регистрация экземпляра в реестре.
//  5. Перевод задачи в IN_PROGRESS + событие started.
//  6. Посев всех входных узлов.
//
// Возвращает true сразу после посева: завершения графа метод не ждёт.
func (o *Orchestrator) StartInstance(ctx context.Context, workflowID, taskID uuid.UUID, initialCtx map[string]string) bool {
	logger := telemetry.WithTaskID(telemetry.WithWorkflowID(o.logger, workflowID.String()), taskID.String())

	spec, err := o.graphs.LoadGraph(ctx, workflowID)
	if err != nil {
		logger.Warn("workflow graph not available", "error", err)
		return false
	}

	graph := engine.NewGraph(spec)
	if result := engine.Validate(graph); !result.Valid() {
		for _, msg := range result.Errors {
			logger.Warn("graph validation error", "error", msg)
		}
		return false
	}

	task, err := o.tasks.GetByID(ctx, taskID)
	if err != nil {
		logger.Warn("task not found", "error", err)
		return false
	}

	inst := NewInstance(task, workflowID, graph, initialCtx)
	if err := o.register(inst); err != nil {
		logger.Warn("instance not registered", "error", err)
		return false
	}

	if err := o.tasks.Transition(ctx, taskID, domain.TaskStatusInProgress, "workflow started"); err != nil {
		logger.Warn("failed to transition task", "error", err)
	}
	o.emit(ctx, inst, EventStarted, "", "workflow started")

	telemetry.InstancesStarted.Inc()

	logger.Info("instance started", "nodes", graph.Size())

	// Посев входных узлов под мьютексом экземпляра: завершения
	// мгновенных узлов не должны гоняться с самим посевом. Вся партия
	// входных узлов заранее учитывается в pending — мгновенный входной
	// узел не должен финализировать экземпляр, пока его agent-соседи
	// не диспетчеризованы.
	inst.mu.Lock()
	defer inst.mu.Unlock()
	entries := graph.EntryNodes()
	inst.pending = len(entries)
	for _, node := range entries {
		inst.pending--
		o.executeLocked(ctx, inst, node)
	}

	return true
}

// OnExternalCompletion — точка повторного входа: внешний диспетчер
// сообщает о завершении работы.
//
// Неизвестная или уже потреблённая корреляция — не ошибка, а no-op
// (поздний или повторный callback): возвращается false.
func (o *Orchestrator) OnExternalCompletion(ctx context.Context, workItemID uuid.UUID, result string) bool {
	inst := o.instanceByWorkItem(workItemID)
	if inst == nil {
		o.logger.Debug("completion for unknown work item", "work_item_id", workItemID)
		telemetry.DroppedCompletions.Inc()
		return false
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.status != InstanceStatusRunning {
		telemetry.DroppedCompletions.Inc()
		return false
	}

	nodeID, ok := inst.consumeCorrelation(workItemID)
	if !ok {
		telemetry.DroppedCompletions.Inc()
		return false
	}
	o.removeCorrelation(workItemID)

	if result != "" {
		inst.results[nodeID] = result
	}

	o.logger.Debug("work item completed",
		"work_item_id", workItemID,
		"task_id", inst.TaskID,
		"node_id", nodeID,
	)

	o.completeLocked(ctx, inst, nodeID, nil)
	return true
}

// OnExternalFailure — сигнал об ошибочном завершении работы.
//
// По умолчанию ошибка неотличима от успеха: payload (текст ошибки)
// записывается как результат узла, граф продвигается как обычно.
// В режиме FailureHalts экземпляр останавливается: задача-владелец
// переводится в BLOCKED, дальнейшая диспетчеризация прекращается,
// оставшиеся callbacks этого экземпляра становятся no-op.
func (o *Orchestrator) OnExternalFailure(ctx context.Context, workItemID uuid.UUID, errMsg string) bool {
	if !o.failureHalts {
		return o.OnExternalCompletion(ctx, workItemID, errMsg)
	}

	inst := o.instanceByWorkItem(workItemID)
	if inst == nil {
		telemetry.DroppedCompletions.Inc()
		return false
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.status != InstanceStatusRunning {
		return false
	}

	nodeID, ok := inst.consumeCorrelation(workItemID)
	if !ok {
		return false
	}
	o.removeCorrelation(workItemID)

	inst.status = InstanceStatusFailed
	o.deregister(inst)

	if err := o.tasks.Transition(ctx, inst.TaskID, domain.TaskStatusBlocked, "workflow failed: "+errMsg); err != nil {
		o.logger.Warn("failed to transition task", "task_id", inst.TaskID, "error", err)
	}
	o.emit(ctx, inst, EventFailed, nodeID, errMsg)

	telemetry.InstancesFinished.WithLabelValues(string(InstanceStatusFailed)).Inc()

	o.logger.Warn("instance failed",
		"task_id", inst.TaskID,
		"node_id", nodeID,
		"error", errMsg,
	)

	return true
}

// Cancel останавливает экземпляр: дальнейшая диспетчеризация
// прекращается, все непотреблённые корреляции сбрасываются, так что
// поздние callbacks становятся no-op. Возвращает false, если
// активного экземпляра для задачи нет.
func (o *Orchestrator) Cancel(ctx context.Context, taskID uuid.UUID) bool {
	o.mu.RLock()
	inst := o.instances[taskID]
	o.mu.RUnlock()

	if inst == nil {
		return false
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.status != InstanceStatusRunning {
		return false
	}

	inst.status = InstanceStatusCancelled
	o.deregister(inst)

	o.emit(ctx, inst, EventCancelled, "", "workflow cancelled")
	telemetry.InstancesFinished.WithLabelValues(string(InstanceStatusCancelled)).Inc()

	o.logger.Info("instance cancelled", "task_id", taskID)
	return true
}

// --- Реестр ---

// register добавляет экземпляр в реестр.
func (o *Orchestrator) register(inst *Instance) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.instances[inst.TaskID]; exists {
		return ErrInstanceAlreadyActive
	}

	o.instances[inst.TaskID] = inst
	telemetry.ActiveInstances.Set(float64(len(o.instances)))
	return nil
}

// deregister удаляет экземпляр и все его корреляции из реестра.
// Вызывается под mu экземпляра (порядок блокировок: instance → registry).
func (o *Orchestrator) deregister(inst *Instance) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.instances, inst.TaskID)
	for workItemID := range inst.correlations {
		delete(o.correlations, workItemID)
	}
	telemetry.ActiveInstances.Set(float64(len(o.instances)))
}

// addCorrelation добавляет корреляцию в глобальный индекс.
func (o *Orchestrator) addCorrelation(workItemID, taskID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.correlations[workItemID] = taskID
}

// removeCorrelation удаляет корреляцию из глобального индекса.
func (o *Orchestrator) removeCorrelation(workItemID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.correlations, workItemID)
}

// instanceByWorkItem находит экземпляр по ID внешней работы.
// Мьютекс реестра отпускается до захвата мьютекса экземпляра.
func (o *Orchestrator) instanceByWorkItem(workItemID uuid.UUID) *Instance {
	o.mu.RLock()
	defer o.mu.RUnlock()

	taskID, ok := o.correlations[workItemID]
	if !ok {
		return nil
	}
	return o.instances[taskID]
}

// InstanceStats возвращает статистику активного экземпляра.
func (o *Orchestrator) InstanceStats(taskID uuid.UUID) (InstanceStats, bool) {
	o.mu.RLock()
	inst := o.instances[taskID]
	o.mu.RUnlock()

	if inst == nil {
		return InstanceStats{}, false
	}
	return inst.Stats(), true
}

// ActiveInstancesCount возвращает количество активных экземпляров.
func (o *Orchestrator) ActiveInstancesCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.instances)
}

// emit отправляет наблюдательное событие, если приёмник настроен.
func (o *Orchestrator) emit(ctx context.Context, inst *Instance, kind, nodeID, note string) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishWorkflowEvent(ctx, inst.TaskID, inst.WorkflowID, kind, nodeID, note); err != nil {
		o.logger.Debug("failed to publish workflow event",
			"task_id", inst.TaskID,
			"kind", kind,
			"error", err,
		)
	}
}
