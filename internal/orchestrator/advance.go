package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/engine"
	"github.com/JohnPitter/agenthub-sub003/internal/telemetry"
)

// Продвижение графа. Все функции файла вызываются строго под mu
// экземпляра: цикл "завершить узел → вычислить следующие → проверить
// финализацию → выполнить следующие" обязан быть атомарным, иначе два
// конкурирующих завершения веток fan-out могут дважды поджечь merge
// или оба пропустить финализацию.

// executeLocked выполняет узел в зависимости от его типа.
//
//   - agent: создаётся внешняя работа, узел становится активным,
//     подбирается исполнитель; дальше экземпляр ждёт callback.
//   - parallel, merge: чисто структурные узлы, работы не несут —
//     мгновенно завершаются, продвигая граф дальше.
//   - condition: собирается контекст решения и узел мгновенно
//     завершается с ним; условия никогда не ждут внешнюю работу.
func (o *Orchestrator) executeLocked(ctx context.Context, inst *Instance, node *domain.Node) {
	switch node.Kind {
	case domain.NodeKindAgent:
		o.dispatchLocked(ctx, inst, node)

	case domain.NodeKindParallel, domain.NodeKindMerge:
		o.completeLocked(ctx, inst, node.ID, nil)

	case domain.NodeKindCondition:
		decision := o.decisionContext(ctx, inst)
		o.completeLocked(ctx, inst, node.ID, decision)

	default:
		o.logger.Warn("unknown node kind, skipping",
			"task_id", inst.TaskID,
			"node_id", node.ID,
			"kind", node.Kind,
		)
	}
}

// dispatchLocked отправляет agent-узел во внешнюю работу.
func (o *Orchestrator) dispatchLocked(ctx context.Context, inst *Instance, node *domain.Node) {
	logger := telemetry.WithNodeID(telemetry.WithTaskID(o.logger, inst.TaskID.String()), node.ID)

	workItemID, err := o.dispatcher.DispatchWork(ctx, inst.Task, node)
	if err != nil {
		// Узел не становится активным: без работы ждать нечего.
		logger.Error("failed to dispatch work", "error", err)
		return
	}

	inst.markActive(node.ID)
	inst.correlate(workItemID, node.ID)
	o.addCorrelation(workItemID, inst.TaskID)

	o.resolveAssignee(ctx, inst, workItemID, node)

	o.emit(ctx, inst, EventDispatched, node.ID, node.Label)
	telemetry.NodesDispatched.Inc()

	logger.Debug("node dispatched", "work_item_id", workItemID)
}

// resolveAssignee подбирает исполнителя для работы.
//
// Порядок:
//  1. Явный AgentID узла, если агент всё ещё пригоден.
//  2. Подбор по роли AgentRole: среди активных агентов роли
//     предпочитается свободный, иначе любой подходящий.
//  3. Авто-назначение ("бери что есть") у диспетчера.
//
// Вызывается не более одного назначения: либо явное, либо авто.
func (o *Orchestrator) resolveAssignee(ctx context.Context, inst *Instance, workItemID uuid.UUID, node *domain.Node) {
	if node.AgentID != "" {
		err := o.dispatcher.Assign(ctx, workItemID, node.AgentID)
		if err == nil {
			return
		}
		o.logger.Warn("explicit assignee not eligible, falling back",
			"task_id", inst.TaskID,
			"node_id", node.ID,
			"agent_id", node.AgentID,
			"error", err,
		)
	}

	if node.AgentRole != "" {
		if agentID := o.pickByRole(ctx, node.AgentRole); agentID != "" {
			if err := o.dispatcher.Assign(ctx, workItemID, agentID); err == nil {
				return
			}
			o.logger.Warn("role candidate assignment failed",
				"task_id", inst.TaskID,
				"node_id", node.ID,
				"agent_id", agentID,
			)
		}
	}

	if err := o.dispatcher.AutoAssign(ctx, workItemID); err != nil {
		o.logger.Warn("auto-assign failed, work item left unassigned",
			"task_id", inst.TaskID,
			"node_id", node.ID,
			"error", err,
		)
	}
}

// pickByRole возвращает ID активного агента роли, предпочитая свободного.
// Пустая строка — подходящих агентов нет.
func (o *Orchestrator) pickByRole(ctx context.Context, role string) string {
	ids, err := o.dispatcher.ListEligible(ctx, role)
	if err != nil || len(ids) == 0 {
		return ""
	}

	for _, id := range ids {
		busy, err := o.dispatcher.IsBusy(ctx, id)
		if err == nil && !busy {
			return id
		}
	}
	return ids[0]
}

// decisionContext собирает контекст решения для условного узла.
//
// Слои (поздние перекрывают ранние):
//  1. Начальный контекст, переданный при старте экземпляра.
//  2. Свежий снапшот задачи-владельца: status, result, category,
//     priority. При недоступности хранилища берётся снапшот старта.
//  3. Накопленные результаты узлов под ключами "node.<id>" —
//     пространство имён исключает коллизии с полями задачи.
func (o *Orchestrator) decisionContext(ctx context.Context, inst *Instance) map[string]string {
	decision := make(map[string]string, len(inst.initialCtx)+len(inst.results)+4)

	for k, v := range inst.initialCtx {
		decision[k] = v
	}

	task, err := o.tasks.GetByID(ctx, inst.TaskID)
	if err != nil {
		task = inst.Task
	}
	decision["status"] = string(task.Status)
	decision["result"] = task.Result
	decision["category"] = task.Category
	decision["priority"] = task.Priority

	for nodeID, result := range inst.results {
		decision["node."+nodeID] = result
	}

	return decision
}

// completeLocked завершает узел и продвигает граф.
//
// Последовательность (атомарная под mu экземпляра):
//  1. Узел помечается завершённым и снимается с активных.
//  2. engine.NextNodes вычисляет новые готовые узлы.
//  3. Если готовых нет И экземпляр idle — он исчерпан: финализация.
//     idle учитывает и активные узлы других веток fan-out, и ещё не
//     выполненные узлы текущей партии.
//  4. Иначе каждый готовый узел выполняется — так fan-out продолжает
//     раскрываться вглубь графа.
//
// Вся партия next засчитывается в pending до выполнения первого её
// узла: мгновенный узел (parallel/merge-лист, condition), завершаясь
// раньше agent-соседа по партии, иначе увидел бы пустой active и
// финализировал экземпляр до диспетчеризации соседа.
func (o *Orchestrator) completeLocked(ctx context.Context, inst *Instance, nodeID string, decision map[string]string) {
	inst.markCompleted(nodeID)

	next := engine.NextNodes(inst.Graph, inst.completed, nodeID, decision)

	if len(next) == 0 && inst.idle() {
		o.finalizeLocked(ctx, inst)
		return
	}

	inst.pending += len(next)
	for _, id := range next {
		inst.pending--
		node := inst.Graph.Node(id)
		if node == nil {
			continue
		}
		o.executeLocked(ctx, inst, node)
	}
}

// finalizeLocked завершает экземпляр: статус COMPLETED, удаление из
// реестра, перевод задачи-владельца в фазу REVIEW.
func (o *Orchestrator) finalizeLocked(ctx context.Context, inst *Instance) {
	if inst.status != InstanceStatusRunning {
		return
	}

	inst.status = InstanceStatusCompleted
	o.deregister(inst)

	if err := o.tasks.Transition(ctx, inst.TaskID, domain.TaskStatusReview, "workflow completed"); err != nil {
		o.logger.Warn("failed to transition task on completion",
			"task_id", inst.TaskID,
			"error", err,
		)
	}
	o.emit(ctx, inst, EventCompleted, "", "workflow completed")

	telemetry.InstancesFinished.WithLabelValues(string(InstanceStatusCompleted)).Inc()

	o.logger.Info("instance completed",
		"task_id", inst.TaskID,
		"workflow_id", inst.WorkflowID,
		"nodes_completed", len(inst.completed),
	)
}
