package orchestrator

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// --- Fake collaborators ---

type fakeGraphStore struct {
	graphs map[uuid.UUID]*domain.WorkflowGraph
}

func (s *fakeGraphStore) LoadGraph(_ context.Context, workflowID uuid.UUID) (*domain.WorkflowGraph, error) {
	graph, ok := s.graphs[workflowID]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return graph, nil
}

type taskTransition struct {
	status domain.TaskStatus
	note   string
}

type fakeTaskStore struct {
	tasks       map[uuid.UUID]*domain.Task
	transitions []taskTransition
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) Transition(_ context.Context, id uuid.UUID, status domain.TaskStatus, note string) error {
	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	task.Status = status
	s.transitions = append(s.transitions, taskTransition{status: status, note: note})
	return nil
}

type fakeAgent struct {
	role   string
	active bool
	busy   bool
}

type fakeDispatcher struct {
	agents map[string]fakeAgent

	// byNode — выданные work item ID по узлам (узел может быть
	// диспетчеризован несколько раз только при ошибке join-логики).
	byNode      map[string][]uuid.UUID
	assigns     map[uuid.UUID]string
	autoAssigns []uuid.UUID
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		agents:  make(map[string]fakeAgent),
		byNode:  make(map[string][]uuid.UUID),
		assigns: make(map[uuid.UUID]string),
	}
}

func (d *fakeDispatcher) DispatchWork(_ context.Context, _ *domain.Task, node *domain.Node) (uuid.UUID, error) {
	id := uuid.New()
	d.byNode[node.ID] = append(d.byNode[node.ID], id)
	return id, nil
}

func (d *fakeDispatcher) Assign(_ context.Context, workItemID uuid.UUID, agentID string) error {
	agent, ok := d.agents[agentID]
	if !ok || !agent.active {
		return ErrInstanceNotFound // любой не-nil error означает "не пригоден"
	}
	d.assigns[workItemID] = agentID
	return nil
}

func (d *fakeDispatcher) AutoAssign(_ context.Context, workItemID uuid.UUID) error {
	d.autoAssigns = append(d.autoAssigns, workItemID)
	return nil
}

func (d *fakeDispatcher) IsBusy(_ context.Context, agentID string) (bool, error) {
	return d.agents[agentID].busy, nil
}

func (d *fakeDispatcher) ListEligible(_ context.Context, role string) ([]string, error) {
	// Детерминированный порядок для тестов
	var ids []string
	for _, id := range []string{"agent-1", "agent-2", "agent-3"} {
		if agent, ok := d.agents[id]; ok && agent.active && agent.role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// workItemFor возвращает единственный work item узла.
func (d *fakeDispatcher) workItemFor(t *testing.T, nodeID string) uuid.UUID {
	t.Helper()
	items := d.byNode[nodeID]
	if len(items) != 1 {
		t.Fatalf("node %s: expected exactly 1 dispatched work item, got %d", nodeID, len(items))
	}
	return items[0]
}

// --- Test fixture ---

type testEnv struct {
	orch       *Orchestrator
	graphs     *fakeGraphStore
	tasks      *fakeTaskStore
	dispatcher *fakeDispatcher
	workflowID uuid.UUID
	taskID     uuid.UUID
}

func newTestEnv(t *testing.T, graph *domain.WorkflowGraph) *testEnv {
	t.Helper()

	workflowID := uuid.New()
	task := &domain.Task{
		ID:       uuid.New(),
		Title:    "test task",
		Status:   domain.TaskStatusPending,
		Category: "bug",
		Priority: "3",
	}

	graphs := &fakeGraphStore{graphs: map[uuid.UUID]*domain.WorkflowGraph{workflowID: graph}}
	tasks := &fakeTaskStore{tasks: map[uuid.UUID]*domain.Task{task.ID: task}}
	dispatcher := newFakeDispatcher()

	orch := New(Config{
		Graphs:     graphs,
		Tasks:      tasks,
		Dispatcher: dispatcher,
	})

	return &testEnv{
		orch:       orch,
		graphs:     graphs,
		tasks:      tasks,
		dispatcher: dispatcher,
		workflowID: workflowID,
		taskID:     task.ID,
	}
}

func agentGraphNode(id string) domain.Node {
	return domain.Node{ID: id, Kind: domain.NodeKindAgent, Label: id}
}

func graphEdge(id, source, target string) domain.Edge {
	return domain.Edge{ID: id, Source: source, Target: target}
}

// --- StartInstance ---

func TestStartInstance_UnknownWorkflow(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A")},
	})

	if env.orch.StartInstance(context.Background(), uuid.New(), env.taskID, nil) {
		t.Error("expected false for unknown workflow")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("no instance should be registered")
	}
}

func TestStartInstance_InvalidGraph(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A")},
		Edges: []domain.Edge{graphEdge("e1", "A", "ghost")},
	})

	if env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil) {
		t.Error("expected false for invalid graph")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("no instance should be registered")
	}
}

func TestStartInstance_UnknownTask(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A")},
	})

	if env.orch.StartInstance(context.Background(), env.workflowID, uuid.New(), nil) {
		t.Error("expected false for unknown task")
	}
}

func TestStartInstance_SeedsAllEntryNodes(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B")},
	})

	if !env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil) {
		t.Fatal("expected successful start")
	}

	if len(env.dispatcher.byNode["A"]) != 1 || len(env.dispatcher.byNode["B"]) != 1 {
		t.Errorf("both entry nodes should be dispatched, got %v", env.dispatcher.byNode)
	}

	stats, ok := env.orch.InstanceStats(env.taskID)
	if !ok {
		t.Fatal("instance should be registered")
	}
	if stats.ActiveNodes != 2 {
		t.Errorf("expected 2 active nodes, got %d", stats.ActiveNodes)
	}

	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusInProgress {
		t.Errorf("task should be IN_PROGRESS, got %s", env.tasks.tasks[env.taskID].Status)
	}
}

func TestStartInstance_DuplicateRejected(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A")},
	})

	ctx := context.Background()
	if !env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil) {
		t.Fatal("first start should succeed")
	}
	if env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil) {
		t.Error("second start for the same task should be rejected")
	}
}

// --- Completion protocol ---

func TestOnExternalCompletion_UnknownWorkItem(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A")},
	})

	if env.orch.OnExternalCompletion(context.Background(), uuid.New(), "result") {
		t.Error("expected false for unknown work item")
	}
}

func TestOnExternalCompletion_DuplicateIsNoOp(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B")},
		Edges: []domain.Edge{graphEdge("e1", "A", "B")},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)
	workItem := env.dispatcher.workItemFor(t, "A")

	if !env.orch.OnExternalCompletion(ctx, workItem, "done") {
		t.Fatal("first completion should be accepted")
	}
	if env.orch.OnExternalCompletion(ctx, workItem, "done") {
		t.Error("duplicate completion should be a no-op")
	}

	if len(env.dispatcher.byNode["B"]) != 1 {
		t.Errorf("B should be dispatched exactly once, got %d", len(env.dispatcher.byNode["B"]))
	}
}

func TestLinearChain_RunsToCompletion(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B"), agentGraphNode("C")},
		Edges: []domain.Edge{graphEdge("e1", "A", "B"), graphEdge("e2", "B", "C")},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)

	for _, nodeID := range []string{"A", "B", "C"} {
		workItem := env.dispatcher.workItemFor(t, nodeID)
		if !env.orch.OnExternalCompletion(ctx, workItem, "ok") {
			t.Fatalf("completion of %s should be accepted", nodeID)
		}
	}

	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("instance should be deregistered after completion")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusReview {
		t.Errorf("task should be in REVIEW, got %s", env.tasks.tasks[env.taskID].Status)
	}
}

func TestDiamond_MergeFiresExactlyOnce(t *testing.T) {
	// A → P(parallel) → B, C → M(merge) → D
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			agentGraphNode("A"),
			{ID: "P", Kind: domain.NodeKindParallel, Label: "fan-out"},
			agentGraphNode("B"),
			agentGraphNode("C"),
			{ID: "M", Kind: domain.NodeKindMerge, Label: "fan-in"},
			agentGraphNode("D"),
		},
		Edges: []domain.Edge{
			graphEdge("e1", "A", "P"),
			graphEdge("e2", "P", "B"),
			graphEdge("e3", "P", "C"),
			graphEdge("e4", "B", "M"),
			graphEdge("e5", "C", "M"),
			graphEdge("e6", "M", "D"),
		},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)

	// Завершение A мгновенно проходит parallel и раскрывает обе ветки
	env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "A"), "ok")
	if len(env.dispatcher.byNode["B"]) != 1 || len(env.dispatcher.byNode["C"]) != 1 {
		t.Fatalf("both branches should be dispatched, got %v", env.dispatcher.byNode)
	}

	// Первая ветка завершилась — merge ждёт вторую, D не диспетчеризован
	env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "B"), "ok")
	if len(env.dispatcher.byNode["D"]) != 0 {
		t.Fatal("D must not be dispatched until both merge predecessors complete")
	}
	if env.orch.ActiveInstancesCount() != 1 {
		t.Fatal("instance must not finalize while a branch is in flight")
	}

	// Вторая ветка — merge срабатывает ровно один раз
	env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "C"), "ok")
	if len(env.dispatcher.byNode["D"]) != 1 {
		t.Fatalf("D should be dispatched exactly once, got %d", len(env.dispatcher.byNode["D"]))
	}

	env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "D"), "ok")
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("instance should finalize after the last node")
	}
}

func TestStartInstance_InstantEntrySiblingOfAgentEntry(t *testing.T) {
	// Входные узлы [P(parallel), A(agent)]: P завершается мгновенно
	// при посеве, когда A ещё не диспетчеризован. Экземпляр не должен
	// финализироваться, пока A в полёте.
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "P", Kind: domain.NodeKindParallel},
			agentGraphNode("A"),
		},
	})

	ctx := context.Background()
	if !env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil) {
		t.Fatal("start should succeed")
	}

	if env.orch.ActiveInstancesCount() != 1 {
		t.Fatal("instance must stay registered while the agent entry is in flight")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusInProgress {
		t.Errorf("task must remain IN_PROGRESS, got %s", env.tasks.tasks[env.taskID].Status)
	}

	workItem := env.dispatcher.workItemFor(t, "A")
	if !env.orch.OnExternalCompletion(ctx, workItem, "ok") {
		t.Fatal("completion of the agent entry must be accepted")
	}

	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("instance should finalize after the agent entry completes")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusReview {
		t.Errorf("task should reach REVIEW, got %s", env.tasks.tasks[env.taskID].Status)
	}
}

func TestFanOut_InstantBranchSiblingOfAgentBranch(t *testing.T) {
	// A → M(merge-лист), A → B(agent): после завершения A узел M
	// завершается мгновенно раньше, чем B диспетчеризован.
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			agentGraphNode("A"),
			{ID: "M", Kind: domain.NodeKindMerge},
			agentGraphNode("B"),
		},
		Edges: []domain.Edge{
			graphEdge("e1", "A", "M"),
			graphEdge("e2", "A", "B"),
		},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)

	if !env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "A"), "ok") {
		t.Fatal("completion of A should be accepted")
	}

	if env.orch.ActiveInstancesCount() != 1 {
		t.Fatal("instance must not finalize while the agent branch is in flight")
	}
	if len(env.dispatcher.byNode["B"]) != 1 {
		t.Fatalf("B should be dispatched exactly once, got %d", len(env.dispatcher.byNode["B"]))
	}

	if !env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "B"), "ok") {
		t.Fatal("completion of B must be accepted")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("instance should finalize after the last branch")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusReview {
		t.Errorf("task should reach REVIEW, got %s", env.tasks.tasks[env.taskID].Status)
	}
}

// --- Condition nodes ---

func TestCondition_RoutesOnTaskSnapshot(t *testing.T) {
	graph := &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{
				ID:                "cond",
				Kind:              domain.NodeKindCondition,
				ConditionField:    "category",
				ConditionOperator: domain.OperatorEq,
				ConditionValue:    "bug",
			},
			agentGraphNode("X"),
			agentGraphNode("Y"),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "cond", Target: "X", Branch: domain.BranchTrue},
			{ID: "e2", Source: "cond", Target: "Y", Branch: domain.BranchFalse},
		},
	}

	// Задача фикстуры имеет category="bug" — условие истинно
	env := newTestEnv(t, graph)
	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil)

	if len(env.dispatcher.byNode["X"]) != 1 {
		t.Error("true branch X should be dispatched")
	}
	if len(env.dispatcher.byNode["Y"]) != 0 {
		t.Error("false branch Y must not be dispatched")
	}

	// Вторая фикстура: категория не совпадает — идём по ветке false
	env2 := newTestEnv(t, graph)
	env2.tasks.tasks[env2.taskID].Category = "feature"
	env2.orch.StartInstance(context.Background(), env2.workflowID, env2.taskID, nil)

	if len(env2.dispatcher.byNode["Y"]) != 1 {
		t.Error("false branch Y should be dispatched")
	}
	if len(env2.dispatcher.byNode["X"]) != 0 {
		t.Error("true branch X must not be dispatched")
	}
}

func TestCondition_ReadsAccumulatedNodeResults(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			agentGraphNode("A"),
			{
				ID:                "cond",
				Kind:              domain.NodeKindCondition,
				ConditionField:    "node.A",
				ConditionOperator: domain.OperatorContains,
				ConditionValue:    "error",
			},
			agentGraphNode("X"),
			agentGraphNode("Y"),
		},
		Edges: []domain.Edge{
			graphEdge("e1", "A", "cond"),
			{ID: "e2", Source: "cond", Target: "X", Branch: domain.BranchTrue},
			{ID: "e3", Source: "cond", Target: "Y", Branch: domain.BranchFalse},
		},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)
	env.orch.OnExternalCompletion(ctx, env.dispatcher.workItemFor(t, "A"), "build error: exit 1")

	if len(env.dispatcher.byNode["X"]) != 1 {
		t.Error("result containing 'error' should route to X")
	}
	if len(env.dispatcher.byNode["Y"]) != 0 {
		t.Error("Y must not be dispatched")
	}
}

func TestCondition_InitialContextAvailable(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{
				ID:                "cond",
				Kind:              domain.NodeKindCondition,
				ConditionField:    "env",
				ConditionOperator: domain.OperatorEq,
				ConditionValue:    "production",
			},
			agentGraphNode("X"),
			agentGraphNode("Y"),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "cond", Target: "X", Branch: domain.BranchTrue},
			{ID: "e2", Source: "cond", Target: "Y", Branch: domain.BranchFalse},
		},
	})

	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID,
		map[string]string{"env": "production"})

	if len(env.dispatcher.byNode["X"]) != 1 {
		t.Error("initial context should be visible to condition nodes")
	}
}

// --- Cancellation and failure ---

func TestCancel_StopsDispatchAndDropsCallbacks(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B")},
		Edges: []domain.Edge{graphEdge("e1", "A", "B")},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)
	workItem := env.dispatcher.workItemFor(t, "A")

	if !env.orch.Cancel(ctx, env.taskID) {
		t.Fatal("cancel should succeed for an active instance")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("cancelled instance should leave the registry")
	}

	// Поздний callback после отмены — no-op
	if env.orch.OnExternalCompletion(ctx, workItem, "ok") {
		t.Error("completion after cancel should be a no-op")
	}
	if len(env.dispatcher.byNode["B"]) != 0 {
		t.Error("no dispatch may happen after cancel")
	}

	if env.orch.Cancel(ctx, env.taskID) {
		t.Error("second cancel should return false")
	}
}

func TestFailure_AdvancesGraphByDefault(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B")},
		Edges: []domain.Edge{graphEdge("e1", "A", "B")},
	})

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)

	// Без FailureHalts ошибка — такое же завершение, как успех
	if !env.orch.OnExternalFailure(ctx, env.dispatcher.workItemFor(t, "A"), "boom") {
		t.Fatal("failure signal should be accepted")
	}
	if len(env.dispatcher.byNode["B"]) != 1 {
		t.Error("graph should advance past the failed node")
	}
}

func TestFailure_HaltsInstanceWhenConfigured(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{agentGraphNode("A"), agentGraphNode("B")},
		Edges: []domain.Edge{graphEdge("e1", "A", "B")},
	})
	env.orch.failureHalts = true

	ctx := context.Background()
	env.orch.StartInstance(ctx, env.workflowID, env.taskID, nil)

	if !env.orch.OnExternalFailure(ctx, env.dispatcher.workItemFor(t, "A"), "boom") {
		t.Fatal("failure signal should be accepted")
	}

	if len(env.dispatcher.byNode["B"]) != 0 {
		t.Error("no dispatch may happen after a halting failure")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("failed instance should leave the registry")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusBlocked {
		t.Errorf("task should be BLOCKED, got %s", env.tasks.tasks[env.taskID].Status)
	}
}

// --- Assignee resolution ---

func TestResolveAssignee_ExplicitAgentPreferred(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "A", Kind: domain.NodeKindAgent, Label: "A", AgentID: "agent-1"},
		},
	})
	env.dispatcher.agents["agent-1"] = fakeAgent{role: "builder", active: true}

	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil)

	workItem := env.dispatcher.workItemFor(t, "A")
	if env.dispatcher.assigns[workItem] != "agent-1" {
		t.Errorf("expected explicit assignment to agent-1, got %q", env.dispatcher.assigns[workItem])
	}
	if len(env.dispatcher.autoAssigns) != 0 {
		t.Error("auto-assign must not be called when explicit assignment succeeded")
	}
}

func TestResolveAssignee_RoleHintPrefersIdleAgent(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "A", Kind: domain.NodeKindAgent, Label: "A", AgentRole: "reviewer"},
		},
	})
	env.dispatcher.agents["agent-1"] = fakeAgent{role: "reviewer", active: true, busy: true}
	env.dispatcher.agents["agent-2"] = fakeAgent{role: "reviewer", active: true, busy: false}

	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil)

	workItem := env.dispatcher.workItemFor(t, "A")
	if env.dispatcher.assigns[workItem] != "agent-2" {
		t.Errorf("expected idle agent-2, got %q", env.dispatcher.assigns[workItem])
	}
}

func TestResolveAssignee_RoleHintFallsBackToBusyAgent(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "A", Kind: domain.NodeKindAgent, Label: "A", AgentRole: "reviewer"},
		},
	})
	env.dispatcher.agents["agent-1"] = fakeAgent{role: "reviewer", active: true, busy: true}

	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil)

	workItem := env.dispatcher.workItemFor(t, "A")
	if env.dispatcher.assigns[workItem] != "agent-1" {
		t.Errorf("expected busy agent-1 as fallback, got %q", env.dispatcher.assigns[workItem])
	}
}

func TestResolveAssignee_AutoAssignWhenNothingMatches(t *testing.T) {
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "A", Kind: domain.NodeKindAgent, Label: "A", AgentID: "ghost", AgentRole: "missing"},
		},
	})

	env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil)

	if len(env.dispatcher.autoAssigns) != 1 {
		t.Errorf("expected exactly one auto-assign, got %d", len(env.dispatcher.autoAssigns))
	}
}

// --- Structural-only graphs ---

func TestStructuralGraph_FinalizesImmediately(t *testing.T) {
	// Граф из одних структурных узлов исчерпывается синхронно в StartInstance
	env := newTestEnv(t, &domain.WorkflowGraph{
		Nodes: []domain.Node{
			{ID: "P", Kind: domain.NodeKindParallel},
			{ID: "M", Kind: domain.NodeKindMerge},
		},
		Edges: []domain.Edge{graphEdge("e1", "P", "M")},
	})

	if !env.orch.StartInstance(context.Background(), env.workflowID, env.taskID, nil) {
		t.Fatal("start should succeed")
	}
	if env.orch.ActiveInstancesCount() != 0 {
		t.Error("structural-only instance should finalize during seeding")
	}
	if env.tasks.tasks[env.taskID].Status != domain.TaskStatusReview {
		t.Errorf("task should reach REVIEW, got %s", env.tasks.tasks[env.taskID].Status)
	}
}
