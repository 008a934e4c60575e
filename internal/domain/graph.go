package domain

import "encoding/json"

// NodeKind — тип узла в графе workflow.
type NodeKind string

const (
	// NodeKindAgent — рабочий узел: внешний агент выполняет работу.
	NodeKindAgent NodeKind = "agent"

	// NodeKindCondition — условный узел: выбирает ветку по полю контекста.
	NodeKindCondition NodeKind = "condition"

	// NodeKindParallel — структурный узел разветвления (fan-out).
	// Не несёт работы, завершается мгновенно.
	NodeKindParallel NodeKind = "parallel"

	// NodeKindMerge — структурный узел слияния (fan-in).
	// Становится готовым только когда завершены все предшественники.
	NodeKindMerge NodeKind = "merge"
)

// ConditionOperator — оператор сравнения в условном узле.
type ConditionOperator string

const (
	OperatorEq          ConditionOperator = "eq"
	OperatorNeq         ConditionOperator = "neq"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorGt          ConditionOperator = "gt"
	OperatorLt          ConditionOperator = "lt"
)

// Значения метки ветки на исходящих рёбрах условного узла.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// Node — узел графа workflow.
//
// Набор заполненных полей зависит от Kind:
//   - agent:     AgentID и/или AgentRole (оба опциональны)
//   - condition: ConditionField, ConditionOperator, ConditionValue —
//     должны присутствовать вместе, иначе узел деградирует
//     до условия, всегда дающего "false"
//   - parallel, merge: только ID и Label
type Node struct {
	// ID — уникальный идентификатор узла в рамках графа.
	ID string `json:"id"`

	// Kind — тип узла.
	Kind NodeKind `json:"type"`

	// Label — отображаемое имя. Алгоритмы его не используют.
	Label string `json:"label"`

	// AgentID — явно назначенный агент (для agent-узлов).
	AgentID string `json:"agentId,omitempty"`

	// AgentRole — роль агента для подбора исполнителя (для agent-узлов).
	AgentRole string `json:"agentRole,omitempty"`

	// ConditionField — имя поля контекста решения (для condition-узлов).
	ConditionField string `json:"conditionField,omitempty"`

	// ConditionOperator — оператор сравнения (для condition-узлов).
	ConditionOperator ConditionOperator `json:"conditionOperator,omitempty"`

	// ConditionValue — операнд сравнения, всегда строка (для condition-узлов).
	ConditionValue string `json:"conditionValue,omitempty"`

	// Position — координаты в редакторе. Только для отображения,
	// движок это поле игнорирует.
	Position json.RawMessage `json:"position,omitempty"`
}

// Edge — направленное ребро графа: Source → Target.
type Edge struct {
	// ID — уникальный идентификатор ребра.
	ID string `json:"id"`

	// Source — ID узла-источника.
	Source string `json:"source"`

	// Target — ID узла-приёмника.
	Target string `json:"target"`

	// Branch — метка ветки ("true"/"false").
	// Учитывается только когда Source — condition-узел.
	Branch string `json:"conditionBranch,omitempty"`
}

// WorkflowGraph — авторский шаблон графа, как он хранится в JSONB.
//
// Граф неизменяем во время выполнения: оркестратор читает его,
// но никогда не модифицирует.
type WorkflowGraph struct {
	// Nodes — узлы графа.
	Nodes []Node `json:"nodes"`

	// Edges — рёбра графа.
	Edges []Edge `json:"edges"`
}
