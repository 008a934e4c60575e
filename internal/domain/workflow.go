package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — сохранённое определение workflow.
//
// Workflow — это "шаблон": описание графа шагов, который можно
// выполнять многократно против разных задач (Task).
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — имя workflow для удобной идентификации.
	Name string `json:"name"`

	// Graph — граф узлов и рёбер.
	Graph WorkflowGraph `json:"graph"`

	// IsActive — флаг активности. Неактивные workflows не запускаются.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
