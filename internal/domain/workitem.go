package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkItem — единица внешней работы, скоррелированная с agent-узлом.
//
// WorkItem создаётся диспетчером при выполнении agent-узла.
// Оркестратор запоминает соответствие WorkItem.ID → узел и ждёт
// асинхронного сигнала о завершении. Сама работа выполняется
// внешним агентом и здесь никак не моделируется.
type WorkItem struct {
	// ID — уникальный идентификатор работы.
	ID uuid.UUID `json:"id"`

	// TaskID — задача, которую обслуживает workflow.
	TaskID uuid.UUID `json:"task_id"`

	// NodeID — ID узла графа, породившего эту работу.
	NodeID string `json:"node_id"`

	// Title — человекочитаемое описание (копия Label узла).
	Title string `json:"title"`

	// Role — требуемая роль агента (копия AgentRole узла).
	Role string `json:"role,omitempty"`

	// AssigneeID — назначенный агент. Пустая строка до назначения.
	AssigneeID string `json:"assignee_id,omitempty"`

	// Status — текущий статус работы.
	Status WorkItemStatus `json:"status"`

	// Result — результат, присланный агентом при завершении.
	// Непрозрачная строка: оркестратор только накапливает её
	// для условных узлов.
	Result string `json:"result,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// FinishedAt — время завершения. Nil, пока работа в полёте.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// MarkFinished переводит работу в финальный статус с результатом.
func (w *WorkItem) MarkFinished(status WorkItemStatus, result string) {
	now := time.Now()
	w.Status = status
	w.Result = result
	w.FinishedAt = &now
}
