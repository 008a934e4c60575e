package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task — задача, ради которой запускается workflow.
//
// Task живёт выше уровня оркестратора: один экземпляр выполнения
// workflow обслуживает ровно одну задачу. Оркестратор читает её
// снапшот для контекста условных узлов и переводит её по фазам
// на старте и при финализации.
type Task struct {
	// ID — уникальный идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// Title — заголовок задачи.
	Title string `json:"title"`

	// Status — текущая фаза задачи.
	Status TaskStatus `json:"status"`

	// Result — последний результат работы по задаче.
	// Попадает в контекст условных узлов под ключом "result".
	Result string `json:"result,omitempty"`

	// Category — категория задачи (ключ "category" в контексте).
	Category string `json:"category,omitempty"`

	// Priority — приоритет задачи (ключ "priority" в контексте).
	Priority string `json:"priority,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition переводит задачу в новую фазу.
func (t *Task) Transition(status TaskStatus) {
	t.Status = status
	t.UpdatedAt = time.Now()
}
