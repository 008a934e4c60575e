package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrWorkflowNotFound — определение workflow не найдено.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrTaskNotFound — задача-владелец не найдена.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInstanceAlreadyActive — для задачи уже выполняется экземпляр.
	ErrInstanceAlreadyActive = errors.New("instance already active for task")

	// ErrInstanceNotFound — активный экземпляр не найден.
	ErrInstanceNotFound = errors.New("instance not found")
)
