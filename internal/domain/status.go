package domain

// TaskStatus — фаза задачи.
//
// Жизненный цикл:
//
//	PENDING → IN_PROGRESS → REVIEW → DONE
//	                      ↘ BLOCKED (при фатальном исходе работы)
type TaskStatus string

const (
	// TaskStatusPending — задача создана, workflow ещё не запущен.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusInProgress — по задаче выполняется workflow.
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"

	// TaskStatusReview — workflow завершён, задача ждёт проверки.
	TaskStatusReview TaskStatus = "REVIEW"

	// TaskStatusDone — задача закрыта.
	TaskStatusDone TaskStatus = "DONE"

	// TaskStatusBlocked — выполнение остановлено из-за ошибки.
	TaskStatusBlocked TaskStatus = "BLOCKED"
)

// IsTerminal возвращает true, если фаза финальная.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusDone, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// WorkItemStatus — статус единицы работы агента.
//
// Жизненный цикл:
//
//	QUEUED → RUNNING → SUCCEEDED
//	                 ↘ FAILED
type WorkItemStatus string

const (
	// WorkItemStatusQueued — работа создана, ожидает агента.
	WorkItemStatusQueued WorkItemStatus = "QUEUED"

	// WorkItemStatusRunning — агент выполняет работу.
	WorkItemStatusRunning WorkItemStatus = "RUNNING"

	// WorkItemStatusSucceeded — работа успешно завершена.
	WorkItemStatusSucceeded WorkItemStatus = "SUCCEEDED"

	// WorkItemStatusFailed — работа завершилась с ошибкой.
	WorkItemStatusFailed WorkItemStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s WorkItemStatus) IsTerminal() bool {
	switch s {
	case WorkItemStatusSucceeded, WorkItemStatusFailed:
		return true
	default:
		return false
	}
}
