package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// TaskRepo — репозиторий задач (владельцев экземпляров workflow).
//
// Помимо строки задачи ведётся append-only журнал task_events:
// каждая смена фазы записывается с человекочитаемой заметкой.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Create сохраняет новую задачу.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, status, result, category, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Status,
		task.Result,
		task.Category,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID возвращает задачу по ID.
// Реализует часть контракта TaskStore оркестратора.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, title, status, result, category, priority, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	var task domain.Task
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Status,
		&task.Result,
		&task.Category,
		&task.Priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

// Transition переводит задачу в новую фазу и пишет событие в журнал.
// Реализует часть контракта TaskStore оркестратора.
func (r *TaskRepo) Transition(ctx context.Context, id uuid.UUID, status domain.TaskStatus, note string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	tag, err := tx.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, now,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO task_events (id, task_id, status, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), id, status, note, now,
	)
	if err != nil {
		return fmt.Errorf("insert task event: %w", err)
	}

	return tx.Commit(ctx)
}

// SetResult записывает последний результат работы по задаче.
func (r *TaskRepo) SetResult(ctx context.Context, id uuid.UUID, result string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET result = $2, updated_at = $3 WHERE id = $1`,
		id, result, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update task result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
