package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// WorkItemRepo — репозиторий единиц внешней работы.
type WorkItemRepo struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepo создаёт новый WorkItemRepo.
func NewWorkItemRepo(pool *pgxpool.Pool) *WorkItemRepo {
	return &WorkItemRepo{pool: pool}
}

// Create сохраняет новую единицу работы.
func (r *WorkItemRepo) Create(ctx context.Context, item *domain.WorkItem) error {
	query := `
		INSERT INTO work_items (id, task_id, node_id, title, role, assignee_id, status, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.TaskID,
		item.NodeID,
		item.Title,
		item.Role,
		item.AssigneeID,
		item.Status,
		item.Result,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// GetByID возвращает единицу работы по ID.
func (r *WorkItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	query := `
		SELECT id, task_id, node_id, title, role, assignee_id, status, result, created_at, finished_at
		FROM work_items
		WHERE id = $1
	`
	var item domain.WorkItem
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.TaskID,
		&item.NodeID,
		&item.Title,
		&item.Role,
		&item.AssigneeID,
		&item.Status,
		&item.Result,
		&item.CreatedAt,
		&item.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work item by id: %w", err)
	}
	return &item, nil
}

// SetAssignee назначает исполнителя.
func (r *WorkItemRepo) SetAssignee(ctx context.Context, id uuid.UUID, assigneeID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_items SET assignee_id = $2 WHERE id = $1`,
		id, assigneeID,
	)
	if err != nil {
		return fmt.Errorf("update work item assignee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Finish переводит работу в финальный статус с результатом.
func (r *WorkItemRepo) Finish(ctx context.Context, id uuid.UUID, status domain.WorkItemStatus, result string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_items SET status = $2, result = $3, finished_at = now() WHERE id = $1`,
		id, status, result,
	)
	if err != nil {
		return fmt.Errorf("finish work item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTaskID возвращает все единицы работы задачи.
func (r *WorkItemRepo) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]domain.WorkItem, error) {
	query := `
		SELECT id, task_id, node_id, title, role, assignee_id, status, result, created_at, finished_at
		FROM work_items
		WHERE task_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		err := rows.Scan(
			&item.ID,
			&item.TaskID,
			&item.NodeID,
			&item.Title,
			&item.Role,
			&item.AssigneeID,
			&item.Status,
			&item.Result,
			&item.CreatedAt,
			&item.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
