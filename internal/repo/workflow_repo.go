package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// WorkflowRepo — репозиторий определений workflow.
//
// Граф хранится как JSONB документ {nodes: [...], edges: [...]}.
// При чтении форма документа проверяется: на некорректном JSON
// LoadGraph возвращает ErrMalformedGraph, а не проносит мусор
// вглубь движка.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Create сохраняет новое определение workflow.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	graph, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, graph, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		graph,
		wf.IsActive,
		wf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, name, graph, is_active, created_at
		FROM workflows
		WHERE id = $1
	`
	var wf domain.Workflow
	var graph []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&wf.ID,
		&wf.Name,
		&graph,
		&wf.IsActive,
		&wf.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by id: %w", err)
	}

	parsed, err := parseGraph(graph)
	if err != nil {
		return nil, err
	}
	wf.Graph = *parsed

	return &wf, nil
}

// LoadGraph возвращает граф workflow по ID.
// Реализует контракт GraphStore оркестратора.
func (r *WorkflowRepo) LoadGraph(ctx context.Context, workflowID uuid.UUID) (*domain.WorkflowGraph, error) {
	query := `
		SELECT graph
		FROM workflows
		WHERE id = $1 AND is_active = true
	`
	var graph []byte
	err := r.pool.QueryRow(ctx, query, workflowID).Scan(&graph)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	return parseGraph(graph)
}

// List возвращает все определения workflow.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, name, graph, is_active, created_at
		FROM workflows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		var graph []byte
		if err := rows.Scan(&wf.ID, &wf.Name, &graph, &wf.IsActive, &wf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		parsed, err := parseGraph(graph)
		if err != nil {
			return nil, err
		}
		wf.Graph = *parsed
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// parseGraph десериализует JSONB документ графа с проверкой формы.
func parseGraph(raw []byte) (*domain.WorkflowGraph, error) {
	var graph domain.WorkflowGraph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	if graph.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes array", ErrMalformedGraph)
	}
	return &graph, nil
}
