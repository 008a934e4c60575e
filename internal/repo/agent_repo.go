package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// AgentRepo — репозиторий реестра агентов.
type AgentRepo struct {
	pool *pgxpool.Pool
}

// NewAgentRepo создаёт новый AgentRepo.
func NewAgentRepo(pool *pgxpool.Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

// GetByID возвращает агента по ID.
func (r *AgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	query := `
		SELECT id, name, role, is_active, busy, created_at
		FROM agents
		WHERE id = $1
	`
	var agent domain.Agent
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&agent.ID,
		&agent.Name,
		&agent.Role,
		&agent.IsActive,
		&agent.Busy,
		&agent.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent by id: %w", err)
	}
	return &agent, nil
}

// ListActiveByRole возвращает ID активных агентов с указанной ролью.
func (r *AgentRepo) ListActiveByRole(ctx context.Context, role string) ([]string, error) {
	query := `
		SELECT id
		FROM agents
		WHERE role = $1 AND is_active = true
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list agents by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan agent id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AnyActive возвращает ID любого активного агента, предпочитая свободного.
func (r *AgentRepo) AnyActive(ctx context.Context) (string, error) {
	query := `
		SELECT id
		FROM agents
		WHERE is_active = true
		ORDER BY busy, created_at
		LIMIT 1
	`
	var id string
	err := r.pool.QueryRow(ctx, query).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pick any active agent: %w", err)
	}
	return id, nil
}

// IsBusy возвращает true, если агент занят.
// Неизвестный агент считается занятым.
func (r *AgentRepo) IsBusy(ctx context.Context, id string) (bool, error) {
	agent, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return agent.Busy, nil
}

// SetBusy выставляет флаг занятости агента.
func (r *AgentRepo) SetBusy(ctx context.Context, id string, busy bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agents SET busy = $2 WHERE id = $1`,
		id, busy,
	)
	if err != nil {
		return fmt.Errorf("update agent busy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
