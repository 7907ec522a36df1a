package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
)

// AgentRepository implements domain.AgentRepository using PostgreSQL.
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// GetActiveByAgentID retrieves an active agent by the provider's agent ID.
// Inactive agents are invisible here so decommissioned agents stop routing
// calls without losing their history.
func (r *AgentRepository) GetActiveByAgentID(ctx context.Context, agentID string) (*domain.Agent, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM agents WHERE agent_id = $1 AND is_active = true",
		AgentColumns.Select(),
	)

	agent := &domain.Agent{}
	err := r.pool.QueryRow(ctx, query, agentID).Scan(
		&agent.ID,
		&agent.AgentID,
		&agent.CompanyID,
		&agent.Direction,
		&agent.PhoneNumber,
		&agent.IsActive,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	return agent, nil
}
