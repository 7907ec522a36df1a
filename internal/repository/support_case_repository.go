package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
)

// SupportCaseRepository implements domain.SupportCaseRepository using PostgreSQL.
type SupportCaseRepository struct {
	pool *pgxpool.Pool
}

// NewSupportCaseRepository creates a new SupportCaseRepository.
func NewSupportCaseRepository(pool *pgxpool.Pool) *SupportCaseRepository {
	return &SupportCaseRepository{pool: pool}
}

// Create inserts a new support case.
func (r *SupportCaseRepository) Create(ctx context.Context, sc *domain.SupportCase) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO support_cases (%s) VALUES (%s)",
		SupportCaseColumns.InsertColumns(),
		SupportCaseColumns.Placeholders(),
	)

	_, err := querier(ctx, r.pool).Exec(ctx, query,
		sc.ID,
		sc.CompanyID,
		sc.CustomerID,
		sc.TicketID,
		sc.Status,
		sc.ServiceType,
		sc.PestType,
		sc.Description,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert support case: %w", err)
	}

	return nil
}

// GetByID retrieves a support case by ID.
func (r *SupportCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupportCase, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM support_cases WHERE id = $1",
		SupportCaseColumns.Select(),
	)

	sc := &domain.SupportCase{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&sc.ID,
		&sc.CompanyID,
		&sc.CustomerID,
		&sc.TicketID,
		&sc.Status,
		&sc.ServiceType,
		&sc.PestType,
		&sc.Description,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan support case: %w", err)
	}

	return sc, nil
}
