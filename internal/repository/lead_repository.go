package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
)

// LeadRepository implements domain.LeadRepository using PostgreSQL.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Create inserts a new lead.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO leads (%s) VALUES (%s)",
		LeadColumns.InsertColumns(),
		LeadColumns.Placeholders(),
	)

	_, err := querier(ctx, r.pool).Exec(ctx, query, r.args(lead)...)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// GetByID retrieves a lead by ID.
func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE id = $1",
		LeadColumns.Select(),
	)

	lead := &domain.Lead{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, id).Scan(r.dest(lead)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	return lead, nil
}

// Update updates an existing lead.
func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	lead.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $1",
		LeadColumns.UpdateSet(),
	)

	result, err := querier(ctx, r.pool).Exec(ctx, query, r.args(lead)...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves leads for a company, newest first, with optional filters.
func (r *LeadRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where := "company_id = $1"
	args := []interface{}{companyID}

	if filter != nil {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			where += fmt.Sprintf(" AND lead_status = $%d", len(args))
		}
		if search := filter.Search; search != "" {
			args = append(args, "%"+search+"%")
			where += fmt.Sprintf(" AND comments ILIKE $%d", len(args))
		}
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		LeadColumns.Select(), where, len(args)-1, len(args),
	)

	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead := &domain.Lead{}
		if err := rows.Scan(r.dest(lead)...); err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}

	return leads, nil
}

// Count returns the number of leads for a company.
func (r *LeadRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE company_id = $1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// CreateBatch inserts multiple leads in one round trip, used by CSV import.
func (r *LeadRepository) CreateBatch(ctx context.Context, leads []*domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	ctx, cancel := WithTransactionTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO leads (%s) VALUES (%s)",
		LeadColumns.InsertColumns(),
		LeadColumns.Placeholders(),
	)

	batch := &pgx.Batch{}
	for _, lead := range leads {
		batch.Queue(query, r.args(lead)...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range leads {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert lead batch: %w", err)
		}
	}

	return nil
}

func (r *LeadRepository) args(lead *domain.Lead) []interface{} {
	return []interface{}{
		lead.ID,
		lead.CompanyID,
		lead.CustomerID,
		lead.Source,
		lead.Type,
		lead.Status,
		lead.Priority,
		lead.Comments,
		lead.LastContactedAt,
		lead.CreatedAt,
		lead.UpdatedAt,
	}
}

func (r *LeadRepository) dest(lead *domain.Lead) []interface{} {
	return []interface{}{
		&lead.ID,
		&lead.CompanyID,
		&lead.CustomerID,
		&lead.Source,
		&lead.Type,
		&lead.Status,
		&lead.Priority,
		&lead.Comments,
		&lead.LastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	}
}
