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

// TicketRepository implements domain.TicketRepository using PostgreSQL.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// Create inserts a new ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO tickets (%s) VALUES (%s)",
		TicketColumns.InsertColumns(),
		TicketColumns.Placeholders(),
	)

	_, err := querier(ctx, r.pool).Exec(ctx, query, r.args(ticket)...)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM tickets WHERE id = $1",
		TicketColumns.Select(),
	)

	ticket := &domain.Ticket{}
	err := querier(ctx, r.pool).QueryRow(ctx, query, id).Scan(r.dest(ticket)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}

	return ticket, nil
}

// Update updates an existing ticket.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	ticket.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(
		"UPDATE tickets SET %s WHERE id = $1",
		TicketColumns.UpdateSet(),
	)

	result, err := querier(ctx, r.pool).Exec(ctx, query, r.args(ticket)...)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves tickets for a company, newest first, with optional filters.
func (r *TicketRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.TicketListFilter, limit, offset int) ([]*domain.Ticket, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where := "company_id = $1"
	args := []interface{}{companyID}

	if filter != nil {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.Archived != nil {
			args = append(args, *filter.Archived)
			where += fmt.Sprintf(" AND archived = $%d", len(args))
		}
		if search := filter.Search; search != "" {
			args = append(args, "%"+search+"%")
			where += fmt.Sprintf(" AND description ILIKE $%d", len(args))
		}
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		TicketColumns.Select(), where, len(args)-1, len(args),
	)

	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket := &domain.Ticket{}
		if err := rows.Scan(r.dest(ticket)...); err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket rows: %w", err)
	}

	return tickets, nil
}

// Count returns the number of tickets for a company.
func (r *TicketRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tickets WHERE company_id = $1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func (r *TicketRepository) args(ticket *domain.Ticket) []interface{} {
	return []interface{}{
		ticket.ID,
		ticket.CompanyID,
		ticket.CustomerID,
		ticket.Status,
		ticket.Source,
		ticket.Type,
		ticket.Direction,
		ticket.ServiceType,
		ticket.PestType,
		ticket.Description,
		ticket.Archived,
		ticket.ConvertedToLeadID,
		ticket.ConvertedToSupportCaseID,
		ticket.ConvertedAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	}
}

func (r *TicketRepository) dest(ticket *domain.Ticket) []interface{} {
	return []interface{}{
		&ticket.ID,
		&ticket.CompanyID,
		&ticket.CustomerID,
		&ticket.Status,
		&ticket.Source,
		&ticket.Type,
		&ticket.Direction,
		&ticket.ServiceType,
		&ticket.PestType,
		&ticket.Description,
		&ticket.Archived,
		&ticket.ConvertedToLeadID,
		&ticket.ConvertedToSupportCaseID,
		&ticket.ConvertedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
}
