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
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// customersPhoneCompanyConstraint is the unique index on (phone, company_id)
// that serializes concurrent customer creation for the same caller.
const customersPhoneCompanyConstraint = "customers_phone_company_unique"

// CustomerRepository implements domain.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts a new customer. A unique violation on (phone, company)
// surfaces as a conflict error so the caller can re-query the winner.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO customers (%s) VALUES (%s)",
		CustomerColumns.InsertColumns(),
		CustomerColumns.Placeholders(),
	)

	_, err := querier(ctx, r.pool).Exec(ctx, query, r.args(customer)...)
	if err != nil {
		if IsUniqueViolation(err, customersPhoneCompanyConstraint) {
			return apperrors.Conflict("customer", err)
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM customers WHERE id = $1",
		CustomerColumns.Select(),
	)

	return r.scanCustomer(ctx, query, id)
}

// GetByPhone retrieves a customer by normalized phone within a company.
func (r *CustomerRepository) GetByPhone(ctx context.Context, companyID uuid.UUID, phone string) (*domain.Customer, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM customers WHERE company_id = $1 AND phone = $2",
		CustomerColumns.Select(),
	)

	return r.scanCustomer(ctx, query, companyID, phone)
}

// Update updates an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	customer.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(
		"UPDATE customers SET %s WHERE id = $1",
		CustomerColumns.UpdateSet(),
	)

	result, err := querier(ctx, r.pool).Exec(ctx, query, r.args(customer)...)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves customers for a company with pagination.
func (r *CustomerRepository) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.Customer, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM customers WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		CustomerColumns.Select(),
	)

	rows, err := querier(ctx, r.pool).Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer := &domain.Customer{}
		if err := rows.Scan(r.dest(customer)...); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}

	return customers, nil
}

// Count returns the number of customers for a company.
func (r *CustomerRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers WHERE company_id = $1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func (r *CustomerRepository) args(customer *domain.Customer) []interface{} {
	return []interface{}{
		customer.ID,
		customer.CompanyID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.StreetAddress,
		customer.City,
		customer.State,
		customer.ZipCode,
		customer.FormattedAddress,
		customer.CreatedAt,
		customer.UpdatedAt,
	}
}

func (r *CustomerRepository) dest(customer *domain.Customer) []interface{} {
	return []interface{}{
		&customer.ID,
		&customer.CompanyID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Email,
		&customer.Phone,
		&customer.StreetAddress,
		&customer.City,
		&customer.State,
		&customer.ZipCode,
		&customer.FormattedAddress,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	}
}

// scanCustomer scans a single customer from a query.
func (r *CustomerRepository) scanCustomer(ctx context.Context, query string, args ...interface{}) (*domain.Customer, error) {
	customer := &domain.Customer{}

	err := querier(ctx, r.pool).QueryRow(ctx, query, args...).Scan(r.dest(customer)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}

	return customer, nil
}
