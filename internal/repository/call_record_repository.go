// Package repository implements data persistence using PostgreSQL.
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

// CallRecordRepository implements domain.CallRecordRepository using PostgreSQL.
type CallRecordRepository struct {
	pool *pgxpool.Pool
}

// NewCallRecordRepository creates a new CallRecordRepository.
func NewCallRecordRepository(pool *pgxpool.Pool) *CallRecordRepository {
	return &CallRecordRepository{pool: pool}
}

// Create inserts a new call record.
func (r *CallRecordRepository) Create(ctx context.Context, record *domain.CallRecord) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO call_records (%s) VALUES (%s)",
		CallRecordColumns.InsertColumns(),
		CallRecordColumns.Placeholders(),
	)

	_, err := querier(ctx, r.pool).Exec(ctx, query, r.args(record)...)
	if err != nil {
		return fmt.Errorf("failed to insert call record: %w", err)
	}

	return nil
}

// GetByID retrieves a record by its internal ID.
func (r *CallRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE id = $1",
		CallRecordColumns.Select(),
	)

	return r.scanRecord(ctx, query, id)
}

// GetByCallID retrieves a record by the provider's call ID.
func (r *CallRecordRepository) GetByCallID(ctx context.Context, callID string) (*domain.CallRecord, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE call_id = $1",
		CallRecordColumns.Select(),
	)

	return r.scanRecord(ctx, query, callID)
}

// Update updates an existing call record.
func (r *CallRecordRepository) Update(ctx context.Context, record *domain.CallRecord) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	record.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(
		"UPDATE call_records SET %s WHERE id = $1",
		CallRecordColumns.UpdateSet(),
	)

	result, err := querier(ctx, r.pool).Exec(ctx, query, r.args(record)...)
	if err != nil {
		return fmt.Errorf("failed to update call record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves records for a company, newest first, with optional filters.
func (r *CallRecordRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.CallRecordListFilter, limit, offset int) ([]*domain.CallRecord, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where := "company_id = $1"
	args := []interface{}{companyID}

	if filter != nil {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			where += fmt.Sprintf(" AND call_status = $%d", len(args))
		}
		if filter.Direction != nil {
			args = append(args, *filter.Direction)
			where += fmt.Sprintf(" AND direction = $%d", len(args))
		}
		if search := filter.Search; search != "" {
			args = append(args, "%"+search+"%")
			where += fmt.Sprintf(" AND (from_number ILIKE $%d OR to_number ILIKE $%d OR call_id ILIKE $%d)", len(args), len(args), len(args))
		}
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		CallRecordColumns.Select(), where, len(args)-1, len(args),
	)

	return r.scanRecords(ctx, query, args...)
}

// Count returns the number of records for a company.
func (r *CallRecordRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM call_records WHERE company_id = $1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count call records: %w", err)
	}
	return count, nil
}

// OldestForLead returns the root of a follow-up chain, i.e. the earliest
// call for the lead that has no parent.
func (r *CallRecordRepository) OldestForLead(ctx context.Context, leadID uuid.UUID) (*domain.CallRecord, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM call_records WHERE lead_id = $1 AND parent_call_id IS NULL ORDER BY created_at ASC LIMIT 1",
		CallRecordColumns.Select(),
	)

	return r.scanRecord(ctx, query, leadID)
}

// args returns the values for a full-column INSERT or UPDATE, in
// CallRecordColumns order.
func (r *CallRecordRepository) args(record *domain.CallRecord) []interface{} {
	return []interface{}{
		record.ID,
		record.CallID,
		record.CompanyID,
		record.CustomerID,
		record.LeadID,
		record.TicketID,
		record.ParentCallID,
		record.Direction,
		record.FromNumber,
		record.ToNumber,
		record.Status,
		record.StartTimestamp,
		record.EndTimestamp,
		record.DurationSeconds,
		record.BillableDurationSeconds,
		record.DisconnectReason,
		record.Transcript,
		record.RecordingURL,
		record.Sentiment,
		record.Summary,
		record.PestIssue,
		record.StreetAddress,
		record.HomeSize,
		record.YardSize,
		record.DecisionMaker,
		record.PreferredServiceTime,
		record.ContactedOtherCompanies,
		record.CreatedAt,
		record.UpdatedAt,
	}
}

// scanRecord scans a single call record from a query.
func (r *CallRecordRepository) scanRecord(ctx context.Context, query string, args ...interface{}) (*domain.CallRecord, error) {
	record := &domain.CallRecord{}

	err := querier(ctx, r.pool).QueryRow(ctx, query, args...).Scan(r.dest(record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan call record: %w", err)
	}

	return record, nil
}

// scanRecords scans multiple call records from a query.
func (r *CallRecordRepository) scanRecords(ctx context.Context, query string, args ...interface{}) ([]*domain.CallRecord, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", err)
	}
	defer rows.Close()

	var records []*domain.CallRecord
	for rows.Next() {
		record := &domain.CallRecord{}
		if err := rows.Scan(r.dest(record)...); err != nil {
			return nil, fmt.Errorf("failed to scan call record row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call record rows: %w", err)
	}

	return records, nil
}

// dest returns scan destinations in CallRecordColumns order.
func (r *CallRecordRepository) dest(record *domain.CallRecord) []interface{} {
	return []interface{}{
		&record.ID,
		&record.CallID,
		&record.CompanyID,
		&record.CustomerID,
		&record.LeadID,
		&record.TicketID,
		&record.ParentCallID,
		&record.Direction,
		&record.FromNumber,
		&record.ToNumber,
		&record.Status,
		&record.StartTimestamp,
		&record.EndTimestamp,
		&record.DurationSeconds,
		&record.BillableDurationSeconds,
		&record.DisconnectReason,
		&record.Transcript,
		&record.RecordingURL,
		&record.Sentiment,
		&record.Summary,
		&record.PestIssue,
		&record.StreetAddress,
		&record.HomeSize,
		&record.YardSize,
		&record.DecisionMaker,
		&record.PreferredServiceTime,
		&record.ContactedOtherCompanies,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}
