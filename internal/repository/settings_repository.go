package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanySettingsRepository implements domain.CompanySettingsRepository
// using PostgreSQL.
type CompanySettingsRepository struct {
	pool *pgxpool.Pool
}

// NewCompanySettingsRepository creates a new settings repository.
func NewCompanySettingsRepository(pool *pgxpool.Pool) *CompanySettingsRepository {
	return &CompanySettingsRepository{pool: pool}
}

// GetAll retrieves all settings for a company as a key -> value map.
// A company with no rows gets an empty map, not an error.
func (r *CompanySettingsRepository) GetAll(ctx context.Context, companyID uuid.UUID) (map[string]string, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `
		SELECT key, value
		FROM company_settings
		WHERE company_id = $1
		ORDER BY key`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query company settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan company setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// Set upserts one setting for a company.
func (r *CompanySettingsRepository) Set(ctx context.Context, companyID uuid.UUID, key, value string) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO company_settings (id, company_id, key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (company_id, key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	if _, err := r.pool.Exec(ctx, query, uuid.New(), companyID, key, value, now); err != nil {
		return fmt.Errorf("failed to upsert company setting %s: %w", key, err)
	}

	return nil
}
