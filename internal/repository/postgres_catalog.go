package repository

import (
	"context"
	"database/sql"
	"fmt"

	"overwatch-ingest/internal/domain"
)

// PostgresTargetCatalogRepository 目标名录Repository实现
type PostgresTargetCatalogRepository struct {
	db *sql.DB
}

// NewPostgresTargetCatalogRepository 创建目标名录Repository
func NewPostgresTargetCatalogRepository(db *sql.DB) *PostgresTargetCatalogRepository {
	return &PostgresTargetCatalogRepository{db: db}
}

// 确保实现了接口
var _ TargetCatalogRepository = (*PostgresTargetCatalogRepository)(nil)

// UpsertEntries 批量写入名录条目，(scenario_id, be_number) 冲突时覆盖旧值
// 整批在一个事务内，失败则全部回滚
func (r *PostgresTargetCatalogRepository) UpsertEntries(ctx context.Context, scenarioID string, entries []*domain.TargetCatalogEntry) (int, error) {
	if scenarioID == "" {
		return 0, fmt.Errorf("scenario_id is required")
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for _, entry := range entries {
		if entry.BENumber == "" {
			return 0, fmt.Errorf("be_number is required")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO target_catalog (
				scenario_id, be_number, target_name, category,
				country_code, latitude, longitude
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (scenario_id, be_number) DO UPDATE SET
				target_name = EXCLUDED.target_name,
				category = EXCLUDED.category,
				country_code = EXCLUDED.country_code,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				imported_at = NOW()`,
			scenarioID, entry.BENumber, entry.TargetName, entry.Category,
			entry.CountryCode, entry.Latitude, entry.Longitude,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert catalog entry %q: %w", entry.BENumber, err)
		}
		written++
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return written, nil
}

// ListEntries 列出想定内全部名录条目（按BE编号升序）
func (r *PostgresTargetCatalogRepository) ListEntries(ctx context.Context, scenarioID string) ([]*domain.TargetCatalogEntry, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			catalog_id::text,
			scenario_id::text,
			be_number,
			target_name,
			category,
			country_code,
			latitude,
			longitude,
			imported_at
		FROM target_catalog
		WHERE scenario_id = $1
		ORDER BY be_number
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TargetCatalogEntry
	for rows.Next() {
		var entry domain.TargetCatalogEntry
		err := rows.Scan(
			&entry.CatalogID,
			&entry.ScenarioID,
			&entry.BENumber,
			&entry.TargetName,
			&entry.Category,
			&entry.CountryCode,
			&entry.Latitude,
			&entry.Longitude,
			&entry.ImportedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog entries: %w", err)
	}

	return entries, nil
}

// GetByBENumber 按BE编号查名录条目，无匹配时返回 (nil, nil)
func (r *PostgresTargetCatalogRepository) GetByBENumber(ctx context.Context, scenarioID, beNumber string) (*domain.TargetCatalogEntry, error) {
	if scenarioID == "" || beNumber == "" {
		return nil, fmt.Errorf("scenario_id and be_number are required")
	}

	query := `
		SELECT
			catalog_id::text,
			scenario_id::text,
			be_number,
			target_name,
			category,
			country_code,
			latitude,
			longitude,
			imported_at
		FROM target_catalog
		WHERE scenario_id = $1 AND be_number = $2
	`

	var entry domain.TargetCatalogEntry
	err := r.db.QueryRowContext(ctx, query, scenarioID, beNumber).Scan(
		&entry.CatalogID,
		&entry.ScenarioID,
		&entry.BENumber,
		&entry.TargetName,
		&entry.Category,
		&entry.CountryCode,
		&entry.Latitude,
		&entry.Longitude,
		&entry.ImportedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}

	return &entry, nil
}
