package repository

import (
	"context"
	"database/sql"
	"fmt"

	"overwatch-ingest/internal/domain"
)

// PostgresScenariosRepository 想定Repository实现
type PostgresScenariosRepository struct {
	db *sql.DB
}

// NewPostgresScenariosRepository 创建想定Repository
func NewPostgresScenariosRepository(db *sql.DB) *PostgresScenariosRepository {
	return &PostgresScenariosRepository{db: db}
}

// 确保实现了接口
var _ ScenariosRepository = (*PostgresScenariosRepository)(nil)

// GetScenario 根据scenario_id获取想定
func (r *PostgresScenariosRepository) GetScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			scenario_id::text,
			scenario_name,
			description,
			status,
			created_at
		FROM scenarios
		WHERE scenario_id = $1
	`

	var scenario domain.Scenario
	err := r.db.QueryRowContext(ctx, query, scenarioID).Scan(
		&scenario.ScenarioID,
		&scenario.ScenarioName,
		&scenario.Description,
		&scenario.Status,
		&scenario.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scenario not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}

	return &scenario, nil
}

// ListScenarios 列出想定，status为空表示不过滤状态
func (r *PostgresScenariosRepository) ListScenarios(ctx context.Context, status string) ([]*domain.Scenario, error) {
	query := `
		SELECT
			scenario_id::text,
			scenario_name,
			description,
			status,
			created_at
		FROM scenarios
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []*domain.Scenario
	for rows.Next() {
		var scenario domain.Scenario
		err := rows.Scan(
			&scenario.ScenarioID,
			&scenario.ScenarioName,
			&scenario.Description,
			&scenario.Status,
			&scenario.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, &scenario)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}

	return scenarios, nil
}

// CreateScenario 创建想定，返回新想定ID
func (r *PostgresScenariosRepository) CreateScenario(ctx context.Context, scenario *domain.Scenario) (string, error) {
	if scenario == nil {
		return "", fmt.Errorf("scenario is required")
	}
	if scenario.ScenarioName == "" {
		return "", fmt.Errorf("scenario_name is required")
	}

	status := scenario.Status
	if status == "" {
		status = "active"
	}

	var scenarioID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO scenarios (scenario_name, description, status)
		 VALUES ($1, $2, $3)
		 RETURNING scenario_id::text`,
		scenario.ScenarioName, scenario.Description, status,
	).Scan(&scenarioID)
	if err != nil {
		return "", fmt.Errorf("failed to create scenario: %w", err)
	}

	return scenarioID, nil
}

// ArchiveScenario 归档想定
func (r *PostgresScenariosRepository) ArchiveScenario(ctx context.Context, scenarioID string) error {
	if scenarioID == "" {
		return fmt.Errorf("scenario_id is required")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE scenarios SET status = 'archived' WHERE scenario_id = $1`,
		scenarioID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive scenario: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check archive result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scenario not found: %s", scenarioID)
	}

	return nil
}
