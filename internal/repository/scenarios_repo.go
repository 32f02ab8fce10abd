package repository

import (
	"context"

	"overwatch-ingest/internal/domain"
)

// ScenariosRepository 想定Repository接口
type ScenariosRepository interface {
	GetScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error)
	ListScenarios(ctx context.Context, status string) ([]*domain.Scenario, error)
	CreateScenario(ctx context.Context, scenario *domain.Scenario) (string, error)
	ArchiveScenario(ctx context.Context, scenarioID string) error
}
