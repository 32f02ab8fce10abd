package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"overwatch-ingest/internal/domain"

	"github.com/google/uuid"
)

// MemoryScenariosRepo 想定内存仓库（DB禁用时的开发/演示模式）
type MemoryScenariosRepo struct {
	mu        sync.RWMutex
	scenarios map[string]domain.Scenario // scenarioID -> Scenario
}

func NewMemoryScenariosRepo() *MemoryScenariosRepo {
	return &MemoryScenariosRepo{
		scenarios: map[string]domain.Scenario{},
	}
}

var _ ScenariosRepository = (*MemoryScenariosRepo)(nil)

func (r *MemoryScenariosRepo) GetScenario(_ context.Context, scenarioID string) (*domain.Scenario, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	scenario, ok := r.scenarios[scenarioID]
	if !ok {
		return nil, fmt.Errorf("scenario not found: %s", scenarioID)
	}
	return &scenario, nil
}

func (r *MemoryScenariosRepo) ListScenarios(_ context.Context, status string) ([]*domain.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Scenario
	for _, s := range r.scenarios {
		if status != "" && s.Status != status {
			continue
		}
		scenario := s
		all = append(all, &scenario)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (r *MemoryScenariosRepo) CreateScenario(_ context.Context, scenario *domain.Scenario) (string, error) {
	if scenario == nil {
		return "", fmt.Errorf("scenario is required")
	}
	if scenario.ScenarioName == "" {
		return "", fmt.Errorf("scenario_name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	status := scenario.Status
	if status == "" {
		status = "active"
	}

	id := uuid.NewString()
	r.scenarios[id] = domain.Scenario{
		ScenarioID:   id,
		ScenarioName: scenario.ScenarioName,
		Description:  scenario.Description,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	return id, nil
}

func (r *MemoryScenariosRepo) ArchiveScenario(_ context.Context, scenarioID string) error {
	if scenarioID == "" {
		return fmt.Errorf("scenario_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scenario, ok := r.scenarios[scenarioID]
	if !ok {
		return fmt.Errorf("scenario not found: %s", scenarioID)
	}
	scenario.Status = "archived"
	r.scenarios[scenarioID] = scenario
	return nil
}
