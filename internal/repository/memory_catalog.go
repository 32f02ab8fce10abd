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

// MemoryTargetCatalogRepo 目标名录内存仓库（DB禁用时的开发/演示模式）
type MemoryTargetCatalogRepo struct {
	mu      sync.RWMutex
	entries map[string]map[string]domain.TargetCatalogEntry // scenarioID -> beNumber -> entry
}

func NewMemoryTargetCatalogRepo() *MemoryTargetCatalogRepo {
	return &MemoryTargetCatalogRepo{
		entries: map[string]map[string]domain.TargetCatalogEntry{},
	}
}

var _ TargetCatalogRepository = (*MemoryTargetCatalogRepo)(nil)

func (r *MemoryTargetCatalogRepo) UpsertEntries(_ context.Context, scenarioID string, entries []*domain.TargetCatalogEntry) (int, error) {
	if scenarioID == "" {
		return 0, fmt.Errorf("scenario_id is required")
	}
	if len(entries) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byBE, ok := r.entries[scenarioID]
	if !ok {
		byBE = map[string]domain.TargetCatalogEntry{}
		r.entries[scenarioID] = byBE
	}

	written := 0
	for _, entry := range entries {
		if entry.BENumber == "" {
			return 0, fmt.Errorf("be_number is required")
		}
		stored := *entry
		stored.ScenarioID = scenarioID
		stored.ImportedAt = time.Now()
		if existing, ok := byBE[entry.BENumber]; ok {
			stored.CatalogID = existing.CatalogID
		} else {
			stored.CatalogID = uuid.NewString()
		}
		byBE[entry.BENumber] = stored
		written++
	}
	return written, nil
}

func (r *MemoryTargetCatalogRepo) ListEntries(_ context.Context, scenarioID string) ([]*domain.TargetCatalogEntry, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.TargetCatalogEntry
	for _, entry := range r.entries[scenarioID] {
		e := entry
		all = append(all, &e)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].BENumber < all[j].BENumber
	})
	return all, nil
}

func (r *MemoryTargetCatalogRepo) GetByBENumber(_ context.Context, scenarioID, beNumber string) (*domain.TargetCatalogEntry, error) {
	if scenarioID == "" || beNumber == "" {
		return nil, fmt.Errorf("scenario_id and be_number are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[scenarioID][beNumber]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}
