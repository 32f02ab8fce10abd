package repository

import (
	"context"

	"overwatch-ingest/internal/domain"
)

// TargetCatalogRepository 目标名录Repository接口
type TargetCatalogRepository interface {
	// UpsertEntries 批量写入名录条目，按 (scenario_id, be_number) 冲突时覆盖旧值。
	// 返回写入（含覆盖）的条目数
	UpsertEntries(ctx context.Context, scenarioID string, entries []*domain.TargetCatalogEntry) (int, error)

	ListEntries(ctx context.Context, scenarioID string) ([]*domain.TargetCatalogEntry, error)
	// GetByBENumber 无匹配时返回 (nil, nil)
	GetByBENumber(ctx context.Context, scenarioID, beNumber string) (*domain.TargetCatalogEntry, error)
}
