package repository

import (
	"context"

	"overwatch-ingest/internal/domain"
)

// DocumentsRepository 战略/计划文档Repository接口
// 使用强类型领域模型，不使用map[string]any
// 创建接口把文档和其全部优先级条目放进同一个事务：任一条写失败则整树回滚
type DocumentsRepository interface {
	// ========== 写入（单事务） ==========
	CreateStrategyDocument(ctx context.Context, doc *domain.StrategyDocument, priorities []*domain.PriorityEntry) (string, error)
	CreatePlanningDocument(ctx context.Context, doc *domain.PlanningDocument, priorities []*domain.PriorityEntry) (string, error)

	// ========== 查询 ==========
	GetStrategyDocument(ctx context.Context, scenarioID, strategyDocID string) (*domain.StrategyDocumentWithPriorities, error)
	GetPlanningDocument(ctx context.Context, scenarioID, planningDocID string) (*domain.PlanningDocumentWithPriorities, error)
	ListStrategyDocuments(ctx context.Context, scenarioID string) ([]*domain.StrategyDocument, error)
	ListPlanningDocuments(ctx context.Context, scenarioID string) ([]*domain.PlanningDocument, error)

	// ========== 链接查询 ==========
	// 最近生效优先：effective_date DESC NULLS LAST，再按 ingested_at DESC。
	// 无候选时返回 (nil, nil)，不视为错误
	LatestStrategyDocument(ctx context.Context, scenarioID string) (*domain.StrategyDocument, error)
	// docType 为空串表示不限文档类型
	LatestPlanningDocument(ctx context.Context, scenarioID, docType string) (*domain.PlanningDocument, error)
	ListPlanningPriorities(ctx context.Context, planningDocID string) ([]*domain.PriorityEntry, error)
}
