package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"overwatch-ingest/internal/attribution"
	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/repository"
)

// 归因记录类别（URL 查询参数 kind 的取值）
const (
	AttributionKindStrategy = "strategy"
	AttributionKindPlanning = "planning"
	AttributionKindOrder    = "order"
)

// AttributionService 来源归因服务接口
type AttributionService interface {
	// Resolve 对一条记录的归因文本做模糊子串匹配。
	// strategy/planning 在文档正文上匹配其优先级条目，
	// order 在保留原文上匹配其任务目标。结果经 Redis 缓存
	Resolve(ctx context.Context, scenarioID, kind, recordID string) (*AttributionResponse, error)
}

// attributionService 来源归因服务实现
type attributionService struct {
	documents repository.DocumentsRepository
	orders    repository.OrdersRepository
	cache     *attribution.Cache
	logger    *zap.Logger
}

// NewAttributionService 创建来源归因服务
func NewAttributionService(
	documents repository.DocumentsRepository,
	orders repository.OrdersRepository,
	cache *attribution.Cache,
	logger *zap.Logger,
) AttributionService {
	return &attributionService{
		documents: documents,
		orders:    orders,
		cache:     cache,
		logger:    logger,
	}
}

// AttributionResponse 来源归因结果
type AttributionResponse struct {
	ScenarioID string              `json:"scenario_id"`
	RecordID   string              `json:"record_id"`
	Kind       string              `json:"kind"`
	Matches    []attribution.Match `json:"matches"`
}

func (s *attributionService) Resolve(ctx context.Context, scenarioID, kind, recordID string) (*AttributionResponse, error) {
	var (
		corpus   string
		entities []attribution.Entity
	)

	switch kind {
	case AttributionKindStrategy:
		doc, err := s.documents.GetStrategyDocument(ctx, scenarioID, recordID)
		if err != nil {
			return nil, err
		}
		corpus = doc.Document.Content
		entities = priorityAttributionEntities(doc.Priorities)

	case AttributionKindPlanning:
		doc, err := s.documents.GetPlanningDocument(ctx, scenarioID, recordID)
		if err != nil {
			return nil, err
		}
		corpus = doc.Document.Content
		entities = priorityAttributionEntities(doc.Priorities)

	case AttributionKindOrder:
		tree, err := s.orders.GetOrderTree(ctx, scenarioID, recordID)
		if err != nil {
			return nil, err
		}
		corpus = tree.Order.RawText
		entities = targetAttributionEntities(tree)

	default:
		return nil, fmt.Errorf("invalid attribution kind: %s", kind)
	}

	matches := s.cache.Resolve(ctx, attribution.KeyFor(scenarioID, recordID), corpus, entities)

	return &AttributionResponse{
		ScenarioID: scenarioID,
		RecordID:   recordID,
		Kind:       kind,
		Matches:    matches,
	}, nil
}

// priorityAttributionEntities 优先级条目作为归因实体。
// 条目没有目标名称，候选从截断描述开始
func priorityAttributionEntities(priorities []*domain.PriorityEntry) []attribution.Entity {
	entities := make([]attribution.Entity, 0, len(priorities))
	for _, p := range priorities {
		entities = append(entities, attribution.Entity{
			ID:          p.PriorityID,
			Kind:        attribution.KindPriority,
			Description: p.Description,
			Effect:      p.Effect,
		})
	}
	return entities
}

// targetAttributionEntities 命令树中的全部任务目标作为归因实体
func targetAttributionEntities(tree *domain.OrderTree) []attribution.Entity {
	var entities []attribution.Entity
	for _, pkg := range tree.Packages {
		for _, mission := range pkg.Missions {
			for _, target := range mission.Targets {
				entities = append(entities, attribution.Entity{
					ID:          target.TargetID,
					Kind:        attribution.KindTarget,
					TargetName:  target.TargetName,
					Description: target.Description,
					Effect:      target.DesiredEffect,
				})
			}
		}
	}
	return entities
}
