package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"overwatch-ingest/internal/domain"

	"github.com/google/uuid"
)

// MemoryDocumentsRepo 战略/计划文档内存仓库（DB禁用时的开发/演示模式）
// 排序语义与 PostgreSQL 实现一致：effective_date DESC NULLS LAST，再按 ingested_at DESC
type MemoryDocumentsRepo struct {
	mu         sync.RWMutex
	strategy   map[string]domain.StrategyDocument // strategyDocID -> doc
	planning   map[string]domain.PlanningDocument // planningDocID -> doc
	priorities map[string][]domain.PriorityEntry  // 归属文档ID -> 条目（按 rank 升序）
}

func NewMemoryDocumentsRepo() *MemoryDocumentsRepo {
	return &MemoryDocumentsRepo{
		strategy:   map[string]domain.StrategyDocument{},
		planning:   map[string]domain.PlanningDocument{},
		priorities: map[string][]domain.PriorityEntry{},
	}
}

var _ DocumentsRepository = (*MemoryDocumentsRepo)(nil)

func (r *MemoryDocumentsRepo) CreateStrategyDocument(_ context.Context, doc *domain.StrategyDocument, priorities []*domain.PriorityEntry) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is required")
	}
	if doc.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	stored := *doc
	stored.StrategyDocID = id
	stored.IngestedAt = time.Now()
	r.strategy[id] = stored

	r.priorities[id] = copyPriorities(priorities, doc.ScenarioID, id, "")
	return id, nil
}

func (r *MemoryDocumentsRepo) CreatePlanningDocument(_ context.Context, doc *domain.PlanningDocument, priorities []*domain.PriorityEntry) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is required")
	}
	if doc.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	stored := *doc
	stored.PlanningDocID = id
	stored.IngestedAt = time.Now()
	r.planning[id] = stored

	r.priorities[id] = copyPriorities(priorities, doc.ScenarioID, "", id)
	return id, nil
}

func (r *MemoryDocumentsRepo) GetStrategyDocument(_ context.Context, scenarioID, strategyDocID string) (*domain.StrategyDocumentWithPriorities, error) {
	if scenarioID == "" || strategyDocID == "" {
		return nil, fmt.Errorf("scenario_id and strategy_doc_id are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.strategy[strategyDocID]
	if !ok || doc.ScenarioID != scenarioID {
		return nil, fmt.Errorf("strategy document not found: %s", strategyDocID)
	}
	return &domain.StrategyDocumentWithPriorities{
		Document:   &doc,
		Priorities: prioritiesOf(r.priorities[strategyDocID]),
	}, nil
}

func (r *MemoryDocumentsRepo) GetPlanningDocument(_ context.Context, scenarioID, planningDocID string) (*domain.PlanningDocumentWithPriorities, error) {
	if scenarioID == "" || planningDocID == "" {
		return nil, fmt.Errorf("scenario_id and planning_doc_id are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.planning[planningDocID]
	if !ok || doc.ScenarioID != scenarioID {
		return nil, fmt.Errorf("planning document not found: %s", planningDocID)
	}
	return &domain.PlanningDocumentWithPriorities{
		Document:   &doc,
		Priorities: prioritiesOf(r.priorities[planningDocID]),
	}, nil
}

func (r *MemoryDocumentsRepo) ListStrategyDocuments(_ context.Context, scenarioID string) ([]*domain.StrategyDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*domain.StrategyDocument
	for _, doc := range r.strategy {
		if doc.ScenarioID != scenarioID {
			continue
		}
		d := doc
		docs = append(docs, &d)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return recencyLess(docs[j].EffectiveDate, docs[j].IngestedAt, docs[i].EffectiveDate, docs[i].IngestedAt)
	})
	return docs, nil
}

func (r *MemoryDocumentsRepo) ListPlanningDocuments(_ context.Context, scenarioID string) ([]*domain.PlanningDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*domain.PlanningDocument
	for _, doc := range r.planning {
		if doc.ScenarioID != scenarioID {
			continue
		}
		d := doc
		docs = append(docs, &d)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return recencyLess(docs[j].EffectiveDate, docs[j].IngestedAt, docs[i].EffectiveDate, docs[i].IngestedAt)
	})
	return docs, nil
}

func (r *MemoryDocumentsRepo) LatestStrategyDocument(ctx context.Context, scenarioID string) (*domain.StrategyDocument, error) {
	docs, err := r.ListStrategyDocuments(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *MemoryDocumentsRepo) LatestPlanningDocument(ctx context.Context, scenarioID, docType string) (*domain.PlanningDocument, error) {
	docs, err := r.ListPlanningDocuments(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if docType == "" || doc.DocType == docType {
			return doc, nil
		}
	}
	return nil, nil
}

func (r *MemoryDocumentsRepo) ListPlanningPriorities(_ context.Context, planningDocID string) ([]*domain.PriorityEntry, error) {
	if planningDocID == "" {
		return nil, fmt.Errorf("planning_doc_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return prioritiesOf(r.priorities[planningDocID]), nil
}

// copyPriorities 复制条目并设定归属，按 rank 升序存储
func copyPriorities(priorities []*domain.PriorityEntry, scenarioID, strategyDocID, planningDocID string) []domain.PriorityEntry {
	stored := make([]domain.PriorityEntry, 0, len(priorities))
	for _, p := range priorities {
		entry := *p
		entry.PriorityID = uuid.NewString()
		entry.ScenarioID = scenarioID
		entry.StrategyDocID = sql.NullString{String: strategyDocID, Valid: strategyDocID != ""}
		entry.PlanningDocID = sql.NullString{String: planningDocID, Valid: planningDocID != ""}
		stored = append(stored, entry)
	}
	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Rank < stored[j].Rank
	})
	return stored
}

func prioritiesOf(stored []domain.PriorityEntry) []*domain.PriorityEntry {
	out := make([]*domain.PriorityEntry, 0, len(stored))
	for _, p := range stored {
		entry := p
		out = append(out, &entry)
	}
	return out
}

// recencyLess 比较 (effectiveDate, ingestedAt)：有生效日期者新于无生效日期者
func recencyLess(aDate sql.NullTime, aIngested time.Time, bDate sql.NullTime, bIngested time.Time) bool {
	if aDate.Valid != bDate.Valid {
		return !aDate.Valid
	}
	if aDate.Valid && !aDate.Time.Equal(bDate.Time) {
		return aDate.Time.Before(bDate.Time)
	}
	return aIngested.Before(bIngested)
}
