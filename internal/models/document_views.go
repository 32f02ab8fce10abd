package models

import (
	"time"

	"overwatch-ingest/internal/domain"
)

// PriorityView 优先级条目视图
// 注意：字段命名使用 snake_case（json tag），与前端模型对齐
type PriorityView struct {
	PriorityID    string  `json:"priority_id"`
	Rank          int     `json:"rank"`
	Effect        string  `json:"effect"`
	Description   string  `json:"description"`
	Justification string  `json:"justification,omitempty"`
	TargetID      *string `json:"target_id,omitempty"`
}

// NewPriorityView 由领域模型构建视图
func NewPriorityView(e *domain.PriorityEntry) PriorityView {
	return PriorityView{
		PriorityID:    e.PriorityID,
		Rank:          e.Rank,
		Effect:        e.Effect,
		Description:   e.Description,
		Justification: e.Justification,
		TargetID:      strPtr(e.TargetID),
	}
}

// NewPriorityViews 批量构建（保持入参顺序，即 rank 升序）
func NewPriorityViews(entries []*domain.PriorityEntry) []PriorityView {
	views := make([]PriorityView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewPriorityView(e))
	}
	return views
}

// StrategyDocumentView 战略文档视图（含优先级条目）
type StrategyDocumentView struct {
	StrategyDocID  string         `json:"strategy_doc_id"`
	ScenarioID     string         `json:"scenario_id"`
	Title          string         `json:"title"`
	DocType        string         `json:"doc_type"`
	AuthorityLevel string         `json:"authority_level"`
	Content        string         `json:"content"`
	EffectiveDate  *string        `json:"effective_date,omitempty"` // YYYY-MM-DD
	SourceFormat   string         `json:"source_format"`
	Confidence     float64        `json:"confidence"`
	IngestedAt     time.Time      `json:"ingested_at"`
	Priorities     []PriorityView `json:"priorities"`
}

// NewStrategyDocumentView 由领域模型构建视图
func NewStrategyDocumentView(doc *domain.StrategyDocument, priorities []*domain.PriorityEntry) StrategyDocumentView {
	return StrategyDocumentView{
		StrategyDocID:  doc.StrategyDocID,
		ScenarioID:     doc.ScenarioID,
		Title:          doc.Title,
		DocType:        doc.DocType,
		AuthorityLevel: doc.AuthorityLevel,
		Content:        doc.Content,
		EffectiveDate:  datePtr(doc.EffectiveDate),
		SourceFormat:   doc.SourceFormat,
		Confidence:     doc.Confidence,
		IngestedAt:     doc.IngestedAt,
		Priorities:     NewPriorityViews(priorities),
	}
}

// PlanningDocumentView 计划文档视图（含优先级条目与战略文档回链）
type PlanningDocumentView struct {
	PlanningDocID  string         `json:"planning_doc_id"`
	ScenarioID     string         `json:"scenario_id"`
	StrategyDocID  *string        `json:"strategy_doc_id,omitempty"`
	Title          string         `json:"title"`
	DocType        string         `json:"doc_type"`
	AuthorityLevel string         `json:"authority_level"`
	Content        string         `json:"content"`
	EffectiveDate  *string        `json:"effective_date,omitempty"` // YYYY-MM-DD
	SourceFormat   string         `json:"source_format"`
	Confidence     float64        `json:"confidence"`
	IngestedAt     time.Time      `json:"ingested_at"`
	Priorities     []PriorityView `json:"priorities"`
}

// NewPlanningDocumentView 由领域模型构建视图
func NewPlanningDocumentView(doc *domain.PlanningDocument, priorities []*domain.PriorityEntry) PlanningDocumentView {
	return PlanningDocumentView{
		PlanningDocID:  doc.PlanningDocID,
		ScenarioID:     doc.ScenarioID,
		StrategyDocID:  strPtr(doc.StrategyDocID),
		Title:          doc.Title,
		DocType:        doc.DocType,
		AuthorityLevel: doc.AuthorityLevel,
		Content:        doc.Content,
		EffectiveDate:  datePtr(doc.EffectiveDate),
		SourceFormat:   doc.SourceFormat,
		Confidence:     doc.Confidence,
		IngestedAt:     doc.IngestedAt,
		Priorities:     NewPriorityViews(priorities),
	}
}

// ScenarioView 想定视图
type ScenarioView struct {
	ScenarioID   string    `json:"scenario_id"`
	ScenarioName string    `json:"scenario_name"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewScenarioView 由领域模型构建视图
func NewScenarioView(s *domain.Scenario) ScenarioView {
	return ScenarioView{
		ScenarioID:   s.ScenarioID,
		ScenarioName: s.ScenarioName,
		Description:  s.Description,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
	}
}
