package domain

import (
	"database/sql"
	"time"
)

// StrategyDocument 战略文档领域模型（对应 strategy_documents 表）
// STRATEGY 层级：国家/战区级指导。仅由摄取管线创建，创建后不可变更
// （下游重定目标写入方只会追加引用它的 PriorityEntry，不修改本表）
type StrategyDocument struct {
	// 主键
	StrategyDocID string `db:"strategy_doc_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL, REFERENCES scenarios

	// 文档元数据（分类阶段产出）
	Title          string `db:"title"`           // VARCHAR(255), NOT NULL
	DocType        string `db:"doc_type"`        // VARCHAR(32), NOT NULL, 'NDS' | 'NMS' | 'THEATER_STRATEGY' | 'CAMPAIGN_PLAN' 等
	AuthorityLevel string `db:"authority_level"` // VARCHAR(255), NOT NULL, 签发机关

	// 文档正文（规整阶段产出；来源归因在此文本上做子串匹配）
	Content string `db:"content"` // TEXT, NOT NULL

	// 生效日期（链接启发式的唯一信号，可空）
	EffectiveDate sql.NullTime `db:"effective_date"` // DATE, nullable

	// 摄取溯源
	SourceFormat string    `db:"source_format"` // VARCHAR(32), NOT NULL, 'USMTF' | 'OTH_GOLD' | 'NATO_ADATP3' | 'FREE_TEXT' | 'JSON_FEED'
	Confidence   float64   `db:"confidence"`    // DOUBLE PRECISION, NOT NULL, 分类置信度 [0,1]
	IngestedAt   time.Time `db:"ingested_at"`   // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}

// StrategyDocumentWithPriorities 战略文档及其全部优先级条目（Repository 层返回）
type StrategyDocumentWithPriorities struct {
	Document   *StrategyDocument
	Priorities []*PriorityEntry // 按 rank 升序
}
