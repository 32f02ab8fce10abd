package domain

import (
	"database/sql"
	"time"
)

// PlanningDocument 计划文档领域模型（对应 planning_documents 表）
// PLANNING 层级：参谋计划产品。与 StrategyDocument 同构，
// 额外携带可空的战略文档回链（计划文档可能先于任何战略文档到达）
type PlanningDocument struct {
	// 主键
	PlanningDocID string `db:"planning_doc_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL, REFERENCES scenarios

	// 上级战略文档回链（链接启发式产出，可空；必须同想定）
	StrategyDocID sql.NullString `db:"strategy_doc_id"` // UUID, nullable, REFERENCES strategy_documents

	// 文档元数据（分类阶段产出）
	Title          string `db:"title"`           // VARCHAR(255), NOT NULL
	DocType        string `db:"doc_type"`        // VARCHAR(32), NOT NULL, 'JIPTL' | 'ACO' | 'SPINS' | 'AOD' 等
	AuthorityLevel string `db:"authority_level"` // VARCHAR(255), NOT NULL, 签发机关

	// 文档正文（规整阶段产出；来源归因在此文本上做子串匹配）
	Content string `db:"content"` // TEXT, NOT NULL

	// 生效日期（链接启发式的唯一信号，可空）
	EffectiveDate sql.NullTime `db:"effective_date"` // DATE, nullable

	// 摄取溯源
	SourceFormat string    `db:"source_format"` // VARCHAR(32), NOT NULL
	Confidence   float64   `db:"confidence"`    // DOUBLE PRECISION, NOT NULL, 分类置信度 [0,1]
	IngestedAt   time.Time `db:"ingested_at"`   // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}

// PlanningDocumentWithPriorities 计划文档及其全部优先级条目（Repository 层返回）
// 命令链接启发式把选中计划文档的整个有序条目列表作为 matched priorities 返回
type PlanningDocumentWithPriorities struct {
	Document   *PlanningDocument
	Priorities []*PriorityEntry // 按 rank 升序
}
