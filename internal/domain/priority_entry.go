package domain

import "database/sql"

// PriorityEntry 优先级条目领域模型（对应 priority_entries 表）
// 由 STRATEGY 或 PLANNING 文档持有（CHECK 约束保证恰好一个归属非空）。
// rank 为正整数；文档内唯一性由规整器保证，不做存储约束
type PriorityEntry struct {
	// 主键
	PriorityID string `db:"priority_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL

	// 归属文档（恰好一个非空）
	StrategyDocID sql.NullString `db:"strategy_doc_id"` // UUID, nullable, REFERENCES strategy_documents ON DELETE CASCADE
	PlanningDocID sql.NullString `db:"planning_doc_id"` // UUID, nullable, REFERENCES planning_documents ON DELETE CASCADE

	// 条目内容
	Rank          int    `db:"rank"`          // INTEGER, NOT NULL, CHECK (rank > 0)
	Effect        string `db:"effect"`        // VARCHAR(255), NOT NULL, 期望效果（如 DESTROY / NEUTRALIZE / DEGRADE）
	Description   string `db:"description"`   // TEXT, NOT NULL
	Justification string `db:"justification"` // TEXT, NOT NULL, DEFAULT ''

	// BE 编号交叉引用（仅 PLANNING 层级条目使用，可空）
	TargetID sql.NullString `db:"target_id"` // VARCHAR(32), nullable, 对应 target_catalog.be_number
}
