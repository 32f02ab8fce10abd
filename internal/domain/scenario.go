package domain

import "time"

// Scenario 想定领域模型（对应 scenarios 表）
// 想定是租户边界：所有文档、优先级条目与命令都归属且仅归属一个想定，
// 链接启发式永远不跨想定选取上级文档
type Scenario struct {
	// 主键
	ScenarioID string `db:"scenario_id"` // UUID, PRIMARY KEY

	// 基本信息
	ScenarioName string `db:"scenario_name"` // VARCHAR(255), NOT NULL
	Description  string `db:"description"`   // TEXT, NOT NULL, DEFAULT ''

	// 状态
	Status string `db:"status"` // VARCHAR(20), NOT NULL, DEFAULT 'active', 'active' | 'archived'

	// 时间戳
	CreatedAt time.Time `db:"created_at"` // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}
