package domain

import (
	"database/sql"
	"time"
)

// TaskingOrder 任务命令领域模型（对应 tasking_orders 表）
// ORDER 层级：战术任务命令，持有 MissionPackage → Mission → 子实体 的完整树。
// 整树在一个事务内写入，任一写入失败则全部回滚
type TaskingOrder struct {
	// 主键
	TaskingOrderID string `db:"tasking_order_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL, REFERENCES scenarios

	// 上级计划文档回链（链接启发式产出，可空；必须同想定）
	PlanningDocID sql.NullString `db:"planning_doc_id"` // UUID, nullable, REFERENCES planning_documents

	// 命令元数据
	OrderType        string `db:"order_type"`        // VARCHAR(32), NOT NULL, 'ATO' | 'OPORD' | 'FRAGO' | 'TASKORD'
	OrderCode        string `db:"order_code"`        // VARCHAR(64), NOT NULL, 命令编号（如 'ATO CHARLIE'）
	IssuingAuthority string `db:"issuing_authority"` // VARCHAR(255), NOT NULL
	Classification   string `db:"classification"`    // VARCHAR(64), NOT NULL, DEFAULT 'UNCLASSIFIED'

	// 生效区间（可空）
	EffectiveStart sql.NullTime `db:"effective_start"` // TIMESTAMPTZ, nullable
	EffectiveEnd   sql.NullTime `db:"effective_end"`   // TIMESTAMPTZ, nullable

	// ATO 日序号（可空）
	ATODayNumber sql.NullInt32 `db:"ato_day_number"` // INTEGER, nullable

	// 摄取溯源（保留原文供来源归因使用）
	RawText    string    `db:"raw_text"`    // TEXT, NOT NULL
	RawFormat  string    `db:"raw_format"`  // VARCHAR(32), NOT NULL
	Confidence float64   `db:"confidence"`  // DOUBLE PRECISION, NOT NULL, 分类置信度 [0,1]
	IngestedAt time.Time `db:"ingested_at"` // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}

// OrderTree 任务命令完整树（Repository 层单事务写入与整树读取的单位）
type OrderTree struct {
	Order    *TaskingOrder
	Packages []*PackageNode
}

// PackageNode 任务编组及其任务
type PackageNode struct {
	Package  *MissionPackage
	Missions []*MissionNode
}

// MissionNode 任务及其全部子实体
type MissionNode struct {
	Mission     *Mission
	Waypoints   []*MissionWaypoint
	TimeWindows []*MissionTimeWindow
	Targets     []*MissionTarget
	Supports    []*SupportRequirement
	SpaceNeeds  []*SpaceNeed
}
