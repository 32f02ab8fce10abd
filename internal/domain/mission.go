package domain

import "database/sql"

// 任务状态
const (
	MissionStatusPlanned  = "planned"
	MissionStatusActive   = "active"
	MissionStatusComplete = "complete"
	MissionStatusAborted  = "aborted"
)

// MissionPackage 任务编组领域模型（对应 mission_packages 表）
type MissionPackage struct {
	// 主键
	PackageID string `db:"package_id"` // UUID, PRIMARY KEY

	// 归属
	TaskingOrderID string `db:"tasking_order_id"` // UUID, NOT NULL, REFERENCES tasking_orders ON DELETE CASCADE
	ScenarioID     string `db:"scenario_id"`      // UUID, NOT NULL

	// 编组信息
	PackageName string `db:"package_name"` // VARCHAR(255), NOT NULL
	Description string `db:"description"`  // TEXT, NOT NULL, DEFAULT ''
}

// Mission 任务领域模型（对应 missions 表）
// status 生命周期由外部推演时钟持有；摄取只写入 'planned'
type Mission struct {
	// 主键
	MissionID string `db:"mission_id"` // UUID, PRIMARY KEY

	// 归属
	PackageID  string `db:"package_id"`  // UUID, NOT NULL, REFERENCES mission_packages ON DELETE CASCADE
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL

	// 任务信息
	MissionNumber   string `db:"mission_number"`   // VARCHAR(64), NOT NULL
	Callsign        string `db:"callsign"`         // VARCHAR(64), NOT NULL, DEFAULT ''
	Platform        string `db:"platform"`         // VARCHAR(64), NOT NULL, DEFAULT '', 平台型号（如 F-16C）
	UnitDesignation string `db:"unit_designation"` // VARCHAR(128), NOT NULL, DEFAULT ''
	MissionType     string `db:"mission_type"`     // VARCHAR(64), NOT NULL, DEFAULT '', 如 OCA / DCA / SEAD / CAS

	// 状态
	Status string `db:"status"` // VARCHAR(20), NOT NULL, 'planned' | 'active' | 'complete' | 'aborted'
}

// MissionWaypoint 航路点领域模型（对应 mission_waypoints 表）
type MissionWaypoint struct {
	// 主键
	WaypointID string `db:"waypoint_id"` // UUID, PRIMARY KEY

	// 归属
	MissionID string `db:"mission_id"` // UUID, NOT NULL, REFERENCES missions ON DELETE CASCADE

	// 航路点数据
	Seq          int           `db:"seq"`           // INTEGER, NOT NULL, 航路顺序（从 1 起）
	WaypointType string        `db:"waypoint_type"` // VARCHAR(16), NOT NULL, 'IP' | 'CP' | 'TGT' | 'EGRESS' | 'REFUEL' | 'HOLD'
	Name         string        `db:"name"`          // VARCHAR(128), NOT NULL, DEFAULT ''
	Latitude     float64       `db:"latitude"`      // DOUBLE PRECISION, NOT NULL, 无法解析时置 0 并打标
	Longitude    float64       `db:"longitude"`     // DOUBLE PRECISION, NOT NULL, 同上
	AltitudeFt   sql.NullInt32 `db:"altitude_ft"`   // INTEGER, nullable, 高度（英尺）
	TimeOver     sql.NullTime  `db:"time_over"`     // TIMESTAMPTZ, nullable, 预计通过时间
}

// MissionTimeWindow 任务时间窗领域模型（对应 mission_time_windows 表）
type MissionTimeWindow struct {
	// 主键
	WindowID string `db:"window_id"` // UUID, PRIMARY KEY

	// 归属
	MissionID string `db:"mission_id"` // UUID, NOT NULL, REFERENCES missions ON DELETE CASCADE

	// 时间窗数据
	WindowType string       `db:"window_type"` // VARCHAR(16), NOT NULL, 'VUL' | 'TOT' | 'ONSTA' | 'REFUEL'
	StartTime  sql.NullTime `db:"start_time"`  // TIMESTAMPTZ, nullable
	EndTime    sql.NullTime `db:"end_time"`    // TIMESTAMPTZ, nullable
}

// MissionTarget 任务目标领域模型（对应 mission_targets 表）
type MissionTarget struct {
	// 主键
	TargetID string `db:"target_id"` // UUID, PRIMARY KEY

	// 归属
	MissionID string `db:"mission_id"` // UUID, NOT NULL, REFERENCES missions ON DELETE CASCADE

	// 目标数据
	TargetIdent   sql.NullString `db:"target_ident"`   // VARCHAR(32), nullable, BE 编号或目标代号
	TargetName    string         `db:"target_name"`    // VARCHAR(255), NOT NULL
	Description   string         `db:"description"`    // TEXT, NOT NULL, DEFAULT ''
	Latitude      float64        `db:"latitude"`       // DOUBLE PRECISION, NOT NULL, 无法解析时置 0 并打标
	Longitude     float64        `db:"longitude"`      // DOUBLE PRECISION, NOT NULL, 同上
	PriorityRank  sql.NullInt32  `db:"priority_rank"`  // INTEGER, nullable, 对应计划文档优先级序号
	DesiredEffect string         `db:"desired_effect"` // VARCHAR(255), NOT NULL, DEFAULT ''
}

// SupportRequirement 支援需求领域模型（对应 support_requirements 表）
type SupportRequirement struct {
	// 主键
	SupportID string `db:"support_id"` // UUID, PRIMARY KEY

	// 归属
	MissionID string `db:"mission_id"` // UUID, NOT NULL, REFERENCES missions ON DELETE CASCADE

	// 需求数据
	SupportType      string `db:"support_type"`      // VARCHAR(16), NOT NULL, 'TANKER' | 'SEAD' | 'ESCORT' | 'EW' | 'ISR' | 'CSAR' | 'GENERAL'
	Description      string `db:"description"`       // TEXT, NOT NULL, DEFAULT ''
	ProviderCallsign string `db:"provider_callsign"` // VARCHAR(64), NOT NULL, DEFAULT ''
}

// SpaceNeed 天基能力需求领域模型（对应 space_needs 表）
type SpaceNeed struct {
	// 主键
	SpaceNeedID string `db:"space_need_id"` // UUID, PRIMARY KEY

	// 归属
	MissionID string `db:"mission_id"` // UUID, NOT NULL, REFERENCES missions ON DELETE CASCADE

	// 需求数据
	CapabilityType string       `db:"capability_type"` // VARCHAR(32), NOT NULL, 'GPS' | 'SATCOM' | 'ISR_COLLECTION' | 'MISSILE_WARNING' | 'WEATHER'
	Description    string       `db:"description"`     // TEXT, NOT NULL, DEFAULT ''
	WindowStart    sql.NullTime `db:"window_start"`    // TIMESTAMPTZ, nullable
	WindowEnd      sql.NullTime `db:"window_end"`      // TIMESTAMPTZ, nullable
}
