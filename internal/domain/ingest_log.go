package domain

import (
	"database/sql"
	"time"
)

// IngestLog 摄取审计日志领域模型（对应 ingest_logs 表）
// 每次成功摄取一行，只追加不修改。input_hash 仅作审计线索，
// 不做去重：同一原文重复摄取会各自落一行（保留"总是重新处理"语义）
type IngestLog struct {
	// 主键
	IngestLogID string `db:"ingest_log_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL, REFERENCES scenarios

	// 输入指纹
	InputHash string `db:"input_hash"` // CHAR(64), NOT NULL, 原文 SHA-256（hex）

	// 分类结果
	HierarchyLevel string  `db:"hierarchy_level"` // VARCHAR(16), NOT NULL, 'STRATEGY' | 'PLANNING' | 'ORDER'
	DocumentType   string  `db:"document_type"`   // VARCHAR(32), NOT NULL
	SourceFormat   string  `db:"source_format"`   // VARCHAR(32), NOT NULL
	Confidence     float64 `db:"confidence"`      // DOUBLE PRECISION, NOT NULL

	// 产出记录
	CreatedRecordID string         `db:"created_record_id"` // UUID, NOT NULL, 本次创建的文档/命令 id
	ParentLinkID    sql.NullString `db:"parent_link_id"`    // UUID, nullable, 链接到的上级文档 id

	// 抽取计数
	PriorityCount   int `db:"priority_count"`    // INTEGER, NOT NULL, DEFAULT 0
	MissionCount    int `db:"mission_count"`     // INTEGER, NOT NULL, DEFAULT 0
	WaypointCount   int `db:"waypoint_count"`    // INTEGER, NOT NULL, DEFAULT 0
	TargetCount     int `db:"target_count"`      // INTEGER, NOT NULL, DEFAULT 0
	SpaceNeedCount  int `db:"space_need_count"`  // INTEGER, NOT NULL, DEFAULT 0
	ReviewFlagCount int `db:"review_flag_count"` // INTEGER, NOT NULL, DEFAULT 0

	// 耗时与时间戳
	ParseTimeMs int64     `db:"parse_time_ms"` // BIGINT, NOT NULL, 管线总耗时（毫秒）
	CreatedAt   time.Time `db:"created_at"`    // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}
