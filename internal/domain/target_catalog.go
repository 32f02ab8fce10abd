package domain

import "time"

// TargetCatalogEntry 目标名录领域模型（对应 target_catalog 表）
// BE 编号参考数据，经 Excel 批量导入；为 priority_entries.target_id
// 与任务目标的 target_ident 提供交叉引用。按 (scenario_id, be_number) 唯一
type TargetCatalogEntry struct {
	// 主键
	CatalogID string `db:"catalog_id"` // UUID, PRIMARY KEY

	// 想定（租户边界）
	ScenarioID string `db:"scenario_id"` // UUID, NOT NULL, REFERENCES scenarios

	// 名录数据
	BENumber    string  `db:"be_number"`    // VARCHAR(32), NOT NULL, UNIQUE (scenario_id, be_number)
	TargetName  string  `db:"target_name"`  // VARCHAR(255), NOT NULL
	Category    string  `db:"category"`     // VARCHAR(64), NOT NULL, DEFAULT ''
	CountryCode string  `db:"country_code"` // VARCHAR(8), NOT NULL, DEFAULT ''
	Latitude    float64 `db:"latitude"`     // DOUBLE PRECISION, NOT NULL, DEFAULT 0
	Longitude   float64 `db:"longitude"`    // DOUBLE PRECISION, NOT NULL, DEFAULT 0

	// 时间戳
	ImportedAt time.Time `db:"imported_at"` // TIMESTAMPTZ, NOT NULL, DEFAULT NOW()
}
