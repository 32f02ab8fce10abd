package models

import (
	"time"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/ingest"
)

// ParentLink 新文档在既有层级中的落点。
// matched_priorities 是被选中上级文档的完整有序条目列表
// （"本命令可见的全部优先级"粗粒度信号，不做逐目标匹配）
type ParentLink struct {
	LinkedToID        *string        `json:"linked_to_id,omitempty"`
	LinkedToType      *string        `json:"linked_to_type,omitempty"` // "strategy_document" | "planning_document"
	MatchedPriorities []PriorityView `json:"matched_priorities"`
}

// IngestResult 摄取同步结果（POST .../documents 的响应体）
type IngestResult struct {
	Success        bool                   `json:"success"`
	IngestID       string                 `json:"ingest_id"`
	HierarchyLevel string                 `json:"hierarchy_level"`
	DocumentType   string                 `json:"document_type"`
	SourceFormat   string                 `json:"source_format"`
	Confidence     float64                `json:"confidence"`
	CreatedID      string                 `json:"created_id"`
	ParentLink     ParentLink             `json:"parent_link"`
	Extracted      ingest.ExtractedCounts `json:"extracted"`
	ReviewFlags    []domain.ReviewFlag    `json:"review_flags"`
	ParseTimeMs    int64                  `json:"parse_time_ms"`
}

// IngestLogView 摄取审计行视图
type IngestLogView struct {
	IngestLogID     string    `json:"ingest_log_id"`
	ScenarioID      string    `json:"scenario_id"`
	InputHash       string    `json:"input_hash"`
	HierarchyLevel  string    `json:"hierarchy_level"`
	DocumentType    string    `json:"document_type"`
	SourceFormat    string    `json:"source_format"`
	Confidence      float64   `json:"confidence"`
	CreatedRecordID string    `json:"created_record_id"`
	ParentLinkID    *string   `json:"parent_link_id,omitempty"`
	PriorityCount   int       `json:"priority_count"`
	MissionCount    int       `json:"mission_count"`
	WaypointCount   int       `json:"waypoint_count"`
	TargetCount     int       `json:"target_count"`
	SpaceNeedCount  int       `json:"space_need_count"`
	ReviewFlagCount int       `json:"review_flag_count"`
	ParseTimeMs     int64     `json:"parse_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewIngestLogView 由领域模型构建视图
func NewIngestLogView(log *domain.IngestLog) IngestLogView {
	return IngestLogView{
		IngestLogID:     log.IngestLogID,
		ScenarioID:      log.ScenarioID,
		InputHash:       log.InputHash,
		HierarchyLevel:  log.HierarchyLevel,
		DocumentType:    log.DocumentType,
		SourceFormat:    log.SourceFormat,
		Confidence:      log.Confidence,
		CreatedRecordID: log.CreatedRecordID,
		ParentLinkID:    strPtr(log.ParentLinkID),
		PriorityCount:   log.PriorityCount,
		MissionCount:    log.MissionCount,
		WaypointCount:   log.WaypointCount,
		TargetCount:     log.TargetCount,
		SpaceNeedCount:  log.SpaceNeedCount,
		ReviewFlagCount: log.ReviewFlagCount,
		ParseTimeMs:     log.ParseTimeMs,
		CreatedAt:       log.CreatedAt,
	}
}

// TargetCatalogView 目标名录条目视图
type TargetCatalogView struct {
	CatalogID   string    `json:"catalog_id"`
	ScenarioID  string    `json:"scenario_id"`
	BENumber    string    `json:"be_number"`
	TargetName  string    `json:"target_name"`
	Category    string    `json:"category,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ImportedAt  time.Time `json:"imported_at"`
}

// NewTargetCatalogView 由领域模型构建视图
func NewTargetCatalogView(e *domain.TargetCatalogEntry) TargetCatalogView {
	return TargetCatalogView{
		CatalogID:   e.CatalogID,
		ScenarioID:  e.ScenarioID,
		BENumber:    e.BENumber,
		TargetName:  e.TargetName,
		Category:    e.Category,
		CountryCode: e.CountryCode,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		ImportedAt:  e.ImportedAt,
	}
}
