package progress

import (
	"overwatch-ingest/internal/ingest"
	"overwatch-ingest/internal/models"
)

// 事件类型。一次摄取按序发布四个事件；阶段失败后事件流静默，
// 没有专门的失败事件，调用方从同步错误返回感知失败
const (
	EventStarted    = "started"
	EventClassified = "classified"
	EventNormalized = "normalized"
	EventComplete   = "complete"
)

// Event 摄取进度事件。同一次摄取的四个事件共享 IngestID，
// ElapsedMs 自管线入口起算，单调不减
type Event struct {
	Type       string `json:"type"`
	IngestID   string `json:"ingest_id"`
	ScenarioID string `json:"scenario_id"`
	ElapsedMs  int64  `json:"elapsed_ms"`

	Started    *StartedData    `json:"started,omitempty"`
	Classified *ClassifiedData `json:"classified,omitempty"`
	Normalized *NormalizedData `json:"normalized,omitempty"`
	Complete   *CompleteData   `json:"complete,omitempty"`
}

// StartedData started 事件载荷：原文长度与开头片段
type StartedData struct {
	TextLength int    `json:"text_length"`
	Preview    string `json:"preview"`
}

// ClassifiedData classified 事件载荷：完整分类结果
type ClassifiedData struct {
	Result *ingest.ClassifyResult `json:"result"`
}

// NormalizedData normalized 事件载荷：抽取计数预览
type NormalizedData struct {
	Counts          ingest.ExtractedCounts `json:"counts"`
	ReviewFlagCount int                    `json:"review_flag_count"`
}

// CompleteData complete 事件载荷：完整持久化结果
type CompleteData struct {
	Result *models.IngestResult `json:"result"`
}
