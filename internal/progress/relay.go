package progress

import (
	"context"
	"encoding/json"

	commonredis "overwatch-ingest/internal/common/redis"

	"go.uber.org/zap"
)

// ChannelFor 返回某想定的进度发布频道名
func ChannelFor(scenarioID string) string {
	return "overwatch:progress:" + scenarioID
}

// Relay 在进程内分发进度事件，并镜像到 Redis pub/sub 供进程外订阅。
// 转发失败只记日志，不影响摄取管线。
type Relay struct {
	emitter     *Emitter
	client      *commonredis.Client // 可为 nil（未配置 Redis 时仅进程内分发）
	logger      *zap.Logger
	eventStream string // 摄取完成摘要流，空串关闭
}

// NewRelay 创建进度转发器
func NewRelay(emitter *Emitter, client *commonredis.Client, logger *zap.Logger) *Relay {
	return &Relay{
		emitter: emitter,
		client:  client,
		logger:  logger,
	}
}

// EnableEventStream 开启摄取完成摘要的下游发布。
// 每个 complete 事件额外向该 Redis Stream 追加一条摘要，
// 供推演时钟与决策顾问消费
func (r *Relay) EnableEventStream(stream string) {
	r.eventStream = stream
}

// Subscribe 订阅某想定的进程内进度事件
func (r *Relay) Subscribe(scenarioID string) *Subscription {
	return r.emitter.Subscribe(scenarioID)
}

// Unsubscribe 取消订阅
func (r *Relay) Unsubscribe(sub *Subscription) {
	r.emitter.Unsubscribe(sub)
}

// Emit 发布一个进度事件：先进程内分发，再镜像到 Redis
func (r *Relay) Emit(ctx context.Context, event Event) {
	r.emitter.Emit(event)

	if r.client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("Failed to marshal progress event",
			zap.String("scenario_id", event.ScenarioID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return
	}

	if err := r.client.Publish(ctx, ChannelFor(event.ScenarioID), payload).Err(); err != nil {
		r.logger.Warn("Failed to relay progress event to Redis",
			zap.String("scenario_id", event.ScenarioID),
			zap.String("event_type", event.Type),
			zap.Error(err))
	}

	if event.Type == EventComplete && r.eventStream != "" {
		r.publishIngested(ctx, event)
	}
}

// IngestedSummary 摄取完成摘要（下游事件流载荷）
type IngestedSummary struct {
	IngestID       string `json:"ingest_id"`
	ScenarioID     string `json:"scenario_id"`
	HierarchyLevel string `json:"hierarchy_level"`
	DocumentType   string `json:"document_type"`
	CreatedID      string `json:"created_id"`
	LinkedToID     string `json:"linked_to_id,omitempty"`
	PriorityCount  int    `json:"priority_count"`
	MissionCount   int    `json:"mission_count"`
	TargetCount    int    `json:"target_count"`
	ParseTimeMs    int64  `json:"parse_time_ms"`
}

// publishIngested 向下游事件流追加摄取完成摘要，失败只记日志
func (r *Relay) publishIngested(ctx context.Context, event Event) {
	if event.Complete == nil || event.Complete.Result == nil {
		return
	}
	result := event.Complete.Result

	summary := IngestedSummary{
		IngestID:       event.IngestID,
		ScenarioID:     event.ScenarioID,
		HierarchyLevel: result.HierarchyLevel,
		DocumentType:   result.DocumentType,
		CreatedID:      result.CreatedID,
		PriorityCount:  result.Extracted.PriorityCount,
		MissionCount:   result.Extracted.MissionCount,
		TargetCount:    result.Extracted.TargetCount,
		ParseTimeMs:    result.ParseTimeMs,
	}
	if result.ParentLink.LinkedToID != nil {
		summary.LinkedToID = *result.ParentLink.LinkedToID
	}

	if _, err := commonredis.PublishJSONToStream(ctx, r.client, r.eventStream, summary); err != nil {
		r.logger.Warn("Failed to publish ingested summary",
			zap.String("scenario_id", event.ScenarioID),
			zap.String("ingest_id", event.IngestID),
			zap.Error(err))
	}
}
