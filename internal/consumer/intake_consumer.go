package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonredis "overwatch-ingest/internal/common/redis"
	"overwatch-ingest/internal/config"
	"overwatch-ingest/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 每次 XREADGROUP 拉取的消息上限
const intakeBatchSize = 16

// RawDocument 原始文档流消息（overwatch:documents:raw）
type RawDocument struct {
	ScenarioID string `json:"scenario_id"`
	RawText    string `json:"raw_text"`
	FormatHint string `json:"format_hint,omitempty"`
}

// IntakeConsumer 原始文档流消费者。
// 每条消息走与 HTTP 相同的摄取管线；摄取失败记日志后跳过，
// 消费不中断
type IntakeConsumer struct {
	redisClient *redis.Client
	ingest      service.IngestService
	logger      *zap.Logger
	stream      string
	group       string
	consumer    string
}

// NewIntakeConsumer 创建文档流消费者
func NewIntakeConsumer(
	redisClient *redis.Client,
	ingestSvc service.IngestService,
	cfg config.IntakeConfig,
	logger *zap.Logger,
) *IntakeConsumer {
	return &IntakeConsumer{
		redisClient: redisClient,
		ingest:      ingestSvc,
		logger:      logger,
		stream:      cfg.Stream,
		group:       cfg.Group,
		consumer:    cfg.Consumer,
	}
}

// Start 启动消费循环，阻塞到 ctx 取消
func (c *IntakeConsumer) Start(ctx context.Context) error {
	if err := commonredis.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Document intake consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.group),
		zap.String("consumer_name", c.consumer),
	)

	// 消费消息（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeMessages(ctx); err != nil {
				c.logger.Error("Failed to consume documents",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				// 成功时重置退避时间
				backoffDuration = time.Second
			}
		}
	}
}

// consumeMessages 读取并处理一批消息
func (c *IntakeConsumer) consumeMessages(ctx context.Context) error {
	messages, err := commonredis.ReadFromStream(ctx, c.redisClient, c.stream, c.group, c.consumer, intakeBatchSize)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		c.processDocument(ctx, msg)

		// 成功与失败都确认：管线错误是终态，不重投
		if err := commonredis.AckMessage(ctx, c.redisClient, c.stream, c.group, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processDocument 处理单条消息，失败只记日志
func (c *IntakeConsumer) processDocument(ctx context.Context, msg commonredis.StreamMessage) {
	doc, err := parseRawDocument(msg)
	if err != nil {
		c.logger.Error("Skipping malformed intake message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}

	result, err := c.ingest.Ingest(ctx, service.IngestRequest{
		ScenarioID: doc.ScenarioID,
		RawText:    doc.RawText,
		FormatHint: doc.FormatHint,
	})
	if err != nil {
		c.logger.Error("Skipping document after ingest failure",
			zap.String("message_id", msg.ID),
			zap.String("scenario_id", doc.ScenarioID),
			zap.Error(err),
		)
		return
	}

	c.logger.Info("Document ingested from stream",
		zap.String("message_id", msg.ID),
		zap.String("scenario_id", doc.ScenarioID),
		zap.String("ingest_id", result.IngestID),
		zap.String("created_id", result.CreatedID),
	)
}

// parseRawDocument 解析流消息：优先 data 字段里的 JSON，退回散字段
func parseRawDocument(msg commonredis.StreamMessage) (*RawDocument, error) {
	if dataStr, ok := msg.Values["data"].(string); ok {
		var doc RawDocument
		if err := json.Unmarshal([]byte(dataStr), &doc); err == nil && doc.ScenarioID != "" && doc.RawText != "" {
			return &doc, nil
		}
	}

	doc := &RawDocument{}
	if scenarioID, ok := msg.Values["scenario_id"].(string); ok {
		doc.ScenarioID = scenarioID
	}
	if rawText, ok := msg.Values["raw_text"].(string); ok {
		doc.RawText = rawText
	}
	if formatHint, ok := msg.Values["format_hint"].(string); ok {
		doc.FormatHint = formatHint
	}

	if doc.ScenarioID == "" || doc.RawText == "" {
		return nil, fmt.Errorf("invalid document message: missing scenario_id or raw_text")
	}
	return doc, nil
}
