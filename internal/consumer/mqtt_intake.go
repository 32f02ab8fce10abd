package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	commonmqtt "overwatch-ingest/internal/common/mqtt"
	"overwatch-ingest/internal/service"

	"go.uber.org/zap"
)

// mqttDocument MQTT 推送的文档载荷。
// 载荷不是 JSON 时整体按原文处理（外场单位可直接推原始报文）
type mqttDocument struct {
	RawText    string `json:"raw_text"`
	FormatHint string `json:"format_hint,omitempty"`
}

// MQTTIntake MQTT 文档接入。订阅 overwatch/{scenarioID}/documents，
// 想定 ID 取自主题第二段；MQTT_ENABLED=false 时不创建
type MQTTIntake struct {
	mqttClient *commonmqtt.Client
	ingest     service.IngestService
	topic      string
	logger     *zap.Logger

	ctx context.Context // Start 传入，订阅回调沿用
}

// NewMQTTIntake 创建 MQTT 文档接入
func NewMQTTIntake(
	mqttClient *commonmqtt.Client,
	ingestSvc service.IngestService,
	topic string,
	logger *zap.Logger,
) *MQTTIntake {
	return &MQTTIntake{
		mqttClient: mqttClient,
		ingest:     ingestSvc,
		topic:      topic,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Start 订阅主题并阻塞到 ctx 取消
func (c *MQTTIntake) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("MQTT intake topic not configured")
	}
	c.ctx = ctx

	if err := c.mqttClient.Subscribe(c.topic, 1, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to intake topic: %w", err)
	}

	c.logger.Info("MQTT intake started",
		zap.String("topic", c.topic),
	)

	<-ctx.Done()
	return nil
}

// Stop 取消订阅
func (c *MQTTIntake) Stop(ctx context.Context) error {
	if c.topic != "" {
		if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT intake stopped")
	return nil
}

// handleMessage 处理单条 MQTT 消息，失败只记日志
func (c *MQTTIntake) handleMessage(topic string, payload []byte) error {
	scenarioID, err := scenarioFromTopic(topic)
	if err != nil {
		c.logger.Error("Skipping message on malformed topic",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return nil
	}

	rawText, formatHint := parseMQTTPayload(payload)
	if strings.TrimSpace(rawText) == "" {
		c.logger.Error("Skipping empty MQTT document",
			zap.String("topic", topic),
		)
		return nil
	}

	result, err := c.ingest.Ingest(c.ctx, service.IngestRequest{
		ScenarioID: scenarioID,
		RawText:    rawText,
		FormatHint: formatHint,
	})
	if err != nil {
		c.logger.Error("Skipping MQTT document after ingest failure",
			zap.String("topic", topic),
			zap.String("scenario_id", scenarioID),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("Document ingested from MQTT",
		zap.String("topic", topic),
		zap.String("scenario_id", scenarioID),
		zap.String("ingest_id", result.IngestID),
		zap.String("created_id", result.CreatedID),
	)
	return nil
}

// scenarioFromTopic 从 overwatch/{scenarioID}/documents 主题取想定 ID
func scenarioFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "overwatch" || parts[2] != "documents" || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic format: %s", topic)
	}
	return parts[1], nil
}

// parseMQTTPayload 解析载荷：JSON 取 raw_text/format_hint，否则整体当原文
func parseMQTTPayload(payload []byte) (rawText, formatHint string) {
	var doc mqttDocument
	if err := json.Unmarshal(payload, &doc); err == nil && doc.RawText != "" {
		return doc.RawText, doc.FormatHint
	}
	return string(payload), ""
}
