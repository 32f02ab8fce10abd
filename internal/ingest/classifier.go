package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/genai"
)

// 各阶段生成调用的输出预算
const (
	classifyMaxTokens = 1024
	extractMaxTokens  = 8192
)

// ClassifyResult 分类结果元组。层级确定后不再变更；
// EffectiveDate 原样携带，由规整阶段解析
type ClassifyResult struct {
	HierarchyLevel   domain.HierarchyLevel `json:"hierarchy_level"`
	DocumentType     string                `json:"document_type"`
	SourceFormat     string                `json:"source_format"`
	Confidence       float64               `json:"confidence"`
	Title            string                `json:"title"`
	IssuingAuthority string                `json:"issuing_authority"`
	EffectiveDate    string                `json:"effective_date,omitempty"`
}

// classifyResponse 生成服务返回的分类 JSON（数值字段宽松解码）
type classifyResponse struct {
	HierarchyLevel   string          `json:"hierarchy_level"`
	DocumentType     string          `json:"document_type"`
	SourceFormat     string          `json:"source_format"`
	Confidence       json.RawMessage `json:"confidence"`
	Title            string          `json:"title"`
	IssuingAuthority string          `json:"issuing_authority"`
	EffectiveDate    string          `json:"effective_date"`
}

// Classifier 分类器：一次生成调用把原文映射为层级元组。
// 纯转换加一次外部调用，无其他副作用
type Classifier struct {
	completer genai.Completer
	logger    *zap.Logger
}

// NewClassifier 创建分类器
func NewClassifier(completer genai.Completer, logger *zap.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		logger:    logger,
	}
}

// Classify 对原文做层级分类。formatHint 仅作提示传给生成服务，不参与裁决。
// 生成服务无内容、输出无法解析或层级非法时返回 ClassificationError，
// 管线在任何持久化之前终止
func (c *Classifier) Classify(ctx context.Context, rawText, formatHint string) (*ClassifyResult, error) {
	prompt := buildClassifyPrompt(rawText, formatHint)

	content, err := c.completer.Complete(ctx, prompt, classifyMaxTokens, true)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}

	var resp classifyResponse
	if err := json.Unmarshal(stripCodeFence(content), &resp); err != nil {
		c.logger.Error("Classification output is not valid JSON",
			zap.Error(err),
		)
		return nil, &ClassificationError{Err: fmt.Errorf("unparseable classification output: %w", err)}
	}

	level := domain.HierarchyLevel(normalizeToken(resp.HierarchyLevel))
	if !level.IsValid() {
		return nil, &ClassificationError{Err: fmt.Errorf("invalid hierarchy level %q", resp.HierarchyLevel)}
	}

	confidence, ok := flexFloat(resp.Confidence)
	if !ok {
		confidence = 0.5 // 生成服务未给出数值置信度时取中性值
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	result := &ClassifyResult{
		HierarchyLevel:   level,
		DocumentType:     normalizeToken(resp.DocumentType),
		SourceFormat:     normalizeToken(resp.SourceFormat),
		Confidence:       confidence,
		Title:            strings.TrimSpace(resp.Title),
		IssuingAuthority: strings.TrimSpace(resp.IssuingAuthority),
		EffectiveDate:    strings.TrimSpace(resp.EffectiveDate),
	}

	if result.SourceFormat == "" {
		result.SourceFormat = "FREE_TEXT"
	}

	c.logger.Info("Document classified",
		zap.String("hierarchy_level", string(result.HierarchyLevel)),
		zap.String("document_type", result.DocumentType),
		zap.String("source_format", result.SourceFormat),
		zap.Float64("confidence", result.Confidence),
	)

	return result, nil
}
