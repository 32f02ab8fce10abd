package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"overwatch-ingest/internal/genai"
	"overwatch-ingest/internal/ingest"
	"overwatch-ingest/internal/models"
	"overwatch-ingest/internal/progress"
	"overwatch-ingest/internal/repository"
)

// started 事件携带的原文开头片段长度（rune 数）
const previewLen = 120

// IngestService 摄取服务接口
type IngestService interface {
	// Ingest 同步摄取一篇规划文档：分类、规整、链接落库，
	// 全程向进度流发布事件。失败时返回阶段错误，事件流静默
	Ingest(ctx context.Context, req IngestRequest) (*models.IngestResult, error)
}

// ingestService 摄取服务实现。
// 分类器与规整器各打一次生成服务调用，链接器负责全部读写
type ingestService struct {
	classifier *ingest.Classifier
	normalizer *ingest.Normalizer
	linker     *Linker
	relay      *progress.Relay
	scenarios  repository.ScenariosRepository
	logger     *zap.Logger
}

// NewIngestService 创建摄取服务
func NewIngestService(
	completer genai.Completer,
	linker *Linker,
	relay *progress.Relay,
	scenarios repository.ScenariosRepository,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		classifier: ingest.NewClassifier(completer, logger),
		normalizer: ingest.NewNormalizer(completer, logger),
		linker:     linker,
		relay:      relay,
		scenarios:  scenarios,
		logger:     logger,
	}
}

// IngestRequest 摄取请求
type IngestRequest struct {
	ScenarioID string // 想定 id（必填）
	RawText    string // 文档原文（必填）
	FormatHint string // 可选格式提示，如 'USMTF'，只影响分类 prompt
}

// Ingest 摄取管线入口
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (*models.IngestResult, error) {
	// 1. 入参校验（想定校验在任何事件之前，不存在的想定不产生事件）
	if req.ScenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}
	if strings.TrimSpace(req.RawText) == "" {
		return nil, &ingest.ClassificationError{Err: fmt.Errorf("document text is empty")}
	}
	if _, err := s.scenarios.GetScenario(ctx, req.ScenarioID); err != nil {
		return nil, err
	}

	started := time.Now()
	ingestID := uuid.New().String()

	// 2. started 事件
	s.relay.Emit(ctx, progress.Event{
		Type:       progress.EventStarted,
		IngestID:   ingestID,
		ScenarioID: req.ScenarioID,
		ElapsedMs:  time.Since(started).Milliseconds(),
		Started: &progress.StartedData{
			TextLength: len(req.RawText),
			Preview:    textPreview(req.RawText),
		},
	})

	// 3. 分类。失败后事件流静默，调用方从同步错误感知
	classify, err := s.classifier.Classify(ctx, req.RawText, req.FormatHint)
	if err != nil {
		s.logFailure(ingestID, req.ScenarioID, err)
		return nil, err
	}
	s.relay.Emit(ctx, progress.Event{
		Type:       progress.EventClassified,
		IngestID:   ingestID,
		ScenarioID: req.ScenarioID,
		ElapsedMs:  time.Since(started).Milliseconds(),
		Classified: &progress.ClassifiedData{Result: classify},
	})

	// 4. 规整
	payload, flags, err := s.normalizer.Normalize(ctx, req.RawText, classify)
	if err != nil {
		s.logFailure(ingestID, req.ScenarioID, err)
		return nil, err
	}
	counts := ingest.CountsOf(payload)
	s.relay.Emit(ctx, progress.Event{
		Type:       progress.EventNormalized,
		IngestID:   ingestID,
		ScenarioID: req.ScenarioID,
		ElapsedMs:  time.Since(started).Milliseconds(),
		Normalized: &progress.NormalizedData{
			Counts:          counts,
			ReviewFlagCount: len(flags),
		},
	})

	// 5. 链接与持久化
	persisted, err := s.linker.LinkAndPersist(ctx, req.ScenarioID, classify, payload, req.RawText, len(flags), started)
	if err != nil {
		s.logFailure(ingestID, req.ScenarioID, err)
		return nil, err
	}

	// 6. 组装同步结果并发布 complete
	result := &models.IngestResult{
		Success:        true,
		IngestID:       ingestID,
		HierarchyLevel: string(classify.HierarchyLevel),
		DocumentType:   classify.DocumentType,
		SourceFormat:   classify.SourceFormat,
		Confidence:     classify.Confidence,
		CreatedID:      persisted.CreatedID,
		ParentLink:     parentLinkView(persisted),
		Extracted:      counts,
		ReviewFlags:    flags,
		ParseTimeMs:    time.Since(started).Milliseconds(),
	}
	s.relay.Emit(ctx, progress.Event{
		Type:       progress.EventComplete,
		IngestID:   ingestID,
		ScenarioID: req.ScenarioID,
		ElapsedMs:  result.ParseTimeMs,
		Complete:   &progress.CompleteData{Result: result},
	})

	s.logger.Info("Ingest completed",
		zap.String("ingest_id", ingestID),
		zap.String("scenario_id", req.ScenarioID),
		zap.String("hierarchy_level", result.HierarchyLevel),
		zap.String("created_id", result.CreatedID),
		zap.Int64("parse_time_ms", result.ParseTimeMs),
	)

	return result, nil
}

// logFailure 记录管线失败及其所属阶段
func (s *ingestService) logFailure(ingestID, scenarioID string, err error) {
	s.logger.Error("Ingest failed",
		zap.Error(err),
		zap.String("ingest_id", ingestID),
		zap.String("scenario_id", scenarioID),
		zap.String("stage", ingest.StageOf(err)),
	)
}

// parentLinkView 由持久化产出构建父链接视图
func parentLinkView(p *PersistResult) models.ParentLink {
	link := models.ParentLink{
		MatchedPriorities: models.NewPriorityViews(p.MatchedPriorities),
	}
	if p.ParentLinkID != "" {
		id := p.ParentLinkID
		typ := p.ParentLinkType
		link.LinkedToID = &id
		link.LinkedToType = &typ
	}
	return link
}

// textPreview 原文开头片段（按 rune 截断，避免切断多字节字符）
func textPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen])
}
