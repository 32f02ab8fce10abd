package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/ingest"
	"overwatch-ingest/internal/progress"
	"overwatch-ingest/internal/repository"
)

// scriptedCompleter 按调用次序返回预置响应的生成服务桩
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string, maxTokens int, structured bool) (string, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", idx+1)
}

// setupTestIngest 内存仓库加进程内进度流的完整管线
func setupTestIngest(t *testing.T, completer *scriptedCompleter) (IngestService, *repository.Repositories, *progress.Relay, string) {
	t.Helper()
	logger := zap.NewNop()
	repos := repository.NewMemoryRepositories()
	relay := progress.NewRelay(progress.NewEmitter(logger), nil, logger)
	linker := NewLinker(repos.Documents, repos.Orders, repos.IngestLogs, logger)
	svc := NewIngestService(completer, linker, relay, repos.Scenarios, logger)

	scenarioID, err := repos.Scenarios.CreateScenario(context.Background(), &domain.Scenario{
		ScenarioName: "KOREA-26 EXERCISE",
	})
	require.NoError(t, err)
	return svc, repos, relay, scenarioID
}

const classifyPlanningJSON = `{
	"hierarchy_level": "PLANNING",
	"document_type": "JIPTL",
	"source_format": "USMTF",
	"confidence": 0.92,
	"title": "JIPTL 26-02",
	"issuing_authority": "JFACC",
	"effective_date": "2026-02-01"
}`

const extractPlanningJSON = `{
	"title": "JIPTL 26-02",
	"doc_type": "JIPTL",
	"authority_level": "JFACC",
	"content": "Destroy the IADS command nodes. Neutralize SRBM launchers.",
	"effective_date": "2026-02-01",
	"priorities": [
		{"rank": 1, "effect": "DESTROY", "description": "IADS command nodes", "target_id": "BE0123-4567"},
		{"rank": 2, "effect": "NEUTRALIZE", "description": "SRBM launchers"}
	]
}`

func drainEvents(t *testing.T, sub *progress.Subscription, want int) []progress.Event {
	t.Helper()
	events := make([]progress.Event, 0, want)
	for i := 0; i < want; i++ {
		select {
		case ev := <-sub.C:
			events = append(events, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, want)
		}
	}
	return events
}

func TestIngest_PlanningEndToEnd(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classifyPlanningJSON, extractPlanningJSON}}
	svc, repos, relay, scenarioID := setupTestIngest(t, completer)
	ctx := context.Background()

	strategyID := seedStrategy(t, repos, scenarioID, "Theater strategy", dayOf(2026, time.January, 1))

	sub := relay.Subscribe(scenarioID)
	defer relay.Unsubscribe(sub)

	rawText := "JIPTL 26-02 raw message body"
	result, err := svc.Ingest(ctx, IngestRequest{ScenarioID: scenarioID, RawText: rawText, FormatHint: "USMTF"})
	require.NoError(t, err)

	// 同步结果
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.IngestID)
	assert.Equal(t, "PLANNING", result.HierarchyLevel)
	assert.Equal(t, "JIPTL", result.DocumentType)
	assert.Equal(t, "USMTF", result.SourceFormat)
	assert.NotEmpty(t, result.CreatedID)
	require.NotNil(t, result.ParentLink.LinkedToID)
	assert.Equal(t, strategyID, *result.ParentLink.LinkedToID)
	assert.Equal(t, LinkTypeStrategyDocument, *result.ParentLink.LinkedToType)
	assert.Equal(t, 2, result.Extracted.PriorityCount)
	assert.Empty(t, result.ReviewFlags)
	assert.GreaterOrEqual(t, result.ParseTimeMs, int64(0))

	// 两次生成调用：分类一次、抽取一次
	assert.Equal(t, 2, completer.calls)

	// 四个进度事件按序到达，共享 ingest_id，耗时单调不减
	events := drainEvents(t, sub, 4)
	assert.Equal(t, progress.EventStarted, events[0].Type)
	assert.Equal(t, progress.EventClassified, events[1].Type)
	assert.Equal(t, progress.EventNormalized, events[2].Type)
	assert.Equal(t, progress.EventComplete, events[3].Type)
	for i, ev := range events {
		assert.Equal(t, result.IngestID, ev.IngestID)
		assert.Equal(t, scenarioID, ev.ScenarioID)
		if i > 0 {
			assert.GreaterOrEqual(t, ev.ElapsedMs, events[i-1].ElapsedMs)
		}
	}

	require.NotNil(t, events[0].Started)
	assert.Equal(t, len(rawText), events[0].Started.TextLength)
	assert.Equal(t, rawText, events[0].Started.Preview)

	require.NotNil(t, events[1].Classified)
	assert.Equal(t, "JIPTL", events[1].Classified.Result.DocumentType)

	require.NotNil(t, events[2].Normalized)
	assert.Equal(t, 2, events[2].Normalized.Counts.PriorityCount)
	assert.Equal(t, 0, events[2].Normalized.ReviewFlagCount)

	require.NotNil(t, events[3].Complete)
	assert.Equal(t, result.CreatedID, events[3].Complete.Result.CreatedID)

	// 文档落库且带上级链接
	stored, err := repos.Documents.GetPlanningDocument(ctx, scenarioID, result.CreatedID)
	require.NoError(t, err)
	require.True(t, stored.Document.StrategyDocID.Valid)
	assert.Equal(t, strategyID, stored.Document.StrategyDocID.String)
	require.Len(t, stored.Priorities, 2)
}

func TestIngest_LongTextPreviewTruncated(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classifyPlanningJSON, extractPlanningJSON}}
	svc, _, relay, scenarioID := setupTestIngest(t, completer)

	sub := relay.Subscribe(scenarioID)
	defer relay.Unsubscribe(sub)

	long := ""
	for i := 0; i < 40; i++ {
		long += "OPORD LINE " // 11 字符
	}
	_, err := svc.Ingest(context.Background(), IngestRequest{ScenarioID: scenarioID, RawText: long})
	require.NoError(t, err)

	events := drainEvents(t, sub, 4)
	require.NotNil(t, events[0].Started)
	assert.Equal(t, len(long), events[0].Started.TextLength)
	assert.Len(t, []rune(events[0].Started.Preview), previewLen)
}

func TestIngest_ClassificationFailureGoesSilent(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("generation service unavailable")}}
	svc, repos, relay, scenarioID := setupTestIngest(t, completer)
	ctx := context.Background()

	sub := relay.Subscribe(scenarioID)
	defer relay.Unsubscribe(sub)

	_, err := svc.Ingest(ctx, IngestRequest{ScenarioID: scenarioID, RawText: "garbled input"})
	require.Error(t, err)

	var cerr *ingest.ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ingest.StageClassification, ingest.StageOf(err))

	// 只有 started 事件，没有失败事件
	events := drainEvents(t, sub, 1)
	assert.Equal(t, progress.EventStarted, events[0].Type)
	assert.Empty(t, sub.C)

	// 无任何落库
	_, total, err := repos.IngestLogs.ListIngestLogs(ctx, scenarioID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestIngest_NormalizationFailureGoesSilent(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{classifyPlanningJSON, "this is not json"},
	}
	svc, repos, relay, scenarioID := setupTestIngest(t, completer)
	ctx := context.Background()

	sub := relay.Subscribe(scenarioID)
	defer relay.Unsubscribe(sub)

	_, err := svc.Ingest(ctx, IngestRequest{ScenarioID: scenarioID, RawText: "JIPTL body"})
	require.Error(t, err)

	var nerr *ingest.NormalizationError
	require.ErrorAs(t, err, &nerr)

	// started 与 classified 之后事件流静默
	events := drainEvents(t, sub, 2)
	assert.Equal(t, progress.EventStarted, events[0].Type)
	assert.Equal(t, progress.EventClassified, events[1].Type)
	assert.Empty(t, sub.C)

	docs, err := repos.Documents.ListPlanningDocuments(ctx, scenarioID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngest_UnknownScenarioRejectedBeforeEvents(t *testing.T) {
	completer := &scriptedCompleter{}
	svc, _, relay, _ := setupTestIngest(t, completer)

	sub := relay.Subscribe("no-such-scenario")
	defer relay.Unsubscribe(sub)

	_, err := svc.Ingest(context.Background(), IngestRequest{ScenarioID: "no-such-scenario", RawText: "body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario not found")

	// 想定校验在任何事件与生成调用之前
	assert.Empty(t, sub.C)
	assert.Equal(t, 0, completer.calls)
}

func TestIngest_EmptyTextIsClassificationError(t *testing.T) {
	completer := &scriptedCompleter{}
	svc, _, _, scenarioID := setupTestIngest(t, completer)

	_, err := svc.Ingest(context.Background(), IngestRequest{ScenarioID: scenarioID, RawText: "   \n  "})
	require.Error(t, err)

	var cerr *ingest.ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, completer.calls)
}
