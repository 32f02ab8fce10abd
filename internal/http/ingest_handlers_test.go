package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"overwatch-ingest/internal/attribution"
	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/progress"
	"overwatch-ingest/internal/repository"
	"overwatch-ingest/internal/service"

	"go.uber.org/zap"
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

// newTestAPI 内存仓库上的完整 HTTP 层与路由
func newTestAPI(completer *scriptedCompleter) (*Router, *IngestAPI, *repository.Repositories, *progress.Relay) {
	logger := zap.NewNop()
	repos := repository.NewMemoryRepositories()
	relay := progress.NewRelay(progress.NewEmitter(logger), nil, logger)
	linker := service.NewLinker(repos.Documents, repos.Orders, repos.IngestLogs, logger)

	api := NewIngestAPI(
		service.NewIngestService(completer, linker, relay, repos.Scenarios, logger),
		service.NewHierarchyService(repos.Documents, repos.Orders, repos.IngestLogs, logger),
		service.NewAttributionService(repos.Documents, repos.Orders, attribution.NewCache(nil, logger), logger),
		repos.Scenarios,
		repos.Catalog,
		relay,
		logger,
	)

	router := NewRouter(logger)
	router.RegisterIngestRoutes(api)
	return router, api, repos, relay
}

func mustCreateScenario(t *testing.T, repos *repository.Repositories, name string) string {
	t.Helper()
	id, err := repos.Scenarios.CreateScenario(context.Background(), &domain.Scenario{ScenarioName: name})
	if err != nil {
		t.Fatalf("create scenario: %v", err)
	}
	return id
}

func TestIngestDocument_WrapsResultAndPersists(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classifyPlanningJSON, extractPlanningJSON}}
	router, _, repos, _ := newTestAPI(completer)
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	body := `{"raw_text":"JIPTL 26-02 raw message body","format_hint":"USMTF"}`
	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix+"/"+scenarioID+"/documents", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":2000`) {
		t.Fatalf("expected wrapper code=2000, got: %s", got)
	}
	if !strings.Contains(got, `"hierarchy_level":"PLANNING"`) || !strings.Contains(got, `"document_type":"JIPTL"`) {
		t.Fatalf("expected classification fields in result, got: %s", got)
	}
	if !strings.Contains(got, `"priority_count":2`) {
		t.Fatalf("expected extracted priority count, got: %s", got)
	}

	// 列表接口能看到刚摄取的文档
	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/planning-documents", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"title":"JIPTL 26-02"`) {
		t.Fatalf("expected persisted document in list, got: %s", w.Body.String())
	}
}

func TestIngestDocument_PipelineFailureReturnsFailEnvelope(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("generation service unavailable")}}
	router, _, repos, _ := newTestAPI(completer)
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	body := `{"raw_text":"OPORD fragment"}`
	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix+"/"+scenarioID+"/documents", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":-1`) {
		t.Fatalf("expected wrapper code=-1, got: %s", got)
	}
	if !strings.Contains(got, "classification failed") {
		t.Fatalf("expected classification failure message, got: %s", got)
	}
}

func TestIngestDocument_UnknownScenario(t *testing.T) {
	completer := &scriptedCompleter{}
	router, _, _, _ := newTestAPI(completer)

	body := `{"raw_text":"OPORD fragment"}`
	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix+"/missing-id/documents", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":-1`) || !strings.Contains(got, "scenario not found") {
		t.Fatalf("expected scenario not found failure, got: %s", got)
	}
	if completer.calls != 0 {
		t.Fatalf("expected no generation calls for unknown scenario, got %d", completer.calls)
	}
}

func TestScenarioSubtree_UnknownRouteIs404(t *testing.T) {
	router, _, repos, _ := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown subtree path, got %d", w.Code)
	}
}

func TestScenarioSubtree_WrongMethodIs404(t *testing.T) {
	router, _, repos, _ := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	// documents 只接受 POST
	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for wrong method, got %d", w.Code)
	}
}
