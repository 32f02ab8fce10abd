package httpapi

import (
	"net/http"
	"strings"

	"overwatch-ingest/internal/progress"
	"overwatch-ingest/internal/repository"
	"overwatch-ingest/internal/service"

	"go.uber.org/zap"
)

// IngestAPI 聚合摄取 HTTP 层所需的依赖
type IngestAPI struct {
	Ingest      service.IngestService
	Hierarchy   service.HierarchyService
	Attribution service.AttributionService
	Scenarios   repository.ScenariosRepository
	Catalog     repository.TargetCatalogRepository
	Progress    *progress.Relay
	Log         *zap.Logger
}

func NewIngestAPI(
	ingest service.IngestService,
	hierarchy service.HierarchyService,
	attribution service.AttributionService,
	scenarios repository.ScenariosRepository,
	catalog repository.TargetCatalogRepository,
	relay *progress.Relay,
	logger *zap.Logger,
) *IngestAPI {
	return &IngestAPI{
		Ingest:      ingest,
		Hierarchy:   hierarchy,
		Attribution: attribution,
		Scenarios:   scenarios,
		Catalog:     catalog,
		Progress:    relay,
		Log:         logger,
	}
}

// ScenariosHandler 想定集合入口：GET 列表 / POST 创建
func (a *IngestAPI) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.ListScenarios(w, r)
	case http.MethodPost:
		a.CreateScenario(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ScenarioSubtreeHandler 想定子资源分发
// /{scenarioID}                          GET  想定详情
// /{scenarioID}/archive                  PUT  归档想定
// /{scenarioID}/documents                POST 摄取文档
// /{scenarioID}/progress                 GET  进度事件流（SSE）
// /{scenarioID}/strategy-documents[/{id}] GET 战略文档
// /{scenarioID}/planning-documents[/{id}] GET 计划文档
// /{scenarioID}/orders[/{id}]            GET  命令列表 / 命令树
// /{scenarioID}/ingest-logs              GET  摄取审计（分页）
// /{scenarioID}/records/{id}/attribution GET  来源溯源
// /{scenarioID}/catalog[/import|/export] 目标名录
func (a *IngestAPI) ScenarioSubtreeHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	segs := pathSegments(path, scenarioRoutePrefix)
	if len(segs) == 0 {
		http.NotFound(w, r)
		return
	}

	scenarioID := segs[0]
	rest := segs[1:]

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		a.GetScenario(w, r, scenarioID)
	case len(rest) == 1 && rest[0] == "archive" && r.Method == http.MethodPut:
		a.ArchiveScenario(w, r, scenarioID)
	case len(rest) == 1 && rest[0] == "documents" && r.Method == http.MethodPost:
		a.IngestDocument(w, r, scenarioID)
	case len(rest) == 1 && rest[0] == "progress" && r.Method == http.MethodGet:
		a.StreamProgress(w, r, scenarioID)
	case len(rest) == 1 && rest[0] == "strategy-documents" && r.Method == http.MethodGet:
		a.ListStrategyDocuments(w, r, scenarioID)
	case len(rest) == 2 && rest[0] == "strategy-documents" && r.Method == http.MethodGet:
		a.GetStrategyDocument(w, r, scenarioID, rest[1])
	case len(rest) == 1 && rest[0] == "planning-documents" && r.Method == http.MethodGet:
		a.ListPlanningDocuments(w, r, scenarioID)
	case len(rest) == 2 && rest[0] == "planning-documents" && r.Method == http.MethodGet:
		a.GetPlanningDocument(w, r, scenarioID, rest[1])
	case len(rest) == 1 && rest[0] == "orders" && r.Method == http.MethodGet:
		a.ListTaskingOrders(w, r, scenarioID)
	case len(rest) == 2 && rest[0] == "orders" && r.Method == http.MethodGet:
		a.GetOrderTree(w, r, scenarioID, rest[1])
	case len(rest) == 1 && rest[0] == "ingest-logs" && r.Method == http.MethodGet:
		a.ListIngestLogs(w, r, scenarioID)
	case len(rest) == 3 && rest[0] == "records" && rest[2] == "attribution" && r.Method == http.MethodGet:
		a.ResolveAttribution(w, r, scenarioID, rest[1])
	case len(rest) == 1 && rest[0] == "catalog" && r.Method == http.MethodGet:
		a.ListCatalog(w, r, scenarioID)
	case len(rest) == 2 && rest[0] == "catalog" && rest[1] == "import" && r.Method == http.MethodPost:
		a.ImportCatalog(w, r, scenarioID)
	case len(rest) == 2 && rest[0] == "catalog" && rest[1] == "export" && r.Method == http.MethodGet:
		a.ExportCatalog(w, r, scenarioID)
	default:
		http.NotFound(w, r)
	}
}

// ingestRequest 摄取请求体
type ingestRequest struct {
	RawText    string `json:"raw_text"`
	FormatHint string `json:"format_hint"`
}

// IngestDocument POST /scenarios/{scenarioID}/documents
// 同步执行分类、规整、链接与持久化；任一阶段失败时
// 进度流静默，失败原因只出现在本响应里
func (a *IngestAPI) IngestDocument(w http.ResponseWriter, r *http.Request, scenarioID string) {
	var req ingestRequest
	if err := readBodyJSON(r, 4<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body: "+err.Error()))
		return
	}

	result, err := a.Ingest.Ingest(r.Context(), service.IngestRequest{
		ScenarioID: scenarioID,
		RawText:    req.RawText,
		FormatHint: req.FormatHint,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}
