package httpapi

import (
	"net/http"
	"strings"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/models"
)

// scenarioRequest 创建想定请求体
type scenarioRequest struct {
	ScenarioName string `json:"scenario_name"`
	Description  string `json:"description"`
}

// CreateScenario POST /scenarios
func (a *IngestAPI) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.ScenarioName) == "" {
		writeJSON(w, http.StatusOK, Fail("scenario_name is required"))
		return
	}

	id, err := a.Scenarios.CreateScenario(r.Context(), &domain.Scenario{
		ScenarioName: strings.TrimSpace(req.ScenarioName),
		Description:  req.Description,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	scenario, err := a.Scenarios.GetScenario(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(models.NewScenarioView(scenario)))
}

// ListScenarios GET /scenarios?status=active|archived
func (a *IngestAPI) ListScenarios(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != "active" && status != "archived" {
		writeJSON(w, http.StatusOK, Fail("invalid status filter: "+status))
		return
	}

	scenarios, err := a.Scenarios.ListScenarios(r.Context(), status)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	views := make([]models.ScenarioView, 0, len(scenarios))
	for _, s := range scenarios {
		views = append(views, models.NewScenarioView(s))
	}

	writeJSON(w, http.StatusOK, Ok(views))
}

// GetScenario GET /scenarios/{scenarioID}
func (a *IngestAPI) GetScenario(w http.ResponseWriter, r *http.Request, scenarioID string) {
	scenario, err := a.Scenarios.GetScenario(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(models.NewScenarioView(scenario)))
}

// ArchiveScenario PUT /scenarios/{scenarioID}/archive
// 只改状态标记，已有文档与命令保持可查
func (a *IngestAPI) ArchiveScenario(w http.ResponseWriter, r *http.Request, scenarioID string) {
	if err := a.Scenarios.ArchiveScenario(r.Context(), scenarioID); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{
		"scenario_id": scenarioID,
		"status":      "archived",
	}))
}
