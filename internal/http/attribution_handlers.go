package httpapi

import (
	"net/http"

	"overwatch-ingest/internal/service"
)

// ResolveAttribution GET /scenarios/{scenarioID}/records/{recordID}/attribution?kind=strategy|planning|order
// 对记录的源文本做模糊匹配，返回各实体的高亮区间与配色
func (a *IngestAPI) ResolveAttribution(w http.ResponseWriter, r *http.Request, scenarioID, recordID string) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = service.AttributionKindOrder
	}

	resp, err := a.Attribution.Resolve(r.Context(), scenarioID, kind, recordID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
