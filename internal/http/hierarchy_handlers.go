package httpapi

import (
	"net/http"
)

// 审计日志分页上限
const maxIngestLogPageSize = 100

// ListStrategyDocuments GET /scenarios/{scenarioID}/strategy-documents
func (a *IngestAPI) ListStrategyDocuments(w http.ResponseWriter, r *http.Request, scenarioID string) {
	docs, err := a.Hierarchy.ListStrategyDocuments(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(docs))
}

// GetStrategyDocument GET /scenarios/{scenarioID}/strategy-documents/{docID}
// 详情含优先级条目
func (a *IngestAPI) GetStrategyDocument(w http.ResponseWriter, r *http.Request, scenarioID, docID string) {
	doc, err := a.Hierarchy.GetStrategyDocument(r.Context(), scenarioID, docID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(doc))
}

// ListPlanningDocuments GET /scenarios/{scenarioID}/planning-documents
func (a *IngestAPI) ListPlanningDocuments(w http.ResponseWriter, r *http.Request, scenarioID string) {
	docs, err := a.Hierarchy.ListPlanningDocuments(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(docs))
}

// GetPlanningDocument GET /scenarios/{scenarioID}/planning-documents/{docID}
func (a *IngestAPI) GetPlanningDocument(w http.ResponseWriter, r *http.Request, scenarioID, docID string) {
	doc, err := a.Hierarchy.GetPlanningDocument(r.Context(), scenarioID, docID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(doc))
}

// ListTaskingOrders GET /scenarios/{scenarioID}/orders
func (a *IngestAPI) ListTaskingOrders(w http.ResponseWriter, r *http.Request, scenarioID string) {
	orders, err := a.Hierarchy.ListTaskingOrders(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(orders))
}

// GetOrderTree GET /scenarios/{scenarioID}/orders/{orderID}
// 返回命令及其下属任务包、任务、航点与目标的完整树
func (a *IngestAPI) GetOrderTree(w http.ResponseWriter, r *http.Request, scenarioID, orderID string) {
	tree, err := a.Hierarchy.GetOrderTree(r.Context(), scenarioID, orderID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(tree))
}

// ListIngestLogs GET /scenarios/{scenarioID}/ingest-logs?page=1&size=20
func (a *IngestAPI) ListIngestLogs(w http.ResponseWriter, r *http.Request, scenarioID string) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	size := parseInt(r.URL.Query().Get("size"), 20)
	if size > maxIngestLogPageSize {
		size = maxIngestLogPageSize
	}

	logs, err := a.Hierarchy.ListIngestLogs(r.Context(), scenarioID, page, size)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(logs))
}
