package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"overwatch-ingest/internal/models"

	"go.uber.org/zap"
)

// ListCatalog GET /scenarios/{scenarioID}/catalog
func (a *IngestAPI) ListCatalog(w http.ResponseWriter, r *http.Request, scenarioID string) {
	entries, err := a.Catalog.ListEntries(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	views := make([]models.TargetCatalogView, 0, len(entries))
	for _, e := range entries {
		views = append(views, models.NewTargetCatalogView(e))
	}

	writeJSON(w, http.StatusOK, Ok(views))
}

// ImportCatalog POST /scenarios/{scenarioID}/catalog/import
// multipart 表单上传 Excel（字段名 file）；坏行跳过并逐行报告，
// 好行按 (scenario_id, be_number) 覆盖写入
func (a *IngestAPI) ImportCatalog(w http.ResponseWriter, r *http.Request, scenarioID string) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to parse form: %v", err)))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file is required"))
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to read file: %v", err)))
		return
	}

	entries, rowErrors, err := ParseTargetCatalogWorkbook(fileBytes)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	imported := 0
	if len(entries) > 0 {
		imported, err = a.Catalog.UpsertEntries(r.Context(), scenarioID, entries)
		if err != nil {
			writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to import: %v", err)))
			return
		}
	}
	if rowErrors == nil {
		rowErrors = []CatalogRowError{}
	}

	a.Log.Info("Target catalog imported",
		zap.String("scenario_id", scenarioID),
		zap.Int("imported", imported),
		zap.Int("failed", len(rowErrors)))

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"total":        len(entries) + len(rowErrors),
		"imported":     imported,
		"failed_count": len(rowErrors),
		"errors":       rowErrors,
	}))
}

// ExportCatalog GET /scenarios/{scenarioID}/catalog/export
func (a *IngestAPI) ExportCatalog(w http.ResponseWriter, r *http.Request, scenarioID string) {
	entries, err := a.Catalog.ListEntries(r.Context(), scenarioID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	excelData, err := GenerateTargetCatalogExport(entries)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=target-catalog-export.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}
