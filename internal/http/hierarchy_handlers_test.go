package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"overwatch-ingest/internal/models"
)

const classifyOrderJSON = `{
	"hierarchy_level": "ORDER",
	"document_type": "ATO",
	"source_format": "USMTF",
	"confidence": 0.88,
	"title": "ATO CHARLIE",
	"issuing_authority": "JFACC"
}`

const extractOrderJSON = `{
	"order_type": "ATO",
	"order_code": "CHARLIE",
	"issuing_authority": "JFACC",
	"classification": "SECRET//REL",
	"effective_start": "2026-02-10T06:00:00Z",
	"effective_end": "2026-02-11T06:00:00Z",
	"ato_day_number": 3,
	"mission_packages": [
		{
			"package_name": "PACKAGE ALPHA",
			"description": "OCA sweep of northern SAM belt",
			"missions": [
				{
					"mission_number": "OCA1001",
					"callsign": "VIPER 11",
					"platform": "F-16C",
					"unit_designation": "35 FS",
					"mission_type": "OCA",
					"waypoints": [
						{"seq": 1, "type": "IP", "name": "POINT X-RAY", "latitude": 38.9, "longitude": 125.4, "altitude_ft": 22000, "time_over": "2026-02-10T06:40:00Z"},
						{"seq": 2, "type": "TGT", "name": "TARGET AREA", "latitude": 39.03, "longitude": 125.75, "altitude_ft": 18000}
					],
					"targets": [
						{"target_id": "BE0123-4567", "name": "SA-21 Battery", "description": "Long-range SAM site", "latitude": 39.03, "longitude": 125.75, "priority_rank": 1, "desired_effect": "DESTROY"}
					],
					"space_needs": [
						{"type": "GPS", "description": "Precision guidance window", "window_start": "2026-02-10T06:30:00Z", "window_end": "2026-02-10T07:30:00Z"}
					]
				}
			]
		}
	]
}`

const orderRawText = "ATO CHARLIE TASKING. PACKAGE ALPHA VIPER 11 F-16C strike SA-21 Battery, IP POINT X-RAY."

// ingestOrder 通过 HTTP 接口完整摄取一条命令，返回 created_id
func ingestOrder(t *testing.T, router *Router, scenarioID string) string {
	t.Helper()

	body := `{"raw_text":"` + orderRawText + `","format_hint":"USMTF"}`
	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix+"/"+scenarioID+"/documents", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope struct {
		Code   int                 `json:"code"`
		Result models.IngestResult `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode ingest response: %v (%s)", err, w.Body.String())
	}
	if envelope.Code != ResultSuccess || envelope.Result.CreatedID == "" {
		t.Fatalf("expected successful ingest, got: %s", w.Body.String())
	}
	return envelope.Result.CreatedID
}

func TestOrderReadSurface_ListTreeAndLogs(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classifyOrderJSON, extractOrderJSON}}
	router, _, repos, _ := newTestAPI(completer)
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	orderID := ingestOrder(t, router, scenarioID)

	// 命令列表
	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"order_code":"CHARLIE"`) {
		t.Fatalf("expected order in list, got: %s", w.Body.String())
	}

	// 命令树
	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/orders/"+orderID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	tree := w.Body.String()
	if !strings.Contains(tree, `"package_name":"PACKAGE ALPHA"`) {
		t.Fatalf("expected package in tree, got: %s", tree)
	}
	if !strings.Contains(tree, `"mission_number":"OCA1001"`) || !strings.Contains(tree, `"name":"POINT X-RAY"`) {
		t.Fatalf("expected mission and waypoints in tree, got: %s", tree)
	}
	if !strings.Contains(tree, `"ident":"BE0123-4567"`) || !strings.Contains(tree, `"name":"SA-21 Battery"`) {
		t.Fatalf("expected target in tree, got: %s", tree)
	}

	// 审计日志
	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/ingest-logs?page=1&size=10", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	logs := w.Body.String()
	if !strings.Contains(logs, `"total":1`) || !strings.Contains(logs, `"created_record_id":"`+orderID+`"`) {
		t.Fatalf("expected one audit row for the ingest, got: %s", logs)
	}
}

func TestResolveAttribution_OrderTargets(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{classifyOrderJSON, extractOrderJSON}}
	router, _, repos, _ := newTestAPI(completer)
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	orderID := ingestOrder(t, router, scenarioID)

	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/records/"+orderID+"/attribution?kind=order", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":2000`) {
		t.Fatalf("expected attribution envelope, got: %s", got)
	}
	if !strings.Contains(got, `"matched":"SA-21 Battery"`) {
		t.Fatalf("expected target name match against raw text, got: %s", got)
	}
	if !strings.Contains(got, `"color":"`) {
		t.Fatalf("expected palette color assignment, got: %s", got)
	}
}

func TestResolveAttribution_InvalidKind(t *testing.T) {
	router, _, repos, _ := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID+"/records/some-id/attribution?kind=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "invalid attribution kind") {
		t.Fatalf("expected invalid kind failure, got: %s", w.Body.String())
	}
}
