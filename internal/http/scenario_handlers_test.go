package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScenarios_CreateThenList(t *testing.T) {
	router, _, _, _ := newTestAPI(&scriptedCompleter{})

	body := `{"scenario_name":"KOREA-26 EXERCISE","description":"peninsula air campaign"}`
	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":2000`) || !strings.Contains(got, `"scenario_name":"KOREA-26 EXERCISE"`) {
		t.Fatalf("expected created scenario in envelope, got: %s", got)
	}
	if !strings.Contains(got, `"status":"active"`) {
		t.Fatalf("expected new scenario to be active, got: %s", got)
	}

	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"scenario_name":"KOREA-26 EXERCISE"`) {
		t.Fatalf("expected scenario in list, got: %s", w.Body.String())
	}
}

func TestScenarios_CreateRequiresName(t *testing.T) {
	router, _, _, _ := newTestAPI(&scriptedCompleter{})

	req := httptest.NewRequest(http.MethodPost, scenarioRoutePrefix, strings.NewReader(`{"description":"no name"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"code":-1`) || !strings.Contains(got, "scenario_name is required") {
		t.Fatalf("expected name validation failure, got: %s", got)
	}
}

func TestScenarios_ArchiveDropsFromActiveList(t *testing.T) {
	router, _, repos, _ := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	req := httptest.NewRequest(http.MethodPut, scenarioRoutePrefix+"/"+scenarioID+"/archive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"status":"archived"`) {
		t.Fatalf("expected archive ack, got: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"?status=active", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), scenarioID) {
		t.Fatalf("archived scenario should not appear in active list, got: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"?status=archived", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), scenarioID) {
		t.Fatalf("expected archived scenario in archived list, got: %s", w.Body.String())
	}
}

func TestScenarios_GetByID(t *testing.T) {
	router, _, repos, _ := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	req := httptest.NewRequest(http.MethodGet, scenarioRoutePrefix+"/"+scenarioID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	got := w.Body.String()
	if !strings.Contains(got, `"scenario_id":"`+scenarioID+`"`) {
		t.Fatalf("expected scenario detail, got: %s", got)
	}
}
