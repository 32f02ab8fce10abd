package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"overwatch-ingest/internal/progress"
)

func TestStreamProgress_DeliversEventFrames(t *testing.T) {
	router, _, repos, relay := newTestAPI(&scriptedCompleter{})
	scenarioID := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+scenarioRoutePrefix+"/"+scenarioID+"/progress", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}

	// 连接建立到订阅生效有窗口期，重复发同一事件直到流里读到帧
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				relay.Emit(context.Background(), progress.Event{
					Type:       progress.EventStarted,
					IngestID:   "ing-1",
					ScenarioID: scenarioID,
					Started:    &progress.StartedData{TextLength: 42, Preview: "OPORD"},
				})
			}
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = line
			break
		}
	}
	if eventLine != "event: started" {
		t.Fatalf("expected started event frame, got %q", eventLine)
	}
	if !strings.Contains(dataLine, `"ingest_id":"ing-1"`) || !strings.Contains(dataLine, `"preview":"OPORD"`) {
		t.Fatalf("expected event payload in data frame, got %q", dataLine)
	}
}

func TestStreamProgress_OtherScenarioSeesNothing(t *testing.T) {
	router, _, repos, relay := newTestAPI(&scriptedCompleter{})
	scenarioA := mustCreateScenario(t, repos, "KOREA-26 EXERCISE")
	scenarioB := mustCreateScenario(t, repos, "TAIWAN-27 EXERCISE")

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+scenarioRoutePrefix+"/"+scenarioB+"/progress", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect stream: %v", err)
	}
	defer resp.Body.Close()

	// 给订阅一点时间生效，再向另一个想定发事件
	time.Sleep(50 * time.Millisecond)
	relay.Emit(context.Background(), progress.Event{
		Type:       progress.EventStarted,
		IngestID:   "ing-a",
		ScenarioID: scenarioA,
	})

	// 到 ctx 超时为止只应读到空流
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}
		t.Fatalf("scenario-B stream should stay silent, got %q", line)
	}
}
