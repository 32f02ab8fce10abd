package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SSE 心跳间隔，防止中间代理断开空闲连接
const sseHeartbeatInterval = 25 * time.Second

// StreamProgress GET /scenarios/{scenarioID}/progress
// 以 Server-Sent Events 推送该想定的摄取进度事件。
// 摄取失败时流只是不再出现后续事件，失败原因走摄取接口的同步响应
func (a *IngestAPI) StreamProgress(w http.ResponseWriter, r *http.Request, scenarioID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, Fail("streaming unsupported"))
		return
	}

	sub := a.Progress.Subscribe(scenarioID)
	defer a.Progress.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				a.Log.Warn("Failed to marshal progress event",
					zap.String("scenario_id", scenarioID),
					zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
