package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"overwatch-ingest/internal/domain"

	"github.com/google/uuid"
)

// MemoryIngestLogsRepo 摄取审计日志内存仓库（DB禁用时的开发/演示模式）
type MemoryIngestLogsRepo struct {
	mu   sync.RWMutex
	logs []domain.IngestLog // 追加序，新记录在尾部
}

func NewMemoryIngestLogsRepo() *MemoryIngestLogsRepo {
	return &MemoryIngestLogsRepo{}
}

var _ IngestLogsRepository = (*MemoryIngestLogsRepo)(nil)

func (r *MemoryIngestLogsRepo) AppendIngestLog(_ context.Context, log *domain.IngestLog) (string, error) {
	if log == nil {
		return "", fmt.Errorf("ingest log is required")
	}
	if log.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}
	if log.InputHash == "" {
		return "", fmt.Errorf("input_hash is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *log
	stored.IngestLogID = uuid.NewString()
	stored.CreatedAt = time.Now()
	r.logs = append(r.logs, stored)
	return stored.IngestLogID, nil
}

func (r *MemoryIngestLogsRepo) ListIngestLogs(_ context.Context, scenarioID string, page, size int) ([]*domain.IngestLog, int, error) {
	if scenarioID == "" {
		return nil, 0, fmt.Errorf("scenario_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// 新近在前
	var all []*domain.IngestLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].ScenarioID != scenarioID {
			continue
		}
		log := r.logs[i]
		all = append(all, &log)
	}

	total := len(all)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
