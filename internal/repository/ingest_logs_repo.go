package repository

import (
	"context"

	"overwatch-ingest/internal/domain"
)

// IngestLogsRepository 摄取审计日志Repository接口
// 只追加不修改；input_hash 不做唯一约束，同一原文重复摄取各落一行
type IngestLogsRepository interface {
	AppendIngestLog(ctx context.Context, log *domain.IngestLog) (string, error)
	ListIngestLogs(ctx context.Context, scenarioID string, page, size int) ([]*domain.IngestLog, int, error)
}
