package repository

import (
	"context"
	"database/sql"
	"fmt"

	"overwatch-ingest/internal/domain"
)

// PostgresIngestLogsRepository 摄取审计日志Repository实现
type PostgresIngestLogsRepository struct {
	db *sql.DB
}

// NewPostgresIngestLogsRepository 创建摄取审计日志Repository
func NewPostgresIngestLogsRepository(db *sql.DB) *PostgresIngestLogsRepository {
	return &PostgresIngestLogsRepository{db: db}
}

// 确保实现了接口
var _ IngestLogsRepository = (*PostgresIngestLogsRepository)(nil)

// AppendIngestLog 追加一行审计记录，返回新记录ID
func (r *PostgresIngestLogsRepository) AppendIngestLog(ctx context.Context, log *domain.IngestLog) (string, error) {
	if log == nil {
		return "", fmt.Errorf("ingest log is required")
	}
	if log.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}
	if log.InputHash == "" {
		return "", fmt.Errorf("input_hash is required")
	}

	var ingestLogID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ingest_logs (
			scenario_id, input_hash, hierarchy_level, document_type,
			source_format, confidence, created_record_id, parent_link_id,
			priority_count, mission_count, waypoint_count, target_count,
			space_need_count, review_flag_count, parse_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ingest_log_id::text`,
		log.ScenarioID, log.InputHash, log.HierarchyLevel, log.DocumentType,
		log.SourceFormat, log.Confidence, log.CreatedRecordID, log.ParentLinkID,
		log.PriorityCount, log.MissionCount, log.WaypointCount, log.TargetCount,
		log.SpaceNeedCount, log.ReviewFlagCount, log.ParseTimeMs,
	).Scan(&ingestLogID)
	if err != nil {
		return "", fmt.Errorf("failed to append ingest log: %w", err)
	}

	return ingestLogID, nil
}

// ListIngestLogs 分页列出想定内的审计记录（新近在前）
func (r *PostgresIngestLogsRepository) ListIngestLogs(ctx context.Context, scenarioID string, page, size int) ([]*domain.IngestLog, int, error) {
	if scenarioID == "" {
		return nil, 0, fmt.Errorf("scenario_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingest_logs WHERE scenario_id = $1`,
		scenarioID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ingest logs: %w", err)
	}

	query := `
		SELECT
			ingest_log_id::text,
			scenario_id::text,
			input_hash,
			hierarchy_level,
			document_type,
			source_format,
			confidence,
			created_record_id::text,
			parent_link_id::text,
			priority_count,
			mission_count,
			waypoint_count,
			target_count,
			space_need_count,
			review_flag_count,
			parse_time_ms,
			created_at
		FROM ingest_logs
		WHERE scenario_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ingest logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.IngestLog
	for rows.Next() {
		var log domain.IngestLog
		err := rows.Scan(
			&log.IngestLogID,
			&log.ScenarioID,
			&log.InputHash,
			&log.HierarchyLevel,
			&log.DocumentType,
			&log.SourceFormat,
			&log.Confidence,
			&log.CreatedRecordID,
			&log.ParentLinkID,
			&log.PriorityCount,
			&log.MissionCount,
			&log.WaypointCount,
			&log.TargetCount,
			&log.SpaceNeedCount,
			&log.ReviewFlagCount,
			&log.ParseTimeMs,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ingest log: %w", err)
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate ingest logs: %w", err)
	}

	return logs, total, nil
}
