package repository

import (
	"context"
	"database/sql"
	"fmt"

	"overwatch-ingest/internal/domain"

	"go.uber.org/zap"
)

// PostgresDocumentsRepository 战略/计划文档Repository实现
type PostgresDocumentsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresDocumentsRepository 创建文档Repository
func NewPostgresDocumentsRepository(db *sql.DB, logger *zap.Logger) *PostgresDocumentsRepository {
	return &PostgresDocumentsRepository{
		db:     db,
		logger: logger,
	}
}

// 确保实现了接口
var _ DocumentsRepository = (*PostgresDocumentsRepository)(nil)

// ============================================
// 写入（单事务）
// ============================================

// CreateStrategyDocument 在一个事务内写入战略文档及其全部优先级条目
func (r *PostgresDocumentsRepository) CreateStrategyDocument(ctx context.Context, doc *domain.StrategyDocument, priorities []*domain.PriorityEntry) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is required")
	}
	if doc.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var strategyDocID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO strategy_documents (
			scenario_id, title, doc_type, authority_level, content,
			effective_date, source_format, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING strategy_doc_id::text`,
		doc.ScenarioID, doc.Title, doc.DocType, doc.AuthorityLevel, doc.Content,
		doc.EffectiveDate, doc.SourceFormat, doc.Confidence,
	).Scan(&strategyDocID)
	if err != nil {
		return "", fmt.Errorf("failed to create strategy document: %w", err)
	}

	for _, priority := range priorities {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO priority_entries (
				scenario_id, strategy_doc_id, rank, effect,
				description, justification, target_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			doc.ScenarioID, strategyDocID, priority.Rank, priority.Effect,
			priority.Description, priority.Justification, priority.TargetID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create priority entry (rank %d): %w", priority.Rank, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Strategy document created",
		zap.String("scenario_id", doc.ScenarioID),
		zap.String("strategy_doc_id", strategyDocID),
		zap.Int("priority_count", len(priorities)))

	return strategyDocID, nil
}

// CreatePlanningDocument 在一个事务内写入计划文档及其全部优先级条目
func (r *PostgresDocumentsRepository) CreatePlanningDocument(ctx context.Context, doc *domain.PlanningDocument, priorities []*domain.PriorityEntry) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is required")
	}
	if doc.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var planningDocID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO planning_documents (
			scenario_id, strategy_doc_id, title, doc_type, authority_level,
			content, effective_date, source_format, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING planning_doc_id::text`,
		doc.ScenarioID, doc.StrategyDocID, doc.Title, doc.DocType, doc.AuthorityLevel,
		doc.Content, doc.EffectiveDate, doc.SourceFormat, doc.Confidence,
	).Scan(&planningDocID)
	if err != nil {
		return "", fmt.Errorf("failed to create planning document: %w", err)
	}

	for _, priority := range priorities {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO priority_entries (
				scenario_id, planning_doc_id, rank, effect,
				description, justification, target_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			doc.ScenarioID, planningDocID, priority.Rank, priority.Effect,
			priority.Description, priority.Justification, priority.TargetID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create priority entry (rank %d): %w", priority.Rank, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Planning document created",
		zap.String("scenario_id", doc.ScenarioID),
		zap.String("planning_doc_id", planningDocID),
		zap.Int("priority_count", len(priorities)))

	return planningDocID, nil
}

// ============================================
// 查询
// ============================================

// GetStrategyDocument 获取战略文档及其优先级条目（按rank升序）
func (r *PostgresDocumentsRepository) GetStrategyDocument(ctx context.Context, scenarioID, strategyDocID string) (*domain.StrategyDocumentWithPriorities, error) {
	if scenarioID == "" || strategyDocID == "" {
		return nil, fmt.Errorf("scenario_id and strategy_doc_id are required")
	}

	query := `
		SELECT
			strategy_doc_id::text,
			scenario_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM strategy_documents
		WHERE scenario_id = $1 AND strategy_doc_id = $2
	`

	var doc domain.StrategyDocument
	err := r.db.QueryRowContext(ctx, query, scenarioID, strategyDocID).Scan(
		&doc.StrategyDocID,
		&doc.ScenarioID,
		&doc.Title,
		&doc.DocType,
		&doc.AuthorityLevel,
		&doc.Content,
		&doc.EffectiveDate,
		&doc.SourceFormat,
		&doc.Confidence,
		&doc.IngestedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("strategy document not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get strategy document: %w", err)
	}

	priorities, err := r.listPriorities(ctx, "strategy_doc_id", strategyDocID)
	if err != nil {
		return nil, err
	}

	return &domain.StrategyDocumentWithPriorities{
		Document:   &doc,
		Priorities: priorities,
	}, nil
}

// GetPlanningDocument 获取计划文档及其优先级条目（按rank升序）
func (r *PostgresDocumentsRepository) GetPlanningDocument(ctx context.Context, scenarioID, planningDocID string) (*domain.PlanningDocumentWithPriorities, error) {
	if scenarioID == "" || planningDocID == "" {
		return nil, fmt.Errorf("scenario_id and planning_doc_id are required")
	}

	query := `
		SELECT
			planning_doc_id::text,
			scenario_id::text,
			strategy_doc_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM planning_documents
		WHERE scenario_id = $1 AND planning_doc_id = $2
	`

	var doc domain.PlanningDocument
	err := r.db.QueryRowContext(ctx, query, scenarioID, planningDocID).Scan(
		&doc.PlanningDocID,
		&doc.ScenarioID,
		&doc.StrategyDocID,
		&doc.Title,
		&doc.DocType,
		&doc.AuthorityLevel,
		&doc.Content,
		&doc.EffectiveDate,
		&doc.SourceFormat,
		&doc.Confidence,
		&doc.IngestedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("planning document not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get planning document: %w", err)
	}

	priorities, err := r.listPriorities(ctx, "planning_doc_id", planningDocID)
	if err != nil {
		return nil, err
	}

	return &domain.PlanningDocumentWithPriorities{
		Document:   &doc,
		Priorities: priorities,
	}, nil
}

// ListStrategyDocuments 列出想定内全部战略文档（新近生效在前）
func (r *PostgresDocumentsRepository) ListStrategyDocuments(ctx context.Context, scenarioID string) ([]*domain.StrategyDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			strategy_doc_id::text,
			scenario_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM strategy_documents
		WHERE scenario_id = $1
		ORDER BY effective_date DESC NULLS LAST, ingested_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategy documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.StrategyDocument
	for rows.Next() {
		var doc domain.StrategyDocument
		err := rows.Scan(
			&doc.StrategyDocID,
			&doc.ScenarioID,
			&doc.Title,
			&doc.DocType,
			&doc.AuthorityLevel,
			&doc.Content,
			&doc.EffectiveDate,
			&doc.SourceFormat,
			&doc.Confidence,
			&doc.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate strategy documents: %w", err)
	}

	return docs, nil
}

// ListPlanningDocuments 列出想定内全部计划文档（新近生效在前）
func (r *PostgresDocumentsRepository) ListPlanningDocuments(ctx context.Context, scenarioID string) ([]*domain.PlanningDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			planning_doc_id::text,
			scenario_id::text,
			strategy_doc_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM planning_documents
		WHERE scenario_id = $1
		ORDER BY effective_date DESC NULLS LAST, ingested_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planning documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.PlanningDocument
	for rows.Next() {
		var doc domain.PlanningDocument
		err := rows.Scan(
			&doc.PlanningDocID,
			&doc.ScenarioID,
			&doc.StrategyDocID,
			&doc.Title,
			&doc.DocType,
			&doc.AuthorityLevel,
			&doc.Content,
			&doc.EffectiveDate,
			&doc.SourceFormat,
			&doc.Confidence,
			&doc.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planning document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate planning documents: %w", err)
	}

	return docs, nil
}

// ============================================
// 链接查询
// ============================================

// LatestStrategyDocument 取想定内最近生效的战略文档，无则返回 (nil, nil)
func (r *PostgresDocumentsRepository) LatestStrategyDocument(ctx context.Context, scenarioID string) (*domain.StrategyDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			strategy_doc_id::text,
			scenario_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM strategy_documents
		WHERE scenario_id = $1
		ORDER BY effective_date DESC NULLS LAST, ingested_at DESC
		LIMIT 1
	`

	var doc domain.StrategyDocument
	err := r.db.QueryRowContext(ctx, query, scenarioID).Scan(
		&doc.StrategyDocID,
		&doc.ScenarioID,
		&doc.Title,
		&doc.DocType,
		&doc.AuthorityLevel,
		&doc.Content,
		&doc.EffectiveDate,
		&doc.SourceFormat,
		&doc.Confidence,
		&doc.IngestedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest strategy document: %w", err)
	}

	return &doc, nil
}

// LatestPlanningDocument 取想定内最近生效的计划文档，docType为空表示不限类型，
// 无则返回 (nil, nil)
func (r *PostgresDocumentsRepository) LatestPlanningDocument(ctx context.Context, scenarioID, docType string) (*domain.PlanningDocument, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			planning_doc_id::text,
			scenario_id::text,
			strategy_doc_id::text,
			title,
			doc_type,
			authority_level,
			content,
			effective_date,
			source_format,
			confidence,
			ingested_at
		FROM planning_documents
		WHERE scenario_id = $1
	`
	args := []any{scenarioID}
	if docType != "" {
		query += ` AND doc_type = $2`
		args = append(args, docType)
	}
	query += `
		ORDER BY effective_date DESC NULLS LAST, ingested_at DESC
		LIMIT 1
	`

	var doc domain.PlanningDocument
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&doc.PlanningDocID,
		&doc.ScenarioID,
		&doc.StrategyDocID,
		&doc.Title,
		&doc.DocType,
		&doc.AuthorityLevel,
		&doc.Content,
		&doc.EffectiveDate,
		&doc.SourceFormat,
		&doc.Confidence,
		&doc.IngestedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest planning document: %w", err)
	}

	return &doc, nil
}

// ListPlanningPriorities 列出计划文档的全部优先级条目（按rank升序）
func (r *PostgresDocumentsRepository) ListPlanningPriorities(ctx context.Context, planningDocID string) ([]*domain.PriorityEntry, error) {
	if planningDocID == "" {
		return nil, fmt.Errorf("planning_doc_id is required")
	}
	return r.listPriorities(ctx, "planning_doc_id", planningDocID)
}

// listPriorities 按归属列查询优先级条目，ownerColumn 只取常量列名
func (r *PostgresDocumentsRepository) listPriorities(ctx context.Context, ownerColumn, ownerID string) ([]*domain.PriorityEntry, error) {
	query := fmt.Sprintf(`
		SELECT
			priority_id::text,
			scenario_id::text,
			strategy_doc_id::text,
			planning_doc_id::text,
			rank,
			effect,
			description,
			justification,
			target_id
		FROM priority_entries
		WHERE %s = $1
		ORDER BY rank ASC
	`, ownerColumn)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list priority entries: %w", err)
	}
	defer rows.Close()

	var priorities []*domain.PriorityEntry
	for rows.Next() {
		var priority domain.PriorityEntry
		err := rows.Scan(
			&priority.PriorityID,
			&priority.ScenarioID,
			&priority.StrategyDocID,
			&priority.PlanningDocID,
			&priority.Rank,
			&priority.Effect,
			&priority.Description,
			&priority.Justification,
			&priority.TargetID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan priority entry: %w", err)
		}
		priorities = append(priorities, &priority)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate priority entries: %w", err)
	}

	return priorities, nil
}
