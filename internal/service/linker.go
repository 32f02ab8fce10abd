package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/ingest"
	"overwatch-ingest/internal/repository"
)

// 命令链接优先选取的计划文档类型（联合目标清单）
const preferredPlanningDocType = "JIPTL"

// 父链接类型
const (
	LinkTypeStrategyDocument = "strategy_document"
	LinkTypePlanningDocument = "planning_document"
)

// PersistResult 链接与持久化产出
type PersistResult struct {
	CreatedID         string
	ParentLinkID      string // 空串表示无上级
	ParentLinkType    string // "strategy_document" | "planning_document"
	MatchedPriorities []*domain.PriorityEntry
	IngestLogID       string
}

// Linker 把规整产物放进既有文档层级并落库。
// 链接启发式只看新近度，不做语义比对：
//   - STRATEGY 不链接上级
//   - PLANNING 链接同想定最近生效的战略文档
//   - ORDER 优先链接 JIPTL 类型计划文档，没有则取最近的任意计划文档，
//     再没有则不链接；选中计划文档的完整有序条目列表作为 matched priorities 返回
//
// 文档行及其全部子实体在 Repository 层的单事务内写入；
// 审计行在事务成功之后单独追加
type Linker struct {
	documents  repository.DocumentsRepository
	orders     repository.OrdersRepository
	ingestLogs repository.IngestLogsRepository
	logger     *zap.Logger
}

// NewLinker 创建链接器
func NewLinker(
	documents repository.DocumentsRepository,
	orders repository.OrdersRepository,
	ingestLogs repository.IngestLogsRepository,
	logger *zap.Logger,
) *Linker {
	return &Linker{
		documents:  documents,
		orders:     orders,
		ingestLogs: ingestLogs,
		logger:     logger,
	}
}

// LinkAndPersist 解析新文档的层级落点并持久化。
// 任何读写失败都返回 PersistenceError；失败时文档事务整体回滚，
// 也不追加审计行。startedAt 为管线入口时刻，用于计算审计行耗时
func (l *Linker) LinkAndPersist(
	ctx context.Context,
	scenarioID string,
	classify *ingest.ClassifyResult,
	payload ingest.Payload,
	rawText string,
	reviewFlagCount int,
	startedAt time.Time,
) (*PersistResult, error) {
	var (
		result *PersistResult
		err    error
	)

	switch p := payload.(type) {
	case *ingest.StrategyPayload:
		result, err = l.persistStrategy(ctx, scenarioID, classify, p)
	case *ingest.PlanningPayload:
		result, err = l.persistPlanning(ctx, scenarioID, classify, p)
	case *ingest.OrderPayload:
		result, err = l.persistOrder(ctx, scenarioID, classify, p, rawText)
	default:
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("unsupported payload type %T", payload)}
	}
	if err != nil {
		return nil, err
	}

	// 审计行：事务成功后每次摄取恰好一行。
	// 追加失败时文档事务已提交，仍按持久化失败上报
	counts := ingest.CountsOf(payload)
	entry := &domain.IngestLog{
		ScenarioID:      scenarioID,
		InputHash:       inputHash(rawText),
		HierarchyLevel:  string(classify.HierarchyLevel),
		DocumentType:    classify.DocumentType,
		SourceFormat:    classify.SourceFormat,
		Confidence:      classify.Confidence,
		CreatedRecordID: result.CreatedID,
		ParentLinkID:    nullString(result.ParentLinkID),
		PriorityCount:   counts.PriorityCount,
		MissionCount:    counts.MissionCount,
		WaypointCount:   counts.WaypointCount,
		TargetCount:     counts.TargetCount,
		SpaceNeedCount:  counts.SpaceNeedCount,
		ReviewFlagCount: reviewFlagCount,
		ParseTimeMs:     time.Since(startedAt).Milliseconds(),
	}

	logID, err := l.ingestLogs.AppendIngestLog(ctx, entry)
	if err != nil {
		l.logger.Error("Failed to append ingest log after commit",
			zap.Error(err),
			zap.String("scenario_id", scenarioID),
			zap.String("created_record_id", result.CreatedID),
		)
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to append ingest log: %w", err)}
	}
	result.IngestLogID = logID

	l.logger.Info("Document linked and persisted",
		zap.String("scenario_id", scenarioID),
		zap.String("hierarchy_level", string(classify.HierarchyLevel)),
		zap.String("created_id", result.CreatedID),
		zap.String("parent_link_id", result.ParentLinkID),
	)

	return result, nil
}

// persistStrategy STRATEGY 落库：顶层文档，不链接上级
func (l *Linker) persistStrategy(ctx context.Context, scenarioID string, classify *ingest.ClassifyResult, p *ingest.StrategyPayload) (*PersistResult, error) {
	doc := &domain.StrategyDocument{
		ScenarioID:     scenarioID,
		Title:          p.Title,
		DocType:        p.DocType,
		AuthorityLevel: p.AuthorityLevel,
		Content:        p.Content,
		EffectiveDate:  nullTime(p.EffectiveDate),
		SourceFormat:   classify.SourceFormat,
		Confidence:     classify.Confidence,
	}

	id, err := l.documents.CreateStrategyDocument(ctx, doc, priorityEntries(scenarioID, p.Priorities))
	if err != nil {
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to create strategy document: %w", err)}
	}

	return &PersistResult{CreatedID: id}, nil
}

// persistPlanning PLANNING 落库：链接同想定最近生效的战略文档（可能没有）
func (l *Linker) persistPlanning(ctx context.Context, scenarioID string, classify *ingest.ClassifyResult, p *ingest.PlanningPayload) (*PersistResult, error) {
	parent, err := l.documents.LatestStrategyDocument(ctx, scenarioID)
	if err != nil {
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to resolve parent strategy document: %w", err)}
	}

	doc := &domain.PlanningDocument{
		ScenarioID:     scenarioID,
		Title:          p.Title,
		DocType:        p.DocType,
		AuthorityLevel: p.AuthorityLevel,
		Content:        p.Content,
		EffectiveDate:  nullTime(p.EffectiveDate),
		SourceFormat:   classify.SourceFormat,
		Confidence:     classify.Confidence,
	}
	if parent != nil {
		doc.StrategyDocID = nullString(parent.StrategyDocID)
	}

	id, err := l.documents.CreatePlanningDocument(ctx, doc, priorityEntries(scenarioID, p.Priorities))
	if err != nil {
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to create planning document: %w", err)}
	}

	result := &PersistResult{CreatedID: id}
	if parent != nil {
		result.ParentLinkID = parent.StrategyDocID
		result.ParentLinkType = LinkTypeStrategyDocument
	}
	return result, nil
}

// persistOrder ORDER 落库：JIPTL 优先的计划文档链接加整树单事务写入。
// 链接读取全部在写事务之前完成，读取失败时不产生任何落库
func (l *Linker) persistOrder(ctx context.Context, scenarioID string, classify *ingest.ClassifyResult, p *ingest.OrderPayload, rawText string) (*PersistResult, error) {
	parent, err := l.documents.LatestPlanningDocument(ctx, scenarioID, preferredPlanningDocType)
	if err != nil {
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to resolve parent planning document: %w", err)}
	}
	if parent == nil {
		parent, err = l.documents.LatestPlanningDocument(ctx, scenarioID, "")
		if err != nil {
			return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to resolve parent planning document: %w", err)}
		}
	}

	var matched []*domain.PriorityEntry
	if parent != nil {
		matched, err = l.documents.ListPlanningPriorities(ctx, parent.PlanningDocID)
		if err != nil {
			return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to list matched priorities: %w", err)}
		}
	}

	tree := orderTree(scenarioID, classify, p, rawText)
	if parent != nil {
		tree.Order.PlanningDocID = nullString(parent.PlanningDocID)
	}

	id, err := l.orders.CreateOrderTree(ctx, tree)
	if err != nil {
		return nil, &ingest.PersistenceError{Err: fmt.Errorf("failed to create order tree: %w", err)}
	}

	result := &PersistResult{
		CreatedID:         id,
		MatchedPriorities: matched,
	}
	if parent != nil {
		result.ParentLinkID = parent.PlanningDocID
		result.ParentLinkType = LinkTypePlanningDocument
	}
	return result, nil
}

// orderTree 由抽取载荷构建完整命令树
func orderTree(scenarioID string, classify *ingest.ClassifyResult, p *ingest.OrderPayload, rawText string) *domain.OrderTree {
	tree := &domain.OrderTree{
		Order: &domain.TaskingOrder{
			ScenarioID:       scenarioID,
			OrderType:        p.OrderType,
			OrderCode:        p.OrderCode,
			IssuingAuthority: p.IssuingAuthority,
			Classification:   p.Classification,
			EffectiveStart:   nullTime(p.EffectiveStart),
			EffectiveEnd:     nullTime(p.EffectiveEnd),
			ATODayNumber:     nullInt32(p.ATODayNumber),
			RawText:          rawText,
			RawFormat:        classify.SourceFormat,
			Confidence:       classify.Confidence,
		},
	}

	for _, pkg := range p.Packages {
		node := &domain.PackageNode{
			Package: &domain.MissionPackage{
				ScenarioID:  scenarioID,
				PackageName: pkg.PackageName,
				Description: pkg.Description,
			},
		}
		for _, m := range pkg.Missions {
			node.Missions = append(node.Missions, missionNode(scenarioID, m))
		}
		tree.Packages = append(tree.Packages, node)
	}
	return tree
}

// missionNode 由抽取载荷构建任务节点；status 固定写入 planned
func missionNode(scenarioID string, m ingest.MissionPayload) *domain.MissionNode {
	node := &domain.MissionNode{
		Mission: &domain.Mission{
			ScenarioID:      scenarioID,
			MissionNumber:   m.MissionNumber,
			Callsign:        m.Callsign,
			Platform:        m.Platform,
			UnitDesignation: m.UnitDesignation,
			MissionType:     m.MissionType,
			Status:          domain.MissionStatusPlanned,
		},
	}

	for _, w := range m.Waypoints {
		node.Waypoints = append(node.Waypoints, &domain.MissionWaypoint{
			Seq:          w.Seq,
			WaypointType: w.Type,
			Name:         w.Name,
			Latitude:     w.Latitude,
			Longitude:    w.Longitude,
			AltitudeFt:   nullInt32(w.AltitudeFt),
			TimeOver:     nullTime(w.TimeOver),
		})
	}
	for _, tw := range m.TimeWindows {
		node.TimeWindows = append(node.TimeWindows, &domain.MissionTimeWindow{
			WindowType: tw.Type,
			StartTime:  nullTime(tw.Start),
			EndTime:    nullTime(tw.End),
		})
	}
	for _, tgt := range m.Targets {
		node.Targets = append(node.Targets, &domain.MissionTarget{
			TargetIdent:   nullString(tgt.Ident),
			TargetName:    tgt.Name,
			Description:   tgt.Description,
			Latitude:      tgt.Latitude,
			Longitude:     tgt.Longitude,
			PriorityRank:  nullInt32(tgt.PriorityRank),
			DesiredEffect: tgt.DesiredEffect,
		})
	}
	for _, sup := range m.Supports {
		node.Supports = append(node.Supports, &domain.SupportRequirement{
			SupportType:      sup.Type,
			Description:      sup.Description,
			ProviderCallsign: sup.ProviderCallsign,
		})
	}
	for _, sn := range m.SpaceNeeds {
		node.SpaceNeeds = append(node.SpaceNeeds, &domain.SpaceNeed{
			CapabilityType: sn.Type,
			Description:    sn.Description,
			WindowStart:    nullTime(sn.WindowStart),
			WindowEnd:      nullTime(sn.WindowEnd),
		})
	}
	return node
}

// priorityEntries 由抽取条目构建优先级实体；归属文档 id 由 Repository 在事务内填写
func priorityEntries(scenarioID string, items []ingest.PriorityItem) []*domain.PriorityEntry {
	entries := make([]*domain.PriorityEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, &domain.PriorityEntry{
			ScenarioID:    scenarioID,
			Rank:          item.Rank,
			Effect:        item.Effect,
			Description:   item.Description,
			Justification: item.Justification,
			TargetID:      nullString(item.TargetID),
		})
	}
	return entries
}

// inputHash 原文 SHA-256 指纹（hex）
func inputHash(rawText string) string {
	sum := sha256.Sum256([]byte(rawText))
	return hex.EncodeToString(sum[:])
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt32(i *int) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*i), Valid: true}
}
