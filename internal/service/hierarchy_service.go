package service

import (
	"context"

	"go.uber.org/zap"

	"overwatch-ingest/internal/models"
	"overwatch-ingest/internal/repository"
)

// HierarchyService 文档层级读取服务接口
type HierarchyService interface {
	// ========== 文档 ==========
	// GetStrategyDocument 获取战略文档及其全部优先级条目
	GetStrategyDocument(ctx context.Context, scenarioID, strategyDocID string) (*models.StrategyDocumentView, error)
	// GetPlanningDocument 获取计划文档及其全部优先级条目
	GetPlanningDocument(ctx context.Context, scenarioID, planningDocID string) (*models.PlanningDocumentView, error)
	// ListStrategyDocuments 列出想定内全部战略文档（最近生效在前，不含条目）
	ListStrategyDocuments(ctx context.Context, scenarioID string) ([]models.StrategyDocumentView, error)
	// ListPlanningDocuments 列出想定内全部计划文档（最近生效在前，不含条目）
	ListPlanningDocuments(ctx context.Context, scenarioID string) ([]models.PlanningDocumentView, error)

	// ========== 命令 ==========
	// ListTaskingOrders 列出想定内全部任务命令（最近生效在前）
	ListTaskingOrders(ctx context.Context, scenarioID string) ([]models.TaskingOrderView, error)
	// GetOrderTree 获取命令完整树
	GetOrderTree(ctx context.Context, scenarioID, taskingOrderID string) (*models.OrderTreeView, error)

	// ========== 审计 ==========
	// ListIngestLogs 分页列出摄取审计行（新近在前）
	ListIngestLogs(ctx context.Context, scenarioID string, page, size int) (*IngestLogPage, error)
}

// hierarchyService 层级读取服务实现
type hierarchyService struct {
	documents  repository.DocumentsRepository
	orders     repository.OrdersRepository
	ingestLogs repository.IngestLogsRepository
	logger     *zap.Logger
}

// NewHierarchyService 创建层级读取服务
func NewHierarchyService(
	documents repository.DocumentsRepository,
	orders repository.OrdersRepository,
	ingestLogs repository.IngestLogsRepository,
	logger *zap.Logger,
) HierarchyService {
	return &hierarchyService{
		documents:  documents,
		orders:     orders,
		ingestLogs: ingestLogs,
		logger:     logger,
	}
}

// IngestLogPage 摄取审计行分页结果
type IngestLogPage struct {
	Items []models.IngestLogView `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Size  int                    `json:"size"`
}

func (s *hierarchyService) GetStrategyDocument(ctx context.Context, scenarioID, strategyDocID string) (*models.StrategyDocumentView, error) {
	doc, err := s.documents.GetStrategyDocument(ctx, scenarioID, strategyDocID)
	if err != nil {
		return nil, err
	}
	view := models.NewStrategyDocumentView(doc.Document, doc.Priorities)
	return &view, nil
}

func (s *hierarchyService) GetPlanningDocument(ctx context.Context, scenarioID, planningDocID string) (*models.PlanningDocumentView, error) {
	doc, err := s.documents.GetPlanningDocument(ctx, scenarioID, planningDocID)
	if err != nil {
		return nil, err
	}
	view := models.NewPlanningDocumentView(doc.Document, doc.Priorities)
	return &view, nil
}

func (s *hierarchyService) ListStrategyDocuments(ctx context.Context, scenarioID string) ([]models.StrategyDocumentView, error) {
	docs, err := s.documents.ListStrategyDocuments(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	views := make([]models.StrategyDocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, models.NewStrategyDocumentView(doc, nil))
	}
	return views, nil
}

func (s *hierarchyService) ListPlanningDocuments(ctx context.Context, scenarioID string) ([]models.PlanningDocumentView, error) {
	docs, err := s.documents.ListPlanningDocuments(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	views := make([]models.PlanningDocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, models.NewPlanningDocumentView(doc, nil))
	}
	return views, nil
}

func (s *hierarchyService) ListTaskingOrders(ctx context.Context, scenarioID string) ([]models.TaskingOrderView, error) {
	orders, err := s.orders.ListTaskingOrders(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	views := make([]models.TaskingOrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, models.NewTaskingOrderView(order))
	}
	return views, nil
}

func (s *hierarchyService) GetOrderTree(ctx context.Context, scenarioID, taskingOrderID string) (*models.OrderTreeView, error) {
	tree, err := s.orders.GetOrderTree(ctx, scenarioID, taskingOrderID)
	if err != nil {
		return nil, err
	}
	view := models.NewOrderTreeView(tree)
	return &view, nil
}

func (s *hierarchyService) ListIngestLogs(ctx context.Context, scenarioID string, page, size int) (*IngestLogPage, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	logs, total, err := s.ingestLogs.ListIngestLogs(ctx, scenarioID, page, size)
	if err != nil {
		return nil, err
	}
	items := make([]models.IngestLogView, 0, len(logs))
	for _, log := range logs {
		items = append(items, models.NewIngestLogView(log))
	}
	return &IngestLogPage{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}
