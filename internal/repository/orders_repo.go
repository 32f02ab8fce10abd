package repository

import (
	"context"

	"overwatch-ingest/internal/domain"
)

// OrdersRepository 任务命令Repository接口
type OrdersRepository interface {
	// CreateOrderTree 在一个事务内写入命令行及其完整子树
	// （编组、任务、航路点、时间窗、目标、支援需求、天基需求）。
	// 任一写入失败则全部回滚，不留半写命令
	CreateOrderTree(ctx context.Context, tree *domain.OrderTree) (string, error)

	GetOrderTree(ctx context.Context, scenarioID, taskingOrderID string) (*domain.OrderTree, error)
	ListTaskingOrders(ctx context.Context, scenarioID string) ([]*domain.TaskingOrder, error)
}
