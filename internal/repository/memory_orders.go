package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"overwatch-ingest/internal/domain"

	"github.com/google/uuid"
)

// MemoryOrdersRepo 任务命令内存仓库（DB禁用时的开发/演示模式）
type MemoryOrdersRepo struct {
	mu    sync.RWMutex
	trees map[string]*domain.OrderTree // taskingOrderID -> 深拷贝后的整树
}

func NewMemoryOrdersRepo() *MemoryOrdersRepo {
	return &MemoryOrdersRepo{
		trees: map[string]*domain.OrderTree{},
	}
}

var _ OrdersRepository = (*MemoryOrdersRepo)(nil)

func (r *MemoryOrdersRepo) CreateOrderTree(_ context.Context, tree *domain.OrderTree) (string, error) {
	if tree == nil || tree.Order == nil {
		return "", fmt.Errorf("order tree is required")
	}
	if tree.Order.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	order := *tree.Order
	order.TaskingOrderID = id
	if order.Classification == "" {
		order.Classification = "UNCLASSIFIED"
	}
	order.IngestedAt = time.Now()

	stored := &domain.OrderTree{Order: &order}
	for _, pkgNode := range tree.Packages {
		pkg := *pkgNode.Package
		pkg.PackageID = uuid.NewString()
		pkg.TaskingOrderID = id
		pkg.ScenarioID = order.ScenarioID

		storedPkg := &domain.PackageNode{Package: &pkg}
		for _, missionNode := range pkgNode.Missions {
			mission := *missionNode.Mission
			mission.MissionID = uuid.NewString()
			mission.PackageID = pkg.PackageID
			mission.ScenarioID = order.ScenarioID
			if mission.Status == "" {
				mission.Status = domain.MissionStatusPlanned
			}

			storedMission := &domain.MissionNode{Mission: &mission}
			for _, wp := range missionNode.Waypoints {
				w := *wp
				w.WaypointID = uuid.NewString()
				w.MissionID = mission.MissionID
				storedMission.Waypoints = append(storedMission.Waypoints, &w)
			}
			for _, tw := range missionNode.TimeWindows {
				t := *tw
				t.WindowID = uuid.NewString()
				t.MissionID = mission.MissionID
				storedMission.TimeWindows = append(storedMission.TimeWindows, &t)
			}
			for _, target := range missionNode.Targets {
				tg := *target
				tg.TargetID = uuid.NewString()
				tg.MissionID = mission.MissionID
				storedMission.Targets = append(storedMission.Targets, &tg)
			}
			for _, support := range missionNode.Supports {
				s := *support
				s.SupportID = uuid.NewString()
				s.MissionID = mission.MissionID
				storedMission.Supports = append(storedMission.Supports, &s)
			}
			for _, need := range missionNode.SpaceNeeds {
				n := *need
				n.SpaceNeedID = uuid.NewString()
				n.MissionID = mission.MissionID
				storedMission.SpaceNeeds = append(storedMission.SpaceNeeds, &n)
			}
			storedPkg.Missions = append(storedPkg.Missions, storedMission)
		}
		stored.Packages = append(stored.Packages, storedPkg)
	}

	r.trees[id] = stored
	return id, nil
}

func (r *MemoryOrdersRepo) GetOrderTree(_ context.Context, scenarioID, taskingOrderID string) (*domain.OrderTree, error) {
	if scenarioID == "" || taskingOrderID == "" {
		return nil, fmt.Errorf("scenario_id and tasking_order_id are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.trees[taskingOrderID]
	if !ok || stored.Order.ScenarioID != scenarioID {
		return nil, fmt.Errorf("tasking order not found: %s", taskingOrderID)
	}
	return copyOrderTree(stored), nil
}

func (r *MemoryOrdersRepo) ListTaskingOrders(_ context.Context, scenarioID string) ([]*domain.TaskingOrder, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.TaskingOrder
	for _, tree := range r.trees {
		if tree.Order.ScenarioID != scenarioID {
			continue
		}
		order := *tree.Order
		orders = append(orders, &order)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return recencyLess(orders[j].EffectiveStart, orders[j].IngestedAt, orders[i].EffectiveStart, orders[i].IngestedAt)
	})
	return orders, nil
}

// copyOrderTree 深拷贝整树，调用方修改不影响存储
func copyOrderTree(stored *domain.OrderTree) *domain.OrderTree {
	order := *stored.Order
	tree := &domain.OrderTree{Order: &order}
	for _, pkgNode := range stored.Packages {
		pkg := *pkgNode.Package
		copiedPkg := &domain.PackageNode{Package: &pkg}
		for _, missionNode := range pkgNode.Missions {
			mission := *missionNode.Mission
			copiedMission := &domain.MissionNode{Mission: &mission}
			for _, wp := range missionNode.Waypoints {
				w := *wp
				copiedMission.Waypoints = append(copiedMission.Waypoints, &w)
			}
			for _, tw := range missionNode.TimeWindows {
				t := *tw
				copiedMission.TimeWindows = append(copiedMission.TimeWindows, &t)
			}
			for _, target := range missionNode.Targets {
				tg := *target
				copiedMission.Targets = append(copiedMission.Targets, &tg)
			}
			for _, support := range missionNode.Supports {
				s := *support
				copiedMission.Supports = append(copiedMission.Supports, &s)
			}
			for _, need := range missionNode.SpaceNeeds {
				n := *need
				copiedMission.SpaceNeeds = append(copiedMission.SpaceNeeds, &n)
			}
			copiedPkg.Missions = append(copiedPkg.Missions, copiedMission)
		}
		tree.Packages = append(tree.Packages, copiedPkg)
	}
	return tree
}
