package repository

import (
	"context"
	"database/sql"
	"fmt"

	"overwatch-ingest/internal/domain"

	"go.uber.org/zap"
)

// PostgresOrdersRepository 任务命令Repository实现
type PostgresOrdersRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresOrdersRepository 创建任务命令Repository
func NewPostgresOrdersRepository(db *sql.DB, logger *zap.Logger) *PostgresOrdersRepository {
	return &PostgresOrdersRepository{
		db:     db,
		logger: logger,
	}
}

// 确保实现了接口
var _ OrdersRepository = (*PostgresOrdersRepository)(nil)

// ============================================
// 写入（单事务）
// ============================================

// CreateOrderTree 在一个事务内写入命令行及完整子树，任一写入失败则全部回滚
func (r *PostgresOrdersRepository) CreateOrderTree(ctx context.Context, tree *domain.OrderTree) (string, error) {
	if tree == nil || tree.Order == nil {
		return "", fmt.Errorf("order tree is required")
	}
	if tree.Order.ScenarioID == "" {
		return "", fmt.Errorf("scenario_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := tree.Order
	classification := order.Classification
	if classification == "" {
		classification = "UNCLASSIFIED"
	}

	var taskingOrderID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tasking_orders (
			scenario_id, planning_doc_id, order_type, order_code,
			issuing_authority, classification, effective_start, effective_end,
			ato_day_number, raw_text, raw_format, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING tasking_order_id::text`,
		order.ScenarioID, order.PlanningDocID, order.OrderType, order.OrderCode,
		order.IssuingAuthority, classification, order.EffectiveStart, order.EffectiveEnd,
		order.ATODayNumber, order.RawText, order.RawFormat, order.Confidence,
	).Scan(&taskingOrderID)
	if err != nil {
		return "", fmt.Errorf("failed to create tasking order: %w", err)
	}

	missionCount := 0
	for _, pkg := range tree.Packages {
		var packageID string
		err = tx.QueryRowContext(ctx,
			`INSERT INTO mission_packages (tasking_order_id, scenario_id, package_name, description)
			 VALUES ($1, $2, $3, $4)
			 RETURNING package_id::text`,
			taskingOrderID, order.ScenarioID, pkg.Package.PackageName, pkg.Package.Description,
		).Scan(&packageID)
		if err != nil {
			return "", fmt.Errorf("failed to create mission package %q: %w", pkg.Package.PackageName, err)
		}

		for _, node := range pkg.Missions {
			mission := node.Mission
			status := mission.Status
			if status == "" {
				status = domain.MissionStatusPlanned
			}

			var missionID string
			err = tx.QueryRowContext(ctx,
				`INSERT INTO missions (
					package_id, scenario_id, mission_number, callsign,
					platform, unit_designation, mission_type, status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING mission_id::text`,
				packageID, order.ScenarioID, mission.MissionNumber, mission.Callsign,
				mission.Platform, mission.UnitDesignation, mission.MissionType, status,
			).Scan(&missionID)
			if err != nil {
				return "", fmt.Errorf("failed to create mission %q: %w", mission.MissionNumber, err)
			}
			missionCount++

			for _, wp := range node.Waypoints {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO mission_waypoints (
						mission_id, seq, waypoint_type, name,
						latitude, longitude, altitude_ft, time_over
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					missionID, wp.Seq, wp.WaypointType, wp.Name,
					wp.Latitude, wp.Longitude, wp.AltitudeFt, wp.TimeOver,
				)
				if err != nil {
					return "", fmt.Errorf("failed to create waypoint (seq %d): %w", wp.Seq, err)
				}
			}

			for _, tw := range node.TimeWindows {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO mission_time_windows (mission_id, window_type, start_time, end_time)
					 VALUES ($1, $2, $3, $4)`,
					missionID, tw.WindowType, tw.StartTime, tw.EndTime,
				)
				if err != nil {
					return "", fmt.Errorf("failed to create time window (%s): %w", tw.WindowType, err)
				}
			}

			for _, target := range node.Targets {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO mission_targets (
						mission_id, target_ident, target_name, description,
						latitude, longitude, priority_rank, desired_effect
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					missionID, target.TargetIdent, target.TargetName, target.Description,
					target.Latitude, target.Longitude, target.PriorityRank, target.DesiredEffect,
				)
				if err != nil {
					return "", fmt.Errorf("failed to create mission target %q: %w", target.TargetName, err)
				}
			}

			for _, support := range node.Supports {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO support_requirements (mission_id, support_type, description, provider_callsign)
					 VALUES ($1, $2, $3, $4)`,
					missionID, support.SupportType, support.Description, support.ProviderCallsign,
				)
				if err != nil {
					return "", fmt.Errorf("failed to create support requirement (%s): %w", support.SupportType, err)
				}
			}

			for _, need := range node.SpaceNeeds {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO space_needs (mission_id, capability_type, description, window_start, window_end)
					 VALUES ($1, $2, $3, $4, $5)`,
					missionID, need.CapabilityType, need.Description, need.WindowStart, need.WindowEnd,
				)
				if err != nil {
					return "", fmt.Errorf("failed to create space need (%s): %w", need.CapabilityType, err)
				}
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Tasking order created",
		zap.String("scenario_id", order.ScenarioID),
		zap.String("tasking_order_id", taskingOrderID),
		zap.Int("package_count", len(tree.Packages)),
		zap.Int("mission_count", missionCount))

	return taskingOrderID, nil
}

// ============================================
// 查询
// ============================================

// GetOrderTree 读取命令及完整子树
// 每个子表一次按树根过滤的查询，在内存中按归属ID组装
func (r *PostgresOrdersRepository) GetOrderTree(ctx context.Context, scenarioID, taskingOrderID string) (*domain.OrderTree, error) {
	if scenarioID == "" || taskingOrderID == "" {
		return nil, fmt.Errorf("scenario_id and tasking_order_id are required")
	}

	var order domain.TaskingOrder
	err := r.db.QueryRowContext(ctx,
		`SELECT
			tasking_order_id::text,
			scenario_id::text,
			planning_doc_id::text,
			order_type,
			order_code,
			issuing_authority,
			classification,
			effective_start,
			effective_end,
			ato_day_number,
			raw_text,
			raw_format,
			confidence,
			ingested_at
		FROM tasking_orders
		WHERE scenario_id = $1 AND tasking_order_id = $2`,
		scenarioID, taskingOrderID,
	).Scan(
		&order.TaskingOrderID,
		&order.ScenarioID,
		&order.PlanningDocID,
		&order.OrderType,
		&order.OrderCode,
		&order.IssuingAuthority,
		&order.Classification,
		&order.EffectiveStart,
		&order.EffectiveEnd,
		&order.ATODayNumber,
		&order.RawText,
		&order.RawFormat,
		&order.Confidence,
		&order.IngestedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tasking order not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get tasking order: %w", err)
	}

	tree := &domain.OrderTree{Order: &order}

	// 编组
	packageNodes := map[string]*domain.PackageNode{}
	pkgRows, err := r.db.QueryContext(ctx,
		`SELECT package_id::text, tasking_order_id::text, scenario_id::text, package_name, description
		 FROM mission_packages
		 WHERE tasking_order_id = $1
		 ORDER BY package_name, package_id`,
		taskingOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mission packages: %w", err)
	}
	defer pkgRows.Close()
	for pkgRows.Next() {
		var pkg domain.MissionPackage
		if err := pkgRows.Scan(&pkg.PackageID, &pkg.TaskingOrderID, &pkg.ScenarioID, &pkg.PackageName, &pkg.Description); err != nil {
			return nil, fmt.Errorf("failed to scan mission package: %w", err)
		}
		node := &domain.PackageNode{Package: &pkg}
		packageNodes[pkg.PackageID] = node
		tree.Packages = append(tree.Packages, node)
	}
	if err := pkgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mission packages: %w", err)
	}

	// 任务
	missionNodes := map[string]*domain.MissionNode{}
	missionRows, err := r.db.QueryContext(ctx,
		`SELECT m.mission_id::text, m.package_id::text, m.scenario_id::text,
		        m.mission_number, m.callsign, m.platform, m.unit_designation, m.mission_type, m.status
		 FROM missions m
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY m.mission_number, m.mission_id`,
		taskingOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer missionRows.Close()
	for missionRows.Next() {
		var mission domain.Mission
		err := missionRows.Scan(
			&mission.MissionID,
			&mission.PackageID,
			&mission.ScenarioID,
			&mission.MissionNumber,
			&mission.Callsign,
			&mission.Platform,
			&mission.UnitDesignation,
			&mission.MissionType,
			&mission.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		node := &domain.MissionNode{Mission: &mission}
		missionNodes[mission.MissionID] = node
		if parent, ok := packageNodes[mission.PackageID]; ok {
			parent.Missions = append(parent.Missions, node)
		}
	}
	if err := missionRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate missions: %w", err)
	}

	if err := r.loadMissionChildren(ctx, taskingOrderID, missionNodes); err != nil {
		return nil, err
	}

	return tree, nil
}

// loadMissionChildren 装载任务子实体，每个子表一次查询
func (r *PostgresOrdersRepository) loadMissionChildren(ctx context.Context, taskingOrderID string, missionNodes map[string]*domain.MissionNode) error {
	// 航路点
	wpRows, err := r.db.QueryContext(ctx,
		`SELECT w.waypoint_id::text, w.mission_id::text, w.seq, w.waypoint_type, w.name,
		        w.latitude, w.longitude, w.altitude_ft, w.time_over
		 FROM mission_waypoints w
		 JOIN missions m ON w.mission_id = m.mission_id
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY w.mission_id, w.seq`,
		taskingOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to list waypoints: %w", err)
	}
	defer wpRows.Close()
	for wpRows.Next() {
		var wp domain.MissionWaypoint
		err := wpRows.Scan(&wp.WaypointID, &wp.MissionID, &wp.Seq, &wp.WaypointType, &wp.Name,
			&wp.Latitude, &wp.Longitude, &wp.AltitudeFt, &wp.TimeOver)
		if err != nil {
			return fmt.Errorf("failed to scan waypoint: %w", err)
		}
		if node, ok := missionNodes[wp.MissionID]; ok {
			node.Waypoints = append(node.Waypoints, &wp)
		}
	}
	if err := wpRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate waypoints: %w", err)
	}

	// 时间窗
	twRows, err := r.db.QueryContext(ctx,
		`SELECT t.window_id::text, t.mission_id::text, t.window_type, t.start_time, t.end_time
		 FROM mission_time_windows t
		 JOIN missions m ON t.mission_id = m.mission_id
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY t.mission_id, t.window_type, t.window_id`,
		taskingOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to list time windows: %w", err)
	}
	defer twRows.Close()
	for twRows.Next() {
		var tw domain.MissionTimeWindow
		err := twRows.Scan(&tw.WindowID, &tw.MissionID, &tw.WindowType, &tw.StartTime, &tw.EndTime)
		if err != nil {
			return fmt.Errorf("failed to scan time window: %w", err)
		}
		if node, ok := missionNodes[tw.MissionID]; ok {
			node.TimeWindows = append(node.TimeWindows, &tw)
		}
	}
	if err := twRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate time windows: %w", err)
	}

	// 目标
	targetRows, err := r.db.QueryContext(ctx,
		`SELECT t.target_id::text, t.mission_id::text, t.target_ident, t.target_name, t.description,
		        t.latitude, t.longitude, t.priority_rank, t.desired_effect
		 FROM mission_targets t
		 JOIN missions m ON t.mission_id = m.mission_id
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY t.mission_id, t.target_name, t.target_id`,
		taskingOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to list mission targets: %w", err)
	}
	defer targetRows.Close()
	for targetRows.Next() {
		var target domain.MissionTarget
		err := targetRows.Scan(&target.TargetID, &target.MissionID, &target.TargetIdent, &target.TargetName,
			&target.Description, &target.Latitude, &target.Longitude, &target.PriorityRank, &target.DesiredEffect)
		if err != nil {
			return fmt.Errorf("failed to scan mission target: %w", err)
		}
		if node, ok := missionNodes[target.MissionID]; ok {
			node.Targets = append(node.Targets, &target)
		}
	}
	if err := targetRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate mission targets: %w", err)
	}

	// 支援需求
	supportRows, err := r.db.QueryContext(ctx,
		`SELECT s.support_id::text, s.mission_id::text, s.support_type, s.description, s.provider_callsign
		 FROM support_requirements s
		 JOIN missions m ON s.mission_id = m.mission_id
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY s.mission_id, s.support_type, s.support_id`,
		taskingOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to list support requirements: %w", err)
	}
	defer supportRows.Close()
	for supportRows.Next() {
		var support domain.SupportRequirement
		err := supportRows.Scan(&support.SupportID, &support.MissionID, &support.SupportType,
			&support.Description, &support.ProviderCallsign)
		if err != nil {
			return fmt.Errorf("failed to scan support requirement: %w", err)
		}
		if node, ok := missionNodes[support.MissionID]; ok {
			node.Supports = append(node.Supports, &support)
		}
	}
	if err := supportRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate support requirements: %w", err)
	}

	// 天基需求
	needRows, err := r.db.QueryContext(ctx,
		`SELECT n.space_need_id::text, n.mission_id::text, n.capability_type, n.description,
		        n.window_start, n.window_end
		 FROM space_needs n
		 JOIN missions m ON n.mission_id = m.mission_id
		 JOIN mission_packages p ON m.package_id = p.package_id
		 WHERE p.tasking_order_id = $1
		 ORDER BY n.mission_id, n.capability_type, n.space_need_id`,
		taskingOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to list space needs: %w", err)
	}
	defer needRows.Close()
	for needRows.Next() {
		var need domain.SpaceNeed
		err := needRows.Scan(&need.SpaceNeedID, &need.MissionID, &need.CapabilityType,
			&need.Description, &need.WindowStart, &need.WindowEnd)
		if err != nil {
			return fmt.Errorf("failed to scan space need: %w", err)
		}
		if node, ok := missionNodes[need.MissionID]; ok {
			node.SpaceNeeds = append(node.SpaceNeeds, &need)
		}
	}
	if err := needRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate space needs: %w", err)
	}

	return nil
}

// ListTaskingOrders 列出想定内全部命令（新近生效在前，不含子树）
func (r *PostgresOrdersRepository) ListTaskingOrders(ctx context.Context, scenarioID string) ([]*domain.TaskingOrder, error) {
	if scenarioID == "" {
		return nil, fmt.Errorf("scenario_id is required")
	}

	query := `
		SELECT
			tasking_order_id::text,
			scenario_id::text,
			planning_doc_id::text,
			order_type,
			order_code,
			issuing_authority,
			classification,
			effective_start,
			effective_end,
			ato_day_number,
			raw_text,
			raw_format,
			confidence,
			ingested_at
		FROM tasking_orders
		WHERE scenario_id = $1
		ORDER BY effective_start DESC NULLS LAST, ingested_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasking orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.TaskingOrder
	for rows.Next() {
		var order domain.TaskingOrder
		err := rows.Scan(
			&order.TaskingOrderID,
			&order.ScenarioID,
			&order.PlanningDocID,
			&order.OrderType,
			&order.OrderCode,
			&order.IssuingAuthority,
			&order.Classification,
			&order.EffectiveStart,
			&order.EffectiveEnd,
			&order.ATODayNumber,
			&order.RawText,
			&order.RawFormat,
			&order.Confidence,
			&order.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tasking order: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasking orders: %w", err)
	}

	return orders, nil
}
