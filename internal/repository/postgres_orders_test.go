package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"overwatch-ingest/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockOrdersDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresOrdersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresOrdersRepository(db, zap.NewNop())
	return db, mock, repo
}

func sampleOrderTree(scenarioID string) *domain.OrderTree {
	return &domain.OrderTree{
		Order: &domain.TaskingOrder{
			ScenarioID:       scenarioID,
			OrderType:        "ATO",
			OrderCode:        "ATO CHARLIE",
			IssuingAuthority: "JFACC",
			RawText:          "TASKUNIT/388FW...",
			RawFormat:        "USMTF",
			Confidence:       0.9,
		},
		Packages: []*domain.PackageNode{
			{
				Package: &domain.MissionPackage{PackageName: "PKG ALPHA"},
				Missions: []*domain.MissionNode{
					{
						Mission: &domain.Mission{
							MissionNumber: "OCA1001",
							Callsign:      "VIPER 11",
							Platform:      "F-16C",
							MissionType:   "OCA",
						},
						Waypoints: []*domain.MissionWaypoint{
							{Seq: 1, WaypointType: "IP", Name: "POINT BRAVO", Latitude: 36.1, Longitude: 128.4},
							{Seq: 2, WaypointType: "TGT", Name: "OBJ STEEL", Latitude: 36.4, Longitude: 128.9},
						},
						TimeWindows: []*domain.MissionTimeWindow{
							{WindowType: "VUL"},
						},
						Targets: []*domain.MissionTarget{
							{TargetName: "SA-21 Battery", DesiredEffect: "DESTROY"},
						},
						Supports: []*domain.SupportRequirement{
							{SupportType: "SEAD", Description: "Suppress acquisition radars"},
						},
						SpaceNeeds: []*domain.SpaceNeed{
							{CapabilityType: "GPS", Description: "Precision guidance window"},
						},
					},
				},
			},
		},
	}
}

// ============================================
// 写入事务测试
// ============================================

func TestCreateOrderTree_Success(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()
	scenarioID := uuid.New().String()
	taskingOrderID := uuid.New().String()
	packageID := uuid.New().String()
	missionID := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tasking_orders`).
		WillReturnRows(sqlmock.NewRows([]string{"tasking_order_id"}).AddRow(taskingOrderID))
	mock.ExpectQuery(`INSERT INTO mission_packages`).
		WithArgs(taskingOrderID, scenarioID, "PKG ALPHA", "").
		WillReturnRows(sqlmock.NewRows([]string{"package_id"}).AddRow(packageID))
	mock.ExpectQuery(`INSERT INTO missions`).
		WithArgs(packageID, scenarioID, "OCA1001", "VIPER 11", "F-16C", "", "OCA", domain.MissionStatusPlanned).
		WillReturnRows(sqlmock.NewRows([]string{"mission_id"}).AddRow(missionID))
	mock.ExpectExec(`INSERT INTO mission_waypoints`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO mission_waypoints`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO mission_time_windows`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO mission_targets`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO support_requirements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO space_needs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.CreateOrderTree(ctx, sampleOrderTree(scenarioID))

	require.NoError(t, err)
	assert.Equal(t, taskingOrderID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTree_ChildFailureRollsBack(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()
	scenarioID := uuid.New().String()

	// 航路点写入失败：命令、编组、任务都不得落库
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tasking_orders`).
		WillReturnRows(sqlmock.NewRows([]string{"tasking_order_id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO mission_packages`).
		WillReturnRows(sqlmock.NewRows([]string{"package_id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO missions`).
		WillReturnRows(sqlmock.NewRows([]string{"mission_id"}).AddRow(uuid.New().String()))
	mock.ExpectExec(`INSERT INTO mission_waypoints`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	id, err := repo.CreateOrderTree(ctx, sampleOrderTree(scenarioID))

	assert.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "waypoint")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTree_DefaultsClassification(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()
	scenarioID := uuid.New().String()
	taskingOrderID := uuid.New().String()

	tree := &domain.OrderTree{
		Order: &domain.TaskingOrder{
			ScenarioID: scenarioID,
			OrderType:  "FRAGO",
			OrderCode:  "FRAGO 07",
			RawText:    "FRAGO 07 to OPORD 25-01",
			RawFormat:  "FREE_TEXT",
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tasking_orders`).
		WithArgs(scenarioID, sqlmock.AnyArg(), "FRAGO", "FRAGO 07", "", "UNCLASSIFIED",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"FRAGO 07 to OPORD 25-01", "FREE_TEXT", 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"tasking_order_id"}).AddRow(taskingOrderID))
	mock.ExpectCommit()

	id, err := repo.CreateOrderTree(ctx, tree)

	require.NoError(t, err)
	assert.Equal(t, taskingOrderID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTree_MissingScenarioID(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()

	id, err := repo.CreateOrderTree(ctx, &domain.OrderTree{Order: &domain.TaskingOrder{}})

	assert.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "scenario_id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 查询测试
// ============================================

func TestGetOrderTree_AssemblesChildren(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()
	scenarioID := uuid.New().String()
	taskingOrderID := uuid.New().String()
	packageID := uuid.New().String()
	missionID := uuid.New().String()
	now := time.Now()

	mock.ExpectQuery(`FROM tasking_orders`).
		WithArgs(scenarioID, taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"tasking_order_id", "scenario_id", "planning_doc_id", "order_type", "order_code",
			"issuing_authority", "classification", "effective_start", "effective_end",
			"ato_day_number", "raw_text", "raw_format", "confidence", "ingested_at",
		}).AddRow(
			taskingOrderID, scenarioID, nil, "ATO", "ATO CHARLIE",
			"JFACC", "UNCLASSIFIED", now, nil,
			3, "raw", "USMTF", 0.9, now,
		))

	mock.ExpectQuery(`FROM mission_packages`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"package_id", "tasking_order_id", "scenario_id", "package_name", "description",
		}).AddRow(packageID, taskingOrderID, scenarioID, "PKG ALPHA", ""))

	mock.ExpectQuery(`FROM missions`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"mission_id", "package_id", "scenario_id", "mission_number", "callsign",
			"platform", "unit_designation", "mission_type", "status",
		}).AddRow(missionID, packageID, scenarioID, "OCA1001", "VIPER 11", "F-16C", "388 FW", "OCA", "planned"))

	mock.ExpectQuery(`FROM mission_waypoints`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"waypoint_id", "mission_id", "seq", "waypoint_type", "name",
			"latitude", "longitude", "altitude_ft", "time_over",
		}).
			AddRow(uuid.New().String(), missionID, 1, "IP", "POINT BRAVO", 36.1, 128.4, 22000, nil).
			AddRow(uuid.New().String(), missionID, 2, "TGT", "OBJ STEEL", 36.4, 128.9, nil, now))

	mock.ExpectQuery(`FROM mission_time_windows`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"window_id", "mission_id", "window_type", "start_time", "end_time",
		}).AddRow(uuid.New().String(), missionID, "VUL", now, now.Add(time.Hour)))

	mock.ExpectQuery(`FROM mission_targets`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"target_id", "mission_id", "target_ident", "target_name", "description",
			"latitude", "longitude", "priority_rank", "desired_effect",
		}).AddRow(uuid.New().String(), missionID, "BE0123-4567", "SA-21 Battery", "", 36.4, 128.9, 1, "DESTROY"))

	mock.ExpectQuery(`FROM support_requirements`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"support_id", "mission_id", "support_type", "description", "provider_callsign",
		}).AddRow(uuid.New().String(), missionID, "SEAD", "Suppress radars", "WEASEL 21"))

	mock.ExpectQuery(`FROM space_needs`).
		WithArgs(taskingOrderID).
		WillReturnRows(sqlmock.NewRows([]string{
			"space_need_id", "mission_id", "capability_type", "description", "window_start", "window_end",
		}).AddRow(uuid.New().String(), missionID, "GPS", "Precision guidance", nil, nil))

	tree, err := repo.GetOrderTree(ctx, scenarioID, taskingOrderID)

	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, "ATO CHARLIE", tree.Order.OrderCode)
	require.Len(t, tree.Packages, 1)
	require.Len(t, tree.Packages[0].Missions, 1)

	mission := tree.Packages[0].Missions[0]
	assert.Equal(t, "OCA1001", mission.Mission.MissionNumber)
	assert.Len(t, mission.Waypoints, 2)
	assert.Equal(t, 1, mission.Waypoints[0].Seq)
	assert.Len(t, mission.TimeWindows, 1)
	assert.Len(t, mission.Targets, 1)
	assert.Equal(t, "SA-21 Battery", mission.Targets[0].TargetName)
	assert.Len(t, mission.Supports, 1)
	assert.Len(t, mission.SpaceNeeds, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderTree_NotFound(t *testing.T) {
	db, mock, repo := setupMockOrdersDB(t)
	defer db.Close()

	ctx := context.Background()
	scenarioID := uuid.New().String()
	taskingOrderID := uuid.New().String()

	mock.ExpectQuery(`FROM tasking_orders`).
		WithArgs(scenarioID, taskingOrderID).
		WillReturnError(sql.ErrNoRows)

	tree, err := repo.GetOrderTree(ctx, scenarioID, taskingOrderID)

	assert.Error(t, err)
	assert.Nil(t, tree)
	assert.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}
