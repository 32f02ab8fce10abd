package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"overwatch-ingest/internal/attribution"
	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/repository"
)

// setupTestAttribution 内存仓库加无缓存归因服务
func setupTestAttribution(t *testing.T) (AttributionService, *repository.Repositories) {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	cache := attribution.NewCache(nil, zap.NewNop())
	svc := NewAttributionService(repos.Documents, repos.Orders, cache, zap.NewNop())
	return svc, repos
}

func TestAttributionResolve_PlanningPriorities(t *testing.T) {
	svc, repos := setupTestAttribution(t)
	ctx := context.Background()
	scenarioID := "scenario-a"

	doc := &domain.PlanningDocument{
		ScenarioID:     scenarioID,
		Title:          "JIPTL 26-02",
		DocType:        "JIPTL",
		AuthorityLevel: "JFACC",
		Content:        "Phase one: destroy the IADS command nodes before H-hour.",
		SourceFormat:   "USMTF",
		Confidence:     0.9,
	}
	docID, err := repos.Documents.CreatePlanningDocument(ctx, doc, []*domain.PriorityEntry{
		{ScenarioID: scenarioID, Rank: 1, Effect: "DESTROY", Description: "IADS command nodes"},
	})
	require.NoError(t, err)

	resp, err := svc.Resolve(ctx, scenarioID, AttributionKindPlanning, docID)
	require.NoError(t, err)

	assert.Equal(t, scenarioID, resp.ScenarioID)
	assert.Equal(t, docID, resp.RecordID)
	assert.Equal(t, AttributionKindPlanning, resp.Kind)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, attribution.KindPriority, resp.Matches[0].EntityKind)
	assert.Equal(t, "IADS command nodes", resp.Matches[0].Matched)
	assert.Equal(t, attribution.Palette[0], resp.Matches[0].Color)
}

func TestAttributionResolve_StrategyEffectFallback(t *testing.T) {
	svc, repos := setupTestAttribution(t)
	ctx := context.Background()
	scenarioID := "scenario-a"

	// 描述不在正文里，效果短语在
	doc := &domain.StrategyDocument{
		ScenarioID:     scenarioID,
		Title:          "Theater strategy",
		DocType:        "THEATER_STRATEGY",
		AuthorityLevel: "CCDR",
		Content:        "The command will DETER regional aggression through forward presence.",
		SourceFormat:   "FREE_TEXT",
		Confidence:     0.8,
	}
	docID, err := repos.Documents.CreateStrategyDocument(ctx, doc, []*domain.PriorityEntry{
		{ScenarioID: scenarioID, Rank: 1, Effect: "DETER", Description: "something absent from the body"},
	})
	require.NoError(t, err)

	resp, err := svc.Resolve(ctx, scenarioID, AttributionKindStrategy, docID)
	require.NoError(t, err)

	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "DETER", resp.Matches[0].Matched)
}

func TestAttributionResolve_OrderTargetsOnRawText(t *testing.T) {
	svc, repos := setupTestAttribution(t)
	ctx := context.Background()
	scenarioID := "scenario-a"

	rawText := "ATO CHARLIE tasking: VIPER 11 strikes SA-21 Battery at dawn."
	tree := &domain.OrderTree{
		Order: &domain.TaskingOrder{
			ScenarioID:       scenarioID,
			OrderType:        "ATO",
			OrderCode:        "ATO CHARLIE",
			IssuingAuthority: "607 AOC",
			RawText:          rawText,
			RawFormat:        "USMTF",
			Confidence:       0.9,
		},
		Packages: []*domain.PackageNode{
			{
				Package: &domain.MissionPackage{ScenarioID: scenarioID, PackageName: "PACKAGE ALPHA"},
				Missions: []*domain.MissionNode{
					{
						Mission: &domain.Mission{ScenarioID: scenarioID, MissionNumber: "OCA1001"},
						Targets: []*domain.MissionTarget{
							{TargetName: "SA-21 Battery", DesiredEffect: "DESTROY"},
						},
					},
				},
			},
		},
	}
	orderID, err := repos.Orders.CreateOrderTree(ctx, tree)
	require.NoError(t, err)

	resp, err := svc.Resolve(ctx, scenarioID, AttributionKindOrder, orderID)
	require.NoError(t, err)

	require.Len(t, resp.Matches, 1)
	assert.Equal(t, attribution.KindTarget, resp.Matches[0].EntityKind)
	assert.Equal(t, "SA-21 Battery", resp.Matches[0].Matched)
	// 偏移指向保留原文
	assert.Equal(t, "SA-21 Battery", rawText[resp.Matches[0].Start:resp.Matches[0].End])
}

func TestAttributionResolve_InvalidKind(t *testing.T) {
	svc, _ := setupTestAttribution(t)

	_, err := svc.Resolve(context.Background(), "scenario-a", "mission", "some-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid attribution kind")
}

func TestAttributionResolve_UnknownRecord(t *testing.T) {
	svc, _ := setupTestAttribution(t)

	_, err := svc.Resolve(context.Background(), "scenario-a", AttributionKindPlanning, "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planning document not found")
}
