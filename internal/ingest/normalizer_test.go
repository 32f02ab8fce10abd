package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"overwatch-ingest/internal/domain"
)

func strategyClassify() *ClassifyResult {
	return &ClassifyResult{
		HierarchyLevel:   domain.LevelStrategy,
		DocumentType:     "NDS",
		SourceFormat:     "FREE_TEXT",
		Confidence:       0.9,
		Title:            "National Defense Strategy",
		IssuingAuthority: "SECDEF",
	}
}

func TestNormalize_Strategy(t *testing.T) {
	stub := &stubCompleter{response: `{
		"title": "National Defense Strategy 2026",
		"doc_type": "NDS",
		"authority_level": "Secretary of Defense",
		"content": "Deter aggression in the priority theater.",
		"effective_date": "2026-01-15",
		"priorities": [
			{"rank": 1, "effect": "DETER", "description": "Deter peer aggression", "justification": "Pacing threat"},
			{"rank": 2, "effect": "DEFEND", "description": "Defend the homeland", "justification": ""}
		]
	}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, flags, err := normalizer.Normalize(context.Background(), "raw strategy text", strategyClassify())
	require.NoError(t, err)
	assert.Empty(t, flags)

	strategy, ok := payload.(*StrategyPayload)
	require.True(t, ok)
	assert.Equal(t, "National Defense Strategy 2026", strategy.Title)
	assert.Equal(t, "Secretary of Defense", strategy.AuthorityLevel)
	require.NotNil(t, strategy.EffectiveDate)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), *strategy.EffectiveDate)
	require.Len(t, strategy.Priorities, 2)
	assert.Equal(t, 1, strategy.Priorities[0].Rank)
	assert.Equal(t, "DETER", strategy.Priorities[0].Effect)

	// STRATEGY 抽取走战略模式
	assert.Contains(t, stub.lastPrompt, "STRATEGY-level")
	assert.Contains(t, stub.lastPrompt, "raw strategy text")

	counts := CountsOf(payload)
	assert.Equal(t, 2, counts.PriorityCount)
	assert.Equal(t, 0, counts.MissionCount)
}

func TestNormalize_ContentFallsBackToRawText(t *testing.T) {
	stub := &stubCompleter{response: `{"title": "NDS", "priorities": []}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, _, err := normalizer.Normalize(context.Background(), "the original document body", strategyClassify())
	require.NoError(t, err)

	strategy := payload.(*StrategyPayload)
	assert.Equal(t, "the original document body", strategy.Content)
	// 分类结果兜底文档元数据
	assert.Equal(t, "SECDEF", strategy.AuthorityLevel)
	assert.Equal(t, "NDS", strategy.DocType)
}

func TestNormalize_Planning_TargetID(t *testing.T) {
	stub := &stubCompleter{response: `{
		"title": "JIPTL 26-02",
		"doc_type": "JIPTL",
		"authority_level": "JFACC",
		"content": "Prioritized target list.",
		"effective_date": "2026-02-01",
		"priorities": [
			{"rank": 1, "effect": "DESTROY", "description": "IADS command node", "justification": "Enables air superiority", "target_id": "BE0123-4567"}
		]
	}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	classify := strategyClassify()
	classify.HierarchyLevel = domain.LevelPlanning
	classify.DocumentType = "JIPTL"

	payload, flags, err := normalizer.Normalize(context.Background(), "raw planning text", classify)
	require.NoError(t, err)
	assert.Empty(t, flags)

	planning, ok := payload.(*PlanningPayload)
	require.True(t, ok)
	require.Len(t, planning.Priorities, 1)
	assert.Equal(t, "BE0123-4567", planning.Priorities[0].TargetID)

	// PLANNING 抽取走计划模式（带 target_id）
	assert.Contains(t, stub.lastPrompt, "PLANNING-level")
	assert.Contains(t, stub.lastPrompt, "target_id")
}

func TestNormalize_RankReassignment(t *testing.T) {
	// 合法 rank 原样保留；重复与非法的取最小可用序号重排
	stub := &stubCompleter{response: `{
		"title": "NDS",
		"priorities": [
			{"rank": 1, "effect": "A", "description": "first"},
			{"rank": 1, "effect": "B", "description": "duplicate"},
			{"rank": 0, "effect": "C", "description": "non-positive"},
			{"rank": 3, "effect": "D", "description": "kept"}
		]
	}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, flags, err := normalizer.Normalize(context.Background(), "raw", strategyClassify())
	require.NoError(t, err)

	strategy := payload.(*StrategyPayload)
	ranks := make([]int, 0, 4)
	seen := make(map[int]bool)
	for _, p := range strategy.Priorities {
		ranks = append(ranks, p.Rank)
		assert.False(t, seen[p.Rank], "rank %d assigned twice", p.Rank)
		assert.Greater(t, p.Rank, 0)
		seen[p.Rank] = true
	}
	assert.Equal(t, []int{1, 2, 4, 3}, ranks)

	require.Len(t, flags, 2)
	assert.Equal(t, "priorities[1].rank", flags[0].Field)
	assert.Contains(t, flags[0].Reason, "reassigned to 2")
	assert.Equal(t, "priorities[2].rank", flags[1].Field)
	assert.Contains(t, flags[1].Reason, "reassigned to 4")
}

func orderClassify() *ClassifyResult {
	return &ClassifyResult{
		HierarchyLevel:   domain.LevelOrder,
		DocumentType:     "ATO",
		SourceFormat:     "USMTF",
		Confidence:       0.85,
		Title:            "ATO CHARLIE",
		IssuingAuthority: "JFACC",
	}
}

func TestNormalize_Order_FullTree(t *testing.T) {
	stub := &stubCompleter{response: `{
		"order_type": "ATO",
		"order_code": "ATO CHARLIE",
		"issuing_authority": "JFACC",
		"classification": "UNCLASSIFIED",
		"effective_start": "021200ZJAN26",
		"effective_end": "031159ZJAN26",
		"ato_day_number": 3,
		"mission_packages": [
			{
				"package_name": "PACKAGE ALPHA",
				"description": "OCA sweep",
				"missions": [
					{
						"mission_number": "A101",
						"callsign": "VIPER 11",
						"platform": "F-16C",
						"unit_designation": "77 FS",
						"mission_type": "OCA",
						"waypoints": [
							{"seq": 1, "type": "IP", "name": "POINT X", "latitude": 36.1, "longitude": 128.2, "altitude_ft": 22000, "time_over": "021230ZJAN26"},
							{"seq": 2, "type": "RALLY", "name": "POINT Y", "latitude": "bad", "longitude": 128.9}
						],
						"time_windows": [
							{"type": "VUL", "start_time": "021215ZJAN26", "end_time": "021315ZJAN26"}
						],
						"targets": [
							{"target_id": "BE0123-4567", "name": "SAM SITE 7", "description": "SA-21 battery", "latitude": 36.4, "longitude": 128.5, "priority_rank": 1, "desired_effect": "DESTROY"}
						],
						"support_requirements": [
							{"type": "TANKER", "description": "AR track BLUE", "provider_callsign": "SHELL 21"}
						],
						"space_needs": [
							{"type": "GPS", "description": "Precision guidance", "window_start": "021200ZJAN26", "window_end": "021400ZJAN26"}
						]
					}
				]
			}
		]
	}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, flags, err := normalizer.Normalize(context.Background(), "raw order text", orderClassify())
	require.NoError(t, err)

	order, ok := payload.(*OrderPayload)
	require.True(t, ok)
	assert.Equal(t, "ATO", order.OrderType)
	assert.Equal(t, "ATO CHARLIE", order.OrderCode)
	require.NotNil(t, order.ATODayNumber)
	assert.Equal(t, 3, *order.ATODayNumber)
	require.NotNil(t, order.EffectiveStart)
	assert.Equal(t, time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC), *order.EffectiveStart)

	require.Len(t, order.Packages, 1)
	require.Len(t, order.Packages[0].Missions, 1)
	mission := order.Packages[0].Missions[0]
	assert.Equal(t, "A101", mission.MissionNumber)
	require.Len(t, mission.Waypoints, 2)

	// 词表外航路点类型降级为 CP，无法解析的坐标置 0；两者各打一条标注
	assert.Equal(t, "IP", mission.Waypoints[0].Type)
	require.NotNil(t, mission.Waypoints[0].AltitudeFt)
	assert.Equal(t, 22000, *mission.Waypoints[0].AltitudeFt)
	assert.Equal(t, "CP", mission.Waypoints[1].Type)
	assert.Equal(t, 0.0, mission.Waypoints[1].Latitude)
	assert.Equal(t, 128.9, mission.Waypoints[1].Longitude)

	require.Len(t, flags, 2)
	assert.Equal(t, "mission_packages[0].missions[0].waypoints[1].type", flags[0].Field)
	assert.Equal(t, "RALLY", flags[0].RawValue)
	assert.Equal(t, "mission_packages[0].missions[0].waypoints[1].latitude", flags[1].Field)

	// 时间窗与天基需求解析 DTG
	require.Len(t, mission.TimeWindows, 1)
	require.NotNil(t, mission.TimeWindows[0].Start)
	assert.Equal(t, time.Date(2026, 1, 2, 12, 15, 0, 0, time.UTC), *mission.TimeWindows[0].Start)
	require.Len(t, mission.SpaceNeeds, 1)
	assert.Equal(t, "GPS", mission.SpaceNeeds[0].Type)

	require.Len(t, mission.Targets, 1)
	assert.Equal(t, "BE0123-4567", mission.Targets[0].Ident)
	require.NotNil(t, mission.Targets[0].PriorityRank)
	assert.Equal(t, 1, *mission.Targets[0].PriorityRank)

	require.Len(t, mission.Supports, 1)
	assert.Equal(t, "TANKER", mission.Supports[0].Type)

	counts := CountsOf(payload)
	assert.Equal(t, ExtractedCounts{MissionCount: 1, WaypointCount: 2, TargetCount: 1, SpaceNeedCount: 1}, counts)
}

func TestNormalize_Order_MetadataFallsBackToClassification(t *testing.T) {
	stub := &stubCompleter{response: `{"mission_packages": []}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, flags, err := normalizer.Normalize(context.Background(), "raw", orderClassify())
	require.NoError(t, err)
	assert.Empty(t, flags)

	order := payload.(*OrderPayload)
	assert.Equal(t, "ATO", order.OrderType)
	assert.Equal(t, "ATO CHARLIE", order.OrderCode)
	assert.Equal(t, "JFACC", order.IssuingAuthority)
	assert.Equal(t, "UNCLASSIFIED", order.Classification)
	assert.Nil(t, order.ATODayNumber)
}

func TestNormalize_UnparseableOutput(t *testing.T) {
	stub := &stubCompleter{response: "I could not extract anything useful."}
	normalizer := NewNormalizer(stub, zap.NewNop())

	_, _, err := normalizer.Normalize(context.Background(), "raw", orderClassify())
	require.Error(t, err)

	var ne *NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, StageNormalization, StageOf(err))
}

func TestNormalize_CompleterFailure(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}
	normalizer := NewNormalizer(stub, zap.NewNop())

	_, _, err := normalizer.Normalize(context.Background(), "raw", strategyClassify())
	require.Error(t, err)

	var ne *NormalizationError
	assert.True(t, errors.As(err, &ne))
}

func TestNormalize_AmbiguousDateFlagged(t *testing.T) {
	stub := &stubCompleter{response: `{"title": "NDS", "effective_date": "next spring", "priorities": []}`}
	normalizer := NewNormalizer(stub, zap.NewNop())

	payload, flags, err := normalizer.Normalize(context.Background(), "raw", strategyClassify())
	require.NoError(t, err)

	strategy := payload.(*StrategyPayload)
	assert.Nil(t, strategy.EffectiveDate)

	require.Len(t, flags, 1)
	assert.Equal(t, "effective_date", flags[0].Field)
	assert.Equal(t, "next spring", flags[0].RawValue)
	assert.Contains(t, flags[0].Reason, "date")
}

func TestParseFlexibleTime(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2026-02-01", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"2026-02-01T08:30:00Z", time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC), true},
		{"021200ZJAN26", time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC), true},
		{"151830ZDEC25", time.Date(2025, 12, 15, 18, 30, 0, 0, time.UTC), true},
		{"02 1200Z JAN 26", time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC), true},
		{"15 Jan 2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"soon", time.Time{}, false},
		{"991200ZJAN26", time.Time{}, false},
		{"021200ZXXX26", time.Time{}, false},
	}

	for _, tc := range cases {
		got, ok := parseFlexibleTime(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
		if tc.ok {
			assert.True(t, got.Equal(tc.want), "input %q: got %v want %v", tc.input, got, tc.want)
		}
	}
}
