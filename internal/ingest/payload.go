package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payload 规整阶段产物：按层级封闭的三变体联合。
// 未导出的标记方法把变体限定在本包内，调用方用类型开关展开
type Payload interface {
	payloadMarker()
}

// PriorityItem 抽取出的优先级条目。
// rank 为正整数且文档内唯一（规整器契约）；TargetID 仅 PLANNING 层级使用
type PriorityItem struct {
	Rank          int
	Effect        string
	Description   string
	Justification string
	TargetID      string
}

// StrategyPayload STRATEGY 层级抽取结果
type StrategyPayload struct {
	Title          string
	DocType        string
	AuthorityLevel string
	Content        string
	EffectiveDate  *time.Time
	Priorities     []PriorityItem
}

func (*StrategyPayload) payloadMarker() {}

// PlanningPayload PLANNING 层级抽取结果（条目可带 BE 编号交叉引用）
type PlanningPayload struct {
	Title          string
	DocType        string
	AuthorityLevel string
	Content        string
	EffectiveDate  *time.Time
	Priorities     []PriorityItem
}

func (*PlanningPayload) payloadMarker() {}

// OrderPayload ORDER 层级抽取结果：命令元数据加完整任务树
type OrderPayload struct {
	OrderType        string
	OrderCode        string
	IssuingAuthority string
	Classification   string
	EffectiveStart   *time.Time
	EffectiveEnd     *time.Time
	ATODayNumber     *int
	Packages         []PackagePayload
}

func (*OrderPayload) payloadMarker() {}

// PackagePayload 任务编组
type PackagePayload struct {
	PackageName string
	Description string
	Missions    []MissionPayload
}

// MissionPayload 任务及其全部子实体
type MissionPayload struct {
	MissionNumber   string
	Callsign        string
	Platform        string
	UnitDesignation string
	MissionType     string
	Waypoints       []WaypointItem
	TimeWindows     []TimeWindowItem
	Targets         []TargetItem
	Supports        []SupportItem
	SpaceNeeds      []SpaceNeedItem
}

// WaypointItem 航路点（类型已过词表、坐标已解析）
type WaypointItem struct {
	Seq        int
	Type       string
	Name       string
	Latitude   float64
	Longitude  float64
	AltitudeFt *int
	TimeOver   *time.Time
}

// TimeWindowItem 时间窗
type TimeWindowItem struct {
	Type  string
	Start *time.Time
	End   *time.Time
}

// TargetItem 任务目标
type TargetItem struct {
	Ident         string
	Name          string
	Description   string
	Latitude      float64
	Longitude     float64
	PriorityRank  *int
	DesiredEffect string
}

// SupportItem 支援需求
type SupportItem struct {
	Type             string
	Description      string
	ProviderCallsign string
}

// SpaceNeedItem 天基能力需求
type SpaceNeedItem struct {
	Type        string
	Description string
	WindowStart *time.Time
	WindowEnd   *time.Time
}

// ExtractedCounts 各实体抽取计数（进度事件、审计行与同步结果共用）
type ExtractedCounts struct {
	PriorityCount  int `json:"priority_count,omitempty"`
	MissionCount   int `json:"mission_count,omitempty"`
	WaypointCount  int `json:"waypoint_count,omitempty"`
	TargetCount    int `json:"target_count,omitempty"`
	SpaceNeedCount int `json:"space_need_count,omitempty"`
}

// CountsOf 统计载荷中各实体数量
func CountsOf(p Payload) ExtractedCounts {
	var c ExtractedCounts
	switch v := p.(type) {
	case *StrategyPayload:
		c.PriorityCount = len(v.Priorities)
	case *PlanningPayload:
		c.PriorityCount = len(v.Priorities)
	case *OrderPayload:
		for _, pkg := range v.Packages {
			for _, m := range pkg.Missions {
				c.MissionCount++
				c.WaypointCount += len(m.Waypoints)
				c.TargetCount += len(m.Targets)
				c.SpaceNeedCount += len(m.SpaceNeeds)
			}
		}
	}
	return c
}

// stripCodeFence 剥掉生成输出外层的 markdown 代码围栏（```json ... ```）
func stripCodeFence(content string) []byte {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return []byte(strings.TrimSpace(trimmed))
}

// flexFloat 宽松解析 JSON 数值：接受数字或数字字符串
func flexFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// flexInt 宽松解析 JSON 整数：接受数字或数字字符串
func flexInt(raw json.RawMessage) (int, bool) {
	f, ok := flexFloat(raw)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// normalizeToken 把类型代码规整为全大写、下划线分隔（如 "oth gold" → "OTH_GOLD"）
func normalizeToken(s string) string {
	token := strings.ToUpper(strings.TrimSpace(s))
	token = strings.ReplaceAll(token, " ", "_")
	token = strings.ReplaceAll(token, "-", "_")
	return token
}
