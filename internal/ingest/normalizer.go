package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"overwatch-ingest/internal/domain"
	"overwatch-ingest/internal/genai"
)

// documentResponse STRATEGY/PLANNING 抽取的 wire 结构
type documentResponse struct {
	Title          string             `json:"title"`
	DocType        string             `json:"doc_type"`
	AuthorityLevel string             `json:"authority_level"`
	Content        string             `json:"content"`
	EffectiveDate  string             `json:"effective_date"`
	Priorities     []priorityResponse `json:"priorities"`
}

type priorityResponse struct {
	Rank          json.RawMessage `json:"rank"`
	Effect        string          `json:"effect"`
	Description   string          `json:"description"`
	Justification string          `json:"justification"`
	TargetID      string          `json:"target_id"`
}

// orderResponse ORDER 抽取的 wire 结构（数值叶子一律宽松解码：
// 个别畸形子字段降级打标，不拖垮整个命令）
type orderResponse struct {
	OrderType        string            `json:"order_type"`
	OrderCode        string            `json:"order_code"`
	IssuingAuthority string            `json:"issuing_authority"`
	Classification   string            `json:"classification"`
	EffectiveStart   string            `json:"effective_start"`
	EffectiveEnd     string            `json:"effective_end"`
	ATODayNumber     json.RawMessage   `json:"ato_day_number"`
	MissionPackages  []packageResponse `json:"mission_packages"`
}

type packageResponse struct {
	PackageName string            `json:"package_name"`
	Description string            `json:"description"`
	Missions    []missionResponse `json:"missions"`
}

type missionResponse struct {
	MissionNumber       string               `json:"mission_number"`
	Callsign            string               `json:"callsign"`
	Platform            string               `json:"platform"`
	UnitDesignation     string               `json:"unit_designation"`
	MissionType         string               `json:"mission_type"`
	Waypoints           []waypointResponse   `json:"waypoints"`
	TimeWindows         []timeWindowResponse `json:"time_windows"`
	Targets             []targetResponse     `json:"targets"`
	SupportRequirements []supportResponse    `json:"support_requirements"`
	SpaceNeeds          []spaceNeedResponse  `json:"space_needs"`
}

type waypointResponse struct {
	Seq        json.RawMessage `json:"seq"`
	Type       string          `json:"type"`
	Name       string          `json:"name"`
	Latitude   json.RawMessage `json:"latitude"`
	Longitude  json.RawMessage `json:"longitude"`
	AltitudeFt json.RawMessage `json:"altitude_ft"`
	TimeOver   string          `json:"time_over"`
}

type timeWindowResponse struct {
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type targetResponse struct {
	TargetID      string          `json:"target_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Latitude      json.RawMessage `json:"latitude"`
	Longitude     json.RawMessage `json:"longitude"`
	PriorityRank  json.RawMessage `json:"priority_rank"`
	DesiredEffect string          `json:"desired_effect"`
}

type supportResponse struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	ProviderCallsign string `json:"provider_callsign"`
}

type spaceNeedResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

// Normalizer 规整器：按分类层级选择抽取模式，产出闭合联合载荷与评审标注。
// 子字段级问题（词表外枚举、解析不了的坐标/日期）降级打标，
// 只有抽取输出整体无法解析才返回 NormalizationError
type Normalizer struct {
	completer genai.Completer
	logger    *zap.Logger
}

// NewNormalizer 创建规整器
func NewNormalizer(completer genai.Completer, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		completer: completer,
		logger:    logger,
	}
}

// Normalize 按层级抽取结构化载荷。标注按发现顺序返回，从不阻断持久化
func (n *Normalizer) Normalize(ctx context.Context, rawText string, classify *ClassifyResult) (Payload, []domain.ReviewFlag, error) {
	switch classify.HierarchyLevel {
	case domain.LevelStrategy:
		return n.normalizeDocument(ctx, rawText, classify, false)
	case domain.LevelPlanning:
		return n.normalizeDocument(ctx, rawText, classify, true)
	case domain.LevelOrder:
		return n.normalizeOrder(ctx, rawText, classify)
	default:
		// 层级在分类阶段已校验，此分支不可达
		return nil, nil, &NormalizationError{Err: fmt.Errorf("unsupported hierarchy level %q", classify.HierarchyLevel)}
	}
}

// normalizeDocument STRATEGY/PLANNING 共用抽取路径，planning 决定抽取模式与变体
func (n *Normalizer) normalizeDocument(ctx context.Context, rawText string, classify *ClassifyResult, planning bool) (Payload, []domain.ReviewFlag, error) {
	var prompt string
	if planning {
		prompt = buildPlanningPrompt(rawText)
	} else {
		prompt = buildStrategyPrompt(rawText)
	}

	content, err := n.completer.Complete(ctx, prompt, extractMaxTokens, true)
	if err != nil {
		return nil, nil, &NormalizationError{Err: err}
	}

	var resp documentResponse
	if err := json.Unmarshal(stripCodeFence(content), &resp); err != nil {
		n.logger.Error("Extraction output is not valid JSON",
			zap.String("hierarchy_level", string(classify.HierarchyLevel)),
			zap.Error(err),
		)
		return nil, nil, &NormalizationError{Err: fmt.Errorf("unparseable extraction output: %w", err)}
	}

	flags := make([]domain.ReviewFlag, 0, 4)

	title := firstNonEmpty(strings.TrimSpace(resp.Title), classify.Title)
	docType := firstNonEmpty(normalizeToken(resp.DocType), classify.DocumentType)
	authority := firstNonEmpty(strings.TrimSpace(resp.AuthorityLevel), classify.IssuingAuthority)
	// 正文缺失时回落到原文，保证来源归因有文本可匹配
	body := firstNonEmpty(strings.TrimSpace(resp.Content), rawText)
	effective := n.parseTimeField(firstNonEmpty(resp.EffectiveDate, classify.EffectiveDate), "effective_date", &flags)
	priorities := n.normalizePriorities(resp.Priorities, planning, &flags)

	if planning {
		payload := &PlanningPayload{
			Title:          title,
			DocType:        docType,
			AuthorityLevel: authority,
			Content:        body,
			EffectiveDate:  effective,
			Priorities:     priorities,
		}
		return payload, flags, nil
	}

	payload := &StrategyPayload{
		Title:          title,
		DocType:        docType,
		AuthorityLevel: authority,
		Content:        body,
		EffectiveDate:  effective,
		Priorities:     priorities,
	}
	return payload, flags, nil
}

// normalizeOrder ORDER 抽取路径：命令元数据加完整任务树
func (n *Normalizer) normalizeOrder(ctx context.Context, rawText string, classify *ClassifyResult) (Payload, []domain.ReviewFlag, error) {
	content, err := n.completer.Complete(ctx, buildOrderPrompt(rawText), extractMaxTokens, true)
	if err != nil {
		return nil, nil, &NormalizationError{Err: err}
	}

	var resp orderResponse
	if err := json.Unmarshal(stripCodeFence(content), &resp); err != nil {
		n.logger.Error("Extraction output is not valid JSON",
			zap.String("hierarchy_level", string(classify.HierarchyLevel)),
			zap.Error(err),
		)
		return nil, nil, &NormalizationError{Err: fmt.Errorf("unparseable extraction output: %w", err)}
	}

	flags := make([]domain.ReviewFlag, 0, 8)

	payload := &OrderPayload{
		OrderType:        firstNonEmpty(normalizeToken(resp.OrderType), classify.DocumentType),
		OrderCode:        firstNonEmpty(strings.TrimSpace(resp.OrderCode), classify.Title),
		IssuingAuthority: firstNonEmpty(strings.TrimSpace(resp.IssuingAuthority), classify.IssuingAuthority),
		Classification:   firstNonEmpty(normalizeToken(resp.Classification), "UNCLASSIFIED"),
		EffectiveStart:   n.parseTimeField(resp.EffectiveStart, "effective_start", &flags),
		EffectiveEnd:     n.parseTimeField(resp.EffectiveEnd, "effective_end", &flags),
	}

	if day, ok := flexInt(resp.ATODayNumber); ok {
		payload.ATODayNumber = &day
	} else if len(resp.ATODayNumber) > 0 && string(resp.ATODayNumber) != "null" {
		flags = append(flags, domain.ReviewFlag{
			Field:      "ato_day_number",
			RawValue:   string(resp.ATODayNumber),
			Confidence: 0.3,
			Reason:     "unparseable ATO day number, dropped",
		})
	}

	payload.Packages = make([]PackagePayload, 0, len(resp.MissionPackages))
	for pi, pkg := range resp.MissionPackages {
		node := PackagePayload{
			PackageName: strings.TrimSpace(pkg.PackageName),
			Description: strings.TrimSpace(pkg.Description),
			Missions:    make([]MissionPayload, 0, len(pkg.Missions)),
		}
		for mi, m := range pkg.Missions {
			node.Missions = append(node.Missions, n.normalizeMission(m, fmt.Sprintf("mission_packages[%d].missions[%d]", pi, mi), &flags))
		}
		payload.Packages = append(payload.Packages, node)
	}

	return payload, flags, nil
}

// normalizeMission 规整单个任务及其子实体，枚举一律过词表
func (n *Normalizer) normalizeMission(m missionResponse, path string, flags *[]domain.ReviewFlag) MissionPayload {
	mission := MissionPayload{
		MissionNumber:   strings.TrimSpace(m.MissionNumber),
		Callsign:        strings.TrimSpace(m.Callsign),
		Platform:        strings.TrimSpace(m.Platform),
		UnitDesignation: strings.TrimSpace(m.UnitDesignation),
		MissionType:     normalizeToken(m.MissionType),
	}

	mission.Waypoints = make([]WaypointItem, 0, len(m.Waypoints))
	for wi, wp := range m.Waypoints {
		wpPath := fmt.Sprintf("%s.waypoints[%d]", path, wi)

		wpType, flag := WaypointTypes.Coerce(wp.Type, wpPath+".type")
		if flag != nil {
			*flags = append(*flags, *flag)
		}

		seq, ok := flexInt(wp.Seq)
		if !ok || seq <= 0 {
			seq = wi + 1
		}

		item := WaypointItem{
			Seq:       seq,
			Type:      wpType,
			Name:      strings.TrimSpace(wp.Name),
			Latitude:  n.coord(wp.Latitude, wpPath+".latitude", flags),
			Longitude: n.coord(wp.Longitude, wpPath+".longitude", flags),
			TimeOver:  n.parseTimeField(wp.TimeOver, wpPath+".time_over", flags),
		}
		if alt, ok := flexInt(wp.AltitudeFt); ok {
			item.AltitudeFt = &alt
		}
		mission.Waypoints = append(mission.Waypoints, item)
	}

	mission.TimeWindows = make([]TimeWindowItem, 0, len(m.TimeWindows))
	for ti, tw := range m.TimeWindows {
		twPath := fmt.Sprintf("%s.time_windows[%d]", path, ti)

		twType, flag := TimeWindowTypes.Coerce(tw.Type, twPath+".type")
		if flag != nil {
			*flags = append(*flags, *flag)
		}

		mission.TimeWindows = append(mission.TimeWindows, TimeWindowItem{
			Type:  twType,
			Start: n.parseTimeField(tw.StartTime, twPath+".start_time", flags),
			End:   n.parseTimeField(tw.EndTime, twPath+".end_time", flags),
		})
	}

	mission.Targets = make([]TargetItem, 0, len(m.Targets))
	for ti, tgt := range m.Targets {
		tgtPath := fmt.Sprintf("%s.targets[%d]", path, ti)

		item := TargetItem{
			Ident:         strings.TrimSpace(tgt.TargetID),
			Name:          strings.TrimSpace(tgt.Name),
			Description:   strings.TrimSpace(tgt.Description),
			Latitude:      n.coord(tgt.Latitude, tgtPath+".latitude", flags),
			Longitude:     n.coord(tgt.Longitude, tgtPath+".longitude", flags),
			DesiredEffect: strings.TrimSpace(tgt.DesiredEffect),
		}
		if rank, ok := flexInt(tgt.PriorityRank); ok && rank > 0 {
			item.PriorityRank = &rank
		}
		mission.Targets = append(mission.Targets, item)
	}

	mission.Supports = make([]SupportItem, 0, len(m.SupportRequirements))
	for si, sup := range m.SupportRequirements {
		supType, flag := SupportTypes.Coerce(sup.Type, fmt.Sprintf("%s.support_requirements[%d].type", path, si))
		if flag != nil {
			*flags = append(*flags, *flag)
		}
		mission.Supports = append(mission.Supports, SupportItem{
			Type:             supType,
			Description:      strings.TrimSpace(sup.Description),
			ProviderCallsign: strings.TrimSpace(sup.ProviderCallsign),
		})
	}

	mission.SpaceNeeds = make([]SpaceNeedItem, 0, len(m.SpaceNeeds))
	for si, sn := range m.SpaceNeeds {
		snPath := fmt.Sprintf("%s.space_needs[%d]", path, si)

		snType, flag := SpaceCapabilityTypes.Coerce(sn.Type, snPath+".type")
		if flag != nil {
			*flags = append(*flags, *flag)
		}

		mission.SpaceNeeds = append(mission.SpaceNeeds, SpaceNeedItem{
			Type:        snType,
			Description: strings.TrimSpace(sn.Description),
			WindowStart: n.parseTimeField(sn.WindowStart, snPath+".window_start", flags),
			WindowEnd:   n.parseTimeField(sn.WindowEnd, snPath+".window_end", flags),
		})
	}

	return mission
}

// normalizePriorities 规整优先级条目。rank 必须为正且文档内唯一：
// 合法且未占用的 rank 原样保留，重复或非法的取最小可用序号重排并打标
func (n *Normalizer) normalizePriorities(items []priorityResponse, planning bool, flags *[]domain.ReviewFlag) []PriorityItem {
	ranks := make([]int, len(items))
	seen := make(map[int]bool, len(items))

	// 第一遍：保留合法且未占用的 rank
	for i, item := range items {
		if rank, ok := flexInt(item.Rank); ok && rank > 0 && !seen[rank] {
			ranks[i] = rank
			seen[rank] = true
		}
	}

	// 第二遍：其余条目取最小可用序号
	next := 1
	for i, item := range items {
		if ranks[i] != 0 {
			continue
		}
		for seen[next] {
			next++
		}
		ranks[i] = next
		seen[next] = true
		*flags = append(*flags, domain.ReviewFlag{
			Field:      fmt.Sprintf("priorities[%d].rank", i),
			RawValue:   string(item.Rank),
			Confidence: 0.4,
			Reason:     fmt.Sprintf("duplicate or invalid rank, reassigned to %d", ranks[i]),
		})
	}

	out := make([]PriorityItem, 0, len(items))
	for i, item := range items {
		// 效果短语保持原样（来源归因要在原文里找得到它）
		entry := PriorityItem{
			Rank:          ranks[i],
			Effect:        strings.TrimSpace(item.Effect),
			Description:   strings.TrimSpace(item.Description),
			Justification: strings.TrimSpace(item.Justification),
		}
		if planning {
			entry.TargetID = strings.TrimSpace(item.TargetID)
		}
		out = append(out, entry)
	}

	return out
}

// coord 解析坐标；缺失或无法解析时置 0 并打标
func (n *Normalizer) coord(raw json.RawMessage, fieldPath string, flags *[]domain.ReviewFlag) float64 {
	if v, ok := flexFloat(raw); ok {
		return v
	}
	*flags = append(*flags, domain.ReviewFlag{
		Field:      fieldPath,
		RawValue:   string(raw),
		Confidence: 0.2,
		Reason:     "unresolvable coordinate, zeroed",
	})
	return 0
}

// parseTimeField 解析时间字段；空值返回 nil，无法解析时返回 nil 并打标
func (n *Normalizer) parseTimeField(value, fieldPath string, flags *[]domain.ReviewFlag) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if t, ok := parseFlexibleTime(trimmed); ok {
		return &t
	}
	*flags = append(*flags, domain.ReviewFlag{
		Field:      fieldPath,
		RawValue:   value,
		Confidence: 0.3,
		Reason:     "ambiguous or unparseable date format",
	})
	return nil
}

// 接受的时间格式（按顺序尝试）
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"January 2, 2006",
}

// parseFlexibleTime 解析 ISO 日期、RFC3339 或军用 DTG（如 021200ZJAN26）
func parseFlexibleTime(value string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return parseDTG(value)
}

// 月份缩写 → 月份（DTG 使用三字母大写缩写）
var dtgMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseDTG 解析军用日期时间组 DDHHMMZMONYY（如 021200ZJAN26，恒为 UTC）
func parseDTG(value string) (time.Time, bool) {
	dtg := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	if len(dtg) != 12 || dtg[6] != 'Z' {
		return time.Time{}, false
	}

	day := atoi2(dtg[0:2])
	hour := atoi2(dtg[2:4])
	minute := atoi2(dtg[4:6])
	month, ok := dtgMonths[dtg[7:10]]
	year := atoi2(dtg[10:12])
	if !ok || day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 || year < 0 {
		return time.Time{}, false
	}

	return time.Date(2000+year, month, day, hour, minute, 0, 0, time.UTC), true
}

// atoi2 两位数字转整数；非数字返回 -1
func atoi2(s string) int {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return -1
	}
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// firstNonEmpty 返回第一个非空串
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
