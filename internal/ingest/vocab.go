package ingest

import (
	"fmt"
	"strings"

	"overwatch-ingest/internal/domain"
)

// Vocabulary 闭合枚举词表：合法值集合加一个文档化的缺省值。
// 词表外或缺失的输入降级为缺省值并打一条评审标注，从不报错。
// 这是刻意的宽容契约：个别畸形子字段优雅降级，只有整体解析失败才终止命令
type Vocabulary struct {
	Field   string   // 标注中使用的字段名
	Members []string // 合法值（全大写）
	Default string   // 词表外输入的降级值
}

var (
	// WaypointTypes 航路点类型词表
	WaypointTypes = Vocabulary{
		Field:   "waypoint_type",
		Members: []string{"IP", "CP", "TGT", "EGRESS", "REFUEL", "HOLD"},
		Default: "CP",
	}

	// TimeWindowTypes 时间窗类型词表
	TimeWindowTypes = Vocabulary{
		Field:   "window_type",
		Members: []string{"VUL", "TOT", "ONSTA", "REFUEL"},
		Default: "VUL",
	}

	// SupportTypes 支援类型词表（GENERAL 为显式降级项）
	SupportTypes = Vocabulary{
		Field:   "support_type",
		Members: []string{"TANKER", "SEAD", "ESCORT", "EW", "ISR", "CSAR", "GENERAL"},
		Default: "GENERAL",
	}

	// SpaceCapabilityTypes 天基能力类型词表
	SpaceCapabilityTypes = Vocabulary{
		Field:   "capability_type",
		Members: []string{"GPS", "SATCOM", "ISR_COLLECTION", "MISSILE_WARNING", "WEATHER"},
		Default: "SATCOM",
	}
)

// Coerce 把 raw 规整到词表内。命中（不区分大小写、忽略首尾空白）返回规范值；
// 词表外或缺失返回缺省值并附一条评审标注。fieldPath 为空时使用词表自身字段名
func (v Vocabulary) Coerce(raw, fieldPath string) (string, *domain.ReviewFlag) {
	if fieldPath == "" {
		fieldPath = v.Field
	}

	canonical := strings.ToUpper(strings.TrimSpace(raw))
	if canonical == "" {
		return v.Default, &domain.ReviewFlag{
			Field:      fieldPath,
			RawValue:   raw,
			Confidence: 0.3,
			Reason:     fmt.Sprintf("missing value, defaulted to %s", v.Default),
		}
	}

	for _, m := range v.Members {
		if canonical == m {
			return m, nil
		}
	}

	return v.Default, &domain.ReviewFlag{
		Field:      fieldPath,
		RawValue:   raw,
		Confidence: 0.3,
		Reason:     fmt.Sprintf("value outside closed vocabulary, coerced to %s", v.Default),
	}
}
