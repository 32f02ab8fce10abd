package attribution

import "strings"

// Palette 高亮配色，按命中顺序循环取用
var Palette = []string{
	"#FFD54F", // amber
	"#4FC3F7", // light blue
	"#AED581", // light green
	"#F06292", // pink
	"#BA68C8", // purple
	"#FF8A65", // orange
	"#4DB6AC", // teal
	"#90A4AE", // blue grey
}

const (
	// 候选短于3字符不参与匹配
	minCandidateLen = 3
	// 描述候选截断长度（rune 数）
	descriptionPrefixLen = 40
)

// 实体类别
const (
	KindPriority = "priority"
	KindTarget   = "target"
)

// Entity 待归因的结构化实体。候选文本按偏好顺序：
// 目标名称、截断后的描述、效果短语
type Entity struct {
	ID          string
	Kind        string // KindPriority | KindTarget
	TargetName  string
	Description string
	Effect      string
}

// Match 一条归因命中，区间为原文字节偏移 [Start, End)
type Match struct {
	EntityID   string `json:"entity_id"`
	EntityKind string `json:"entity_kind"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Matched    string `json:"matched"`
	Color      string `json:"color"`
}

type span struct {
	start, end int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// MatchEntities 在原文中为每个实体寻找第一个不与已命中区间重叠的
// 大小写不敏感子串命中。无可用候选或无命中的实体被静默丢弃，
// 这是尽力而为的展示特性，不是正确性保证
func MatchEntities(rawText string, entities []Entity) []Match {
	if rawText == "" || len(entities) == 0 {
		return nil
	}

	lower := strings.ToLower(rawText)
	var claimed []span
	var matches []Match

	for _, entity := range entities {
		candidates := []string{
			strings.TrimSpace(entity.TargetName),
			truncateDescription(entity.Description),
			strings.TrimSpace(entity.Effect),
		}

		for _, candidate := range candidates {
			if len(candidate) < minCandidateLen {
				continue
			}
			found, ok := firstFreeOccurrence(lower, strings.ToLower(candidate), claimed)
			if !ok {
				continue
			}

			claimed = append(claimed, found)
			matched := candidate
			if found.end <= len(rawText) {
				matched = rawText[found.start:found.end]
			}
			matches = append(matches, Match{
				EntityID:   entity.ID,
				EntityKind: entity.Kind,
				Start:      found.start,
				End:        found.end,
				Matched:    matched,
				Color:      Palette[len(matches)%len(Palette)],
			})
			break
		}
	}

	return matches
}

// firstFreeOccurrence 返回 needle 在 haystack 中第一个不与 claimed 重叠的出现位置
func firstFreeOccurrence(haystack, needle string, claimed []span) (span, bool) {
	from := 0
	for from <= len(haystack)-len(needle) {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return span{}, false
		}
		candidate := span{start: from + idx, end: from + idx + len(needle)}

		free := true
		for _, c := range claimed {
			if candidate.overlaps(c) {
				free = false
				break
			}
		}
		if free {
			return candidate, true
		}
		from = candidate.start + 1
	}
	return span{}, false
}

func truncateDescription(s string) string {
	trimmed := strings.TrimSpace(s)
	runes := []rune(trimmed)
	if len(runes) <= descriptionPrefixLen {
		return trimmed
	}
	return string(runes[:descriptionPrefixLen])
}
