package domain

// ReviewFlag 低置信度抽取标注（瞬态，不单独落表）
// 只出现在同步摄取结果与进度事件中；审计行仅记录条数
type ReviewFlag struct {
	Field      string  `json:"field"`      // 产生标注的字段路径（如 missions[0].waypoints[2].type）
	RawValue   string  `json:"raw_value"`  // 原始抽取值
	Confidence float64 `json:"confidence"` // 抽取置信度 [0,1]
	Reason     string  `json:"reason"`     // 标注原因（如 coerced to default / ambiguous date format）
}
