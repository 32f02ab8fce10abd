package domain

// HierarchyLevel 文档层级（三级指挥体系）
// 分类阶段确定后不可变更；层级决定规整阶段的抽取模式与链接阶段的上级选择
type HierarchyLevel string

const (
	LevelStrategy HierarchyLevel = "STRATEGY" // 国家/战区级指导
	LevelPlanning HierarchyLevel = "PLANNING" // 参谋计划产品（JIPTL / ACO / SPINS / AOD）
	LevelOrder    HierarchyLevel = "ORDER"    // 战术任务命令（ATO / OPORD / FRAGO / TASKORD）
)

// IsValid 校验层级是否为三个合法值之一
func (l HierarchyLevel) IsValid() bool {
	switch l {
	case LevelStrategy, LevelPlanning, LevelOrder:
		return true
	}
	return false
}
