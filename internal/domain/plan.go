package domain

const (
	ActionCreate     = "create"
	ActionOverwrite  = "overwrite"
	ActionSkipExists = "skip_exists"
)

// JobPlan 是对单个输入文件的最小执行计划（只描述目标与动作，不做任何写入）。
// dry-run 下计划同样被完整推导，以便报告"将要采取的动作"。
type JobPlan struct {
	File    FontFile
	OutPath string
	Action  string

	// ExistingSize 在 Action==skip_exists 时记录现有产物大小（报告连续性）。
	ExistingSize int64
}
