package run

import (
	"time"

	"github.com/John-Robertt/fontsub/internal/config"
	"github.com/John-Robertt/fontsub/internal/domain"
)

// Observer 把"批处理进度/条目结果"从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig, opts Options, total int)
	// OnJobDone 在单个文件处理完成时调用（用于每条结果的一行输出）。
	OnJobDone(done, total int, res domain.JobResult, dur time.Duration)
}
