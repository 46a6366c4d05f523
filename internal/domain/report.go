package domain

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

const (
	StatusSucceeded     = "succeeded"
	StatusSkippedExists = "skipped_exists"
	StatusSkippedDryRun = "skipped_dry_run"
	StatusFailed        = "failed"
)

const (
	ErrCodeEngineFailed   = "engine_failed"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeInputNotFound  = "input_not_found"
	ErrCodeConfigInvalid  = "config_invalid"
	ErrCodeConfigNotFound = "config_not_found"
)

// BatchReport 是对外稳定输出（stdout JSON）的结构。
type BatchReport struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Pattern string `json:"pattern,omitempty"`
	DryRun  bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary    ReportSummary `json:"summary"`
	SavedBytes int64         `json:"saved_bytes"`
	Items      []JobResult   `json:"items"`
}

type ReportSummary struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// JobResult 是单个文件的处理结果。skip 不是失败：二者在 summary 中分开统计，
// 用户据此区分"无事可做"与"出了问题"。
type JobResult struct {
	// Seq 是发现顺序下标，只用于 Finalize 排序，不进入 JSON。
	Seq int `json:"-"`

	Input  string `json:"input"`
	Format string `json:"format"`
	Output string `json:"output"`

	// Action 在 dry-run 下记录将要采取的动作（create/overwrite）。
	Action string `json:"action,omitempty"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	OrigSize     int64   `json:"orig_size"`
	OutSize      int64   `json:"out_size"`
	ReductionPct float64 `json:"reduction_pct"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 按发现顺序（Seq）稳定排序：并发执行时回收顺序不定，报告必须确定
// 3) summary/saved_bytes/reduction_pct 由 items 计算得出
func (r *BatchReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Seq < r.Items[j].Seq })

	var s ReportSummary
	var saved int64
	for i := range r.Items {
		it := &r.Items[i]
		switch it.Status {
		case StatusSucceeded:
			s.Succeeded++
			saved += it.OrigSize - it.OutSize
		case StatusSkippedExists, StatusSkippedDryRun:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		it.ReductionPct = reductionPct(it.OrigSize, it.OutSize)
	}
	r.Summary = s
	r.SavedBytes = saved
}

// reductionPct 计算 (1 - out/orig) * 100，保留一位小数。
// 尺寸未知（0）时返回 0，不做除零。
func reductionPct(orig, out int64) float64 {
	if orig <= 0 || out <= 0 {
		return 0
	}
	pct := (1 - float64(out)/float64(orig)) * 100
	return math.Round(pct*10) / 10
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r BatchReport) MarshalJSON() ([]byte, error) {
	type Alias BatchReport
	return json.Marshal(Alias(r))
}
