// Package run 串起规划与执行：对每个输入文件做 子集化 -> 原子写盘，
// 并汇总为对外稳定的 BatchReport。
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/John-Robertt/fontsub/internal/app/planner"
	"github.com/John-Robertt/fontsub/internal/config"
	"github.com/John-Robertt/fontsub/internal/domain"
	"github.com/John-Robertt/fontsub/internal/engine"
	"github.com/John-Robertt/fontsub/internal/infra/fsx"
)

// Options 是一次批处理的全部外部输入（来自命令行与 HTML 采集）。
type Options struct {
	Input     string
	OutputDir string
	Pattern   string // 仅用于报告回显；发现阶段已消费
	Prefix    string
	Force     bool
	DryRun    bool

	// ExtraRunes 是 HTML 采集到的补充码点，叠加在配置区间之上。
	ExtraRunes []rune
}

// Execute 执行一次批处理并返回报告。单个文件失败不影响其余文件：
// 错误被"降级"为 item 级失败，整批永远跑完。
func Execute(ctx context.Context, eff config.EffectiveConfig, files []domain.FontFile, eng engine.Engine, opts Options) domain.BatchReport {
	return ExecuteWithObserver(ctx, eff, files, eng, opts, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 输出进度（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, files []domain.FontFile, eng engine.Engine, opts Options, obs Observer) domain.BatchReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff, opts, len(files))
	}

	rr := domain.BatchReport{
		Input:     opts.Input,
		Output:    opts.OutputDir,
		Pattern:   opts.Pattern,
		DryRun:    opts.DryRun,
		StartedAt: started,
		Items:     make([]domain.JobResult, 0, len(files)),
	}

	// 输出目录先行确保：dry-run 不触盘，真实执行时失败即整批无法进行。
	if !opts.DryRun && len(files) > 0 {
		if err := ensureDir(opts.OutputDir); err != nil {
			code := domain.ErrCodeIOFailed
			if fsx.IsPathTypeConflict(err) {
				code = domain.ErrCodeTargetConflict
			}
			rr.Items = append(rr.Items, syntheticFailed(code, fmt.Sprintf("输出目录不可用：%v", err)))
			rr.FinishedAt = time.Now().UTC()
			rr.Finalize()
			return rr
		}
	}

	eopts := engine.Options{
		Ranges:         eff.Ranges,
		ExtraRunes:     opts.ExtraRunes,
		Features:       eff.LayoutFeatures,
		Desubroutinize: eff.Desubroutinize,
		NameIDs:        eff.NameIDsToRetain,
		Flavor:         eff.Flavor,
	}

	planOpts := planner.Options{
		OutputDir: opts.OutputDir,
		Prefix:    opts.Prefix,
		Force:     opts.Force,
	}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}

	type execResult struct {
		res domain.JobResult
		dur time.Duration
	}

	type job struct {
		seq  int
		file domain.FontFile
	}

	jobs := make(chan job)
	results := make(chan execResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				oneStarted := time.Now()
				r := execOne(ctx, eff, eng, eopts, planOpts, opts, j.file)
				r.Seq = j.seq
				results <- execResult{res: r, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
		for i, f := range files {
			jobs <- job{seq: i, file: f}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		rr.Items = append(rr.Items, it.res)
		if obs != nil {
			obs.OnJobDone(done, len(files), it.res, it.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// execOne 处理单个文件。任何失败都收敛为 JobResult（不向上抛错）。
func execOne(ctx context.Context, eff config.EffectiveConfig, eng engine.Engine, eopts engine.Options, planOpts planner.Options, opts Options, f domain.FontFile) domain.JobResult {
	item := domain.JobResult{
		Input:    f.RelPath,
		Format:   string(f.Format),
		OrigSize: f.Size,
	}

	p, err := planner.Plan(f, planOpts, eff.OutputExtension)
	if err != nil {
		item.Status = domain.StatusFailed
		if fsx.IsPathTypeConflict(err) {
			item.ErrorCode = domain.ErrCodeTargetConflict
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}
	item.Output = p.OutPath

	if p.Action == domain.ActionSkipExists {
		item.Status = domain.StatusSkippedExists
		item.OutSize = p.ExistingSize
		return item
	}

	// dry-run：决策照常走完，记录将要采取的动作，但不读不写。
	if opts.DryRun {
		item.Status = domain.StatusSkippedDryRun
		item.Action = p.Action
		return item
	}

	if err := ctx.Err(); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("执行被取消：%v", err)
		return item
	}

	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("读取输入失败：%v", err)
		return item
	}

	out, err := eng.Subset(data, eopts)
	if err != nil {
		item.Status = domain.StatusFailed
		if engine.IsEngineError(err) {
			item.ErrorCode = domain.ErrCodeEngineFailed
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
		}
		item.ErrorMsg = err.Error()
		return item
	}

	dir := filepath.Dir(p.OutPath)
	name := filepath.Base(p.OutPath)

	if p.Action == domain.ActionOverwrite {
		err = fsx.WriteFileAtomicReplace(dir, name, out)
	} else {
		err = fsx.WriteFileAtomicNoOverwrite(dir, name, out)
	}
	if err != nil {
		// 决策与写入之间有人抢先落盘：按既有产物处理，降级为 skip。
		if errors.Is(err, os.ErrExist) {
			item.Status = domain.StatusSkippedExists
			if fi, e := os.Lstat(p.OutPath); e == nil {
				item.OutSize = fi.Size()
			}
			return item
		}
		item.Status = domain.StatusFailed
		if fsx.IsPathTypeConflict(err) {
			item.ErrorCode = domain.ErrCodeTargetConflict
		} else {
			item.ErrorCode = domain.ErrCodeIOFailed
		}
		item.ErrorMsg = fmt.Sprintf("写入产物失败：%v", err)
		return item
	}

	item.Status = domain.StatusSucceeded
	item.OutSize = int64(len(out))
	return item
}

func syntheticFailed(code, msg string) domain.JobResult {
	return domain.JobResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func ensureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
