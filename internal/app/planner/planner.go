// Package planner 把扫描到的字体文件映射为确定性的执行计划（不做任何写入）。
package planner

import (
	"os"
	"path/filepath"

	"github.com/John-Robertt/fontsub/internal/domain"
	"github.com/John-Robertt/fontsub/internal/infra/fsx"
)

// Options 是规划所需的全部外部输入；同一组输入对同一文件必须产出同一计划。
type Options struct {
	OutputDir string
	Prefix    string // 直接拼接在 stem 前，不插入分隔符
	Force     bool
}

// OutputPath 由输入文件名确定性地推导输出路径：
// output_dir/<prefix><stem>-subset.<ext>。
func OutputPath(f domain.FontFile, opts Options, ext string) string {
	return filepath.Join(opts.OutputDir, opts.Prefix+f.Base+"-subset."+ext)
}

// Plan 基于文件系统现状生成单个文件的计划（只做 Lstat，不读内容）。
// 目标路径被目录占据视为硬冲突，由调用方记为 target_conflict。
func Plan(f domain.FontFile, opts Options, ext string) (domain.JobPlan, error) {
	out := OutputPath(f, opts, ext)
	p := domain.JobPlan{
		File:    f,
		OutPath: out,
		Action:  domain.ActionCreate,
	}

	fi, err := os.Lstat(out)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return domain.JobPlan{}, err
	}

	if fi.IsDir() {
		return domain.JobPlan{}, &fsx.PathTypeConflictError{Path: out, Want: "file", Got: "dir"}
	}

	if opts.Force {
		p.Action = domain.ActionOverwrite
	} else {
		p.Action = domain.ActionSkipExists
		p.ExistingSize = fi.Size()
	}
	return p, nil
}
