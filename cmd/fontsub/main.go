package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/John-Robertt/fontsub/internal/app/run"
	"github.com/John-Robertt/fontsub/internal/config"
	"github.com/John-Robertt/fontsub/internal/domain"
	"github.com/John-Robertt/fontsub/internal/engine"
	"github.com/John-Robertt/fontsub/internal/harvest"
	"github.com/John-Robertt/fontsub/internal/scan"
)

// 退出码约定：0 无失败；1 至少一个文件失败；2 前置条件失败（参数/配置/输入不可用）。
const (
	exitOK           = 0
	exitJobFailed    = 1
	exitPrecondition = 2
)

func main() {
	os.Exit(runCmd(os.Args[1:]))
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printUsage()
			return exitOK
		}
	}

	ra, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printUsage()
		return exitPrecondition
	}

	logger := newLogger(ra.Verbose)

	eff, warnings, err := config.Resolve(ra.ConfigPath)
	if err != nil {
		logger.Error("配置不可用", "error_code", config.Code(err), "err", err)
		return exitPrecondition
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	if ra.PatternSet && !ra.DirMode {
		// 兼容旧工具：单文件模式下 --pattern 无意义，忽略而不报错。
		logger.Warn("--pattern 只在 --dir 模式下生效，已忽略", "pattern", ra.Pattern)
	}

	files, scanWarnings, err := scan.Discover(ra.Input, ra.DirMode, ra.Pattern)
	if err != nil {
		if scan.IsNotFound(err) {
			logger.Error("输入不可用", "error_code", domain.ErrCodeInputNotFound, "err", err)
		} else {
			logger.Error("发现阶段失败", "err", err)
		}
		return exitPrecondition
	}
	for _, w := range scanWarnings {
		logger.Warn(w)
	}

	var extra []rune
	if len(ra.HTMLPaths) > 0 {
		extra, err = harvest.Runes(ra.HTMLPaths)
		if err != nil {
			logger.Error("HTML 采集失败", "err", err)
			return exitPrecondition
		}
		logger.Debug("HTML 采集完成", "paths", len(ra.HTMLPaths), "runes", len(extra))
	}

	opts := run.Options{
		Input:      ra.Input,
		OutputDir:  ra.OutputDir,
		Pattern:    reportPattern(ra),
		Prefix:     ra.Prefix,
		Force:      ra.Force,
		DryRun:     ra.DryRun,
		ExtraRunes: extra,
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	switch {
	case interactive:
		obs = newProgressUI(progressW)
	case ra.Verbose:
		obs = newLogObserver(logger)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, files, engine.SFNT{}, opts, obs)

	if err := emitReport(rr); err != nil {
		// stdout 写失败（断管/磁盘满）：报告未送达，不能按成功退出。
		fmt.Fprintf(os.Stderr, "写入报告失败：%v\n", err)
		return exitJobFailed
	}
	if interactive {
		emitLocations(progressW, ra.OutputDir)
	}
	if rr.Summary.Failed > 0 {
		return exitJobFailed
	}
	return exitOK
}

type cliArgs struct {
	Input      string
	OutputDir  string
	DirMode    bool
	Pattern    string
	PatternSet bool
	Prefix     string
	ConfigPath string
	Force      bool
	DryRun     bool
	Verbose    bool
	HTMLPaths  []string
}

func parseArgs(args []string) (cliArgs, error) {
	ra := cliArgs{Pattern: "*.woff2"}

	takeValue := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s 需要一个值", flag)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-i" || a == "--input":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.Input = v
		case strings.HasPrefix(a, "--input="):
			ra.Input = strings.TrimPrefix(a, "--input=")
		case a == "-o" || a == "--output":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.OutputDir = v
		case strings.HasPrefix(a, "--output="):
			ra.OutputDir = strings.TrimPrefix(a, "--output=")
		case a == "--dir":
			ra.DirMode = true
		case a == "--pattern":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.Pattern = v
			ra.PatternSet = true
		case strings.HasPrefix(a, "--pattern="):
			ra.Pattern = strings.TrimPrefix(a, "--pattern=")
			ra.PatternSet = true
		case a == "--prefix":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.Prefix = v
		case strings.HasPrefix(a, "--prefix="):
			ra.Prefix = strings.TrimPrefix(a, "--prefix=")
		case a == "--config":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.ConfigPath = v
		case strings.HasPrefix(a, "--config="):
			ra.ConfigPath = strings.TrimPrefix(a, "--config=")
		case a == "--html":
			v, err := takeValue(&i, a)
			if err != nil {
				return cliArgs{}, err
			}
			ra.HTMLPaths = append(ra.HTMLPaths, v)
		case strings.HasPrefix(a, "--html="):
			ra.HTMLPaths = append(ra.HTMLPaths, strings.TrimPrefix(a, "--html="))
		case a == "--force":
			ra.Force = true
		case a == "--dry-run":
			ra.DryRun = true
		case a == "-v" || a == "--verbose":
			ra.Verbose = true
		case strings.HasPrefix(a, "-"):
			return cliArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			return cliArgs{}, fmt.Errorf("多余的位置参数 %q（输入请用 -i/--input）", a)
		}
	}

	if strings.TrimSpace(ra.Input) == "" {
		return cliArgs{}, fmt.Errorf("-i/--input 不能为空")
	}
	if strings.TrimSpace(ra.OutputDir) == "" {
		return cliArgs{}, fmt.Errorf("-o/--output 不能为空")
	}
	if ra.PatternSet && strings.TrimSpace(ra.Pattern) == "" {
		return cliArgs{}, fmt.Errorf("--pattern 不能为空")
	}

	return ra, nil
}

// reportPattern 只在目录模式下回显 pattern（单文件模式下无意义）。
func reportPattern(ra cliArgs) string {
	if ra.DirMode {
		return ra.Pattern
	}
	return ""
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  fontsub -i <path> -o <dir> [--dir] [--pattern GLOB] [--prefix P] [--config FILE]
          [--html PATH]... [--force] [--dry-run] [-v]

参数：
  -i, --input    输入字体文件；配合 --dir 时为输入目录
  -o, --output   产物输出目录（不存在则创建）
  --dir          目录模式：按 --pattern 在输入目录中发现字体
  --pattern      目录模式的 glob（默认 *.woff2；"**/" 前缀表示递归）
  --prefix       产物文件名前缀（直接拼接，不加分隔符）
  --config       TOML 配置文件（[subset] 段覆盖内置默认值）
  --html         采集该 HTML 文件/目录中出现的码点并入保留集（可重复）
  --force        覆盖已存在的产物（默认跳过）
  --dry-run      只做决策与报告，不读字体、不写盘
  -v, --verbose  输出调试日志（stderr）
  -h, --help     显示帮助

退出码：0 无失败；1 至少一个文件失败；2 参数/配置/输入不可用。
`)
}

func newLogger(verbose bool) *charmlog.Logger {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}
	return logger
}

func emitReport(rr domain.BatchReport) error {
	if isTTY(os.Stdout) {
		mode := ""
		if rr.DryRun {
			mode = " (dry-run)"
		}
		if _, err := fmt.Fprintf(os.Stdout, "完成%s：succeeded=%d skipped=%d failed=%d saved=%s\n",
			mode, rr.Summary.Succeeded, rr.Summary.Skipped, rr.Summary.Failed, formatBytes(rr.SavedBytes),
		); err != nil {
			return err
		}
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Input
				if key == "" {
					key = "<batch>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return nil
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 BatchReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(rr); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "完成：succeeded=%d skipped=%d failed=%d saved=%s\n",
		rr.Summary.Succeeded, rr.Summary.Skipped, rr.Summary.Failed, formatBytes(rr.SavedBytes),
	)
	return nil
}

func formatBytes(n int64) string {
	neg := ""
	if n < 0 {
		neg = "-"
		n = -n
	}
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%s%.1fMB", neg, float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%s%.1fKB", neg, float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%s%dB", neg, n)
	}
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

// logObserver 在非交互终端 + -v 时以结构化日志形式输出进度。
type logObserver struct {
	logger *charmlog.Logger
}

func newLogObserver(l *charmlog.Logger) *logObserver {
	return &logObserver{logger: l}
}

func (o *logObserver) OnStart(eff config.EffectiveConfig, opts run.Options, total int) {
	o.logger.Debug("批处理开始",
		"input", opts.Input,
		"output", opts.OutputDir,
		"dry_run", opts.DryRun,
		"flavor", eff.Flavor,
		"concurrency", eff.Concurrency,
		"files", total,
	)
}

func (o *logObserver) OnJobDone(done, total int, res domain.JobResult, dur time.Duration) {
	if res.Status == domain.StatusFailed {
		o.logger.Warn("文件失败",
			"progress", fmt.Sprintf("%d/%d", done, total),
			"input", res.Input,
			"error_code", res.ErrorCode,
			"err", res.ErrorMsg,
			"dur", dur.Round(time.Millisecond),
		)
		return
	}
	o.logger.Debug("文件完成",
		"progress", fmt.Sprintf("%d/%d", done, total),
		"input", res.Input,
		"status", res.Status,
		"dur", dur.Round(time.Millisecond),
	)
}

var _ run.Observer = (*logObserver)(nil)

// emitLocations 降低"完成后不知道产物在哪"的摩擦，且不影响 stdout JSON 契约。
func emitLocations(w io.Writer, outputDir string) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "out: %s\n", filepath.Clean(outputDir))
}
