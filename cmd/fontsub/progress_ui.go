package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/fontsub/internal/app/run"
	"github.com/John-Robertt/fontsub/internal/config"
	"github.com/John-Robertt/fontsub/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	fail    int
	skip    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, opts run.Options, total int) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}
	p.workers = eff.Concurrency
	p.total = total

	mode := "subset"
	modeHint := ""
	if opts.DryRun {
		mode = "dry-run"
		modeHint = " (不读字体/不写盘)"
	}

	fmt.Fprintf(p.w, "[%s] fontsub (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  input: %s\n", opts.Input)
	if opts.Pattern != "" {
		fmt.Fprintf(p.w, "  pattern: %s\n", opts.Pattern)
	}
	fmt.Fprintf(p.w, "  output: %s\n", opts.OutputDir)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  flavor: %s (.%s)\n", eff.Flavor, eff.OutputExtension)
	fmt.Fprintf(p.w, "  unicodes: %s\n", truncate(strings.Join(eff.RawUnicodes, ","), 120))
	if len(opts.ExtraRunes) > 0 {
		fmt.Fprintf(p.w, "  html_runes: +%d\n", len(opts.ExtraRunes))
	}
	fmt.Fprintf(p.w, "  layout_features: %s\n", formatFeatures(eff.LayoutFeatures))
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  files: %d\n", total)
	fmt.Fprintln(p.w)

	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}

	p.lastPrinted = time.Now()
	p.mu.Unlock()
}

func (p *progressUI) OnJobDone(done, total int, res domain.JobResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// done/total 由 run 层给出；这里同时维护自己的计数，供 keepalive 使用。
	p.done = done
	p.total = total

	switch res.Status {
	case domain.StatusSucceeded:
		p.ok++
	case domain.StatusFailed:
		p.fail++
	default:
		p.skip++
	}

	switch res.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			done, total, res.Input, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusSkippedExists:
		fmt.Fprintf(p.w, "[%d/%d] %s SKIP (产物已存在；--force 可覆盖) (%s)\n",
			done, total, res.Input, formatShortDuration(dur),
		)
	case domain.StatusSkippedDryRun:
		fmt.Fprintf(p.w, "[%d/%d] %s PLAN %s -> %s\n",
			done, total, res.Input, res.Action, res.Output,
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s OK %s -> %s (-%.1f%%) (%s)\n",
			done, total, res.Input, formatBytes(res.OrigSize), formatBytes(res.OutSize),
			res.ReductionPct, formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// 已完成：安全退出（OnJobDone 会 close stopCh，但这里也做兜底）。
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					active := p.workers
					remain := p.total - p.done
					if remain < active {
						active = remain
					}
					elapsed := time.Since(p.startedAt)
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d skip=%d active=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, p.skip, active, formatElapsed(elapsed),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

func formatFeatures(xs []string) string {
	if len(xs) == 0 {
		return "(无：丢弃 GDEF/GSUB/GPOS)"
	}
	return strings.Join(xs, ",")
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
