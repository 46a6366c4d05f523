package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/fontsub/internal/app/run"
	"github.com/John-Robertt/fontsub/internal/config"
	"github.com/John-Robertt/fontsub/internal/domain"
)

func TestProgressUI_JobLines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	eff, _, err := config.Resolve("")
	if err != nil {
		t.Fatalf("默认配置解析失败：%v", err)
	}
	p.OnStart(eff, run.Options{Input: "fonts", OutputDir: "dist"}, 3)

	p.OnJobDone(1, 3, domain.JobResult{
		Input: "a.woff2", Status: domain.StatusSucceeded,
		OrigSize: 10240, OutSize: 3072, ReductionPct: 70.0,
	}, 120*time.Millisecond)
	p.OnJobDone(2, 3, domain.JobResult{
		Input: "b.woff2", Status: domain.StatusSkippedExists,
	}, time.Millisecond)
	p.OnJobDone(3, 3, domain.JobResult{
		Input: "c.woff2", Status: domain.StatusFailed,
		ErrorCode: domain.ErrCodeEngineFailed, ErrorMsg: "损坏的字体",
	}, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"[1/3] a.woff2 OK", "-70.0%", "[2/3] b.woff2 SKIP", "[3/3] c.woff2 FAIL engine_failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestProgressUI_DryRunPlanLine(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	eff, _, err := config.Resolve("")
	if err != nil {
		t.Fatalf("默认配置解析失败：%v", err)
	}
	p.OnStart(eff, run.Options{Input: "fonts", OutputDir: "dist", DryRun: true}, 1)
	p.OnJobDone(1, 1, domain.JobResult{
		Input: "a.woff2", Status: domain.StatusSkippedDryRun,
		Action: domain.ActionCreate, Output: "dist/a-subset.woff2",
	}, 0)

	out := buf.String()
	if !strings.Contains(out, "dry-run") {
		t.Fatalf("OnStart 应标注 dry-run：\n%s", out)
	}
	if !strings.Contains(out, "PLAN create -> dist/a-subset.woff2") {
		t.Fatalf("dry-run 条目应展示动作与目标：\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("短字符串不应截断：%q", got)
	}
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("期望 hello...，实际 %q", got)
	}
}
