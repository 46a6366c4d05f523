package main

import (
	"testing"
)

func TestParseArgs_Minimal(t *testing.T) {
	ra, err := parseArgs([]string{"-i", "a.woff2", "-o", "out"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Input != "a.woff2" || ra.OutputDir != "out" {
		t.Fatalf("解析结果不符：%+v", ra)
	}
	if ra.DirMode || ra.Force || ra.DryRun || ra.Verbose {
		t.Fatalf("布尔开关不应默认开启：%+v", ra)
	}
	if ra.Pattern != "*.woff2" {
		t.Fatalf("pattern 默认值应为 *.woff2，实际 %q", ra.Pattern)
	}
}

func TestParseArgs_EqualsForm(t *testing.T) {
	ra, err := parseArgs([]string{
		"--input=fonts", "--output=dist", "--dir",
		"--pattern=**/*.ttf", "--prefix=web-", "--config=subset.toml",
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Input != "fonts" || ra.OutputDir != "dist" || !ra.DirMode {
		t.Fatalf("解析结果不符：%+v", ra)
	}
	if ra.Pattern != "**/*.ttf" || ra.Prefix != "web-" || ra.ConfigPath != "subset.toml" {
		t.Fatalf("解析结果不符：%+v", ra)
	}
}

func TestParseArgs_HTMLRepeatable(t *testing.T) {
	ra, err := parseArgs([]string{
		"-i", "a.ttf", "-o", "out",
		"--html", "index.html", "--html=pages/",
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(ra.HTMLPaths) != 2 || ra.HTMLPaths[0] != "index.html" || ra.HTMLPaths[1] != "pages/" {
		t.Fatalf("--html 应可重复累积：%v", ra.HTMLPaths)
	}
}

func TestParseArgs_Booleans(t *testing.T) {
	ra, err := parseArgs([]string{"-i", "a.ttf", "-o", "out", "--force", "--dry-run", "-v"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ra.Force || !ra.DryRun || !ra.Verbose {
		t.Fatalf("布尔开关未生效：%+v", ra)
	}
}

func TestParseArgs_PatternWithoutDirAccepted(t *testing.T) {
	// 兼容旧工具：单文件模式下 --pattern 被忽略（运行期告警），不是参数错误。
	ra, err := parseArgs([]string{"-i", "a.ttf", "-o", "out", "--pattern", "*.ttf"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ra.PatternSet || ra.DirMode {
		t.Fatalf("解析结果不符：%+v", ra)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"缺少 input", []string{"-o", "out"}},
		{"缺少 output", []string{"-i", "a.ttf"}},
		{"input 缺值", []string{"-i"}},
		{"未知参数", []string{"-i", "a.ttf", "-o", "out", "--bogus"}},
		{"多余位置参数", []string{"-i", "a.ttf", "-o", "out", "extra"}},
		{"pattern 为空", []string{"-i", "fonts", "-o", "out", "--pattern="}},
	}
	for _, c := range cases {
		if _, err := parseArgs(c.args); err == nil {
			t.Fatalf("%s：期望错误，实际成功", c.name)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{2048, "2.0KB"},
		{1536, "1.5KB"},
		{3 << 20, "3.0MB"},
		{-2048, "-2.0KB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.n); got != c.want {
			t.Fatalf("%d：期望 %s，实际 %s", c.n, c.want, got)
		}
	}
}
