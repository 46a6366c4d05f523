package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/fontsub/internal/domain"
	"github.com/John-Robertt/fontsub/internal/infra/fsx"
)

func fontFile(t *testing.T, dir, name string) domain.FontFile {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("font-bytes"), 0o644); err != nil {
		t.Fatalf("写入测试文件失败：%v", err)
	}
	return domain.NewFontFile(p, name, int64(len("font-bytes")))
}

func TestOutputPath_PrefixDirectConcat(t *testing.T) {
	dir := t.TempDir()
	f := fontFile(t, dir, "bar.otf")

	got := OutputPath(f, Options{OutputDir: "/out", Prefix: "web-"}, "woff2")
	want := filepath.Join("/out", "web-bar-subset.woff2")
	if got != want {
		t.Fatalf("期望 %s，实际 %s", want, got)
	}

	// 前缀直接拼接，不会偷偷补分隔符。
	got = OutputPath(f, Options{OutputDir: "/out", Prefix: "web"}, "woff2")
	want = filepath.Join("/out", "webbar-subset.woff2")
	if got != want {
		t.Fatalf("期望 %s，实际 %s", want, got)
	}
}

func TestOutputPath_ExtensionFromConfigNotInput(t *testing.T) {
	dir := t.TempDir()
	f := fontFile(t, dir, "a.ttf")

	got := OutputPath(f, Options{OutputDir: "/out"}, "woff")
	if got != filepath.Join("/out", "a-subset.woff") {
		t.Fatalf("输出扩展名应取自配置：%s", got)
	}
}

func TestPlan_Create(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	f := fontFile(t, dir, "a.ttf")

	p, err := Plan(f, Options{OutputDir: out}, "woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p.Action != domain.ActionCreate {
		t.Fatalf("期望 create，实际 %s", p.Action)
	}
}

func TestPlan_SkipExists(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	f := fontFile(t, dir, "a.ttf")

	existing := filepath.Join(out, "a-subset.woff2")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("写入已有产物失败：%v", err)
	}

	p, err := Plan(f, Options{OutputDir: out}, "woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p.Action != domain.ActionSkipExists {
		t.Fatalf("期望 skip_exists，实际 %s", p.Action)
	}
	if p.ExistingSize != 3 {
		t.Fatalf("期望记录已有大小 3，实际 %d", p.ExistingSize)
	}
}

func TestPlan_ForceOverwrite(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	f := fontFile(t, dir, "a.ttf")

	if err := os.WriteFile(filepath.Join(out, "a-subset.woff2"), []byte("old"), 0o644); err != nil {
		t.Fatalf("写入已有产物失败：%v", err)
	}

	p, err := Plan(f, Options{OutputDir: out, Force: true}, "woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if p.Action != domain.ActionOverwrite {
		t.Fatalf("期望 overwrite，实际 %s", p.Action)
	}
}

func TestPlan_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	f := fontFile(t, dir, "a.ttf")

	if err := os.MkdirAll(filepath.Join(out, "a-subset.woff2"), 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}

	_, err := Plan(f, Options{OutputDir: out, Force: true}, "woff2")
	if !fsx.IsPathTypeConflict(err) {
		t.Fatalf("期望路径类型冲突，实际 %v", err)
	}
}
