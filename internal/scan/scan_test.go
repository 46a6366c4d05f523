package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Foo-Regular.ttf")
	touch(t, path)

	got, warns, err := Discover(path, false, "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("不期望告警：%v", warns)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if got[0].Base != "Foo-Regular" || got[0].Ext != ".ttf" || got[0].Format != "ttf" {
		t.Fatalf("字段不符：%+v", got[0])
	}
}

func TestDiscover_SingleFileMissing(t *testing.T) {
	_, _, err := Discover(filepath.Join(t.TempDir(), "nope.woff2"), false, "")
	if !IsNotFound(err) {
		t.Fatalf("期望 NotFoundError，实际 %v", err)
	}
}

func TestDiscover_SingleFileIsDir(t *testing.T) {
	root := t.TempDir()
	_, _, err := Discover(root, false, "")
	if !IsNotFound(err) {
		t.Fatalf("目录当文件：期望 NotFoundError，实际 %v", err)
	}
}

func TestDiscover_SingleFileUnknownExtWarns(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "data.bin")
	touch(t, path)

	got, warns, err := Discover(path, false, "")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 用户显式指定的文件仍然纳入，只告警。
	if len(got) != 1 || len(warns) != 1 {
		t.Fatalf("期望 1 文件 + 1 告警，实际 %d/%d", len(got), len(warns))
	}
}

func TestDiscover_DirSortedMatches(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.woff2"))
	touch(t, filepath.Join(root, "a.woff2"))
	touch(t, filepath.Join(root, "c.ttf"))
	touch(t, filepath.Join(root, "notes.txt"))

	got, warns, err := Discover(root, true, "*.woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("不期望告警：%v", warns)
	}
	if len(got) != 2 || got[0].RelPath != "a.woff2" || got[1].RelPath != "b.woff2" {
		t.Fatalf("期望 [a.woff2 b.woff2]，实际 %+v", got)
	}
}

func TestDiscover_DirZeroMatchesIsNotError(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "readme.md"))

	got, _, err := Discover(root, true, "*.woff2")
	if err != nil {
		t.Fatalf("零匹配不应报错：%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("期望空列表，实际 %d", len(got))
	}
}

func TestDiscover_DirMissing(t *testing.T) {
	_, _, err := Discover(filepath.Join(t.TempDir(), "nope"), true, "*.woff2")
	if !IsNotFound(err) {
		t.Fatalf("期望 NotFoundError，实际 %v", err)
	}
}

func TestDiscover_DirUnknownExtExcludedWithWarning(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "font.woff2"))
	touch(t, filepath.Join(root, "font.xyz"))

	got, warns, err := Discover(root, true, "font.*")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != "font.woff2" {
		t.Fatalf("期望仅 font.woff2，实际 %+v", got)
	}
	if len(warns) != 1 {
		t.Fatalf("期望 1 条告警，实际 %v", warns)
	}
}

func TestDiscover_RecursivePattern(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "top.woff2"))
	touch(t, filepath.Join(root, "sub", "deep", "inner.woff2"))
	touch(t, filepath.Join(root, "sub", "other.ttf"))

	got, _, err := Discover(root, true, "**/*.woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个匹配，实际 %+v", got)
	}
	wantFirst := filepath.Join("sub", "deep", "inner.woff2")
	if got[0].RelPath != wantFirst || got[1].RelPath != "top.woff2" {
		t.Fatalf("排序不符：%+v", got)
	}
}

func TestDiscover_NonRecursiveIgnoresSubdirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "top.woff2"))
	touch(t, filepath.Join(root, "sub", "inner.woff2"))

	got, _, err := Discover(root, true, "*.woff2")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != "top.woff2" {
		t.Fatalf("非递归模式不应进入子目录：%+v", got)
	}
}

func TestDiscover_BadPattern(t *testing.T) {
	root := t.TempDir()
	_, _, err := Discover(root, true, "[") // filepath.Match 的非法语法
	if err == nil {
		t.Fatalf("期望 pattern 语法错误")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
