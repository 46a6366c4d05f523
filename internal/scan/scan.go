package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/fontsub/internal/domain"
)

// NotFoundError 表示输入路径不存在或类型不符（期望文件给了目录、反之亦然）。
// 属于前置失败：上层据此在任何 job 开始前退出。
type NotFoundError struct {
	Path string
	Want string // "file" / "dir"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("输入路径 %q 不存在或不是%s", e.Path, wantLabel(e.Want))
}

func wantLabel(want string) string {
	if want == "dir" {
		return "目录"
	}
	return "普通文件"
}

// IsNotFound 判断 err 是否为输入路径错误。
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// Discover 按模式发现输入字体，并返回确定有序的文件列表。
//
// 单文件模式：input 必须是存在的普通文件，返回恰好一个条目；
// 扩展名未识别时仍然纳入（用户显式指定了它），由引擎按魔数判定。
//
// 目录模式：input 必须是存在的目录；pattern 为 glob（filepath.Match 语法），
// 前缀 "**/" 表示递归匹配（其余部分应用到 basename）。零匹配不是错误。
// 扩展名未识别的匹配项被排除并产生告警——宽松的 pattern 可能扫进非字体文件。
//
// 返回的 warnings 由上层决定如何呈现；列表按 RelPath 排序保证跨平台确定性。
func Discover(input string, dirMode bool, pattern string) ([]domain.FontFile, []string, error) {
	if dirMode {
		return discoverDir(input, pattern)
	}
	return discoverFile(input)
}

func discoverFile(input string) ([]domain.FontFile, []string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, nil, &NotFoundError{Path: input, Want: "file"}
	}

	f := domain.NewFontFile(abs, filepath.Base(abs), fi.Size())
	var warnings []string
	if f.Format == "" {
		warnings = append(warnings, fmt.Sprintf("未识别的扩展名 %q：%s（按魔数继续处理）", f.Ext, f.RelPath))
	}
	return []domain.FontFile{f}, warnings, nil
}

func discoverDir(input, pattern string) ([]domain.FontFile, []string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return nil, nil, &NotFoundError{Path: input, Want: "dir"}
	}

	// 提前校验 pattern 语法，避免在遍历中途才报 ErrBadPattern。
	recursive := strings.HasPrefix(pattern, "**/")
	namePattern := strings.TrimPrefix(pattern, "**/")
	if _, err := filepath.Match(namePattern, "probe"); err != nil {
		return nil, nil, fmt.Errorf("非法 pattern %q：%w", pattern, err)
	}

	var files []domain.FontFile
	var warnings []string

	appendMatch := func(path string, size int64) error {
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		f := domain.NewFontFile(path, rel, size)
		if f.Format == "" {
			warnings = append(warnings, fmt.Sprintf("跳过未识别扩展名的匹配项：%s", rel))
			return nil
		}
		files = append(files, f)
		return nil
	}

	if recursive {
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			ok, _ := filepath.Match(namePattern, d.Name())
			if !ok {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			return appendMatch(path, info.Size())
		})
		if err != nil {
			return nil, nil, err
		}
	} else {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ok, _ := filepath.Match(namePattern, e.Name())
			if !ok {
				continue
			}
			info, err := e.Info()
			if err != nil {
				return nil, nil, err
			}
			if err := appendMatch(filepath.Join(abs, e.Name()), info.Size()); err != nil {
				return nil, nil, err
			}
		}
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, warnings, nil
}
