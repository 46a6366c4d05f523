// Package harvest 从 HTML 文档中收集实际出现的码点，作为保留区间之外的补充集合。
package harvest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Runes 读取给定路径（文件或目录，目录递归收集 *.html/*.htm）中的全部
// HTML 文档，抽取可见文本的码点集合。结果去重升序；控制字符不计入。
// 任何路径不可读或文档不可解析都按前置条件失败处理，由调用方整体中止。
func Runes(paths []string) ([]rune, error) {
	seen := make(map[rune]struct{})

	for _, p := range paths {
		files, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := harvestFile(f, seen); err != nil {
				return nil, err
			}
		}
	}

	out := make([]rune, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// expand 把单个路径展开为 HTML 文件列表。文件原样收下（不限扩展名），
// 目录内只认 .html/.htm。
func expand(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", p, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	var files []string
	err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("遍历 %s 失败: %w", p, err)
	}
	sort.Strings(files)
	return files, nil
}

func harvestFile(path string, seen map[rune]struct{}) error {
	fd, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开 %s 失败: %w", path, err)
	}
	defer fd.Close()

	doc, err := goquery.NewDocumentFromReader(fd)
	if err != nil {
		return fmt.Errorf("解析 %s 失败: %w", path, err)
	}

	// 脚本与样式的文本不会被渲染，不参与收集。
	doc.Find("script, style, noscript").Remove()

	for _, r := range doc.Text() {
		if unicode.IsControl(r) {
			continue
		}
		seen[r] = struct{}{}
	}
	return nil
}
