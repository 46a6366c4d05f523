package domain

import (
	"path/filepath"
	"strings"
)

// Format 表示字体的容器格式。发现阶段按扩展名推断；
// 引擎载入时会再按魔数嗅探，两者不一致以魔数为准。
type Format string

const (
	FormatTTF   Format = "ttf"
	FormatOTF   Format = "otf"
	FormatWOFF  Format = "woff"
	FormatWOFF2 Format = "woff2"
)

// FormatFromExt 按扩展名（小写、含点）推断容器格式。
// 未识别的扩展名返回 ok=false，由调用方决定告警或排除。
func FormatFromExt(ext string) (Format, bool) {
	switch ext {
	case ".ttf":
		return FormatTTF, true
	case ".otf":
		return FormatOTF, true
	case ".woff":
		return FormatWOFF, true
	case ".woff2":
		return FormatWOFF2, true
	default:
		return "", false
	}
}

// FontFile 描述一次扫描得到的输入字体（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 小写且含点；Base 为去扩展名的文件名（stem）
type FontFile struct {
	AbsPath string
	RelPath string // 相对输入根；单文件模式下为文件名
	Base    string
	Ext     string
	Format  Format
	Size    int64
}

// NewFontFile 由绝对路径与相对路径构造 FontFile（Size 由调用方填写）。
func NewFontFile(absPath, relPath string, size int64) FontFile {
	name := filepath.Base(absPath)
	ext := strings.ToLower(filepath.Ext(name))
	format, _ := FormatFromExt(ext)
	return FontFile{
		AbsPath: filepath.Clean(absPath),
		RelPath: relPath,
		Base:    strings.TrimSuffix(name, filepath.Ext(name)),
		Ext:     ext,
		Format:  format,
		Size:    size,
	}
}
