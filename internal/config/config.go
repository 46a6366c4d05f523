package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/John-Robertt/fontsub/internal/domain"
)

const (
	// ErrCodeNotFound 表示 --config 指定的覆盖文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示覆盖文件无法解析，或字段值/类型不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	FlavorIdentity = "identity"
	FlavorWOFF     = "woff"
	FlavorWOFF2    = "woff2"
)

const (
	// DefaultConcurrency 是并发的内置默认值：严格串行。
	// 文件互相独立，配置可以调高；报告在 Finalize 按发现顺序重排，输出仍然确定。
	DefaultConcurrency = 1
	maxConcurrency     = 16
)

// DefaultUnicodes 是内置的 Latin Web 档：ASCII + 常用排版符号。
// 显式构造、只读使用；不做包级可变状态，便于测试替换默认档。
func DefaultUnicodes() []string {
	return []string{
		"U+0020-007E", // 基本 ASCII（A-Z a-z 0-9 及基础标点）
		"U+00A0",      // 不换行空格
		"U+00A9",      // ©
		"U+00AE",      // ®
		"U+00B7",      // 间隔点
		"U+2013-2014", // en/em dash
		"U+2018-2019", // 弯单引号
		"U+201C-201D", // 弯双引号
		"U+2022",      // 项目符号
		"U+2026",      // 省略号
		"U+2039-203A", // 单书名号
		"U+2122",      // ™
		"U+2190-2193", // 基础箭头
	}
}

// DefaultLayoutFeatures 是默认保留的 OpenType 排版特性。
func DefaultLayoutFeatures() []string {
	return []string{"kern", "liga", "calt"}
}

// FileConfig 对应 TOML 覆盖文件的解析结构。未知键忽略（向前兼容），但会产生告警。
type FileConfig struct {
	Subset SubsetSection `toml:"subset"`
}

type SubsetSection struct {
	Unicodes        []string `toml:"unicodes"`
	LayoutFeatures  []string `toml:"layout_features"`
	Flavor          string   `toml:"flavor"`
	OutputExtension string   `toml:"output_extension"`
	Desubroutinize  *bool    `toml:"desubroutinize"`
	NameIDsToRetain []int    `toml:"name_ids_to_retain"`
	Concurrency     int      `toml:"concurrency"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
// 每次运行构造一次，之后只读共享给所有 job；实现层不再做二次默认/优先级判断。
type EffectiveConfig struct {
	// Ranges 是解析后的闭区间码点范围；RawUnicodes 保留原始 token 供报告/日志。
	Ranges      []domain.Range
	RawUnicodes []string

	LayoutFeatures  []string
	Flavor          string
	OutputExtension string
	Desubroutinize  bool

	// NameIDsToRetain 透传给引擎（当前 SFNT 引擎不裁剪 name 表，字段保留契约）。
	NameIDsToRetain []int

	Concurrency int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	default:
		if e.Err != nil {
			if e.Path != "" {
				return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
			}
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Resolve 把内置默认配置与可选的 TOML 覆盖文件合并为最终配置。
//
// 合并策略（固定）：按顶层已识别键做浅覆盖——覆盖文件中出现的键整体替换默认值，
// 不做嵌套集合的深合并；未出现的键保留默认。未知键忽略并以告警返回。
func Resolve(overridePath string) (EffectiveConfig, []string, error) {
	raw := SubsetSection{
		Unicodes:        DefaultUnicodes(),
		LayoutFeatures:  DefaultLayoutFeatures(),
		Flavor:          FlavorWOFF2,
		OutputExtension: "woff2",
		Concurrency:     DefaultConcurrency,
	}
	desubroutinize := true

	var warnings []string
	if overridePath != "" {
		var fc FileConfig
		md, err := toml.DecodeFile(overridePath, &fc)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return EffectiveConfig{}, nil, &Error{Code: ErrCodeNotFound, Path: overridePath, Err: err}
			}
			return EffectiveConfig{}, nil, &Error{Code: ErrCodeInvalid, Path: overridePath, Err: err}
		}

		for _, k := range md.Undecoded() {
			warnings = append(warnings, fmt.Sprintf("忽略未知配置键 %q", k.String()))
		}

		if md.IsDefined("subset", "unicodes") {
			raw.Unicodes = fc.Subset.Unicodes
		}
		if md.IsDefined("subset", "layout_features") {
			raw.LayoutFeatures = fc.Subset.LayoutFeatures
		}
		if md.IsDefined("subset", "flavor") {
			raw.Flavor = fc.Subset.Flavor
		}
		if md.IsDefined("subset", "output_extension") {
			raw.OutputExtension = fc.Subset.OutputExtension
		}
		if fc.Subset.Desubroutinize != nil {
			desubroutinize = *fc.Subset.Desubroutinize
		}
		if md.IsDefined("subset", "name_ids_to_retain") {
			raw.NameIDsToRetain = fc.Subset.NameIDsToRetain
		}
		if md.IsDefined("subset", "concurrency") {
			raw.Concurrency = fc.Subset.Concurrency
		}
	}

	eff, err := normalize(raw, desubroutinize, overridePath)
	if err != nil {
		return EffectiveConfig{}, nil, err
	}
	return eff, warnings, nil
}

func normalize(raw SubsetSection, desubroutinize bool, path string) (EffectiveConfig, error) {
	if len(raw.Unicodes) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: path, Err: fmt.Errorf("unicodes 不能为空：至少需要一个码点区间")}
	}

	ranges := make([]domain.Range, 0, len(raw.Unicodes))
	for _, tok := range raw.Unicodes {
		rg, err := ParseRange(tok)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		ranges = append(ranges, rg)
	}

	flavor := strings.ToLower(strings.TrimSpace(raw.Flavor))
	switch flavor {
	case FlavorIdentity, FlavorWOFF, FlavorWOFF2:
		// ok
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: path, Err: fmt.Errorf("flavor 只能是 identity/woff/woff2，实际是 %q", raw.Flavor)}
	}

	ext := raw.OutputExtension
	if ext == "" || ext != strings.ToLower(ext) || strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\ `) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: path, Err: fmt.Errorf("output_extension 必须是不带点的小写标记，实际是 %q", raw.OutputExtension)}
	}

	features := make([]string, 0, len(raw.LayoutFeatures))
	for _, f := range raw.LayoutFeatures {
		f = strings.TrimSpace(f)
		if f != "" {
			features = append(features, f)
		}
	}

	// 并发范围 [1, maxConcurrency]；超出截断。
	conc := raw.Concurrency
	if conc < 1 {
		conc = 1
	}
	if conc > maxConcurrency {
		conc = maxConcurrency
	}

	return EffectiveConfig{
		Ranges:          ranges,
		RawUnicodes:     append([]string(nil), raw.Unicodes...),
		LayoutFeatures:  features,
		Flavor:          flavor,
		OutputExtension: ext,
		Desubroutinize:  desubroutinize,
		NameIDsToRetain: append([]int(nil), raw.NameIDsToRetain...),
		Concurrency:     conc,
	}, nil
}

// ParseRange 解析 "U+XXXX" 或 "U+XXXX-YYYY" 形式的码点区间（U+ 前缀可省略，
// 大小写不敏感，端点为含端点的十六进制码点）。语法错误时报出具体 token。
func ParseRange(token string) (domain.Range, error) {
	s := strings.TrimSpace(token)
	s = strings.TrimPrefix(strings.ToUpper(s), "U+")

	lo, hi, found := strings.Cut(s, "-")
	parse := func(part string) (rune, error) {
		if part == "" || len(part) > 6 {
			return 0, fmt.Errorf("非法码点区间 %q", token)
		}
		v, err := strconv.ParseUint(part, 16, 32)
		if err != nil || v > 0x10FFFF {
			return 0, fmt.Errorf("非法码点区间 %q", token)
		}
		return rune(v), nil
	}

	loR, err := parse(lo)
	if err != nil {
		return domain.Range{}, err
	}
	if !found {
		return domain.Range{Lo: loR, Hi: loR}, nil
	}
	hiR, err := parse(hi)
	if err != nil {
		return domain.Range{}, err
	}
	if hiR < loR {
		return domain.Range{}, fmt.Errorf("非法码点区间 %q：上界小于下界", token)
	}
	return domain.Range{Lo: loR, Hi: hiR}, nil
}
