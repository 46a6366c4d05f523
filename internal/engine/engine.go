package engine

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/fontsub/internal/domain"
)

// Flavor 取值（与配置的 flavor 枚举一致）。
const (
	FlavorIdentity = "identity"
	FlavorWOFF     = "woff"
	FlavorWOFF2    = "woff2"
)

// Options 是一次子集化调用的全部引擎输入（由上层从生效配置组装，调用间只读）。
type Options struct {
	// Ranges 与 ExtraRunes 共同决定保留的码点集；Extra 来自 HTML 采集。
	Ranges     []domain.Range
	ExtraRunes []rune

	// Features 为空时丢弃全部布局表（GDEF/GSUB/GPOS）；非空时整表保留。
	Features []string

	// Desubroutinize 对 SFNT 实现是固有满足的（CFF 重写不生成 subr），
	// 字段保留以维持调用契约。
	Desubroutinize bool

	// NameIDs 透传：当前实现不裁剪 name 表。
	NameIDs []int

	Flavor string
}

// Engine 把（输入字体字节, 选项）变换为目标 flavor 的字体字节。
// 实现必须无状态、可并发调用；失败只影响当前文件。
type Engine interface {
	Subset(data []byte, opts Options) ([]byte, error)
}

// Error 表示引擎对单个文件的失败（上层映射为 error_code=engine_failed）。
type Error struct {
	Stage string // "decode" / "parse" / "cmap" / "subset" / "encode"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("引擎 %s 阶段失败：%v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsEngineError 判断 err 是否出自引擎（区别于写盘等 IO 失败）。
func IsEngineError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
