package engine

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pgaskin/unwoff"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/John-Robertt/fontsub/internal/domain"
)

// SFNT 是基于 seehuhn.de/go/sfnt 的引擎实现。
// 字形闭包（复合字形的组件）由库的 Subset 负责，这里只负责码点到 GID 的选取、
// cmap 的重建与容器转换。
type SFNT struct{}

var _ Engine = SFNT{}

func (SFNT) Subset(data []byte, opts Options) ([]byte, error) {
	raw, err := normalize(data)
	if err != nil {
		return nil, &Error{Stage: "decode", Err: err}
	}

	info, err := sfnt.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, &Error{Stage: "parse", Err: err}
	}

	best, err := info.CMapTable.GetBest()
	if err != nil {
		return nil, &Error{Stage: "cmap", Err: err}
	}

	// 码点 → 原 GID。未映射的码点直接跳过（字体本就没有这些字形）；
	// glyph 0（.notdef）必须保留且排在首位。
	type mapping struct {
		r   rune
		gid glyph.ID
	}
	var mappings []mapping
	keep := map[glyph.ID]struct{}{0: {}}
	for _, r := range domain.ExpandRanges(opts.Ranges, opts.ExtraRunes) {
		gid := best.Lookup(r)
		if gid == 0 {
			continue
		}
		mappings = append(mappings, mapping{r: r, gid: gid})
		keep[gid] = struct{}{}
	}

	glyphs := make([]glyph.ID, 0, len(keep))
	for gid := range keep {
		glyphs = append(glyphs, gid)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })

	sub := info.Clone()
	if len(opts.Features) == 0 {
		sub.Gdef = nil
		sub.Gsub = nil
		sub.Gpos = nil
	}
	sub.CMapTable = nil
	sub = sub.Subset(glyphs)

	// 子集后第 i 个字形就是 glyphs[i]：据此重建 (3,1) format4 cmap。
	// format4 只覆盖 BMP，越界码点跳过（默认 Latin 档全部在 BMP 内）。
	newGID := make(map[glyph.ID]glyph.ID, len(glyphs))
	for i, gid := range glyphs {
		newGID[gid] = glyph.ID(i)
	}
	enc := cmap.Format4{}
	for _, m := range mappings {
		if m.r > 0xFFFF {
			continue
		}
		enc[uint16(m.r)] = newGID[m.gid]
	}
	sub.CMapTable = cmap.Table{
		{PlatformID: 3, EncodingID: 1}: enc.Encode(0),
	}

	var buf bytes.Buffer
	if _, err := sub.Write(&buf); err != nil {
		return nil, &Error{Stage: "subset", Err: err}
	}

	switch opts.Flavor {
	case "", FlavorIdentity:
		return buf.Bytes(), nil
	case FlavorWOFF:
		out, err := EncodeWOFF(buf.Bytes())
		if err != nil {
			return nil, &Error{Stage: "encode", Err: err}
		}
		return out, nil
	case FlavorWOFF2:
		out, err := EncodeWOFF2(buf.Bytes())
		if err != nil {
			return nil, &Error{Stage: "encode", Err: err}
		}
		return out, nil
	default:
		return nil, &Error{Stage: "encode", Err: fmt.Errorf("未知 flavor %q", opts.Flavor)}
	}
}

// normalize 按魔数把输入统一为裸 SFNT 字节：WOFF/WOFF2 先还原，TTF/OTF 原样通过。
func normalize(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("数据过短（%d 字节），不是字体文件", len(data))
	}
	switch string(data[:4]) {
	case "wOFF", "wOF2":
		return unwoff.Decompress(data)
	case "\x00\x01\x00\x00", "true", "OTTO":
		return data, nil
	case "ttcf":
		return nil, fmt.Errorf("不支持字体集合（ttcf）：请先拆分为单个字体")
	default:
		return nil, fmt.Errorf("未知字体魔数 % x", data[:4])
	}
}
