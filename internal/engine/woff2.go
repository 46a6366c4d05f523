package engine

import (
	"bytes"
	"encoding/binary"

	"github.com/andybalholm/brotli"
)

// woff2KnownTags 是 WOFF2 规范的已知表 tag 表；flags 低 6 位存其下标，
// 63 表示任意 tag（完整写出 4 字节）。
var woff2KnownTags = [...]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

// EncodeWOFF2 把裸 SFNT 封装为 WOFF2 容器。所有表使用 null transform
// （glyf/loca 为 transform version 3，其余为 0），数据块整体交给 brotli 压缩；
// 不做字形数据的重新编码。
func EncodeWOFF2(raw []byte) ([]byte, error) {
	flavor, tables, err := parseSFNT(raw)
	if err != nil {
		return nil, err
	}

	// 表目录：flags + (可选 tag) + UIntBase128 origLength。
	// null transform 不写 transformLength。
	var dir bytes.Buffer
	var stream bytes.Buffer
	for _, t := range tables {
		flags := byte(63)
		for i, tag := range woff2KnownTags {
			if tag == t.tag {
				flags = byte(i)
				break
			}
		}
		if t.tag == "glyf" || t.tag == "loca" {
			flags |= 3 << 6 // null transform（version 3）
		}

		dir.WriteByte(flags)
		if flags&0x3F == 63 {
			dir.WriteString(t.tag)
		}
		writeUintBase128(&dir, uint32(len(t.data)))

		// 未压缩数据流按目录顺序紧密拼接，不做对齐填充。
		stream.Write(t.data)
	}

	var comp bytes.Buffer
	bw := brotli.NewWriter(&comp)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}

	const headerSize = 48
	total := headerSize + dir.Len() + comp.Len()

	var buf bytes.Buffer
	be := binary.BigEndian
	put16 := func(v uint16) { _ = binary.Write(&buf, be, v) }
	put32 := func(v uint32) { _ = binary.Write(&buf, be, v) }

	buf.WriteString("wOF2")
	put32(flavor)
	put32(uint32(total))
	put16(uint16(len(tables)))
	put16(0) // reserved
	put32(totalSfntSize(tables))
	put32(uint32(comp.Len()))
	put16(1) // majorVersion
	put16(0) // minorVersion
	put32(0) // metaOffset
	put32(0) // metaLength
	put32(0) // metaOrigLength
	put32(0) // privOffset
	put32(0) // privLength

	buf.Write(dir.Bytes())
	buf.Write(comp.Bytes())

	return buf.Bytes(), nil
}

// writeUintBase128 写出 WOFF2 的变长无符号整数：每字节 7 位，高位为续读标记。
func writeUintBase128(buf *bytes.Buffer, v uint32) {
	var tmp [5]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			break
		}
	}
	for j := i; j < len(tmp)-1; j++ {
		tmp[j] |= 0x80
	}
	buf.Write(tmp[i:])
}
