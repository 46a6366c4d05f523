package engine

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
)

// EncodeWOFF 把裸 SFNT 封装为 WOFF 容器。压缩完全委托 compress/zlib
// （WOFF 规范钦定 zlib）；压缩无收益的表按规范原样存放。
func EncodeWOFF(raw []byte) ([]byte, error) {
	flavor, tables, err := parseSFNT(raw)
	if err != nil {
		return nil, err
	}

	type entry struct {
		comp     []byte
		origLen  uint32
		checksum uint32
		tag      string
	}

	entries := make([]entry, 0, len(tables))
	for _, t := range tables {
		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		if _, err := zw.Write(t.data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}

		comp := zbuf.Bytes()
		if len(comp) >= len(t.data) {
			comp = t.data
		}
		entries = append(entries, entry{
			comp:     comp,
			origLen:  uint32(len(t.data)),
			checksum: t.checksum,
			tag:      t.tag,
		})
	}

	const headerSize = 44
	dirSize := 20 * len(entries)

	total := headerSize + dirSize
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(total)
		total += pad4(len(e.comp))
	}

	var buf bytes.Buffer
	be := binary.BigEndian
	put16 := func(v uint16) { _ = binary.Write(&buf, be, v) }
	put32 := func(v uint32) { _ = binary.Write(&buf, be, v) }

	buf.WriteString("wOFF")
	put32(flavor)
	put32(uint32(total))
	put16(uint16(len(entries)))
	put16(0) // reserved
	put32(totalSfntSize(tables))
	put16(1) // majorVersion
	put16(0) // minorVersion
	put32(0) // metaOffset
	put32(0) // metaLength
	put32(0) // metaOrigLength
	put32(0) // privOffset
	put32(0) // privLength

	for i, e := range entries {
		buf.WriteString(e.tag)
		put32(offsets[i])
		put32(uint32(len(e.comp)))
		put32(e.origLen)
		put32(e.checksum)
	}

	for _, e := range entries {
		buf.Write(e.comp)
		for i := len(e.comp); i%4 != 0; i++ {
			buf.WriteByte(0)
		}
	}

	return buf.Bytes(), nil
}
