package engine

import (
	"encoding/binary"
	"fmt"
)

// sfntTable 是容器转换所需的最小表视图：只搬运整表，不解析表内容。
type sfntTable struct {
	tag      string
	checksum uint32
	data     []byte
}

// parseSFNT 读取裸 SFNT 的表目录。tables 保持目录顺序（规范要求按 tag 排序），
// 以便 WOFF/WOFF2 目录与数据块的顺序一致可预测。
func parseSFNT(raw []byte) (flavor uint32, tables []sfntTable, err error) {
	if len(raw) < 12 {
		return 0, nil, fmt.Errorf("SFNT 头过短：%d 字节", len(raw))
	}
	flavor = binary.BigEndian.Uint32(raw[0:4])
	numTables := int(binary.BigEndian.Uint16(raw[4:6]))

	dirEnd := 12 + 16*numTables
	if len(raw) < dirEnd {
		return 0, nil, fmt.Errorf("SFNT 表目录越界：numTables=%d，总长 %d", numTables, len(raw))
	}

	tables = make([]sfntTable, 0, numTables)
	for i := 0; i < numTables; i++ {
		rec := raw[12+16*i : 12+16*(i+1)]
		off := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		if uint64(off)+uint64(length) > uint64(len(raw)) {
			return 0, nil, fmt.Errorf("表 %q 数据越界：offset=%d length=%d", rec[0:4], off, length)
		}
		tables = append(tables, sfntTable{
			tag:      string(rec[0:4]),
			checksum: binary.BigEndian.Uint32(rec[4:8]),
			data:     raw[off : off+length],
		})
	}
	return flavor, tables, nil
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// totalSfntSize 是还原后的 SFNT 总长（头 + 目录 + 各表 4 字节对齐）。
func totalSfntSize(tables []sfntTable) uint32 {
	size := 12 + 16*len(tables)
	for _, t := range tables {
		size += pad4(len(t.data))
	}
	return uint32(size)
}
