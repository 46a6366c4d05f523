package domain

import "sort"

// Range 是一个闭区间的 Unicode 码点范围（Lo <= Hi）。
// 允许互相重叠/重复：引擎展开时按集合去重，这里不做校验。
type Range struct {
	Lo rune
	Hi rune
}

// ExpandRanges 把区间列表与附加码点展开为去重后的升序码点集。
func ExpandRanges(ranges []Range, extra []rune) []rune {
	set := make(map[rune]struct{}, 256)
	for _, rg := range ranges {
		for r := rg.Lo; r <= rg.Hi; r++ {
			set[r] = struct{}{}
		}
	}
	for _, r := range extra {
		set[r] = struct{}{}
	}

	out := make([]rune, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
