package game

import (
	"fmt"
	"sort"
)

// WeightedEntry 权重表中的一项：候选值与相对权重
type WeightedEntry[T any] struct {
	Value  T
	Weight int
}

// WeightedTable 固定权重表。抽样采用累计权重 + 二分查找，
// 保证概率模型可独立审计与单测，不依赖任何 I/O。
type WeightedTable[T any] struct {
	entries []WeightedEntry[T]
	cum     []int // 累计权重前缀和
	total   int
}

// NewWeightedTable 构建权重表；权重必须为正整数
func NewWeightedTable[T any](entries []WeightedEntry[T]) (*WeightedTable[T], error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("weighted table: empty entries")
	}
	t := &WeightedTable[T]{
		entries: entries,
		cum:     make([]int, len(entries)),
	}
	for i, e := range entries {
		if e.Weight <= 0 {
			return nil, fmt.Errorf("weighted table: non-positive weight at index %d", i)
		}
		t.total += e.Weight
		t.cum[i] = t.total
	}
	return t, nil
}

// MustWeightedTable 供包级固定表初始化使用，表错误属于编程错误直接 panic
func MustWeightedTable[T any](entries []WeightedEntry[T]) *WeightedTable[T] {
	t, err := NewWeightedTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// TotalWeight 返回权重总和（作为抽样分母）
func (t *WeightedTable[T]) TotalWeight() int { return t.total }

// Pick 按权重抽取一个值：在 [0, total) 上取随机点，二分定位所属区间
func (t *WeightedTable[T]) Pick(rng RandomSource) T {
	x := int(rng.Float64() * float64(t.total)) // [0, total)
	if x >= t.total {
		x = t.total - 1
	}
	i := sort.SearchInts(t.cum, x+1)
	return t.entries[i].Value
}
