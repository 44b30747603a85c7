package game

import (
	"testing"
)

// scriptedRNG 按脚本顺序返回固定值，用于构造确定的抽样结果
type scriptedRNG struct {
	vals []float64
	i    int
}

func (s *scriptedRNG) Float64() float64 {
	if s.i >= len(s.vals) {
		panic("scriptedRNG: out of values")
	}
	v := s.vals[s.i]
	s.i++
	return v
}

// countingRNG 记录被调用次数，用于断言"校验失败不消耗随机数"
type countingRNG struct {
	n int
}

func (c *countingRNG) Float64() float64 {
	c.n++
	return 0.5
}

func TestDefaultRNGRange(t *testing.T) {
	rng := DefaultRNG()
	for i := 0; i < 1000; i++ {
		v := rng.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("value out of [0,1): %v", v)
		}
	}
}

func TestSeededRNGReproducible(t *testing.T) {
	a := NewSeededRNG(7)
	b := NewSeededRNG(7)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("same seed must produce same sequence (i=%d)", i)
		}
	}
}
