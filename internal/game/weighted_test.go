package game

import (
	"testing"
)

func TestWeightedTableValidation(t *testing.T) {
	if _, err := NewWeightedTable([]WeightedEntry[string]{}); err == nil {
		t.Fatal("empty table must error")
	}
	if _, err := NewWeightedTable([]WeightedEntry[string]{{Value: "a", Weight: 0}}); err == nil {
		t.Fatal("zero weight must error")
	}
	if _, err := NewWeightedTable([]WeightedEntry[string]{{Value: "a", Weight: -3}}); err == nil {
		t.Fatal("negative weight must error")
	}
}

func TestWeightedTablePickBoundaries(t *testing.T) {
	tbl := MustWeightedTable([]WeightedEntry[string]{
		{Value: "a", Weight: 30},
		{Value: "b", Weight: 70},
	})
	if got := tbl.TotalWeight(); got != 100 {
		t.Fatalf("total weight = %d, want 100", got)
	}

	// 0.0 落在第一个区间；0.29999 仍属 a；0.3 起属 b；接近 1 属最后一项
	cases := []struct {
		f    float64
		want string
	}{
		{0.0, "a"},
		{0.29, "a"},
		{0.30, "b"},
		{0.999999, "b"},
	}
	for _, c := range cases {
		got := tbl.Pick(&scriptedRNG{vals: []float64{c.f}})
		if got != c.want {
			t.Fatalf("Pick(%v) = %s, want %s", c.f, got, c.want)
		}
	}
}

func TestWeightedTableFrequency(t *testing.T) {
	tbl := MustWeightedTable([]WeightedEntry[string]{
		{Value: "x", Weight: 25},
		{Value: "y", Weight: 75},
	})
	rng := NewSeededRNG(42)
	const n = 100000
	hit := 0
	for i := 0; i < n; i++ {
		if tbl.Pick(rng) == "x" {
			hit++
		}
	}
	freq := float64(hit) / float64(n)
	if diff := freq - 0.25; diff > 0.01 || diff < -0.01 {
		t.Fatalf("freq=%f not close to 0.25", freq)
	}
}
