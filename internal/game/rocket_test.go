package game

import (
	"testing"

	decimal "github.com/shopspring/decimal"
)

func TestRocketWeightsSumTo100(t *testing.T) {
	if got := RocketTotalWeight(); got != 100 {
		t.Fatalf("rocket table total weight = %d, want 100", got)
	}
}

func TestRocketWinExact(t *testing.T) {
	bet := decimal.RequireFromString("10.00")
	out, err := Resolve(GameRocket, Params{}, bet, NewSeededRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Settling {
		t.Fatal("rocket round must always settle")
	}
	want := bet.Mul(decimal.NewFromFloat(out.Multiplier)).Round(2)
	if !out.Win.Equal(want) {
		t.Fatalf("win = %s, want bet×multiplier = %s", out.Win, want)
	}
}

// 大样本下各倍数出现频率应收敛到 weight/100
func TestRocketFrequencyConverges(t *testing.T) {
	expected := map[float64]float64{
		1.2: 0.20, 1.5: 0.15, 2.0: 0.15, 2.5: 0.10,
		3.0: 0.10, 5.0: 0.05, 10.0: 0.02, 0: 0.23,
	}
	rng := NewSeededRNG(2024)
	bet := decimal.NewFromInt(1)
	const n = 200000
	counts := map[float64]int{}
	for i := 0; i < n; i++ {
		out, err := Resolve(GameRocket, Params{}, bet, rng)
		if err != nil {
			t.Fatal(err)
		}
		counts[out.Multiplier]++
	}
	for m, p := range expected {
		freq := float64(counts[m]) / float64(n)
		if diff := freq - p; diff > 0.01 || diff < -0.01 {
			t.Fatalf("multiplier %v: freq=%f, want ~%f", m, freq, p)
		}
	}
}
