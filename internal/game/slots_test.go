package game

import (
	"testing"

	decimal "github.com/shopspring/decimal"
)

// 转轮脚本值（对应累计权重区间，总和 100）：
// 🍒 [0,30) 🍋 [30,55) 🍊 [55,75) 7️⃣ [75,85) 💎 [85,95) ⭐ [95,100)
const (
	rollCherry  = 0.00
	rollLemon   = 0.31
	rollDiamond = 0.90
	rollSeven   = 0.76
	rollStar    = 0.96
	rollOrange  = 0.56
)

func playSlots(t *testing.T, rolls ...float64) *Outcome {
	t.Helper()
	out, err := Resolve(GameSlots, Params{}, decimal.RequireFromString("10.00"), &scriptedRNG{vals: rolls})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSlotsTripleMultipliers(t *testing.T) {
	cases := []struct {
		name string
		roll float64
		want float64
	}{
		{"diamond", rollDiamond, 50.0},
		{"seven", rollSeven, 20.0},
		{"star", rollStar, 15.0},
		{"cherry", rollCherry, 5.0},
		{"orange", rollOrange, 5.0},
	}
	for _, c := range cases {
		out := playSlots(t, c.roll, c.roll, c.roll)
		if out.Multiplier != c.want {
			t.Fatalf("%s triple: multiplier = %v, want %v (reels=%v)", c.name, out.Multiplier, c.want, out.Reels)
		}
	}
}

// 仅隔轮成对（reel[0]==reel[2]）不赔付——规则如此
func TestSlotsNonAdjacentPairPaysNothing(t *testing.T) {
	out := playSlots(t, rollCherry, rollLemon, rollCherry)
	if out.Multiplier != 0 {
		t.Fatalf("non-adjacent pair must pay 0, got %v (reels=%v)", out.Multiplier, out.Reels)
	}
	if !out.Win.IsZero() {
		t.Fatalf("win must be 0, got %s", out.Win)
	}
}

func TestSlotsAdjacentPairPaysDouble(t *testing.T) {
	// 左侧相邻
	out := playSlots(t, rollCherry, rollCherry, rollLemon)
	if out.Multiplier != 2.0 {
		t.Fatalf("left adjacent pair: multiplier = %v, want 2.0", out.Multiplier)
	}
	if !out.Win.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("win = %s, want 20", out.Win)
	}
	// 右侧相邻
	out = playSlots(t, rollLemon, rollCherry, rollCherry)
	if out.Multiplier != 2.0 {
		t.Fatalf("right adjacent pair: multiplier = %v, want 2.0", out.Multiplier)
	}
}

func TestSlotsAlwaysThreeReels(t *testing.T) {
	out := playSlots(t, rollCherry, rollLemon, rollOrange)
	if len(out.Reels) != 3 {
		t.Fatalf("reels = %v, want 3 symbols", out.Reels)
	}
	if !out.Settling {
		t.Fatal("slots round must always settle")
	}
	if out.Multiplier != 0 {
		t.Fatalf("all different: multiplier = %v, want 0", out.Multiplier)
	}
}
