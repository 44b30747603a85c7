package game

import (
	"math"
	"testing"

	decimal "github.com/shopspring/decimal"
)

func TestTowerSuccessChance(t *testing.T) {
	cases := []struct {
		level int
		want  float64
	}{
		{1, 0.92},
		{2, 0.84},
		{5, 0.60},
		{8, 0.36},
		{9, 0.3},  // 1-0.72=0.28 < 0.3 → 封底
		{10, 0.3}, // max(0.3, 0.2)
		{100, 0.3},
	}
	for _, c := range cases {
		got := TowerSuccessChance(c.level)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("chance(level=%d) = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestTowerStartDrawsNothingAndNeverSettles(t *testing.T) {
	rng := &countingRNG{}
	out, err := Resolve(GameTower, Params{Action: TowerActionStart}, decimal.NewFromInt(10), rng)
	if err != nil {
		t.Fatal(err)
	}
	if rng.n != 0 {
		t.Fatalf("start must not draw randomness, drew %d times", rng.n)
	}
	if out.Settling {
		t.Fatal("start must be non-settling")
	}
	if out.Level != 1 || out.Multiplier != 1.0 {
		t.Fatalf("start preview = level %d mult %v, want level 1 mult 1.0", out.Level, out.Multiplier)
	}
}

func TestTowerBuildSuccess(t *testing.T) {
	bet := decimal.RequireFromString("10.00")
	// 0.5 < 0.92 → 成功
	out, err := Resolve(GameTower, Params{Action: TowerActionBuild, Level: 1}, bet, &scriptedRNG{vals: []float64{0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || !out.Settling {
		t.Fatal("build at level 1 with roll 0.5 must succeed and settle")
	}
	if out.Level != 2 {
		t.Fatalf("level = %d, want 2", out.Level)
	}
	if out.Multiplier != 1.3 {
		t.Fatalf("multiplier = %v, want 1.3 (uses pre-increment level)", out.Multiplier)
	}
	if !out.Win.Equal(decimal.NewFromInt(13)) {
		t.Fatalf("win = %s, want 13", out.Win)
	}
}

func TestTowerBuildFailure(t *testing.T) {
	// 0.95 >= 0.92 → 失败
	out, err := Resolve(GameTower, Params{Action: TowerActionBuild, Level: 1}, decimal.NewFromInt(10), &scriptedRNG{vals: []float64{0.95}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Success {
		t.Fatal("roll 0.95 at level 1 must fail")
	}
	if !out.Settling {
		t.Fatal("failed build still settles (stake is lost)")
	}
	if out.Multiplier != 0 || !out.Win.IsZero() {
		t.Fatalf("failure must zero multiplier and win, got mult=%v win=%s", out.Multiplier, out.Win)
	}
	if out.Level != 1 {
		t.Fatalf("failure must not advance level, got %d", out.Level)
	}
}

func TestTowerBuildDeepLevelUsesFloorChance(t *testing.T) {
	// level=10 → chance=0.3；0.29 < 0.3 成功，0.31 失败
	ok, err := Resolve(GameTower, Params{Action: TowerActionBuild, Level: 10}, decimal.NewFromInt(1), &scriptedRNG{vals: []float64{0.29}})
	if err != nil {
		t.Fatal(err)
	}
	if !ok.Success {
		t.Fatal("roll 0.29 at level 10 must succeed")
	}
	fail, err := Resolve(GameTower, Params{Action: TowerActionBuild, Level: 10}, decimal.NewFromInt(1), &scriptedRNG{vals: []float64{0.31}})
	if err != nil {
		t.Fatal(err)
	}
	if fail.Success {
		t.Fatal("roll 0.31 at level 10 must fail")
	}
}

func TestTowerCashout(t *testing.T) {
	bet := decimal.RequireFromString("10.00")
	out, err := Resolve(GameTower, Params{Action: TowerActionCashout, Level: 3}, bet, &countingRNG{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Multiplier != 1.6 {
		t.Fatalf("cashout at level 3: multiplier = %v, want 1.6", out.Multiplier)
	}
	if !out.Win.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("win = %s, want 16", out.Win)
	}
	if !out.Cashout || !out.Settling {
		t.Fatal("cashout must settle and flag Cashout")
	}
}

func TestTowerInvalidParams(t *testing.T) {
	rng := &countingRNG{}
	cases := []Params{
		{Action: "", Level: 1},
		{Action: "jump", Level: 1},
		{Action: TowerActionBuild, Level: 0},
		{Action: TowerActionBuild, Level: -2},
		{Action: TowerActionCashout, Level: 0},
	}
	for _, p := range cases {
		if _, err := Resolve(GameTower, p, decimal.NewFromInt(1), rng); err != ErrInvalidGameRequest {
			t.Fatalf("params %+v: err = %v, want ErrInvalidGameRequest", p, err)
		}
	}
	if rng.n != 0 {
		t.Fatalf("invalid params must not draw randomness, drew %d times", rng.n)
	}
}

func TestUnknownGameRejectedBeforeDraw(t *testing.T) {
	rng := &countingRNG{}
	if _, err := Resolve("poker", Params{}, decimal.NewFromInt(1), rng); err != ErrInvalidGameRequest {
		t.Fatalf("err = %v, want ErrInvalidGameRequest", err)
	}
	if rng.n != 0 {
		t.Fatalf("unknown game must not draw randomness, drew %d times", rng.n)
	}
}
