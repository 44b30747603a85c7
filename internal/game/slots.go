package game

import (
	decimal "github.com/shopspring/decimal"
)

// 老虎机符号
const (
	SymbolCherry  = "🍒"
	SymbolLemon   = "🍋"
	SymbolOrange  = "🍊"
	SymbolSeven   = "7️⃣"
	SymbolDiamond = "💎"
	SymbolStar    = "⭐"
)

// slotsTable 符号权重表：三个转轮独立同分布抽取（有放回）
var slotsTable = MustWeightedTable([]WeightedEntry[string]{
	{Value: SymbolCherry, Weight: 30},
	{Value: SymbolLemon, Weight: 25},
	{Value: SymbolOrange, Weight: 20},
	{Value: SymbolSeven, Weight: 10},
	{Value: SymbolDiamond, Weight: 10},
	{Value: SymbolStar, Weight: 5},
})

// 三连倍数表；表外符号三连统一 5 倍
var slotsTripleMultiplier = map[string]float64{
	SymbolDiamond: 50.0,
	SymbolSeven:   20.0,
	SymbolStar:    15.0,
}

// SlotsMultiplier 按赔付规则计算倍数，优先级：
// 1) 三连 → 按符号表；2) 相邻成对（reel[0]==reel[1] 或 reel[1]==reel[2]）→ 2 倍；
// 3) 其他 → 0。
// 注意：仅 reel[0]==reel[2]（隔轮成对）不赔付，这是规则本身，不是遗漏。
func SlotsMultiplier(reels [3]string) float64 {
	if reels[0] == reels[1] && reels[1] == reels[2] {
		if m, ok := slotsTripleMultiplier[reels[0]]; ok {
			return m
		}
		return 5.0
	}
	if reels[0] == reels[1] || reels[1] == reels[2] {
		return 2.0
	}
	return 0
}

// resolveSlots 抽三个转轮并结算
func resolveSlots(bet decimal.Decimal, rng RandomSource) *Outcome {
	reels := [3]string{
		slotsTable.Pick(rng),
		slotsTable.Pick(rng),
		slotsTable.Pick(rng),
	}
	m := SlotsMultiplier(reels)
	return &Outcome{
		Game:       GameSlots,
		Multiplier: m,
		Win:        winAmount(bet, m),
		Settling:   true,
		Reels:      reels[:],
	}
}
