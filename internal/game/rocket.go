package game

import (
	decimal "github.com/shopspring/decimal"
)

// rocketTable 火箭倍数权重表。权重为相对选中概率，总和 100，
// 抽样以总和作分母。0 倍代表坠毁（输掉本金）。
var rocketTable = MustWeightedTable([]WeightedEntry[float64]{
	{Value: 1.2, Weight: 20},
	{Value: 1.5, Weight: 15},
	{Value: 2.0, Weight: 15},
	{Value: 2.5, Weight: 10},
	{Value: 3.0, Weight: 10},
	{Value: 5.0, Weight: 5},
	{Value: 10.0, Weight: 2},
	{Value: 0, Weight: 23},
})

// RocketTotalWeight 导出权重总和，供统计校验
func RocketTotalWeight() int { return rocketTable.TotalWeight() }

// resolveRocket 单发回合：抽一个倍数，立即结算
func resolveRocket(bet decimal.Decimal, rng RandomSource) *Outcome {
	m := rocketTable.Pick(rng)
	return &Outcome{
		Game:       GameRocket,
		Multiplier: m,
		Win:        winAmount(bet, m),
		Settling:   true,
	}
}
