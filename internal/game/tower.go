package game

import (
	decimal "github.com/shopspring/decimal"
)

// Tower（盖楼）多步梯形玩法。
// 服务端不保存进度，build/cashout 请求自带当前层数（信任边界见 DESIGN.md）。
//
// 规则：
//   - start：初始化 level=1, multiplier=1.0，不结算、不动资金
//   - build：成功率 = max(0.3, 1.0 - level*0.08)；
//     成功 → level+1，倍数 = 1.0 + level*0.3（用加层前的 level），win = bet×倍数；
//     失败 → 倍数 0，win 0
//   - cashout：倍数 = 1.0 + (level-1)*0.3，win = bet×倍数，回合结束
//
// build 与 cashout 均为结算动作。

// TowerSuccessChance 指定层数的盖楼成功率
func TowerSuccessChance(level int) float64 {
	c := 1.0 - float64(level)*0.08
	if c < 0.3 {
		return 0.3
	}
	return c
}

// TowerBuildMultiplier build 成功后的倍数（用加层前的 level）
func TowerBuildMultiplier(level int) float64 {
	return 1.0 + float64(level)*0.3
}

// TowerCashoutMultiplier cashout 时的倍数
func TowerCashoutMultiplier(level int) float64 {
	return 1.0 + float64(level-1)*0.3
}

// resolveTower 按动作解算。参数校验在抽随机数之前完成。
func resolveTower(p Params, bet decimal.Decimal, rng RandomSource) (*Outcome, error) {
	switch p.Action {
	case TowerActionStart:
		// 非结算动作：仅返回初始进度预览
		return &Outcome{
			Game:       GameTower,
			Multiplier: 1.0,
			Win:        decimal.Zero,
			Settling:   false,
			Level:      1,
		}, nil

	case TowerActionBuild:
		if p.Level < 1 {
			return nil, ErrInvalidGameRequest
		}
		chance := TowerSuccessChance(p.Level)
		if rng.Float64() < chance {
			m := TowerBuildMultiplier(p.Level)
			return &Outcome{
				Game:       GameTower,
				Multiplier: m,
				Win:        winAmount(bet, m),
				Settling:   true,
				Level:      p.Level + 1,
				Success:    true,
			}, nil
		}
		return &Outcome{
			Game:       GameTower,
			Multiplier: 0,
			Win:        decimal.Zero,
			Settling:   true,
			Level:      p.Level,
			Success:    false,
		}, nil

	case TowerActionCashout:
		if p.Level < 1 {
			return nil, ErrInvalidGameRequest
		}
		m := TowerCashoutMultiplier(p.Level)
		return &Outcome{
			Game:       GameTower,
			Multiplier: m,
			Win:        winAmount(bet, m),
			Settling:   true,
			Level:      p.Level,
			Cashout:    true,
		}, nil

	default:
		return nil, ErrInvalidGameRequest
	}
}
