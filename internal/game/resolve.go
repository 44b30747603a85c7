package game

import (
	"errors"

	decimal "github.com/shopspring/decimal"
)

// 游戏标识
const (
	GameRocket = "rocket"
	GameTower  = "tower"
	GameSlots  = "slots"
)

// Tower 动作
const (
	TowerActionStart   = "start"
	TowerActionBuild   = "build"
	TowerActionCashout = "cashout"
)

// ErrInvalidGameRequest 未知游戏或参数非法。
// 必须在抽取任何随机数之前返回，保证被拒绝的请求不消耗随机序列。
var ErrInvalidGameRequest = errors.New("invalid game request")

// Params 游戏附加参数（当前仅 tower 使用）
type Params struct {
	Action string // start|build|cashout
	Level  int    // 客户端声明的当前层数（≥1）
}

// Outcome 一局的解算结果（纯值对象，不落库）
// Win = bet × Multiplier；Settling=false 表示本次动作不结算（tower start）
type Outcome struct {
	Game       string
	Multiplier float64
	Win        decimal.Decimal
	Settling   bool

	// slots 专用
	Reels []string

	// tower 专用
	Level   int  // 动作后的层数
	Success bool // build 是否成功
	Cashout bool // 是否为兑现动作
}

// Resolve 游戏解算入口：先做穷尽的参数校验，再抽随机、算赔付。
// 不触碰余额与存储；随机源由调用方注入。
func Resolve(gameName string, p Params, bet decimal.Decimal, rng RandomSource) (*Outcome, error) {
	if rng == nil {
		rng = DefaultRNG()
	}
	switch gameName {
	case GameRocket:
		return resolveRocket(bet, rng), nil
	case GameSlots:
		return resolveSlots(bet, rng), nil
	case GameTower:
		return resolveTower(p, bet, rng)
	default:
		return nil, ErrInvalidGameRequest
	}
}

// ValidateRequest 仅校验游戏名与参数，不抽随机数。
// 供调用方在开启事务/加锁之前做前置拒绝；Resolve 内部会再次校验。
func ValidateRequest(gameName string, p Params) error {
	switch gameName {
	case GameRocket, GameSlots:
		return nil
	case GameTower:
		switch p.Action {
		case TowerActionStart:
			return nil
		case TowerActionBuild, TowerActionCashout:
			if p.Level < 1 {
				return ErrInvalidGameRequest
			}
			return nil
		default:
			return ErrInvalidGameRequest
		}
	default:
		return ErrInvalidGameRequest
	}
}

// winAmount 计算派彩：bet × multiplier，两位小数
func winAmount(bet decimal.Decimal, multiplier float64) decimal.Decimal {
	return bet.Mul(decimal.NewFromFloat(multiplier)).Round(2)
}
