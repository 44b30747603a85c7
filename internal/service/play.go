package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"casino-server/common"
	chelper "casino-server/common/helper"
	"casino-server/internal/config"
	"casino-server/internal/game"
	infmysql "casino-server/internal/infra/mysql"
	infrds "casino-server/internal/infra/redis"
	"casino-server/internal/metrics"
	"casino-server/internal/model"

	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	decimal "github.com/shopspring/decimal"
)

// 处理游戏结算业务逻辑

// PlayInput 输入参数
// Action/Level 仅 tower 使用；IdempotencyKey 对结算动作必填
type PlayInput struct {
	PlatformID     int8   // 平台ID
	PlatformUserID string // 平台用户ID
	Game           string // rocket|slots|tower
	BetAmount      string
	Action         string // tower: start|build|cashout
	Level          int    // tower: 客户端声明的当前层数
	IdempotencyKey string
	TraceID        string
}

// PlayOutput 结算结果，同时作为 Redis 结果缓存的载体
type PlayOutput struct {
	BillNo     string   `json:"bill_no,omitempty"`
	Game       string   `json:"game"`
	Settled    bool     `json:"settled"`
	Multiplier float64  `json:"multiplier"`
	BetAmount  string   `json:"bet_amount"`
	WinAmount  string   `json:"win_amount"`
	Balance    string   `json:"balance"` // 结算后余额
	Reels      []string `json:"reels,omitempty"`
	Level      int      `json:"level,omitempty"`
	Success    bool     `json:"success,omitempty"`
	Cashout    bool     `json:"cashout,omitempty"`
}

type PlayService interface {
	PlayRound(ctx context.Context, in PlayInput) (*PlayOutput, error)
}

type playService struct {
	rng game.RandomSource
}

// NewPlayService 默认使用加密安全随机源
func NewPlayService() PlayService { return &playService{rng: game.DefaultRNG()} }

// NewPlayServiceWithRNG 注入随机源（回放/测试用）
func NewPlayServiceWithRNG(rng game.RandomSource) PlayService { return &playService{rng: rng} }

const (
	// Redis 进行中锁 TTL：吸收瞬时重复请求
	idemLockTTL = 45 * time.Second
	// 结果缓存 TTL：覆盖大多数"短时重试"窗口
	idemResultTTL = 1 * time.Minute
)

// 默认事务超时时间，防止长事务占用资源影响并发（若上游已有 deadline，则沿用上游）
const defaultTxTimeout = 3 * time.Second

// 业务错误。随机数抽取之前的所有校验失败都对应这里的某个错误
var (
	ErrDuplicateInFlight  = errors.New("duplicate request in flight")
	ErrInvalidBet         = errors.New("invalid bet amount")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrSettlementConflict = errors.New("settlement conflict, please retry")
)

// PlayRound 处理一局游戏的主流程：
// 校验 → 幂等 → 锁账户 → 资金检查 → 抽随机 → 原子结算（余额+账本+outbox）
// 不变式：任何校验失败都发生在随机数抽取之前；余额变更与账本追加在同一事务
func (s *playService) PlayRound(ctx context.Context, in PlayInput) (*PlayOutput, error) {

	start := time.Now()
	result := "fail"
	defer func() { metrics.RecordPlay(result, in.Game, start) }()

	// ========== 请求校验（先于一切随机数与存储访问）==========
	// 1. 游戏名与动作参数
	// 2. 金额解析、正数校验、上下限
	// ================================================

	params := game.Params{Action: strings.ToLower(strings.TrimSpace(in.Action)), Level: in.Level}
	if err := game.ValidateRequest(in.Game, params); err != nil {
		common.Printf("[Play]  非法游戏请求: game=%s, action=%s, level=%d, trace_id=%s\n",
			in.Game, in.Action, in.Level, in.TraceID)
		return nil, err
	}

	// 解析投注金额
	amtDec, err := decimal.NewFromString(strings.TrimSpace(in.BetAmount))
	if err != nil {
		common.Printf("[Play]  无效的投注金额格式: bet_amount=%s, error=%v, trace_id=%s\n",
			in.BetAmount, err, in.TraceID)
		return nil, ErrInvalidBet
	}

	// 验证金额必须大于0
	if amtDec.LessThanOrEqual(decimal.Zero) {
		common.Printf("[Play]  投注金额必须大于0: bet_amount=%s, trace_id=%s\n",
			in.BetAmount, in.TraceID)
		return nil, ErrInvalidBet
	}

	// 验证最小投注限制（0.01）
	minBet := decimal.NewFromFloat(0.01)
	if amtDec.LessThan(minBet) {
		common.Printf("[Play]  投注金额低于最小限制: bet_amount=%s, min=%s, trace_id=%s\n",
			in.BetAmount, minBet.String(), in.TraceID)
		return nil, ErrInvalidBet
	}

	// 验证最大投注限制（阈值可经配置中心热更，默认 1,000,000）
	maxBet := decimal.NewFromInt(config.GetThreshold("max_bet", 1000000))
	if amtDec.GreaterThan(maxBet) {
		common.Printf("[Play]  投注金额超过最大限制: bet_amount=%s, max=%s, trace_id=%s\n",
			in.BetAmount, maxBet.String(), in.TraceID)
		return nil, ErrInvalidBet
	}

	// 打印接收到的请求
	common.Printf("[Play]  收到游戏请求: game=%s, platform_id=%d, platform_user_id=%s, amount=%s, action=%s, level=%d, idem_key=%s, trace_id=%s\n",
		in.Game, in.PlatformID, in.PlatformUserID, in.BetAmount, in.Action, in.Level, in.IdempotencyKey, in.TraceID)

	// tower start 为非结算动作：只做资金检查并返回初始进度，不动余额、不抽随机
	if in.Game == game.GameTower && params.Action == game.TowerActionStart {
		out, err := s.previewTowerStart(ctx, in, amtDec)
		if err == nil {
			result = "success"
		}
		return out, err
	}

	// Redis 快路径：若已有结果缓存，直接返回
	if r := infrds.Client(); r != nil {
		if bs, _ := r.Get(ctx, infrds.IdemResultKey(in.IdempotencyKey)).Bytes(); len(bs) > 0 {
			var out PlayOutput
			if json.Unmarshal(bs, &out) == nil {
				common.Printf("[Play]  Redis 缓存命中: idem_key=%s, bill_no=%s, trace_id=%s\n",
					in.IdempotencyKey, out.BillNo, in.TraceID)
				result = "success"
				return &out, nil
			}
		}
		// ========== 分布式锁 ==========
		// 1. 生成唯一锁值（UUID）防止误删其他请求的锁
		// 2. SetNX 获取锁
		// 3. Lua 脚本原子释放（仅当锁值匹配时删除）
		// ================================================
		lockValue := uuid.New().String()
		lockKey := infrds.IdemLockKey(in.IdempotencyKey)

		// 进行中锁，吸收瞬时重复
		ok, _ := r.SetNX(ctx, lockKey, lockValue, idemLockTTL).Result()
		if !ok {
			// 检查是否有缓存的结果
			if bs, _ := r.Get(ctx, infrds.IdemResultKey(in.IdempotencyKey)).Bytes(); len(bs) > 0 {
				var out PlayOutput
				if json.Unmarshal(bs, &out) == nil {
					common.Printf("[Play]  Redis 缓存命中（重复请求）: idem_key=%s, bill_no=%s, trace_id=%s\n",
						in.IdempotencyKey, out.BillNo, in.TraceID)
					result = "success"
					return &out, nil
				}
			}
			common.Printf("[Play]  重复请求进行中: idem_key=%s, trace_id=%s\n",
				in.IdempotencyKey, in.TraceID)
			return nil, ErrDuplicateInFlight
		}

		// Lua 脚本原子释放锁（仅当锁值匹配时删除）
		defer func() {
			script := `
				if redis.call("get", KEYS[1]) == ARGV[1] then
					return redis.call("del", KEYS[1])
				else
					return 0
				end
			`
			res, err := r.Eval(ctx, script, []string{lockKey}, lockValue).Result()
			if err != nil {
				common.Printf("[Play]  释放分布式锁失败: idem_key=%s, error=%v, trace_id=%s\n",
					in.IdempotencyKey, err, in.TraceID)
			} else if res == int64(0) {
				common.Printf("[Play]  分布式锁已被其他请求释放或过期: idem_key=%s, trace_id=%s\n",
					in.IdempotencyKey, in.TraceID)
			}
		}()
	}

	// 开启 MySQL 事务（带默认超时，防止长事务影响并发）。
	// 若上游 ctx 已设置 deadline，则沿用；否则使用默认 defaultTxTimeout。
	txCtx := ctx
	if _, has := ctx.Deadline(); !has {
		c, cancel := context.WithTimeout(ctx, defaultTxTimeout)
		txCtx = c
		defer cancel()
	}
	tx, err := infmysql.SQLX().BeginTxx(txCtx, nil)
	if err != nil {
		common.Printf("[Play]  开启事务失败: error=%v, trace_id=%s\n", err, in.TraceID)
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// 锁定账户行：同一账户的并发结算在这里串行化
	acc, err := model.GetAccountByPlatformUserForUpdate(txCtx, tx, in.PlatformID, in.PlatformUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			common.Printf("[Play]  账户不存在: platform_id=%d, platform_user_id=%s, trace_id=%s\n",
				in.PlatformID, in.PlatformUserID, in.TraceID)
			return nil, ErrAccountNotFound
		}
		if isLockConflict(err) {
			return nil, ErrSettlementConflict
		}
		return nil, err
	}

	// 校验账户状态
	if acc.Status != 1 {
		common.Printf("[Play]  账户状态异常: account_id=%d, status=%d, trace_id=%s\n",
			acc.ID, acc.Status, in.TraceID)
		return nil, ErrAccountDisabled
	}

	// 资金检查（decimal 比较）——必须先于随机数抽取
	beforeDec := decimal.NewFromFloat(acc.Balance)
	if beforeDec.Cmp(amtDec) < 0 {
		common.Printf("[Play]  余额不足: account_id=%d, balance=%s, bet=%s, trace_id=%s\n",
			acc.ID, beforeDec.String(), amtDec.String(), in.TraceID)
		return nil, ErrInsufficientFunds
	}

	// 生成订单号（可读格式，使用内部账户ID）
	billNo := generateBillNo(acc.ID)

	// 幂等：先占幂等键，ref 记录 bill_no
	if err := (&model.IdempotencyKey{IdempotencyKey: in.IdempotencyKey, Purpose: "play", Ref: billNo}).Insert(txCtx, tx); err != nil {
		// 若幂等冲突：尝试返回上次结果
		if me, ok := err.(*mysqlerr.MySQLError); ok && me.Number == 1062 {
			common.Printf("[Play]  幂等键冲突，尝试返回上次结果: idem_key=%s, trace_id=%s\n",
				in.IdempotencyKey, in.TraceID)
			_ = tx.Rollback()
			return s.replayPreviousResult(ctx, in)
		}
		common.Printf("[Play]  插入幂等键失败: error=%v, idem_key=%s, trace_id=%s\n",
			err, in.IdempotencyKey, in.TraceID)
		return nil, err
	}

	// ========== 随机结果解算 ==========
	// 到这里所有校验已通过，才允许消耗随机数
	outcome, err := game.Resolve(in.Game, params, amtDec, s.rng)
	if err != nil {
		return nil, err
	}

	// 原子结算：余额 = 原余额 - 投注 + 派彩，与账本追加同事务
	afterDec := beforeDec.Sub(amtDec).Add(outcome.Win).Round(2)

	if err := model.UpdateAccountBalance(txCtx, tx, acc.ID, afterDec.InexactFloat64()); err != nil {
		if isLockConflict(err) {
			return nil, ErrSettlementConflict
		}
		return nil, err
	}

	// 写账本：一条记录覆盖本局的投注与派彩
	ledger := &model.WalletLedger{
		AccountID:    acc.ID,
		Game:         in.Game,
		Action:       params.Action,
		BetAmount:    amtDec.Round(2).InexactFloat64(),
		WinAmount:    outcome.Win.InexactFloat64(),
		Multiplier:   outcome.Multiplier,
		BeforeAmount: beforeDec.Round(2).InexactFloat64(),
		AfterAmount:  afterDec.InexactFloat64(),
		Currency:     "CNY",
		BillNo:       billNo,
		Outcome:      marshalOutcomeDetail(outcome),
		TraceID:      in.TraceID,
	}
	if err := ledger.Insert(txCtx, tx); err != nil {
		common.Printf("[Play]  写入账本失败: error=%v, bill_no=%s, trace_id=%s\n",
			err, billNo, in.TraceID)
		if isLockConflict(err) {
			return nil, ErrSettlementConflict
		}
		return nil, err
	}

	// Outbox 消息（异步投递 round_settled 事件）
	payload := map[string]any{
		"event":            "round_settled",
		"bill_no":          billNo,
		"account_id":       acc.ID,
		"platform_id":      in.PlatformID,
		"platform_user_id": in.PlatformUserID,
		"game":             in.Game,
		"bet_amount":       amtDec.Round(2).InexactFloat64(),
		"win_amount":       outcome.Win.InexactFloat64(),
		"multiplier":       outcome.Multiplier,
	}
	if err := model.CreateOutbox(txCtx, tx, "round_settled", billNo, payload); err != nil {
		common.Printf("[Play]  写入 Outbox 失败: error=%v, bill_no=%s, trace_id=%s\n",
			err, billNo, in.TraceID)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		common.Printf("[Play]  提交事务失败: error=%v, bill_no=%s, trace_id=%s\n",
			err, billNo, in.TraceID)
		if isLockConflict(err) {
			return nil, ErrSettlementConflict
		}
		return nil, err
	}

	result = "success"
	metrics.RecordPayout(in.Game, outcome.Win.InexactFloat64())
	out := &PlayOutput{
		BillNo:     billNo,
		Game:       in.Game,
		Settled:    true,
		Multiplier: outcome.Multiplier,
		BetAmount:  chelper.TrimDecimal(amtDec),
		WinAmount:  chelper.TrimDecimal(outcome.Win),
		Balance:    chelper.TrimDecimal(afterDec),
		Reels:      outcome.Reels,
		Level:      outcome.Level,
		Success:    outcome.Success,
		Cashout:    outcome.Cashout,
	}

	common.Printf("[Play]  结算完成: bill_no=%s, game=%s, multiplier=%v, win=%s, balance=%s, trace_id=%s\n",
		billNo, in.Game, outcome.Multiplier, out.WinAmount, out.Balance, in.TraceID)

	// 写入 Redis 结果缓存（降级容错），并淘汰余额只读缓存，避免 play→balance 读到旧值
	if r := infrds.Client(); r != nil {
		if b, e := json.Marshal(out); e == nil {
			_ = r.Set(ctx, infrds.IdemResultKey(in.IdempotencyKey), b, idemResultTTL).Err()
		}
		_ = r.Del(ctx, infrds.BalanceKey(in.PlatformID, in.PlatformUserID)).Err()
	}

	return out, nil
}

// previewTowerStart 处理 tower start：只校验账户与资金，返回初始进度
// 不抽随机数、不写任何表
func (s *playService) previewTowerStart(ctx context.Context, in PlayInput, amtDec decimal.Decimal) (*PlayOutput, error) {
	acc, err := model.GetAccountByPlatformUser(ctx, infmysql.SQLX(), in.PlatformID, in.PlatformUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if acc.Status != 1 {
		return nil, ErrAccountDisabled
	}
	balDec := decimal.NewFromFloat(acc.Balance)
	if balDec.Cmp(amtDec) < 0 {
		return nil, ErrInsufficientFunds
	}

	outcome, err := game.Resolve(in.Game, game.Params{Action: game.TowerActionStart}, amtDec, s.rng)
	if err != nil {
		return nil, err
	}

	return &PlayOutput{
		Game:       in.Game,
		Settled:    false,
		Multiplier: outcome.Multiplier,
		BetAmount:  chelper.TrimDecimal(amtDec),
		WinAmount:  "0.00",
		Balance:    chelper.TrimDecimal(balDec),
		Level:      outcome.Level,
	}, nil
}

// replayPreviousResult 幂等冲突时回源：Redis 优先，其次 DB（bill_no + 账本）
func (s *playService) replayPreviousResult(ctx context.Context, in PlayInput) (*PlayOutput, error) {
	// Redis 先查
	if r := infrds.Client(); r != nil {
		if bs, _ := r.Get(ctx, infrds.IdemResultKey(in.IdempotencyKey)).Bytes(); len(bs) > 0 {
			var out PlayOutput
			if json.Unmarshal(bs, &out) == nil {
				common.Printf("[Play]  从 Redis 返回上次结果: bill_no=%s, trace_id=%s\n",
					out.BillNo, in.TraceID)
				return &out, nil
			}
		}
	}
	// DB 回源：根据幂等键查 bill_no，再取对应账本记录重建完整结果
	ref, e1 := model.SelectRefByIdemKey(ctx, infmysql.SQLX(), in.IdempotencyKey)
	if e1 != nil || ref == "" {
		return nil, ErrDuplicateInFlight
	}
	row, e2 := model.GetLedgerByBillNo(ctx, infmysql.SQLX(), ref)
	if e2 != nil {
		return nil, ErrDuplicateInFlight
	}
	common.Printf("[Play]  从数据库返回上次结果: bill_no=%s, trace_id=%s\n", ref, in.TraceID)
	return outputFromLedger(row), nil
}

// outputFromLedger 用账本记录重建一次已结算回合的完整响应（幂等回放）
// 倍数、投注、派彩来自账本字段；转轮/塔层等细节从 outcome JSON 还原
func outputFromLedger(l *model.WalletLedger) *PlayOutput {
	out := &PlayOutput{
		BillNo:     l.BillNo,
		Game:       l.Game,
		Settled:    true,
		Multiplier: l.Multiplier,
		BetAmount:  chelper.TrimDecimal(decimal.NewFromFloat(l.BetAmount)),
		WinAmount:  chelper.TrimDecimal(decimal.NewFromFloat(l.WinAmount)),
		Balance:    chelper.TrimDecimal(decimal.NewFromFloat(l.AfterAmount)),
	}
	if l.Outcome != "" {
		var detail struct {
			Reels   []string `json:"reels"`
			Level   int      `json:"level"`
			Success bool     `json:"success"`
			Cashout bool     `json:"cashout"`
		}
		if json.Unmarshal([]byte(l.Outcome), &detail) == nil {
			out.Reels = detail.Reels
			out.Level = detail.Level
			out.Success = detail.Success
			out.Cashout = detail.Cashout
		}
	}
	return out
}

// marshalOutcomeDetail 序列化落库用的结果细节
func marshalOutcomeDetail(o *game.Outcome) string {
	detail := map[string]any{}
	if len(o.Reels) > 0 {
		detail["reels"] = o.Reels
	}
	if o.Game == game.GameTower {
		detail["level"] = o.Level
		detail["success"] = o.Success
		detail["cashout"] = o.Cashout
	}
	if len(detail) == 0 {
		return ""
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(b)
}

// isLockConflict 判断是否为 MySQL 行锁等待超时(1205)或死锁(1213)
// 这两类错误对客户端表现为结算冲突，可安全重试
func isLockConflict(err error) bool {
	var me *mysqlerr.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1205 || me.Number == 1213
	}
	return false
}

// generateBillNo 生成可读的订单号
// 格式：CS{YYYYMMDD}{HHmmss}{账户ID后4位}{随机3位十六进制}
// 示例：CS20260831143025100156A
// 时间 + 账户 + 随机数保证唯一性，且可以从订单号看出结算时间和账户
func generateBillNo(accountID int64) string {
	now := time.Now()
	dateTime := now.Format("20060102150405")
	accSuffix := fmt.Sprintf("%04d", accountID%10000)
	randomBytes := make([]byte, 2)
	rand.Read(randomBytes)
	randomHex := strings.ToUpper(hex.EncodeToString(randomBytes)[:3])

	return fmt.Sprintf("CS%s%s%s", dateTime, accSuffix, randomHex)
}
