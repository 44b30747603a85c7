package model

import (
	"context"
	"time"

	"casino-server/common"

	g "github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

// WalletLedger 对应 wallet_ledger 表（追加式账本）
// 每条记录对应一次已结算的游戏回合：余额变动 = win_amount - bet_amount
// before_amount/after_amount 冗余写入，便于对账与排查
type WalletLedger struct {
	ID           int64   `db:"id"`
	AccountID    int64   `db:"account_id"`
	Game         string  `db:"game"`       // rocket|slots|tower
	Action       string  `db:"action"`     // tower 子动作 build|cashout，其它游戏为空
	BetAmount    float64 `db:"bet_amount"`
	WinAmount    float64 `db:"win_amount"`
	Multiplier   float64 `db:"multiplier"` // 失败回合记 0
	BeforeAmount float64 `db:"before_amount"`
	AfterAmount  float64 `db:"after_amount"`
	Currency     string  `db:"currency"`
	BillNo       string  `db:"bill_no"`
	Outcome      string  `db:"outcome"` // 结果细节(JSON)：转轮符号、塔层等
	TraceID      string  `db:"trace_id"`
	CreatedAt    int64   `db:"created_at"`
}

// Insert 追加一条账本记录，必须与余额更新在同一事务内执行
func (l *WalletLedger) Insert(ctx context.Context, exec sqlx.ExtContext) error {
	now := time.Now().UnixMilli()

	// 使用原生 SQL 以避免 goqu 在某些 MySQL 版本上的兼容性问题
	sqlStr := "INSERT INTO wallet_ledger (account_id, game, action, bet_amount, win_amount, multiplier, before_amount, after_amount, currency, bill_no, outcome, trace_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	args := []interface{}{l.AccountID, l.Game, l.Action, l.BetAmount, l.WinAmount, l.Multiplier, l.BeforeAmount, l.AfterAmount, l.Currency, l.BillNo, l.Outcome, l.TraceID, now}

	_, err := exec.ExecContext(ctx, sqlStr, args...)
	return err
}

var ledgerFields = common.EnumFields(WalletLedger{})

// GetLedgerByBillNo 按订单号查询账本记录，幂等回放时用来重建完整结果
func GetLedgerByBillNo(ctx context.Context, db *sqlx.DB, billNo string) (*WalletLedger, error) {
	var l WalletLedger
	err := common.SelectOneExtCtx(ctx, db, &l, "wallet_ledger", ledgerFields, g.C("bill_no").Eq(billNo))
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLedgerByAccount 按账户分页查询账本（按时间倒序），game 为空时不过滤游戏
func ListLedgerByAccount(ctx context.Context, db *sqlx.DB, accountID int64, game string, offset, limit uint) ([]WalletLedger, error) {
	ex := []exp.Expression{g.C("account_id").Eq(accountID)}
	if game != "" {
		ex = append(ex, g.C("game").Eq(game))
	}

	var list []WalletLedger
	err := common.SelectAllCtx(ctx, &list, common.QueryArg{
		Db:     db,
		Table:  "wallet_ledger",
		Fields: ledgerFields,
		Ex:     ex,
		Order:  []exp.OrderedExpression{g.C("id").Desc()},
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CountLedgerByAccount 统计账户的账本记录数，用于分页
func CountLedgerByAccount(db *sqlx.DB, accountID int64, game string) (int, error) {
	ex := []exp.Expression{g.C("account_id").Eq(accountID)}
	if game != "" {
		ex = append(ex, g.C("game").Eq(game))
	}
	return common.Count(db, "wallet_ledger", ex...)
}
