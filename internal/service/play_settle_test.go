package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"casino-server/common/logger"
	"casino-server/internal/game"
	infmysql "casino-server/internal/infra/mysql"
	infrds "casino-server/internal/infra/redis"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

// 结算主流程测试：MySQL 由 sqlmock 模拟，Redis 由 miniredis 模拟。
// 事务内的每条语句都按顺序声明期望，ExpectationsWereMet 可证明
// 失败路径没有多余的写入泄漏出去。

var (
	settleMock sqlmock.Sqlmock
	settleRds  *miniredis.Miniredis
)

func TestMain(m *testing.M) {
	logger.InitLogger()

	db, mock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	settleMock = mock
	infmysql.UseDB(db)

	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	settleRds = mr
	infrds.Init(mr.Addr(), "", 0)

	code := m.Run()
	mr.Close()
	os.Exit(code)
}

var accountCols = []string{"account_id", "platform_id", "platform_user_id", "nickname", "balance", "status", "created_at", "updated_at"}

func accountRows(balance float64, status int8) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).
		AddRow(1001, 1, "u1", "", balance, status, 0, 0)
}

const selectAccountForUpdate = "SELECT (.+) FROM `accounts` (.+)FOR UPDATE"

func playRocket(svc PlayService, idemKey string) (*PlayOutput, error) {
	return svc.PlayRound(context.Background(), PlayInput{
		PlatformID:     1,
		PlatformUserID: "u1",
		Game:           game.GameRocket,
		BetAmount:      "10",
		IdempotencyKey: idemKey,
	})
}

func TestPlayRoundSettlesAtomically(t *testing.T) {
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(accountRows(100, 1))
	settleMock.ExpectExec("INSERT INTO idempotency_keys").WillReturnResult(sqlmock.NewResult(1, 1))
	settleMock.ExpectExec("UPDATE `accounts`").WillReturnResult(sqlmock.NewResult(0, 1))
	settleMock.ExpectExec("INSERT INTO wallet_ledger").WillReturnResult(sqlmock.NewResult(1, 1))
	settleMock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(1, 1))
	settleMock.ExpectCommit()

	balanceKey := infrds.BalanceKey(1, "u1")
	require.NoError(t, settleRds.Set(balanceKey, "100.00"))

	// trackingRNG 固定返回 0.5 → rocket 权重表命中 2.5 倍
	svc := NewPlayServiceWithRNG(&trackingRNG{})
	out, err := playRocket(svc, "settle-ok-1")
	require.NoError(t, err)
	require.True(t, out.Settled)
	require.True(t, strings.HasPrefix(out.BillNo, "CS"))
	require.Equal(t, 2.5, out.Multiplier)
	require.Equal(t, "10.00", out.BetAmount)
	require.Equal(t, "25.00", out.WinAmount)
	require.Equal(t, "115.00", out.Balance) // 100 - 10 + 25
	require.NoError(t, settleMock.ExpectationsWereMet())

	// 结算后：余额只读缓存被淘汰，结果缓存已写入
	require.False(t, settleRds.Exists(balanceKey))
	require.True(t, settleRds.Exists(infrds.IdemResultKey("settle-ok-1")))
}

func TestPlayRoundInsufficientFundsLeavesStateUntouched(t *testing.T) {
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(accountRows(5, 1))
	settleMock.ExpectRollback()

	rng := &trackingRNG{}
	out, err := playRocket(NewPlayServiceWithRNG(rng), "settle-nofunds-1")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Nil(t, out)
	require.Zero(t, rng.calls) // 资金检查先于随机数抽取
	// 没有 UPDATE/INSERT 期望被声明，通过即证明余额与账本未被触碰
	require.NoError(t, settleMock.ExpectationsWereMet())
}

func TestPlayRoundRollsBackWhenLedgerWriteFails(t *testing.T) {
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(accountRows(100, 1))
	settleMock.ExpectExec("INSERT INTO idempotency_keys").WillReturnResult(sqlmock.NewResult(1, 1))
	settleMock.ExpectExec("UPDATE `accounts`").WillReturnResult(sqlmock.NewResult(0, 1))
	settleMock.ExpectExec("INSERT INTO wallet_ledger").WillReturnError(errors.New("ledger write failed"))
	settleMock.ExpectRollback()

	out, err := playRocket(NewPlayServiceWithRNG(&trackingRNG{}), "settle-ledgerfail-1")
	require.Error(t, err)
	require.Nil(t, out)
	// 账本写入失败后整个事务回滚：无 outbox 写入、无 commit
	require.NoError(t, settleMock.ExpectationsWereMet())
	// 失败不产生结果缓存
	require.False(t, settleRds.Exists(infrds.IdemResultKey("settle-ledgerfail-1")))
}

func TestPlayRoundMapsLockWaitTimeoutToConflict(t *testing.T) {
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).
		WillReturnError(&mysqlerr.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	settleMock.ExpectRollback()

	out, err := playRocket(NewPlayServiceWithRNG(&trackingRNG{}), "settle-lockwait-1")
	require.ErrorIs(t, err, ErrSettlementConflict)
	require.Nil(t, out)
	require.NoError(t, settleMock.ExpectationsWereMet())
}

func TestPlayRoundAccountChecks(t *testing.T) {
	// 账户不存在
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(sqlmock.NewRows(accountCols))
	settleMock.ExpectRollback()

	out, err := playRocket(NewPlayServiceWithRNG(&trackingRNG{}), "settle-miss-1")
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Nil(t, out)

	// 账户已禁用
	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(accountRows(100, 0))
	settleMock.ExpectRollback()

	out, err = playRocket(NewPlayServiceWithRNG(&trackingRNG{}), "settle-disabled-1")
	require.ErrorIs(t, err, ErrAccountDisabled)
	require.Nil(t, out)
	require.NoError(t, settleMock.ExpectationsWereMet())
}

func TestPlayRoundReplaysPriorResultOnIdemConflict(t *testing.T) {
	billNo := "CS202608311430250156A1B"

	settleMock.ExpectBegin()
	settleMock.ExpectQuery(selectAccountForUpdate).WillReturnRows(accountRows(100, 1))
	settleMock.ExpectExec("INSERT INTO idempotency_keys").
		WillReturnError(&mysqlerr.MySQLError{Number: 1062, Message: "Duplicate entry"})
	settleMock.ExpectRollback()
	// 回源：幂等键 → bill_no → 账本记录
	settleMock.ExpectQuery("SELECT ref FROM idempotency_keys").
		WillReturnRows(sqlmock.NewRows([]string{"ref"}).AddRow(billNo))
	settleMock.ExpectQuery("SELECT (.+) FROM `wallet_ledger`").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "account_id", "game", "action", "bet_amount", "win_amount", "multiplier",
			"before_amount", "after_amount", "currency", "bill_no", "outcome", "trace_id", "created_at",
		}).AddRow(1, 1001, "slots", "", 10.0, 20.0, 2.0, 100.0, 110.0, "CNY", billNo,
			`{"reels":["🍒","🍒","💎"]}`, "", 0))

	out, err := playRocket(NewPlayServiceWithRNG(&trackingRNG{}), "settle-replay-1")
	require.NoError(t, err)
	require.NoError(t, settleMock.ExpectationsWereMet())

	// 重放结果必须是完整的首次结果，而不仅是订单号与余额
	require.Equal(t, billNo, out.BillNo)
	require.Equal(t, "slots", out.Game)
	require.True(t, out.Settled)
	require.Equal(t, 2.0, out.Multiplier)
	require.Equal(t, "10.00", out.BetAmount)
	require.Equal(t, "20.00", out.WinAmount)
	require.Equal(t, "110.00", out.Balance)
	require.Equal(t, []string{"🍒", "🍒", "💎"}, out.Reels)
}
