package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	"casino-server/internal/game"

	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	decimal "github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// trackingRNG 记录随机数消耗次数，用于断言校验失败的请求不触碰随机序列
type trackingRNG struct {
	calls int
}

func (t *trackingRNG) Float64() float64 {
	t.calls++
	return 0.5
}

var billNoRe = regexp.MustCompile(`^CS\d{14}\d{4}[0-9A-F]{3}$`)

func TestGenerateBillNoFormat(t *testing.T) {
	bn := generateBillNo(100156)
	require.Len(t, bn, 23)
	require.Regexp(t, billNoRe, bn)
	// 账户ID后4位落在时间戳之后
	require.Equal(t, "0156", bn[16:20])
}

func TestGenerateBillNoSmallAccountID(t *testing.T) {
	bn := generateBillNo(7)
	require.Regexp(t, billNoRe, bn)
	require.Equal(t, "0007", bn[16:20])
}

func TestIsLockConflict(t *testing.T) {
	require.True(t, isLockConflict(&mysqlerr.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}))
	require.True(t, isLockConflict(&mysqlerr.MySQLError{Number: 1213, Message: "Deadlock found"}))
	require.False(t, isLockConflict(&mysqlerr.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.False(t, isLockConflict(fmt.Errorf("plain error")))
	require.False(t, isLockConflict(nil))

	// 包装后的错误同样要能识别
	wrapped := fmt.Errorf("update balance: %w", &mysqlerr.MySQLError{Number: 1213})
	require.True(t, isLockConflict(wrapped))
	pkgWrapped := errors.Wrap(&mysqlerr.MySQLError{Number: 1205}, "insert ledger")
	require.True(t, isLockConflict(pkgWrapped))
}

func TestMarshalOutcomeDetail(t *testing.T) {
	// slots：转轮符号落库
	slots := &game.Outcome{Game: game.GameSlots, Reels: []string{"🍒", "🍒", "💎"}}
	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(marshalOutcomeDetail(slots)), &detail))
	require.Equal(t, []any{"🍒", "🍒", "💎"}, detail["reels"])

	// tower：层数与动作结果落库
	tower := &game.Outcome{Game: game.GameTower, Level: 4, Success: true}
	require.NoError(t, json.Unmarshal([]byte(marshalOutcomeDetail(tower)), &detail))
	require.Equal(t, float64(4), detail["level"])
	require.Equal(t, true, detail["success"])
	require.Equal(t, false, detail["cashout"])

	// rocket：无细节，返回空串
	rocket := &game.Outcome{Game: game.GameRocket, Multiplier: 2.5, Win: decimal.NewFromInt(25)}
	require.Empty(t, marshalOutcomeDetail(rocket))
}

func TestPlayRoundRejectsUnknownGameBeforeDraw(t *testing.T) {
	rng := &trackingRNG{}
	svc := NewPlayServiceWithRNG(rng)

	out, err := svc.PlayRound(context.Background(), PlayInput{
		PlatformID:     1,
		PlatformUserID: "u1",
		Game:           "poker",
		BetAmount:      "10",
		IdempotencyKey: "k-unknown-game",
	})
	require.ErrorIs(t, err, game.ErrInvalidGameRequest)
	require.Nil(t, out)
	require.Zero(t, rng.calls)
}

func TestPlayRoundRejectsBadTowerActionBeforeDraw(t *testing.T) {
	rng := &trackingRNG{}
	svc := NewPlayServiceWithRNG(rng)

	cases := []PlayInput{
		{Game: game.GameTower, BetAmount: "10", Action: "jump", Level: 1},
		{Game: game.GameTower, BetAmount: "10", Action: "build", Level: 0},
		{Game: game.GameTower, BetAmount: "10", Action: "cashout", Level: -1},
	}
	for _, in := range cases {
		in.PlatformID = 1
		in.PlatformUserID = "u1"
		in.IdempotencyKey = "k-tower"
		out, err := svc.PlayRound(context.Background(), in)
		require.ErrorIs(t, err, game.ErrInvalidGameRequest, "action=%s level=%d", in.Action, in.Level)
		require.Nil(t, out)
	}
	require.Zero(t, rng.calls)
}

func TestPlayRoundRejectsInvalidBetBeforeDraw(t *testing.T) {
	rng := &trackingRNG{}
	svc := NewPlayServiceWithRNG(rng)

	for _, amount := range []string{"abc", "", "-5", "0", "0.001", "2000000"} {
		out, err := svc.PlayRound(context.Background(), PlayInput{
			PlatformID:     1,
			PlatformUserID: "u1",
			Game:           game.GameRocket,
			BetAmount:      amount,
			IdempotencyKey: "k-bad-bet",
		})
		require.ErrorIs(t, err, ErrInvalidBet, "amount=%q", amount)
		require.Nil(t, out)
	}
	require.Zero(t, rng.calls)
}
