package model

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"casino-server/common"
	"casino-server/common/logger"

	g "github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Account 账户表
// 账户唯一标识 = platform_id + platform_user_id
// 结算不会自动开户：账户不存在时上层返回 account not found
type Account struct {
	ID             int64   `db:"account_id"`       // 自增ID（内部使用）
	PlatformID     int8    `db:"platform_id"`      // 平台ID
	PlatformUserID string  `db:"platform_user_id"` // 平台用户ID
	Nickname       string  `db:"nickname"`         // 昵称（可选）
	Balance        float64 `db:"balance"`          // 余额
	Status         int8    `db:"status"`           // 状态: 1=正常 0=禁用
	CreatedAt      int64   `db:"created_at"`       // 创建时间（13位毫秒时间戳）
	UpdatedAt      int64   `db:"updated_at"`       // 更新时间（13位毫秒时间戳）
}

const accountTable = "accounts"

var accountFields = common.EnumFields(Account{})

// GetAccountByPlatformUser 根据平台ID和平台用户ID查询账户
func GetAccountByPlatformUser(ctx context.Context, db *sqlx.DB, platformID int8, platformUserID string) (*Account, error) {
	var acc Account
	err := common.SelectOneExtCtx(ctx, db, &acc, accountTable, accountFields,
		g.C("platform_id").Eq(platformID), g.C("platform_user_id").Eq(platformUserID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.ErrorCtx(ctx, "get account by platform user failed",
				zap.Int8("platform_id", platformID),
				zap.String("platform_user_id", platformUserID),
				zap.Error(err))
		}
		return nil, err
	}

	return &acc, nil
}

// GetAccountByPlatformUserForUpdate 根据平台ID和平台用户ID查询账户（加锁）
// 必须在事务中调用；同一账户的并发结算在此串行化
func GetAccountByPlatformUserForUpdate(ctx context.Context, tx *sqlx.Tx, platformID int8, platformUserID string) (*Account, error) {
	var acc Account
	ex := g.And(g.C("platform_id").Eq(platformID), g.C("platform_user_id").Eq(platformUserID))
	err := common.SelectOneTxCtx(ctx, tx, &acc, accountTable, accountFields, ex, true)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.ErrorCtx(ctx, "get account by platform user for update failed",
				zap.Int8("platform_id", platformID),
				zap.String("platform_user_id", platformUserID),
				zap.Error(err))
		}
		return nil, err
	}

	return &acc, nil
}

// GetAccountByID 根据内部ID查询账户
func GetAccountByID(ctx context.Context, db *sqlx.DB, accountID int64) (*Account, error) {
	var acc Account
	err := common.SelectOneExtCtx(ctx, db, &acc, accountTable, accountFields,
		g.C("account_id").Eq(accountID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.ErrorCtx(ctx, "get account by id failed",
				zap.Int64("account_id", accountID),
				zap.Error(err))
		}
		return nil, err
	}

	return &acc, nil
}

// Insert 插入账户（开户由运营后台/测试数据使用，结算路径不会调用）
func (a *Account) Insert(ctx context.Context, db *sqlx.DB) error {
	now := getCurrentMillis() // 13位毫秒时间戳
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `INSERT INTO accounts (platform_id, platform_user_id, nickname, balance, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := db.ExecContext(ctx, query,
		a.PlatformID, a.PlatformUserID, a.Nickname, a.Balance, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		logger.ErrorCtx(ctx, "insert account failed",
			zap.Int8("platform_id", a.PlatformID),
			zap.String("platform_user_id", a.PlatformUserID),
			zap.Error(err))
		return err
	}

	id, _ := result.LastInsertId()
	a.ID = id

	logger.InfoCtx(ctx, "account created",
		zap.Int64("id", a.ID),
		zap.Int8("platform_id", a.PlatformID),
		zap.String("platform_user_id", a.PlatformUserID))

	return nil
}

// UpdateAccountBalance 更新账户余额
func UpdateAccountBalance(ctx context.Context, exec sqlx.ExtContext, accountID int64, newBalance float64) error {
	now := getCurrentMillis() // 13位毫秒时间戳
	record := g.Record{"balance": newBalance, "updated_at": now}

	_, err := common.UpdateCtx(ctx, exec, accountTable, record, g.C("account_id").Eq(accountID))
	if err != nil {
		logger.ErrorCtx(ctx, "update account balance failed",
			zap.Int64("account_id", accountID),
			zap.Float64("new_balance", newBalance),
			zap.Error(err))
		return err
	}

	return nil
}

// GetAccountBalance 获取账户余额（非锁查询）
func GetAccountBalance(ctx context.Context, db *sqlx.DB, platformID int8, platformUserID string) (float64, error) {
	var balance float64
	err := common.SelectOneExtCtx(ctx, db, &balance, accountTable, []interface{}{"balance"},
		g.C("platform_id").Eq(platformID), g.C("platform_user_id").Eq(platformUserID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.ErrorCtx(ctx, "get account balance failed",
				zap.Int8("platform_id", platformID),
				zap.String("platform_user_id", platformUserID),
				zap.Error(err))
		}
		return 0, err
	}

	return balance, nil
}

// getCurrentMillis 获取当前13位毫秒时间戳
func getCurrentMillis() int64 {
	return time.Now().UnixMilli()
}
