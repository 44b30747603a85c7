package api

import (
	"database/sql"
	"errors"
	"time"

	chelper "casino-server/common/helper"
	"casino-server/internal/common/helper"
	"casino-server/internal/common/response"
	infmysql "casino-server/internal/infra/mysql"
	infrds "casino-server/internal/infra/redis"
	"casino-server/internal/model"

	beego "github.com/beego/beego/v2/server/web"
	decimal "github.com/shopspring/decimal"
)

type UserController struct{ beego.Controller }

// 余额只读缓存 TTL：短缓存降低高频轮询对 MySQL 的压力
const balanceCacheTTL = 3 * time.Second

// identityFromCtx 提取身份过滤器注入的平台信息
func (c *UserController) identityFromCtx() (int8, string, bool) {
	platformID := int8(0)
	platformUserID := ""
	if v := c.Ctx.Input.GetData("platform_id"); v != nil {
		if pid, ok := v.(int8); ok {
			platformID = pid
		}
	}
	if v := c.Ctx.Input.GetData("platform_user_id"); v != nil {
		if puid, ok := v.(string); ok {
			platformUserID = puid
		}
	}
	return platformID, platformUserID, platformUserID != ""
}

// Balance 查询余额：GET /api/user/balance
// Redis 短缓存优先，未命中回源 MySQL
func (c *UserController) Balance() {
	traceID := helper.GetTraceID(c.Ctx)

	platformID, platformUserID, ok := c.identityFromCtx()
	if !ok {
		response.ErrorWithMessage(&c.Controller, 401, response.CodeUnauthorized, "missing identity", traceID)
		return
	}

	// Redis 快路径
	if r := infrds.Client(); r != nil {
		if s, err := r.Get(c.Ctx.Request.Context(), infrds.BalanceKey(platformID, platformUserID)).Result(); err == nil && s != "" {
			response.Success(&c.Controller, map[string]interface{}{"balance": s}, traceID)
			return
		}
	}

	bal, err := model.GetAccountBalance(c.Ctx.Request.Context(), infmysql.SQLX(), platformID, platformUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.NotFound(&c.Controller, "账户不存在", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}

	balStr := chelper.TrimDecimal(decimal.NewFromFloat(bal))
	if r := infrds.Client(); r != nil {
		_ = r.Set(c.Ctx.Request.Context(), infrds.BalanceKey(platformID, platformUserID), balStr, balanceCacheTTL).Err()
	}

	response.Success(&c.Controller, map[string]interface{}{"balance": balStr}, traceID)
}

// Ledger 查询账本流水：GET /api/user/ledger?game=&offset=&limit=
// 按时间倒序分页返回已结算回合
func (c *UserController) Ledger() {
	traceID := helper.GetTraceID(c.Ctx)

	platformID, platformUserID, ok := c.identityFromCtx()
	if !ok {
		response.ErrorWithMessage(&c.Controller, 401, response.CodeUnauthorized, "missing identity", traceID)
		return
	}

	q, ok, msg := helper.ParseLedgerQuery(c.Ctx)
	if !ok {
		response.BadRequest(&c.Controller, msg, traceID)
		return
	}

	acc, err := model.GetAccountByPlatformUser(c.Ctx.Request.Context(), infmysql.SQLX(), platformID, platformUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.NotFound(&c.Controller, "账户不存在", traceID)
			return
		}
		response.InternalError(&c.Controller, traceID)
		return
	}

	list, err := model.ListLedgerByAccount(c.Ctx.Request.Context(), infmysql.SQLX(), acc.ID, q.Game, q.Offset, q.Limit)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}
	total, err := model.CountLedgerByAccount(infmysql.SQLX(), acc.ID, q.Game)
	if err != nil {
		response.InternalError(&c.Controller, traceID)
		return
	}

	// 输出裁剪：金额统一两位小数字符串
	type ledgerItem struct {
		BillNo     string  `json:"bill_no"`
		Game       string  `json:"game"`
		Action     string  `json:"action,omitempty"`
		BetAmount  string  `json:"bet_amount"`
		WinAmount  string  `json:"win_amount"`
		Multiplier float64 `json:"multiplier"`
		Balance    string  `json:"balance_after"`
		Outcome    string  `json:"outcome,omitempty"`
		CreatedAt  int64   `json:"created_at"`
	}
	items := make([]ledgerItem, 0, len(list))
	for _, l := range list {
		items = append(items, ledgerItem{
			BillNo:     l.BillNo,
			Game:       l.Game,
			Action:     l.Action,
			BetAmount:  chelper.TrimDecimal(decimal.NewFromFloat(l.BetAmount)),
			WinAmount:  chelper.TrimDecimal(decimal.NewFromFloat(l.WinAmount)),
			Multiplier: l.Multiplier,
			Balance:    chelper.TrimDecimal(decimal.NewFromFloat(l.AfterAmount)),
			Outcome:    l.Outcome,
			CreatedAt:  l.CreatedAt,
		})
	}

	response.Success(&c.Controller, map[string]interface{}{
		"total":  total,
		"offset": q.Offset,
		"limit":  q.Limit,
		"list":   items,
	}, traceID)
}
