package api

import (
	"errors"

	"casino-server/internal/common/helper"
	"casino-server/internal/common/response"
	"casino-server/internal/game"
	"casino-server/internal/service"

	beego "github.com/beego/beego/v2/server/web"

	mysqlerr "github.com/go-sql-driver/mysql"
)

var newPlayService = service.NewPlayService

type PlayController struct{ beego.Controller }

// PlayController 处理游戏结算接口：POST /api/play
// 一次请求 = 一局：校验、抽随机、扣注、派彩、记账在服务端一步完成
func (c *PlayController) Play() {
	// 1) 解析入参与基本校验
	// 这里必须要对业务参数严格校验，后续service不再重复校验
	pp, ok, msg := helper.ParseAndValidatePlay(c.Ctx)
	if !ok {
		response.BadRequest(&c.Controller, msg, helper.GetTraceID(c.Ctx))
		return
	}

	svc := newPlayService()
	traceID := helper.GetTraceID(c.Ctx)

	// 从 context 提取平台信息（由身份过滤器注入）
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
	if platformUserID == "" {
		response.ErrorWithMessage(&c.Controller, 401, response.CodeUnauthorized, "missing identity", traceID)
		return
	}

	// 2) 进入结算主流程
	out, err := svc.PlayRound(c.Ctx.Request.Context(), service.PlayInput{
		PlatformID:     platformID,
		PlatformUserID: platformUserID,
		Game:           pp.Game,
		BetAmount:      pp.BetAmount,
		Action:         pp.Action,
		Level:          pp.Level,
		IdempotencyKey: pp.IdempotencyKey,
		TraceID:        traceID,
	})
	if err != nil {
		// 非法游戏请求
		if errors.Is(err, game.ErrInvalidGameRequest) {
			response.BadRequest(&c.Controller, err.Error(), traceID)
			return
		}
		// 投注金额验证失败
		if errors.Is(err, service.ErrInvalidBet) {
			response.BadRequest(&c.Controller, err.Error(), traceID)
			return
		}
		// 账户不存在
		if errors.Is(err, service.ErrAccountNotFound) {
			response.NotFound(&c.Controller, "账户不存在", traceID)
			return
		}
		// 账户状态异常
		if errors.Is(err, service.ErrAccountDisabled) {
			response.ErrorWithMessage(&c.Controller, 403, response.CodeAccountDisabled, "账户状态异常", traceID)
			return
		}
		// 余额不足
		if errors.Is(err, service.ErrInsufficientFunds) {
			response.ErrorWithMessage(&c.Controller, 400, response.CodeInsufficientBalance, "余额不足", traceID)
			return
		}
		// 结算冲突（锁等待超时/死锁），客户端可原样重试
		if errors.Is(err, service.ErrSettlementConflict) {
			response.Conflict(&c.Controller, response.CodeSettlementConflict, traceID)
			return
		}
		// 重复请求进行中
		if errors.Is(err, service.ErrDuplicateInFlight) {
			response.Accepted(&c.Controller, "重复请求进行中，请稍后重试", traceID)
			return
		}
		// MySQL 唯一键冲突（幂等回源也失败时兜底）
		if me, ok := err.(*mysqlerr.MySQLError); ok && me.Number == 1062 {
			response.Conflict(&c.Controller, response.CodeDuplicateKey, traceID)
			return
		}
		// 系统错误（存储故障等）
		response.InternalError(&c.Controller, traceID)
		return
	}

	// 成功响应
	response.Success(&c.Controller, out, traceID)
}
