package middleware

import (
	"strconv"
	"strings"
	"time"

	"casino-server/common/logger"
	"casino-server/internal/common/helper"
	"casino-server/internal/common/response"

	beegocontext "github.com/beego/beego/v2/server/web/context"
	"go.uber.org/zap"
)

// IdentityFilter 演示环境身份过滤器
// 从 X-User-Id 提取平台用户ID，从 X-Platform-Id 提取平台ID（缺省为 1）。
// 网关/正式环境应替换为签名或 token 校验，这里只约定注入的 context 键：
//
//	platform_id      int8
//	platform_user_id string
func IdentityFilter(ctx *beegocontext.Context) {
	traceID := helper.GetTraceID(ctx)

	userID := strings.TrimSpace(ctx.Input.Header("X-User-Id"))
	if userID == "" {
		logger.Warn("missing identity header",
			zap.String("trace_id", traceID),
			zap.String("path", ctx.Request.URL.Path))
		ctx.Output.SetStatus(401)
		ctx.Output.JSON(response.APIResponse{
			Code:      response.CodeUnauthorized,
			Message:   "缺少 X-User-Id",
			Data:      nil,
			TraceID:   traceID,
			Timestamp: time.Now().UnixMilli(),
		}, false, false)
		return
	}
	if len(userID) > 64 {
		ctx.Output.SetStatus(401)
		ctx.Output.JSON(response.APIResponse{
			Code:      response.CodeUnauthorized,
			Message:   "非法身份标识",
			Data:      nil,
			TraceID:   traceID,
			Timestamp: time.Now().UnixMilli(),
		}, false, false)
		return
	}

	platformID := int8(1)
	if ps := strings.TrimSpace(ctx.Input.Header("X-Platform-Id")); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n < 128 {
			platformID = int8(n)
		}
	}

	ctx.Input.SetData("platform_id", platformID)
	ctx.Input.SetData("platform_user_id", userID)
}
