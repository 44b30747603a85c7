package routers

import (
	"casino-server/internal/controller/api"
	"casino-server/internal/metrics"
	"casino-server/internal/middleware"

	beego "github.com/beego/beego/v2/server/web"
)

// init 注册HTTP路由与全局过滤器
// 路由注册发生在配置加载之前，CORS/限流过滤器在请求时自行判断开关
func init() {
	// 全局过滤器（按执行顺序）
	// 1. Panic Recovery（最先执行，捕获所有 panic）
	beego.InsertFilter("/*", beego.BeforeRouter, middleware.RecoveryFilter)

	// 2. 请求ID注入
	beego.InsertFilter("/*", beego.BeforeRouter, middleware.RequestIDFilter)

	// 3. CORS 处理（过滤器内部判断是否启用）
	beego.InsertFilter("/*", beego.BeforeExec, middleware.CORSFilter)

	// 4. HTTP 指标收集
	beego.InsertFilter("/*", beego.BeforeExec, metrics.HTTPMetricsFilter)
	beego.InsertFilter("/*", beego.FinishRouter, metrics.HTTPMetricsAfter)

	// 健康检查（无需身份）
	beego.Router("/healthz", &api.HealthController{}, "get:Healthz")
	beego.Router("/readyz", &api.HealthController{}, "get:Readyz")

	// ========== 业务 API（需要身份） ==========

	// 结算接口：身份注入 + 限流（过滤器内部判断是否启用）
	beego.InsertFilter("/api/play", beego.BeforeExec, middleware.IdentityFilter)
	beego.InsertFilter("/api/play", beego.BeforeExec, middleware.RateLimitFilter)
	beego.Router("/api/play", &api.PlayController{}, "post:Play")

	// 账户查询接口（用户只能查询自己的数据）
	beego.InsertFilter("/api/user/*", beego.BeforeExec, middleware.IdentityFilter)
	beego.Router("/api/user/balance", &api.UserController{}, "get:Balance")
	beego.Router("/api/user/ledger", &api.UserController{}, "get:Ledger")
}
