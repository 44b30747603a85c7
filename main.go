package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"casino-server/common"
	"casino-server/common/logger"
	"casino-server/internal/config"
	infmysql "casino-server/internal/infra/mysql"
	infrds "casino-server/internal/infra/redis"
	infmq "casino-server/internal/infra/rocketmq"
	"casino-server/internal/worker"
	_ "casino-server/routers"

	beego "github.com/beego/beego/v2/server/web"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 日志
	logger.InitLogger()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. 配置：Nacos 优先，本地文件兜底
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatalf("load config failed", zap.Error(err))
	}
	config.SetCurrent(cfg)
	logger.SetLevel(cfg.Server.LogLevel)

	// 配置热更监听（max_bet 等阈值、日志级别无需重启即可生效）
	if err := config.StartWatch(ctx, func(oldCfg, newCfg *config.Config) {
		logger.SetLevel(newCfg.Server.LogLevel)
		logger.Info("config reloaded", zap.String("log_level", newCfg.Server.LogLevel))
	}); err != nil {
		logger.Warn("config watch not started", zap.Error(err))
	}

	// 3. MySQL
	db := common.InitDB(cfg.Database.DSN, cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	infmysql.UseDB(db.DB)

	// 4. Redis（可选：未配置时幂等锁与结果缓存自动降级）
	infrds.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// 5. Outbox 分发器（MQ 未启用时不启动）
	var wg sync.WaitGroup
	worker.StartOutboxDispatcher(ctx, &wg)

	// 6. Prometheus /metrics 独立端口
	if cfg.Observability.EnableProm && cfg.Observability.PromAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("prometheus metrics listening", zap.String("addr", cfg.Observability.PromAddr))
			if err := http.ListenAndServe(cfg.Observability.PromAddr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// 7. 优雅退出：等待信号后停掉后台任务
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		fmt.Println("[Main] 收到退出信号，正在关闭...")
		cancel()
		wg.Wait()
		infmq.Shutdown()
		logger.Sync()
		os.Exit(0)
	}()

	// 8. HTTP 服务
	beego.BConfig.CopyRequestBody = true
	if cfg.Server.Port > 0 {
		beego.BConfig.Listen.HTTPPort = cfg.Server.Port
	}
	beego.Run()
}
