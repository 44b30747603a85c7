package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"casino-server/common/logger"
	infmysql "casino-server/internal/infra/mysql"
	infmq "casino-server/internal/infra/rocketmq"
	"casino-server/internal/model"

	"go.uber.org/zap"
)

// StartOutboxDispatcher 启动 Outbox 分发器，支持通过 ctx 优雅退出
// 每秒扫描一批待发送的结算事件（round_settled 等）并投递到 MQ。
// 仅当 MQ 已启用时运行；投递失败会计数重试，达到上限后标记永久失败。
func StartOutboxDispatcher(ctx context.Context, wg *sync.WaitGroup) {
	if !infmq.Enabled() {
		return
	}
	wg.Add(1)
	pub := infmq.PublisherInstance()
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer wg.Done()

		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c, cancel := context.WithTimeout(ctx, 2*time.Second)
				rows, err := model.ListOutboxPending(c, infmysql.SQLX(), 100)
				cancel()
				if err != nil {
					logger.WarnCtx(ctx, "outbox: list pending failed", zap.Error(err))
					continue
				}
				for _, r := range rows {
					if err := pub.Publish(r.Topic, []byte(r.Payload)); err != nil {
						_ = model.MarkOutboxFailed(ctx, infmysql.SQLX(), r.ID, truncateErr(err))
						continue
					}
					if err := model.MarkOutboxSent(ctx, infmysql.SQLX(), r.ID); err != nil {
						logger.WarnCtx(ctx, "outbox: mark sent failed", zap.Int64("id", r.ID), zap.Error(err))
					}
				}
				if len(rows) > 0 {
					logger.DebugCtx(ctx, "outbox: batch dispatched", zap.Int("count", len(rows)))
				}
			}
		}
	}()
}

// truncateErr 错误信息落库前做长度保护
func truncateErr(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	if len(b) > 240 {
		return string(b[:240])
	}
	return string(b)
}
