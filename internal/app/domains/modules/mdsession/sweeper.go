package mdsession

import (
	"context"
	"time"

	"fulfilment/internal/app/pkg/logger"
)

// RunSweeper 定期清理过期会话，阻塞直到 ctx 取消
func RunSweeper(ctx context.Context, store Store, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				log.Warnf(ctx, "session sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Debugf(ctx, "session sweep removed %d sessions", n)
			}
		}
	}
}
