package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// bestEffort runs a non-critical write bounded by timeout. Failures are
// logged and dropped; the caller always continues. The write is detached
// from ctx cancellation so an abandoned request still records it.
func bestEffort(ctx context.Context, logger *zap.Logger, timeout time.Duration, op string, write func(ctx context.Context) error) {
	ctx, cancel := bounded(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := write(ctx); err != nil {
		logger.Warn("best-effort write failed", zap.String("op", op), zap.Error(err))
	}
}

// bounded derives a context for a single blocking read.
func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
