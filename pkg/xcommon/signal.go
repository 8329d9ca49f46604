package xcommon

import (
	"context"
	"os/signal"
	"syscall"

	"gocell/pkg/xlog"
)

// 收到退出信号(SIGINT/SIGTERM)时取消的context
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// 阻塞直到退出信号或ctx结束
func UntilSignal(ctx context.Context) {
	ctx, stop := SignalContext(ctx)
	defer stop()

	<-ctx.Done()
	xlog.Get(ctx).Info("Recv exit signal")
}
