package xcommon

import (
	"context"
	"runtime/debug"
	"sync"

	"gocell/pkg/xlog"

	"go.uber.org/zap"
)

// 通过waitGroup控制协程
// defer wg.Done(), 不可在套一层func, recover不可跳过多层defer函数
type WaitGroup struct {
	sync.WaitGroup
}

func (wg *WaitGroup) Add(n int) {
	wg.WaitGroup.Add(n)
}

func (wg *WaitGroup) Done(ctx context.Context) {
	if r := recover(); r != nil {
		xlog.Get(ctx).Error("Goroutine panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		panic(r)
	}
	wg.WaitGroup.Done()
}

func (wg *WaitGroup) Wait() {
	wg.WaitGroup.Wait()
}

// 启动协程, 退出时自动Done
func (wg *WaitGroup) Go(ctx context.Context, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done(ctx)
		fn()
	}()
}

// defer Recover(), 不可在套一层func, recover不可跳过多层defer函数
func Recover(ctx context.Context) {
	if r := recover(); r != nil {
		xlog.Get(ctx).Error("Goroutine panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		panic(r)
	}
}

// 执行fn并捕获panic, 转换为error返回, 不再向上抛出
func Catch(ctx context.Context, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ToError(r)
			xlog.Get(ctx).Warn("Catch panic", zap.Any("err", err), zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
	return nil
}
