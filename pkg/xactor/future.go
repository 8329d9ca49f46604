package xactor

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// 异步调用结果
type Future struct {
	once  sync.Once
	ready chan struct{}
	done  *atomic.Bool
	resp  *Response
}

func newFuture() *Future {
	return &Future{ready: make(chan struct{}), done: atomic.NewBool(false)}
}

// 接收响应, 只接收第一个
func (f *Future) Push(msg interface{}) error {
	resp, ok := msg.(*Response)
	if !ok {
		return errors.Errorf("future got unexpected message %T", msg)
	}
	f.once.Do(func() {
		f.resp = resp
		f.done.Store(true)
		close(f.ready)
	})
	return nil
}

func (f *Future) Ready() bool {
	return f.done.Load()
}

// 等待结果, 阻塞当前协程
func (f *Future) Value(ctx context.Context) (interface{}, error) {
	select {
	case <-f.ready:
		return f.resp.Value, f.resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
