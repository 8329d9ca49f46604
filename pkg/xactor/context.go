package xactor

import (
	"context"

	"gocell/pkg/xlog"

	"github.com/rs/xid"
)

type ctxKeyType int

const (
	taskKey  ctxKeyType = iota // 当前任务
	chainKey                   // 调用链id
)

// 任务context: 绑定任务和调用链, logger附带任务字段
func newTaskContext(base context.Context, t *Task) context.Context {
	ctx := xlog.NewContext(base, xlog.Task(t.id, t.kind.String()), xlog.Chain(t.chainID))
	ctx = context.WithValue(ctx, taskKey, t)
	return context.WithValue(ctx, chainKey, t.chainID)
}

// 当前正在运行的任务, 非actor协程返回ErrNotActor
func scope(ctx context.Context) (*Task, error) {
	if ctx == nil {
		return nil, ErrNotActor
	}
	t, _ := ctx.Value(taskKey).(*Task)
	if t == nil || t.actor.current != t {
		return nil, ErrNotActor
	}
	return t, nil
}

// 调用链id, 不存在时生成新的
func ChainID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(chainKey).(string); ok && id != "" {
			return id
		}
	}
	return xid.New().String()
}

// 指定调用链id
func WithChainID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, chainKey, id)
}

// 当前actor
func Current(ctx context.Context) (*Proxy, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	return t.actor.proxy, nil
}

// 当前actor的注册名
func Name(ctx context.Context) (string, error) {
	t, err := scope(ctx)
	if err != nil {
		return "", err
	}
	return t.actor.name.Load(), nil
}

func InActor(ctx context.Context) bool {
	_, err := scope(ctx)
	return err == nil
}

// 独占执行fn: 期间的等待不会让出actor, 其他调用/事件延后处理
func Exclusive(ctx context.Context, fn func(ctx context.Context)) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	t.actor.exclusively(func() { fn(ctx) })
	return nil
}

// 是否处于独占模式
func IsExclusive(ctx context.Context) bool {
	t, err := scope(ctx)
	return err == nil && t.actor.exclusive > 0
}

// 在actor内部请求结束自身, 当前消息处理完后退出
func Terminate(ctx context.Context) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	t.actor.running = false
	return nil
}

// 当前actor的任务列表
func Tasks(ctx context.Context) ([]TaskInfo, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	return t.actor.tasks.infos(), nil
}
