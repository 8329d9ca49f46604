package xlog

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// 在ctx的logger上追加字段, 返回携带子logger的context
func NewContext(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// 把src上的logger(追加fields后)转移到dest, dest的取消和截止时间保持不变
func FromContext(src, dest context.Context, fields ...zap.Field) context.Context {
	return WithLogger(dest, Get(src).With(fields...))
}

// 绑定指定logger
func WithLogger(ctx context.Context, l Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// 取ctx上的logger, 没有时返回全局logger
func Get(ctx context.Context) Logger {
	if ctx == nil {
		return gLogger
	}
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return gLogger
}
