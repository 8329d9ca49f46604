package xlog

import "go.uber.org/zap"

// actor运行时使用的日志接口, 字段通过context逐层累加
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// 附加字段后的子logger
	With(fields ...zap.Field) Logger

	Raw() *zap.Logger
}

type xlogger struct {
	raw *zap.Logger
}

func newLogger(l *zap.Logger) Logger {
	return &xlogger{raw: l}
}

func (log *xlogger) Debug(msg string, fields ...zap.Field) { log.raw.Debug(msg, fields...) }
func (log *xlogger) Info(msg string, fields ...zap.Field)  { log.raw.Info(msg, fields...) }
func (log *xlogger) Warn(msg string, fields ...zap.Field)  { log.raw.Warn(msg, fields...) }
func (log *xlogger) Error(msg string, fields ...zap.Field) { log.raw.Error(msg, fields...) }

func (log *xlogger) With(fields ...zap.Field) Logger {
	if len(fields) == 0 {
		return log
	}
	return &xlogger{raw: log.raw.With(fields...)}
}

func (log *xlogger) Raw() *zap.Logger { return log.raw }
