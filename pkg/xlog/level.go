package xlog

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// 终端前景色
type termColor uint8

const (
	colorRed     termColor = 31
	colorYellow  termColor = 33
	colorBlue    termColor = 34
	colorMagenta termColor = 35
)

func (c termColor) wrap(s string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", uint8(c), s)
}

func levelStyle(l zapcore.Level) (string, termColor) {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG", colorMagenta
	case zapcore.InfoLevel:
		return "INFO", colorBlue
	case zapcore.WarnLevel:
		return "WARN", colorYellow
	case zapcore.ErrorLevel:
		return "ERROR", colorRed
	default:
		// dpanic/panic/fatal 统一标红
		return l.CapitalString(), colorRed
	}
}

func levelEncoder(withColor bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name, color := levelStyle(l)
		if withColor {
			name = color.wrap(name)
		}
		enc.AppendString(name)
	}
}

// 设置全局日志等级(debug/info/warn/error)
func SetLevel(lvl string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		return fmt.Errorf("log level %q invalid: %v", lvl, err)
	}
	gLevel.SetLevel(l)
	return nil
}

// 当前全局日志等级
func Level() string {
	return gLevel.Level().String()
}
