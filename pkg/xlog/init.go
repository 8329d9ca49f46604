package xlog

import (
	"fmt"
	"os"

	"gocell/pkg/xenv"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// 日志输出配置, 从XLOG_前缀的环境变量加载
type Config struct {
	Format string `env:"FORMAT" envDefault:"console"` // console: 带颜色终端格式, json: ECS格式
	Stdout bool   `env:"STDOUT" envDefault:"true"`    // false时丢弃全部输出
}

var (
	gLevel  = zap.NewAtomicLevelAt(zapcore.DebugLevel) // 全局日志等级, 运行时可调
	gLogger Logger
)

func init() {
	conf := Config{Format: FormatConsole, Stdout: true}
	err := xenv.EnvLoadPrefix(&conf, "XLOG_")
	gLogger = buildLogger(conf, gLevel)
	if err != nil {
		gLogger.Warn("xlog env invalid, use default", zap.Error(err))
	}
}

// 替换全局logger, 需在启动actor前调用; 已绑定到context的子logger不受影响
func Setup(conf Config) error {
	if conf.Format != FormatConsole && conf.Format != FormatJSON {
		return fmt.Errorf("log format %q invalid", conf.Format)
	}
	gLogger = buildLogger(conf, gLevel)
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	json := format == FormatJSON
	config := ecsEncoderConfig(!json)
	config.TimeKey = FieldTimestamp
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	if json {
		return zapcore.NewJSONEncoder(config)
	}
	return zapcore.NewConsoleEncoder(config)
}

// Elastic Common Schema (ECS) 兼容的字段命名, json输出可以直接被ELK采集
func ecsEncoderConfig(withColor bool) zapcore.EncoderConfig {
	return ecszap.EncoderConfig{
		EnableName:       true,
		EncodeName:       zapcore.FullNameEncoder,
		EnableStackTrace: true,
		EnableCaller:     true,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder(withColor),
		EncodeDuration:   zapcore.StringDurationEncoder,
	}.ToZapCoreEncoderConfig()
}

func buildLogger(conf Config, lvl zap.AtomicLevel) Logger {
	sink := zapcore.Lock(os.Stdout)
	if !conf.Stdout {
		sink = zapcore.Lock(zapcore.NewMultiWriteSyncer())
	}
	core := zapcore.NewCore(newEncoder(conf.Format), sink, lvl)
	return newLogger(zap.New(core,
		zap.WithCaller(true),
		// xlogger多包了一层
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.DPanicLevel)),
	))
}
