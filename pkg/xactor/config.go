package xactor

import (
	"context"
	"sync"
	"time"

	"gocell/pkg/xenv"
	"gocell/pkg/xlog"

	"go.uber.org/zap"
)

// 运行时配置, 从环境变量加载
type Config struct {
	LinkTimeout time.Duration `env:"LINK_TIMEOUT" envDefault:"5s"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"debug"`
}

const envPrefix = "XACTOR_"

var (
	configOnce    sync.Once
	defaultConfig Config
)

func LoadConfig() (Config, error) {
	conf := Config{}
	if err := xenv.EnvLoadPrefix(&conf, envPrefix); err != nil {
		return Config{LinkTimeout: defaultLinkTimeout, LogLevel: defaultLogLevel}, err
	}
	return conf, nil
}

// 进程内只加载一次
func DefaultConfig() Config {
	configOnce.Do(func() {
		conf, err := LoadConfig()
		if err != nil {
			xlog.Get(context.Background()).Warn("Load xactor config failed, use default", zap.Any("err", err))
		}
		defaultConfig = conf
	})
	return defaultConfig
}

// 应用日志等级
func (c Config) Apply(ctx context.Context) error {
	if err := xlog.SetLevel(c.LogLevel); err != nil {
		return err
	}
	xlog.Get(ctx).Debug("Apply xactor config", zap.Duration("linkTimeout", c.LinkTimeout), zap.String("logLevel", c.LogLevel))
	return nil
}
