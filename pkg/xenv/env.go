package xenv

import (
	"github.com/caarlos0/env/v8"
	"github.com/pkg/errors"
)

/* 用法
type config struct {
	LinkTimeout time.Duration `env:"LINK_TIMEOUT" envDefault:"5s"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"debug"`
}
*/

// 加载环境变量
func EnvLoad(conf interface{}) error {
	return env.Parse(conf)
}

// 加载带前缀的环境变量, 如 prefix=XACTOR_ 时 LINK_TIMEOUT => XACTOR_LINK_TIMEOUT
func EnvLoadPrefix(conf interface{}, prefix string) error {
	if err := env.ParseWithOptions(conf, env.Options{Prefix: prefix}); err != nil {
		return errors.Wrapf(err, "load env with prefix %s", prefix)
	}
	return nil
}
