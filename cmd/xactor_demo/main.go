package main

import (
	"context"
	"flag"
	"time"

	"gocell/pkg/xactor"
	"gocell/pkg/xcommon"
	"gocell/pkg/xlog"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	wait  = flag.Bool("wait", false, "wait exit signal")
	level = flag.String("level", "", "log level, default from XACTOR_LOG_LEVEL")
)

// 计数器
type Counter struct {
	n int
}

func newCounter() (*xactor.Methods, error) {
	c := &Counter{}
	return xactor.NewMethods(
		xactor.Method1("add", func(ctx context.Context, d int) (int, error) {
			c.n += d
			return c.n, nil
		}),
		xactor.Method0("value", func(ctx context.Context) (int, error) {
			return c.n, nil
		}),
		// 每个元素交给调用方的回调块处理
		xactor.Method("each", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			for i := 0; i < c.n; i++ {
				if _, err := inv.Yield(ctx, i); err != nil {
					return nil, err
				}
			}
			return c.n, nil
		}),
		xactor.Method0("crash", func(ctx context.Context) (int, error) {
			panic(errors.New("counter crashed"))
		}),
	)
}

// 监控counter, 崩溃后重启
type Supervisor struct {
	restarts int
}

func (s *Supervisor) Dispatch(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
	switch inv.Method {
	case "restarts":
		return s.restarts, nil
	case "watch":
		p, err := xactor.Arg[*xactor.Proxy](inv, 0)
		if err != nil {
			return nil, err
		}
		return nil, xactor.Link(ctx, p)
	}
	return nil, errors.Wrapf(xactor.ErrNoMethod, "method %s", inv.Method)
}

func (s *Supervisor) HandleExit(ctx context.Context, actor *xactor.Proxy, reason error) {
	xlog.Get(ctx).Info("Counter exit", zap.String("actor", actor.ID()), zap.Any("reason", reason))
	if reason == nil {
		return
	}
	s.restarts++
	counter, err := startCounter(ctx)
	if err != nil {
		xlog.Get(ctx).Error("Restart counter failed", zap.Any("err", err))
		return
	}
	if err := xactor.Link(ctx, counter); err != nil {
		xlog.Get(ctx).Error("Link counter failed", zap.Any("err", err))
	}
}

func startCounter(ctx context.Context) (*xactor.Proxy, error) {
	behavior, err := newCounter()
	if err != nil {
		return nil, err
	}
	return xactor.Start(ctx, behavior, xactor.WithName("counter"))
}

func main() {
	flag.Parse()
	ctx := context.Background()
	defer xcommon.Recover(ctx)

	conf := xactor.DefaultConfig()
	if *level != "" {
		conf.LogLevel = *level
	}
	if err := conf.Apply(ctx); err != nil {
		panic(err)
	}

	sup, err := xactor.Start(ctx, &Supervisor{}, xactor.WithName("supervisor"))
	if err != nil {
		panic(err)
	}
	counter, err := startCounter(ctx)
	if err != nil {
		panic(err)
	}
	if _, err := sup.Call(ctx, "watch", counter); err != nil {
		panic(err)
	}

	// 同步, 异步, future
	if _, err := counter.Call(ctx, "add", 2); err != nil {
		panic(err)
	}
	counter.Async(ctx, "add", 3)
	f, err := counter.Future(ctx, "value")
	if err != nil {
		panic(err)
	}
	v, err := f.Value(ctx)
	xlog.Get(ctx).Info("Counter value", zap.Any("value", v), zap.Any("err", err))

	// 回调块在调用方执行
	sum := 0
	_, err = counter.CallRequest(ctx, xactor.Request{
		Method: "each",
		Block: func(ctx context.Context, args ...interface{}) (interface{}, error) {
			sum += args[0].(int)
			return nil, nil
		},
	})
	xlog.Get(ctx).Info("Counter each", zap.Int("sum", sum), zap.Any("err", err))

	// 调用参数错误不会导致崩溃
	_, err = counter.Call(ctx, "add", "x")
	xlog.Get(ctx).Info("Abort call", zap.Bool("abort", xactor.IsAbort(err)), zap.Bool("alive", counter.Alive()))

	// 崩溃后由supervisor重启
	_, err = counter.Call(ctx, "crash")
	xlog.Get(ctx).Info("Crash call", zap.Any("err", err))
	_ = counter.Join(ctx)
	time.Sleep(100 * time.Millisecond)

	restarts, _ := sup.Call(ctx, "restarts")
	xlog.Get(ctx).Info("Supervisor restarts", zap.Any("restarts", restarts))
	xactor.PrintRegistry(ctx)

	if *wait {
		xcommon.UntilSignal(ctx)
	}
	xactor.Shutdown(ctx)
}
