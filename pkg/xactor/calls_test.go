package xactor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gocell/pkg/xactor"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	p := startMethods(t, ctx, nil,
		xactor.Method1("square", func(ctx context.Context, n int) (int, error) {
			<-release
			return n * n, nil
		}),
	)

	f, err := p.Future(ctx, "square", 7)
	require.NoError(t, err)
	assert.False(t, f.Ready())
	close(release)

	v, err := f.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, 49, v)
	assert.True(t, f.Ready())

	// 重复取值
	v, err = f.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, 49, v)
}

func TestFutureError(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil)

	f, err := p.Future(ctx, "missing")
	require.NoError(t, err)
	_, err = f.Value(ctx)
	assert.True(t, xactor.IsAbort(err))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = newPendingFuture(t, ctx).Value(cctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func newPendingFuture(t *testing.T, ctx context.Context) *xactor.Future {
	p := startMethods(t, ctx, nil,
		xactor.Method0("hang", func(ctx context.Context) (interface{}, error) {
			return xactor.Wait(ctx, "never")
		}),
	)
	f, err := p.Future(ctx, "hang")
	require.NoError(t, err)
	return f
}

func TestBlockOnSender(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method("each", 1, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			items, err := xactor.Arg[[]string](inv, 0)
			if err != nil {
				return nil, err
			}
			res := make([]interface{}, 0, len(items))
			for _, item := range items {
				v, err := inv.Yield(ctx, item)
				if err != nil {
					return nil, err
				}
				res = append(res, v)
			}
			return res, nil
		}),
	)

	// 外部调用方: 回调块在调用协程执行
	inActor := false
	v, err := p.CallRequest(ctx, xactor.Request{
		Method: "each",
		Args:   []interface{}{[]string{"a", "b"}},
		Block: func(ctx context.Context, args ...interface{}) (interface{}, error) {
			inActor = inActor || xactor.InActor(ctx)
			return args[0].(string) + "!", nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a!", "b!"}, v)
	assert.False(t, inActor)

	// actor调用方: 回调块在调用方actor内执行
	caller := startMethods(t, ctx, nil,
		xactor.Method0("run", func(ctx context.Context) (interface{}, error) {
			self, err := xactor.Current(ctx)
			if err != nil {
				return nil, err
			}
			return p.CallRequest(ctx, xactor.Request{
				Method: "each",
				Args:   []interface{}{[]string{"x"}},
				Block: func(ctx context.Context, args ...interface{}) (interface{}, error) {
					cur, err := xactor.Current(ctx)
					if err != nil {
						return nil, err
					}
					return cur.ID() == self.ID(), nil
				},
			})
		}),
	)
	v, err = caller.Call(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true}, v)
}

func TestBlockOnReceiver(t *testing.T) {
	ctx := context.Background()
	callee := startMethods(t, ctx, nil,
		xactor.Method("yield", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			return inv.Yield(ctx)
		}),
	)

	whereRan := func(ctx context.Context, args ...interface{}) (interface{}, error) {
		cur, err := xactor.Current(ctx)
		if err != nil {
			return "", nil
		}
		return cur.ID(), nil
	}

	v, err := callee.CallRequest(ctx, xactor.Request{Method: "yield", Block: whereRan, BlockExecution: xactor.OnReceiver})
	require.NoError(t, err)
	assert.Equal(t, callee.ID(), v)

	v, err = callee.CallRequest(ctx, xactor.Request{Method: "yield", Block: whereRan})
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// 按方法声明在接收方执行
	declared := startMethods(t, ctx, []xactor.Option{xactor.WithReceiverBlocks("yield")},
		xactor.Method("yield", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			return inv.Yield(ctx)
		}),
	)
	v, err = declared.CallRequest(ctx, xactor.Request{Method: "yield", Block: whereRan})
	require.NoError(t, err)
	assert.Equal(t, declared.ID(), v)
}

func TestYieldWithoutBlock(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method("yield", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			return inv.Yield(ctx)
		}),
	)
	_, err := p.Call(ctx, "yield")
	assert.ErrorIs(t, err, xactor.ErrNoBlock)
	assert.True(t, p.Alive())
}

func TestBlockPanicCrashesSender(t *testing.T) {
	ctx := context.Background()
	callee := startMethods(t, ctx, nil,
		xactor.Method("yield", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			return inv.Yield(ctx)
		}),
	)
	caller := startMethods(t, ctx, nil,
		xactor.Method0("run", func(ctx context.Context) (interface{}, error) {
			return callee.CallRequest(ctx, xactor.Request{
				Method: "yield",
				Block: func(ctx context.Context, args ...interface{}) (interface{}, error) {
					panic("block failed")
				},
			})
		}),
	)

	caller.Async(ctx, "run")
	joinTimeout(t, caller, time.Second)
	assert.EqualError(t, caller.Reason(), "block failed")
	// 被调方只收到错误响应
	assert.True(t, callee.Alive())
}

func TestExclusiveSenderBlockRejected(t *testing.T) {
	ctx := context.Background()
	callee := startMethods(t, ctx, nil,
		xactor.Method("yield", 0, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			return inv.Yield(ctx)
		}),
	)
	caller := startMethods(t, ctx, nil,
		xactor.Method0("run", func(ctx context.Context) (interface{}, error) {
			var (
				v   interface{}
				err error
			)
			xerr := xactor.Exclusive(ctx, func(ctx context.Context) {
				v, err = callee.CallRequest(ctx, xactor.Request{
					Method: "yield",
					Block: func(ctx context.Context, args ...interface{}) (interface{}, error) {
						return "ran", nil
					},
				})
			})
			if xerr != nil {
				return nil, xerr
			}
			return v, err
		}),
	)

	_, err := caller.Call(ctx, "run")
	assert.ErrorIs(t, err, xactor.ErrExclusiveBlock)
}

func TestChainID(t *testing.T) {
	ctx := context.Background()
	inner := startMethods(t, ctx, nil,
		xactor.Method0("chain", func(ctx context.Context) (string, error) {
			return xactor.ChainID(ctx), nil
		}),
	)
	outer := startMethods(t, ctx, nil,
		xactor.Method0("chain", func(ctx context.Context) ([]string, error) {
			v, err := inner.Call(ctx, "chain")
			if err != nil {
				return nil, err
			}
			return []string{xactor.ChainID(ctx), v.(string)}, nil
		}),
	)

	v, err := outer.Call(xactor.WithChainID(ctx, "c1"), "chain")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c1"}, v)

	// 最外层调用生成新的调用链
	v1, err := inner.Call(ctx, "chain")
	require.NoError(t, err)
	v2, err := inner.Call(ctx, "chain")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestSuspendedCallsInterleave(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method0("slow", func(ctx context.Context) (bool, error) {
			return true, xactor.Sleep(ctx, 100*time.Millisecond)
		}),
	)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Call(ctx, "slow")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestExclusiveMethodSerializes(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, []xactor.Option{xactor.WithExclusive("slow")},
		xactor.Method0("slow", func(ctx context.Context) (bool, error) {
			return xactor.IsExclusive(ctx), xactor.Sleep(ctx, 50*time.Millisecond)
		}),
	)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.Call(ctx, "slow")
			assert.NoError(t, err)
			assert.Equal(t, true, v)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestExclusiveSelfCall(t *testing.T) {
	ctx := context.Background()
	var self *xactor.Proxy
	self = startMethods(t, ctx, nil,
		xactor.Method0("value", func(ctx context.Context) (int, error) {
			return 7, nil
		}),
		xactor.Method0("nested", func(ctx context.Context) (interface{}, error) {
			var (
				v   interface{}
				err error
			)
			xerr := xactor.Exclusive(ctx, func(ctx context.Context) {
				v, err = self.Call(ctx, "value")
			})
			if xerr != nil {
				return nil, xerr
			}
			return v, err
		}),
	)

	v, err := self.Call(ctx, "nested")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestExclusiveCallOtherActor(t *testing.T) {
	ctx := context.Background()
	other := startMethods(t, ctx, nil,
		xactor.Method0("value", func(ctx context.Context) (int, error) {
			return 9, nil
		}),
	)
	p := startMethods(t, ctx, nil,
		xactor.Method0("ask", func(ctx context.Context) (interface{}, error) {
			var (
				v   interface{}
				err error
			)
			if xerr := xactor.Exclusive(ctx, func(ctx context.Context) {
				v, err = other.Call(ctx, "value")
			}); xerr != nil {
				return nil, xerr
			}
			return v, err
		}),
	)

	v, err := p.Call(ctx, "ask")
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestCrashReplyBeforeExit(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method0("boom", func(ctx context.Context) (int, error) {
			panic(errors.New("boom"))
		}),
	)

	_, err := p.Call(ctx, "boom")
	assert.EqualError(t, err, "boom")
	joinTimeout(t, p, time.Second)
	assert.EqualError(t, p.Reason(), "boom")
}
