package xactor_test

import (
	"context"
	"testing"
	"time"

	"gocell/pkg/xactor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterOrder(t *testing.T) {
	ctx := context.Background()
	fired := make(chan string, 4)
	p := startMethods(t, ctx, nil,
		xactor.Method0("schedule", func(ctx context.Context) (bool, error) {
			if _, err := xactor.After(ctx, 40*time.Millisecond, func(ctx context.Context) { fired <- "late" }); err != nil {
				return false, err
			}
			if _, err := xactor.After(ctx, 10*time.Millisecond, func(ctx context.Context) { fired <- "early" }); err != nil {
				return false, err
			}
			return true, nil
		}),
	)

	start := time.Now()
	_, err := p.Call(ctx, "schedule")
	require.NoError(t, err)
	assert.Equal(t, "early", recvString(t, fired))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, "late", recvString(t, fired))
	// 不会早于截止时间触发
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func recvString(t *testing.T, ch chan string) string {
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	return ""
}

func TestEveryAndCancel(t *testing.T) {
	ctx := context.Background()
	ticks := make(chan int, 16)
	p := startMethods(t, ctx, nil,
		xactor.Method0("start", func(ctx context.Context) (bool, error) {
			n := 0
			var timer *xactor.Timer
			timer, err := xactor.Every(ctx, 10*time.Millisecond, func(ctx context.Context) {
				n++
				ticks <- n
				if n == 3 {
					timer.Cancel()
				}
			})
			if err != nil {
				return false, err
			}
			return timer.Recurring(), nil
		}),
	)

	v, err := p.Call(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, true, v)
	for i := 1; i <= 3; i++ {
		select {
		case n := <-ticks:
			assert.Equal(t, i, n)
		case <-time.After(time.Second):
			t.Fatal("tick timeout")
		}
	}

	select {
	case n := <-ticks:
		t.Fatalf("tick %d after cancel", n)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerCancelBeforeFire(t *testing.T) {
	ctx := context.Background()
	fired := make(chan string, 1)
	p := startMethods(t, ctx, nil,
		xactor.Method0("schedule", func(ctx context.Context) (bool, error) {
			timer, err := xactor.After(ctx, 20*time.Millisecond, func(ctx context.Context) { fired <- "fired" })
			if err != nil {
				return false, err
			}
			timer.Cancel()
			return timer.Active(), nil
		}),
	)

	v, err := p.Call(ctx, "schedule")
	require.NoError(t, err)
	assert.Equal(t, false, v)
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerReset(t *testing.T) {
	ctx := context.Background()
	fired := make(chan time.Time, 2)
	var timer *xactor.Timer
	p := startMethods(t, ctx, nil,
		xactor.Method0("schedule", func(ctx context.Context) (bool, error) {
			var err error
			timer, err = xactor.After(ctx, 50*time.Millisecond, func(ctx context.Context) { fired <- time.Now() })
			return err == nil, err
		}),
		xactor.Method0("reset", func(ctx context.Context) (bool, error) {
			timer.Reset()
			return timer.Active(), nil
		}),
	)

	start := time.Now()
	_, err := p.Call(ctx, "schedule")
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	v, err := p.Call(ctx, "reset")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 75*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timer not fired")
	}
	// Reset后只触发一次
	select {
	case <-fired:
		t.Fatal("timer fired twice")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestEveryInvalidInterval(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method0("every", func(ctx context.Context) (bool, error) {
			_, err := xactor.Every(ctx, 0, func(ctx context.Context) {})
			return false, err
		}),
	)
	_, err := p.Call(ctx, "every")
	assert.ErrorIs(t, err, xactor.ErrInterval)
}

func TestTimerOutsideActor(t *testing.T) {
	ctx := context.Background()
	_, err := xactor.After(ctx, time.Millisecond, func(ctx context.Context) {})
	assert.ErrorIs(t, err, xactor.ErrNotActor)
	_, err = xactor.Every(ctx, time.Millisecond, func(ctx context.Context) {})
	assert.ErrorIs(t, err, xactor.ErrNotActor)
}

func TestSleep(t *testing.T) {
	ctx := context.Background()
	p := startMethods(t, ctx, nil,
		xactor.Method0("sleep", func(ctx context.Context) (time.Duration, error) {
			start := time.Now()
			err := xactor.Sleep(ctx, 30*time.Millisecond)
			return time.Since(start), err
		}),
	)

	v, err := p.Call(ctx, "sleep")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.(time.Duration), 30*time.Millisecond)

	// actor外直接阻塞
	start := time.Now()
	require.NoError(t, xactor.Sleep(ctx, 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, xactor.Sleep(cctx, time.Second), context.Canceled)
}

func TestTimerChainID(t *testing.T) {
	ctx := context.Background()
	chains := make(chan string, 1)
	p := startMethods(t, ctx, nil,
		xactor.Method0("schedule", func(ctx context.Context) (string, error) {
			_, err := xactor.After(ctx, time.Millisecond, func(ctx context.Context) {
				chains <- xactor.ChainID(ctx)
			})
			return xactor.ChainID(ctx), err
		}),
	)

	v, err := p.Call(xactor.WithChainID(ctx, "timer-chain"), "schedule")
	require.NoError(t, err)
	assert.Equal(t, "timer-chain", v)
	assert.Equal(t, "timer-chain", recvString(t, chains))
}
