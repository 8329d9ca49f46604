package xactor_test

import (
	"context"
	"testing"

	"gocell/pkg/xactor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethods(t *testing.T) {
	ctx := context.Background()
	m, err := xactor.NewMethods(
		xactor.Method0("zero", func(ctx context.Context) (int, error) {
			return 0, nil
		}),
		xactor.Method2("join", func(ctx context.Context, a string, b *string) (string, error) {
			if b == nil {
				return a, nil
			}
			return a + *b, nil
		}),
		xactor.Method("sum", -1, func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
			sum := 0
			for i := range inv.Args {
				n, err := xactor.Arg[int](inv, i)
				if err != nil {
					return nil, err
				}
				sum += n
			}
			return sum, nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"join", "sum", "zero"}, m.Names())
	assert.True(t, m.Has("sum"))
	assert.False(t, m.Has("missing"))

	p, err := xactor.Start(ctx, m)
	require.NoError(t, err)
	defer p.Kill()

	v, err := p.Call(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	v, err = p.Call(ctx, "sum", 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	// nil参数转换为零值
	v, err = p.Call(ctx, "join", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	b := "b"
	v, err = p.Call(ctx, "join", "a", &b)
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
}

func TestMethodsRepeated(t *testing.T) {
	fn := func(ctx context.Context) (int, error) { return 0, nil }
	_, err := xactor.NewMethods(xactor.Method0("a", fn), xactor.Method0("a", fn))
	assert.Error(t, err)

	_, err = xactor.NewMethods(xactor.Method("nil", 0, nil))
	assert.Error(t, err)
}

func TestBehaviorFunc(t *testing.T) {
	ctx := context.Background()
	p, err := xactor.Start(ctx, xactor.BehaviorFunc(func(ctx context.Context, inv *xactor.Invocation) (interface{}, error) {
		return inv.Method, nil
	}))
	require.NoError(t, err)
	defer p.Kill()

	v, err := p.Call(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", v)
}

func TestAbortError(t *testing.T) {
	err := xactor.NewAbortError(xactor.ErrArity)
	assert.True(t, xactor.IsAbort(err))
	assert.ErrorIs(t, err, xactor.ErrArity)
	assert.Equal(t, xactor.ErrArity, err.Cause())
	assert.False(t, xactor.IsAbort(xactor.ErrArity))

	fatal := xactor.Fatal(xactor.ErrDeadActor)
	assert.True(t, xactor.IsFatal(fatal))
	assert.ErrorIs(t, fatal, xactor.ErrDeadActor)
}
