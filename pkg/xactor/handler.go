package xactor

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

// 方法handler
type MethodHandler func(ctx context.Context, inv *Invocation) (interface{}, error)

type MethodArgs struct {
	Name  string
	Arity int // 参数个数, -1表示可变参数
	H     MethodHandler
}

// 原始handler, 可访问回调块
func Method(name string, arity int, fn MethodHandler) MethodArgs {
	return MethodArgs{Name: name, Arity: arity, H: fn}
}

// 无参数方法
func Method0[R any](name string, fn func(ctx context.Context) (R, error)) MethodArgs {
	return MethodArgs{Name: name, Arity: 0, H: func(ctx context.Context, inv *Invocation) (interface{}, error) {
		return fn(ctx)
	}}
}

// A 参数类型
// R 返回类型
func Method1[A any, R any](name string, fn func(ctx context.Context, a A) (R, error)) MethodArgs {
	return MethodArgs{Name: name, Arity: 1, H: func(ctx context.Context, inv *Invocation) (interface{}, error) {
		a, err := Arg[A](inv, 0)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}}
}

func Method2[A any, B any, R any](name string, fn func(ctx context.Context, a A, b B) (R, error)) MethodArgs {
	return MethodArgs{Name: name, Arity: 2, H: func(ctx context.Context, inv *Invocation) (interface{}, error) {
		a, err := Arg[A](inv, 0)
		if err != nil {
			return nil, err
		}
		b, err := Arg[B](inv, 1)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a, b)
	}}
}

// 取第i个参数并转换类型, nil转换为零值
func Arg[T any](inv *Invocation, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(inv.Args) {
		return zero, errors.Wrapf(ErrArity, "method %s has no arg %d", inv.Method, i)
	}
	v := inv.Args[i]
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ErrArgType, "method %s arg %d: %T not type %v", inv.Method, i, v, reflect.TypeOf(&zero).Elem())
	}
	return t, nil
}

// 方法分发表, 实现Behavior
type Methods struct {
	handlers map[string]MethodArgs
}

func NewMethods(args ...MethodArgs) (*Methods, error) {
	m := &Methods{handlers: make(map[string]MethodArgs)}
	for _, arg := range args {
		if err := m.Register(arg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Methods) Register(arg MethodArgs) error {
	if arg.H == nil {
		return fmt.Errorf("method[%v] handler is nil", arg.Name)
	}
	if _, ok := m.handlers[arg.Name]; ok {
		return fmt.Errorf("method[%v] is repeated", arg.Name)
	}
	m.handlers[arg.Name] = arg
	return nil
}

func (m *Methods) Has(name string) bool {
	_, ok := m.handlers[name]
	return ok
}

func (m *Methods) Names() []string {
	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Methods) Dispatch(ctx context.Context, inv *Invocation) (interface{}, error) {
	h, ok := m.handlers[inv.Method]
	if !ok {
		return nil, errors.Wrapf(ErrNoMethod, "method %s", inv.Method)
	}
	if h.Arity >= 0 && h.Arity != len(inv.Args) {
		return nil, errors.Wrapf(ErrArity, "method %s wants %d args, got %d", inv.Method, h.Arity, len(inv.Args))
	}
	return h.H(ctx, inv)
}
