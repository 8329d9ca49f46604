package xactor

import (
	"context"
	"time"
)

const (
	taskCall        TaskKind = iota // 同步/异步调用
	taskTimer                       // 定时器
	taskExclusive                   // 独占执行
	taskFinalizer                   // 结束回调
	taskBlockInvoke                 // 回调块
	taskExitHandler                 // 链接退出处理
	taskInit                        // 初始化
	taskHandler                     // 普通消息处理
)

var (
	defaultLinkTimeout = 5 * time.Second // 链接握手默认超时
	defaultLogLevel    = "debug"
)

// 任务类型
type TaskKind int

func (k TaskKind) String() string {
	switch k {
	case taskCall:
		return "call"
	case taskTimer:
		return "timer"
	case taskExclusive:
		return "exclusive"
	case taskFinalizer:
		return "finalizer"
	case taskBlockInvoke:
		return "block"
	case taskExitHandler:
		return "exit"
	case taskInit:
		return "init"
	case taskHandler:
		return "handler"
	}
	return "unknown"
}

// 业务对象, 所有调用都在actor协程内串行分发
//
// Dispatch返回的error原样交给调用方, actor继续运行;
// ErrNoMethod/ErrArity/ErrArgType会包装为AbortError.
// 只有panic会让actor崩溃: 同步调用方先收到panic的原因, 随后通知所有链接的actor.
type Behavior interface {
	Dispatch(ctx context.Context, inv *Invocation) (interface{}, error)
}

// 函数形式的behavior
type BehaviorFunc func(ctx context.Context, inv *Invocation) (interface{}, error)

func (fn BehaviorFunc) Dispatch(ctx context.Context, inv *Invocation) (interface{}, error) {
	return fn(ctx, inv)
}

// 可选: actor启动后的第一个任务
type Initializer interface {
	Init(ctx context.Context)
}

// 可选: actor退出前调用(独占模式), kill时不调用
type Finalizer interface {
	Finalize(ctx context.Context)
}

// 可选: 链接的actor退出时调用, 未实现时非nil原因导致自身崩溃
type ExitHandler interface {
	HandleExit(ctx context.Context, actor *Proxy, reason error)
}

type ExitHandlerFunc func(ctx context.Context, actor *Proxy, reason error)

// 普通消息处理
type MessageHandler func(ctx context.Context, msg interface{})

type messageHandler struct {
	filter func(msg interface{}) bool
	fn     MessageHandler
}

type options struct {
	name           string
	linkTimeout    time.Duration
	exclusive      map[string]bool // 独占执行的方法
	receiverBlocks map[string]bool // 回调块在接收方执行的方法
	exitHandler    ExitHandlerFunc
	handlers       []messageHandler
}

type Option func(o *options)

// 启动后注册名称
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithLinkTimeout(d time.Duration) Option {
	return func(o *options) {
		o.linkTimeout = d
	}
}

// 方法在独占模式下执行, 等待期间不处理其他调用
func WithExclusive(methods ...string) Option {
	return func(o *options) {
		for _, m := range methods {
			o.exclusive[m] = true
		}
	}
}

// 方法的回调块在接收方直接执行
func WithReceiverBlocks(methods ...string) Option {
	return func(o *options) {
		for _, m := range methods {
			o.receiverBlocks[m] = true
		}
	}
}

func WithExitHandler(fn ExitHandlerFunc) Option {
	return func(o *options) {
		o.exitHandler = fn
	}
}

// 普通消息处理, 在receiver之后匹配
func WithHandler(filter func(msg interface{}) bool, fn MessageHandler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, messageHandler{filter: filter, fn: fn})
	}
}

func newOptions(behavior Behavior, opts ...Option) *options {
	o := &options{
		linkTimeout:    DefaultConfig().LinkTimeout,
		exclusive:      make(map[string]bool),
		receiverBlocks: make(map[string]bool),
		handlers:       make([]messageHandler, 0),
	}
	if h, ok := behavior.(ExitHandler); ok {
		o.exitHandler = h.HandleExit
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.linkTimeout <= 0 {
		o.linkTimeout = defaultLinkTimeout
	}
	return o
}
