package xactor

import (
	"context"
	"fmt"
	"time"

	"gocell/pkg/xcommon"
	"gocell/pkg/xlog"
	"gocell/pkg/xmailbox"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type ActorState int32

const (
	StateCreated ActorState = iota
	StateRunning
	StateCrashed
	StateTerminating
	StateShutdown
)

func (s ActorState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	case StateTerminating:
		return "terminating"
	case StateShutdown:
		return "shutdown"
	}
	return "unknown"
}

// actor
// 特性:
//   1.单协程串行执行, 任务挂起时处理其他消息
//   2.同步/异步/future调用, 回调块
//   3.定时器, 信号, 选择性接收
//   4.链接监控, 崩溃通知
type Actor struct {
	id       string
	behavior Behavior
	opts     *options
	mailbox  *xmailbox.Mailbox
	proxy    *Proxy
	ctx      context.Context // 带actor字段的logger

	// 以下只在actor协程内访问
	tasks     *TaskSet
	links     *Links
	signals   *Signals
	timers    *Timers
	receivers *Receivers
	stash     []interface{} // 独占模式下暂存的系统事件
	current   *Task
	exclusive int
	running   bool

	name   *atomic.String
	state  *atomic.Int32
	killed *atomic.Bool
	reason error
	done   chan struct{}
}

// 启动actor
func Start(ctx context.Context, behavior Behavior, opts ...Option) (*Proxy, error) {
	if behavior == nil {
		return nil, errors.New("behavior is nil")
	}
	box := xmailbox.New()
	a := &Actor{
		id:        box.ID(),
		behavior:  behavior,
		opts:      newOptions(behavior, opts...),
		mailbox:   box,
		tasks:     newTaskSet(),
		links:     newLinks(),
		signals:   newSignals(),
		timers:    newTimers(),
		receivers: newReceivers(),
		stash:     make([]interface{}, 0),
		name:      atomic.NewString(""),
		state:     atomic.NewInt32(int32(StateCreated)),
		killed:    atomic.NewBool(false),
		done:      make(chan struct{}),
	}
	a.ctx = xlog.FromContext(ctx, context.Background(), xlog.Actor(a.id))
	a.proxy = newProxy(a)

	if a.opts.name != "" {
		if err := Register(a.opts.name, a.proxy); err != nil {
			return nil, err
		}
	}
	actors.add(a.proxy)

	a.running = true
	a.state.Store(int32(StateRunning))
	go a.run()
	return a.proxy, nil
}

func (a *Actor) run() {
	defer close(a.done)
	defer a.handleCrash()

	if hook, ok := a.behavior.(Initializer); ok {
		a.task(taskInit, "", hook.Init)
	}

	for a.running {
		msg, err := a.mailbox.Receive(a.ctx, a.waitInterval(), nil)
		switch {
		case err == nil:
			a.handleMessage(msg)
		case errors.Is(err, xmailbox.ErrTimeout):
		case errors.Is(err, xmailbox.ErrShutdown):
			a.running = false
			continue
		default:
			xlog.Get(a.ctx).Warn("Mailbox receive failed", zap.Any("err", err))
		}

		a.timers.fire()
		a.receivers.fireTimers(a)
	}
	a.shutdown(nil)
}

// 等待时长: 最近的定时器或receiver超时
func (a *Actor) waitInterval() time.Duration {
	i1 := a.timers.waitInterval()
	i2 := a.receivers.waitInterval()
	if i1 < 0 {
		return i2
	}
	if i2 < 0 || i1 < i2 {
		return i1
	}
	return i2
}

// 崩溃处理, 须直接defer调用
func (a *Actor) handleCrash() {
	r := recover()
	if r == nil {
		return
	}
	c := recoverCrash(r)
	xlog.Get(a.ctx).Error("Actor crashed", zap.Any("err", c.reason), zap.ByteString("stack", c.stack))
	a.state.Store(int32(StateCrashed))
	a.shutdown(c.reason)
	if IsFatal(c.reason) {
		panic(c.reason)
	}
}

func (a *Actor) handleMessage(msg interface{}) {
	switch m := msg.(type) {
	case xmailbox.SystemMessage:
		a.handleSystemEvent(m)
	case *SyncCall:
		a.handleSyncCall(m)
	case *AsyncCall:
		a.handleAsyncCall(m)
	case *BlockCall:
		a.task(taskBlockInvoke, m.Call.ChainID, func(ctx context.Context) { runBlock(ctx, m) })
	case *Response:
		a.wake(m.Call.task, m.Call, m)
	case *BlockResponse:
		a.wake(m.Call.task, m.Call, m)
	default:
		if a.receivers.handleMessage(a, m) {
			return
		}
		for _, h := range a.opts.handlers {
			if h.filter == nil || h.filter(m) {
				fn := h.fn
				a.task(taskHandler, "", func(ctx context.Context) { fn(ctx, m) })
				return
			}
		}
		xlog.Get(a.ctx).Debug("Discard message", zap.Any("msg", m))
	}
}

func (a *Actor) handleSystemEvent(msg interface{}) {
	switch m := msg.(type) {
	case *ExitEvent:
		a.handleExitEvent(m)
	case *LinkingRequest:
		switch m.Kind {
		case LinkKindLink:
			a.links.add(m.Actor)
		case LinkKindUnlink:
			a.links.remove(m.Actor)
		}
		if err := m.Actor.mailbox.Push(&LinkingResponse{Actor: a.proxy, Kind: m.Kind}); err != nil {
			xlog.Get(a.ctx).Debug("Linking response dropped", zap.String("peer", m.Actor.id), zap.Any("err", err))
		}
	case *LinkingResponse:
		// 握手已超时
		xlog.Get(a.ctx).Debug("Discard linking response", zap.String("peer", m.Actor.id))
	case *NamingRequest:
		a.name.Store(m.Name)
		a.ctx = xlog.NewContext(a.ctx, zap.String(xlog.FieldName, m.Name))
	case *TerminationRequest:
		a.running = false
	case *SignalRequest:
		a.signals.broadcast(a, m.Name, m.Value)
	default:
		xlog.Get(a.ctx).Warn("Unknown system event", zap.Any("event", msg))
	}
}

// 链接的actor退出: 有处理函数时在新任务中处理, 否则非nil原因导致自身崩溃
func (a *Actor) handleExitEvent(ev *ExitEvent) {
	a.links.remove(ev.Actor)
	if a.opts.exitHandler != nil {
		handler := a.opts.exitHandler
		a.task(taskExitHandler, "", func(ctx context.Context) { handler(ctx, ev.Actor, ev.Reason) })
		return
	}
	if ev.Reason != nil {
		xlog.Get(a.ctx).Warn("Linked actor crashed", zap.String("peer", ev.Actor.id), zap.Any("err", ev.Reason))
		panic(newCrash(ev.Reason))
	}
}

// 唤醒等待key的任务, 任务不在等待该key时丢弃
func (a *Actor) wake(t *Task, key interface{}, value interface{}) bool {
	if t == nil || t.actor != a || t.state != TaskSuspended || t.awaiting != key {
		xlog.Get(a.ctx).Debug("Discard wakeup", zap.String("type", fmt.Sprintf("%T", value)))
		return false
	}
	_ = t.resume(value)
	return true
}

// 系统事件和调用协议之外的消息才交给用户过滤
// 系统事件不匹配, 由receiveDirect暂存到退出独占模式后处理
func userFilter(filter xmailbox.Filter) xmailbox.Filter {
	return func(msg interface{}) bool {
		switch msg.(type) {
		case xmailbox.SystemMessage, *SyncCall, *AsyncCall, *BlockCall, *Response, *BlockResponse:
			return false
		}
		return filter == nil || filter(msg)
	}
}

// 独占模式下直接从mailbox接收, 不匹配的系统事件暂存到退出独占模式后处理
func (a *Actor) receiveDirect(timeout time.Duration, filter xmailbox.Filter) (interface{}, error) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		wait := time.Duration(-1)
		if !deadline.IsZero() {
			wait = time.Until(deadline)
			if wait < 0 {
				wait = 0
			}
		}
		msg, err := a.mailbox.Receive(a.ctx, wait, filter)
		if err != nil {
			return nil, err
		}
		if filter == nil || filter(msg) {
			return msg, nil
		}
		a.stash = append(a.stash, msg)
	}
}

func (a *Actor) replayStash() {
	for len(a.stash) > 0 {
		msg := a.stash[0]
		a.stash[0] = nil
		a.stash = a.stash[1:]
		a.handleSystemEvent(msg)
	}
}

// 退出流程: finalizer -> 关闭mailbox -> 通知链接 -> 终止任务 -> 回复未处理的调用
func (a *Actor) shutdown(reason error) {
	a.running = false
	a.exclusive = 0
	a.current = nil
	killed := a.killed.Load()

	if !killed {
		if a.state.Load() != int32(StateCrashed) {
			a.state.Store(int32(StateTerminating))
		}
		a.runFinalizer()
	}

	err := xcommon.Catch(a.ctx, func() {
		a.mailbox.Shutdown()
		if !killed {
			a.notifyLinks(reason)
		}
		for _, t := range a.tasks.snapshot() {
			t.terminate()
		}
		a.replyDead()
	})
	if err != nil {
		xlog.Get(a.ctx).Error("Actor cleanup crashed", zap.Any("err", err))
	}

	unregisterActor(a.proxy)
	a.reason = reason
	a.state.Store(int32(StateShutdown))
	xlog.Get(a.ctx).Debug("Actor shutdown", zap.Any("reason", reason), zap.Bool("killed", killed))
}

func (a *Actor) runFinalizer() {
	f, ok := a.behavior.(Finalizer)
	if !ok {
		return
	}
	err := xcommon.Catch(a.ctx, func() {
		a.inline(taskFinalizer, "", f.Finalize)
	})
	if err != nil {
		xlog.Get(a.ctx).Error("Finalizer crashed", zap.Any("err", err))
	}
	a.exclusive = 0
	a.current = nil
}

func (a *Actor) notifyLinks(reason error) {
	ev := &ExitEvent{Actor: a.proxy, Reason: reason}
	for _, p := range a.links.list() {
		if !p.mailbox.Alive() {
			continue
		}
		if err := p.mailbox.Push(ev); err != nil {
			xlog.Get(a.ctx).Debug("Exit event dropped", zap.String("peer", p.id), zap.Any("err", err))
		}
	}
}

// 未处理的同步调用回复ErrDeadActor
func (a *Actor) replyDead() {
	msgs := append(a.stash, a.mailbox.Drain()...)
	a.stash = a.stash[:0]
	for _, msg := range msgs {
		switch m := msg.(type) {
		case *SyncCall:
			m.respond(&Response{Call: m, Err: ErrDeadActor})
		case *BlockCall:
			m.respond(&BlockResponse{Call: m, Err: ErrDeadActor})
		}
	}
}
