package xactor

import (
	"context"
	"fmt"

	"gocell/pkg/xlog"
	"gocell/pkg/xmailbox"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// actor句柄, 可在任意协程使用
type Proxy struct {
	id      string
	actor   *Actor
	mailbox *xmailbox.Mailbox
}

func newProxy(a *Actor) *Proxy {
	return &Proxy{id: a.id, actor: a, mailbox: a.mailbox}
}

func (p *Proxy) ID() string {
	return p.id
}

// 注册名, 未注册为空
func (p *Proxy) Name() string {
	return p.actor.name.Load()
}

func (p *Proxy) String() string {
	if name := p.Name(); name != "" {
		return fmt.Sprintf("Actor(%s:%s)", name, p.id)
	}
	return fmt.Sprintf("Actor(%s)", p.id)
}

func (p *Proxy) Alive() bool {
	return p.mailbox.Alive()
}

func (p *Proxy) State() ActorState {
	return ActorState(p.actor.state.Load())
}

// 同步调用
func (p *Proxy) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	return p.CallRequest(ctx, Request{Method: method, Args: args})
}

// 同步调用, 可附带回调块
func (p *Proxy) CallRequest(ctx context.Context, req Request) (interface{}, error) {
	if !p.Alive() {
		return nil, errors.Wrapf(ErrDeadActor, "call %s on %s", req.Method, p.id)
	}
	return syncCall(ctx, p, newSyncCall(ctx, req))
}

// 异步调用, 目标已退出时忽略
func (p *Proxy) Async(ctx context.Context, method string, args ...interface{}) {
	call := &AsyncCall{Method: method, Args: args, ChainID: ChainID(ctx)}
	if err := p.mailbox.Push(call); err != nil {
		xlog.Get(ctx).Debug("Async call to dead actor", zap.String("actor", p.id), zap.String("method", method))
	}
}

// future调用, 结果通过Future.Value获取
func (p *Proxy) Future(ctx context.Context, method string, args ...interface{}) (*Future, error) {
	f := newFuture()
	call := newSyncCall(ctx, Request{Method: method, Args: args})
	call.replyTo = f
	if err := p.mailbox.Push(call); err != nil {
		return nil, errors.Wrapf(ErrDeadActor, "future %s on %s", method, p.id)
	}
	return f, nil
}

// 发送普通消息, 由receiver或handler处理
func (p *Proxy) Send(msg interface{}) error {
	if err := p.mailbox.Push(msg); err != nil {
		return errors.Wrapf(ErrDeadActor, "send to %s", p.id)
	}
	return nil
}

// 从任意协程发送信号
func (p *Proxy) Signal(name string, value interface{}) error {
	if err := p.mailbox.Push(&SignalRequest{Name: name, Value: value}); err != nil {
		return errors.Wrapf(ErrDeadActor, "signal %s to %s", name, p.id)
	}
	return nil
}

// 请求退出, 不等待
func (p *Proxy) TerminateAsync() error {
	if err := p.mailbox.Push(&TerminationRequest{}); err != nil {
		return errors.Wrapf(ErrDeadActor, "terminate %s", p.id)
	}
	return nil
}

// 请求退出并等待, 在自身内调用时不等待
func (p *Proxy) Terminate(ctx context.Context) error {
	if err := p.TerminateAsync(); err != nil {
		return err
	}
	if t, err := scope(ctx); err == nil && t.actor == p.actor {
		return nil
	}
	return p.Join(ctx)
}

// 强制结束: 不执行finalizer, 不通知链接
func (p *Proxy) Kill() {
	p.actor.killed.Store(true)
	p.mailbox.Shutdown()
}

// 等待退出
func (p *Proxy) Join(ctx context.Context) error {
	select {
	case <-p.actor.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// 是否已退出
func (p *Proxy) Done() <-chan struct{} {
	return p.actor.done
}

// 退出原因, 未退出或正常退出返回nil
func (p *Proxy) Reason() error {
	select {
	case <-p.actor.done:
		return p.actor.reason
	default:
		return nil
	}
}

// 内部操作在目标actor内执行
func (p *Proxy) exec(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if !p.Alive() {
		return nil, errors.Wrapf(ErrDeadActor, "exec on %s", p.id)
	}
	call := newSyncCall(ctx, Request{Method: "exec"})
	call.exec = fn
	return syncCall(ctx, p, call)
}

// 让目标actor链接other
func (p *Proxy) Link(ctx context.Context, other *Proxy) error {
	_, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, Link(ctx, other)
	})
	return err
}

func (p *Proxy) Unlink(ctx context.Context, other *Proxy) error {
	_, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, Unlink(ctx, other)
	})
	return err
}

func (p *Proxy) Monitor(ctx context.Context, other *Proxy) error {
	_, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, Monitor(ctx, other)
	})
	return err
}

func (p *Proxy) Unmonitor(ctx context.Context, other *Proxy) error {
	_, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, Unmonitor(ctx, other)
	})
	return err
}

// 目标actor的链接列表
func (p *Proxy) Links(ctx context.Context) ([]*Proxy, error) {
	v, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return LinkedActors(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Proxy), nil
}

// 目标actor的任务列表
func (p *Proxy) Tasks(ctx context.Context) ([]TaskInfo, error) {
	v, err := p.exec(ctx, func(ctx context.Context) (interface{}, error) {
		return Tasks(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]TaskInfo), nil
}
