package xactor

import (
	"context"

	"gocell/pkg/xlog"
	"gocell/pkg/xmailbox"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

// 回调块
type Block func(ctx context.Context, args ...interface{}) (interface{}, error)

// 回调块执行位置
type BlockExecution int

const (
	OnSender   BlockExecution = iota // 发回调用方执行(默认)
	OnReceiver                       // 被调方直接执行
)

// 调用请求
type Request struct {
	Method         string
	Args           []interface{}
	Block          Block
	BlockExecution BlockExecution
}

// 被调方看到的一次调用
type Invocation struct {
	Method string
	Args   []interface{}

	block Block
}

func (inv *Invocation) HasBlock() bool {
	return inv.block != nil
}

// 调用回调块
func (inv *Invocation) Yield(ctx context.Context, args ...interface{}) (interface{}, error) {
	if inv.block == nil {
		return nil, errors.Wrapf(ErrNoBlock, "method %s", inv.Method)
	}
	return inv.block(ctx, args...)
}

type blockProxy struct {
	fn        Block
	execution BlockExecution
	mailbox   replyTarget // 调用方mailbox
}

// 被调方使用的回调块
func (a *Actor) blockFor(call *SyncCall) Block {
	bp := call.block
	if bp == nil {
		return nil
	}
	if bp.execution == OnReceiver || a.opts.receiverBlocks[call.Method] || bp.mailbox == nil {
		return bp.fn
	}
	return func(ctx context.Context, args ...interface{}) (interface{}, error) {
		t, err := scope(ctx)
		if err != nil {
			return nil, err
		}
		if t.actor.exclusive > 0 {
			return nil, ErrExclusiveBlock
		}
		bc := &BlockCall{
			ID:      xid.New().String(),
			Call:    call,
			Args:    args,
			fn:      bp.fn,
			replyTo: t.actor.mailbox,
			task:    t,
		}
		if err := bp.mailbox.Push(bc); err != nil {
			return nil, errors.Wrap(ErrDeadActor, "block sender is gone")
		}
		resp, ok := t.wait("blockwait", bc).(*BlockResponse)
		if !ok {
			return nil, errors.Wrap(ErrDeadActor, "block response lost")
		}
		return resp.Value, resp.Err
	}
}

// 执行回调块并回复, panic时先回复错误再继续抛出
func runBlock(ctx context.Context, bc *BlockCall) {
	defer func() {
		if p := recover(); p != nil {
			if _, ok := p.(taskTerminated); ok {
				bc.respond(&BlockResponse{Call: bc, Err: ErrDeadActor})
				panic(p)
			}
			c := recoverCrash(p)
			bc.respond(&BlockResponse{Call: bc, Err: c.reason})
			panic(c)
		}
	}()
	value, err := bc.fn(ctx, bc.Args...)
	bc.respond(&BlockResponse{Call: bc, Value: value, Err: err})
}

// 调用behavior, 参数类错误转换为AbortError
func (a *Actor) invoke(ctx context.Context, method string, args []interface{}, block Block) (interface{}, error) {
	inv := &Invocation{Method: method, Args: args, block: block}
	value, err := a.behavior.Dispatch(ctx, inv)
	return value, abortable(err)
}

// 处理同步调用, panic时先回复错误再崩溃
func (a *Actor) dispatchSync(ctx context.Context, call *SyncCall) {
	defer func() {
		if p := recover(); p != nil {
			if _, ok := p.(taskTerminated); ok {
				call.respond(&Response{Call: call, Err: ErrDeadActor})
				panic(p)
			}
			c := recoverCrash(p)
			call.respond(&Response{Call: call, Err: c.reason})
			panic(c)
		}
	}()

	var (
		value interface{}
		err   error
	)
	if call.exec != nil {
		value, err = call.exec(ctx)
	} else {
		value, err = a.invoke(ctx, call.Method, call.Args, a.blockFor(call))
	}
	if IsAbort(err) {
		xlog.Get(ctx).Debug("Sync call aborted", zap.String("method", call.Method), zap.Any("err", err))
	}
	call.respond(&Response{Call: call, Value: value, Err: err})
}

func (a *Actor) dispatchAsync(ctx context.Context, call *AsyncCall) {
	_, err := a.invoke(ctx, call.Method, call.Args, nil)
	if err == nil {
		return
	}
	if IsAbort(err) {
		xlog.Get(ctx).Debug("Async call aborted", zap.String("method", call.Method), zap.Any("err", err))
		return
	}
	xlog.Get(ctx).Warn("Async call failed", zap.String("method", call.Method), zap.Any("err", err))
}

func (a *Actor) handleSyncCall(call *SyncCall) {
	if a.opts.exclusive[call.Method] {
		a.inline(taskExclusive, call.ChainID, func(ctx context.Context) { a.dispatchSync(ctx, call) })
		return
	}
	a.task(taskCall, call.ChainID, func(ctx context.Context) { a.dispatchSync(ctx, call) })
}

func (a *Actor) handleAsyncCall(call *AsyncCall) {
	if a.opts.exclusive[call.Method] {
		a.inline(taskExclusive, call.ChainID, func(ctx context.Context) { a.dispatchAsync(ctx, call) })
		return
	}
	a.task(taskCall, call.ChainID, func(ctx context.Context) { a.dispatchAsync(ctx, call) })
}

// 同步调用等待响应
// actor内: 挂起当前任务, 独占模式下直接从mailbox接收
// actor外: 使用临时mailbox, 回调块在调用方协程执行
func syncCall(ctx context.Context, target *Proxy, call *SyncCall) (interface{}, error) {
	t, _ := scope(ctx)
	if t == nil {
		return externalCall(ctx, target, call)
	}

	a := t.actor
	// 独占模式下调用自身, 直接执行
	if target.actor == a && a.exclusive > 0 {
		if call.exec != nil {
			return call.exec(ctx)
		}
		return a.invoke(ctx, call.Method, call.Args, call.block.fnOrNil())
	}

	if call.block != nil {
		if call.block.execution == OnSender && a.exclusive > 0 && !target.actor.opts.receiverBlocks[call.Method] {
			return nil, ErrExclusiveBlock
		}
		call.block.mailbox = a.mailbox
	}

	call.replyTo = a.mailbox
	call.task = t
	if err := target.mailbox.Push(call); err != nil {
		return nil, errors.Wrapf(ErrDeadActor, "call %s on %s", call.Method, target.id)
	}

	var msg interface{}
	if a.exclusive > 0 {
		var err error
		msg, err = a.receiveDirect(-1, func(m interface{}) bool {
			r, ok := m.(*Response)
			return ok && r.Call == call
		})
		if err != nil {
			return nil, errors.Wrapf(err, "call %s on %s", call.Method, target.id)
		}
	} else {
		msg = t.wait("callwait", call)
	}
	resp, ok := msg.(*Response)
	if !ok {
		return nil, errors.Wrap(ErrDeadActor, "response lost")
	}
	return resp.Value, resp.Err
}

func (bp *blockProxy) fnOrNil() Block {
	if bp == nil {
		return nil
	}
	return bp.fn
}

func externalCall(ctx context.Context, target *Proxy, call *SyncCall) (interface{}, error) {
	box := xmailbox.New()
	defer box.Shutdown()

	call.replyTo = box
	if call.block != nil {
		call.block.mailbox = box
	}
	if err := target.mailbox.Push(call); err != nil {
		return nil, errors.Wrapf(ErrDeadActor, "call %s on %s", call.Method, target.id)
	}

	for {
		msg, err := box.Receive(ctx, -1, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "call %s on %s", call.Method, target.id)
		}
		switch m := msg.(type) {
		case *Response:
			if m.Call == call {
				return m.Value, m.Err
			}
		case *BlockCall:
			runBlock(ctx, m)
		default:
			xlog.Get(ctx).Debug("Discard message while waiting response", zap.Any("msg", msg))
		}
	}
}
