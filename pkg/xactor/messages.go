package xactor

import (
	"context"

	"github.com/rs/xid"
)

// 响应投递目标: 调用方mailbox或future
type replyTarget interface {
	Push(msg interface{}) error
}

// 同步调用
type SyncCall struct {
	ID      string
	Method  string
	Args    []interface{}
	ChainID string

	block   *blockProxy
	replyTo replyTarget
	task    *Task // 调用方任务, 非actor调用为nil

	// 内部操作, 不经过behavior分发
	exec func(ctx context.Context) (interface{}, error)

	responded bool
}

func newSyncCall(ctx context.Context, req Request) *SyncCall {
	call := &SyncCall{
		ID:      xid.New().String(),
		Method:  req.Method,
		Args:    req.Args,
		ChainID: ChainID(ctx),
	}
	if req.Block != nil {
		call.block = &blockProxy{fn: req.Block, execution: req.BlockExecution}
	}
	return call
}

// 回复调用方, 只回复一次
func (c *SyncCall) respond(resp *Response) {
	if c.responded || c.replyTo == nil {
		return
	}
	c.responded = true
	_ = c.replyTo.Push(resp)
}

// 异步调用, 无响应
type AsyncCall struct {
	Method  string
	Args    []interface{}
	ChainID string
}

// 回调块调用, 由被调方发回调用方执行
type BlockCall struct {
	ID   string
	Call *SyncCall
	Args []interface{}

	fn        Block
	replyTo   replyTarget
	task      *Task
	responded bool
}

func (c *BlockCall) respond(resp *BlockResponse) {
	if c.responded || c.replyTo == nil {
		return
	}
	c.responded = true
	_ = c.replyTo.Push(resp)
}

// 同步调用结果, Err为nil表示成功
type Response struct {
	Call  *SyncCall
	Value interface{}
	Err   error
}

type BlockResponse struct {
	Call  *BlockCall
	Value interface{}
	Err   error
}

// 链接actor退出事件
type ExitEvent struct {
	Actor  *Proxy
	Reason error
}

type LinkKind int

const (
	LinkKindLink LinkKind = iota
	LinkKindUnlink
)

func (k LinkKind) String() string {
	if k == LinkKindLink {
		return "link"
	}
	return "unlink"
}

// 链接请求
type LinkingRequest struct {
	Actor *Proxy
	Kind  LinkKind
}

type LinkingResponse struct {
	Actor *Proxy
	Kind  LinkKind
}

// 注册名称通知
type NamingRequest struct {
	Name string
}

// 请求actor退出
type TerminationRequest struct{}

// 外部协程发送的信号
type SignalRequest struct {
	Name  string
	Value interface{}
}

func (*ExitEvent) SystemMessage()          {}
func (*LinkingRequest) SystemMessage()     {}
func (*LinkingResponse) SystemMessage()    {}
func (*NamingRequest) SystemMessage()      {}
func (*TerminationRequest) SystemMessage() {}
func (*SignalRequest) SystemMessage()      {}
