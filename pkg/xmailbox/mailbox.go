package xmailbox

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/atomic"
)

var (
	ErrMailboxDead = errors.New("mailbox is dead")         // 投递到已关闭的mailbox
	ErrShutdown    = errors.New("mailbox shutdown")        // 等待过程中mailbox被关闭
	ErrTimeout     = errors.New("mailbox receive timeout") // 等待超时
)

// 系统消息: 优先于普通消息投递, 且任何过滤条件下都会被取出
type SystemMessage interface {
	SystemMessage()
}

// 消息过滤, nil表示匹配全部
type Filter func(msg interface{}) bool

// 选择性接收mailbox
// 特性:
//   1.多生产者并发投递, 单生产者内保证FIFO
//   2.按过滤条件取出消息, 未匹配消息保留原有顺序
//   3.系统消息单独排队, 优先取出
type Mailbox struct {
	id string

	mu       sync.Mutex
	system   []interface{}
	messages []interface{}
	notify   chan struct{} // 每次投递关闭并替换, 唤醒所有等待者

	alive *atomic.Bool
}

func New() *Mailbox {
	return &Mailbox{
		id:       xid.New().String(),
		system:   make([]interface{}, 0),
		messages: make([]interface{}, 0),
		notify:   make(chan struct{}),
		alive:    atomic.NewBool(true),
	}
}

func (m *Mailbox) ID() string {
	return m.id
}

// 投递消息
func (m *Mailbox) Push(msg interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive.Load() {
		return ErrMailboxDead
	}
	if _, ok := msg.(SystemMessage); ok {
		m.system = append(m.system, msg)
	} else {
		m.messages = append(m.messages, msg)
	}
	m.wakeup()
	return nil
}

// 接收消息
// timeout < 0 一直等待, timeout == 0 仅检查一次
func (m *Mailbox) Receive(ctx context.Context, timeout time.Duration, filter Filter) (interface{}, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	for {
		m.mu.Lock()
		if !m.alive.Load() {
			m.mu.Unlock()
			return nil, ErrShutdown
		}
		if msg, ok := m.next(filter); ok {
			m.mu.Unlock()
			return msg, nil
		}
		notify := m.notify
		m.mu.Unlock()

		if timeout == 0 {
			return nil, ErrTimeout
		}

		select {
		case <-notify:
		case <-timer:
			return nil, ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// 取出下一条消息, 调用方持有锁
func (m *Mailbox) next(filter Filter) (interface{}, bool) {
	if len(m.system) > 0 {
		msg := m.system[0]
		m.system[0] = nil
		m.system = m.system[1:]
		return msg, true
	}
	for i, msg := range m.messages {
		if filter == nil || filter(msg) {
			copy(m.messages[i:], m.messages[i+1:])
			m.messages[len(m.messages)-1] = nil
			m.messages = m.messages[:len(m.messages)-1]
			return msg, true
		}
	}
	return nil, false
}

func (m *Mailbox) wakeup() {
	close(m.notify)
	m.notify = make(chan struct{})
}

// 关闭mailbox, 唤醒所有等待者
func (m *Mailbox) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive.Load() {
		return
	}
	m.alive.Store(false)
	m.wakeup()
}

// 取出剩余消息(系统消息在前), 用于关闭后的清理
func (m *Mailbox) Drain() []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]interface{}, 0, len(m.system)+len(m.messages))
	msgs = append(msgs, m.system...)
	msgs = append(msgs, m.messages...)
	m.system = m.system[:0]
	m.messages = m.messages[:0]
	return msgs
}

// 存活探测, 不加锁, 允许竞争
func (m *Mailbox) Alive() bool {
	return m.alive.Load()
}

func (m *Mailbox) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.system) + len(m.messages)
}
