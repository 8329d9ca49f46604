package xactor

import (
	"context"
	"time"

	"gocell/pkg/xmailbox"

	"github.com/pkg/errors"
)

type receiveTimeout struct{}

// 等待匹配消息的任务
type receiver struct {
	task     *Task
	filter   xmailbox.Filter
	deadline time.Time // 零值表示不超时
}

func (r *receiver) match(msg interface{}) bool {
	return r.filter == nil || r.filter(msg)
}

type Receivers struct {
	list []*receiver
}

func newReceivers() *Receivers {
	return &Receivers{list: make([]*receiver, 0)}
}

func (rs *Receivers) add(r *receiver) {
	rs.list = append(rs.list, r)
}

func (rs *Receivers) removeAt(i int) {
	copy(rs.list[i:], rs.list[i+1:])
	rs.list[len(rs.list)-1] = nil
	rs.list = rs.list[:len(rs.list)-1]
}

// 按等待顺序找到第一个匹配的receiver并唤醒
func (rs *Receivers) handleMessage(a *Actor, msg interface{}) bool {
	for i, r := range rs.list {
		if r.match(msg) {
			rs.removeAt(i)
			a.wake(r.task, r, msg)
			return true
		}
	}
	return false
}

// 距离最早超时的时长, 没有超时返回-1
func (rs *Receivers) waitInterval() time.Duration {
	var next time.Time
	for _, r := range rs.list {
		if r.deadline.IsZero() {
			continue
		}
		if next.IsZero() || r.deadline.Before(next) {
			next = r.deadline
		}
	}
	if next.IsZero() {
		return -1
	}
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// 唤醒所有已超时的receiver
func (rs *Receivers) fireTimers(a *Actor) {
	now := time.Now()
	expired := make([]*receiver, 0)
	kept := rs.list[:0]
	for _, r := range rs.list {
		if !r.deadline.IsZero() && !r.deadline.After(now) {
			expired = append(expired, r)
		} else {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(rs.list); i++ {
		rs.list[i] = nil
	}
	rs.list = kept
	for _, r := range expired {
		a.wake(r.task, r, receiveTimeout{})
	}
}

func (rs *Receivers) Len() int {
	return len(rs.list)
}

// 选择性接收消息, timeout < 0 一直等待
// 不匹配任何receiver和handler的消息会被丢弃
func Receive(ctx context.Context, timeout time.Duration, filter xmailbox.Filter) (interface{}, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	a := t.actor
	if a.exclusive > 0 {
		msg, err := a.receiveDirect(timeout, userFilter(filter))
		if err != nil {
			return nil, errors.Wrap(err, "receive")
		}
		return msg, nil
	}

	r := &receiver{task: t, filter: filter}
	if timeout >= 0 {
		r.deadline = time.Now().Add(timeout)
	}
	a.receivers.add(r)
	msg := t.wait("receiving", r)
	if _, ok := msg.(receiveTimeout); ok {
		return nil, errors.Wrap(xmailbox.ErrTimeout, "receive")
	}
	return msg, nil
}
