package xactor

import (
	"context"
)

type signalWait struct {
	name string
}

// 条件信号: 任务按名称等待, 发送时唤醒全部等待者
type Signals struct {
	waiting map[string][]*signalWaiter
}

type signalWaiter struct {
	task *Task
	key  *signalWait
}

func newSignals() *Signals {
	return &Signals{waiting: make(map[string][]*signalWaiter)}
}

func (s *Signals) add(name string, w *signalWaiter) {
	s.waiting[name] = append(s.waiting[name], w)
}

// 唤醒等待name的所有任务, 没有等待者返回false
func (s *Signals) broadcast(a *Actor, name string, value interface{}) bool {
	waiters := s.waiting[name]
	if len(waiters) == 0 {
		return false
	}
	delete(s.waiting, name)
	woken := false
	for _, w := range waiters {
		if a.wake(w.task, w.key, value) {
			woken = true
		}
	}
	return woken
}

// 等待信号, 返回发送方传递的值
func Wait(ctx context.Context, name string) (interface{}, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	if t.actor.exclusive > 0 {
		return nil, ErrExclusive
	}
	w := &signalWaiter{task: t, key: &signalWait{name: name}}
	t.actor.signals.add(name, w)
	return t.wait("signalwait:"+name, w.key), nil
}

// 在actor内发送信号, 返回是否有任务被唤醒
func Signal(ctx context.Context, name string, value interface{}) (bool, error) {
	t, err := scope(ctx)
	if err != nil {
		return false, err
	}
	return t.actor.signals.broadcast(t.actor, name, value), nil
}
