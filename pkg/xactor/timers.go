package xactor

import (
	"context"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/pkg/errors"
)

// 定时器, 只能在所属actor内操作
type Timer struct {
	timers    *Timers
	interval  time.Duration
	recurring bool
	fn        func()

	deadline  time.Time
	gen       uint64
	cancelled bool
	fired     bool
}

func (t *Timer) Interval() time.Duration {
	return t.interval
}

func (t *Timer) Recurring() bool {
	return t.recurring
}

// 取消, 未触发的回调不再执行
func (t *Timer) Cancel() {
	t.cancelled = true
}

// 从当前时间重新计时
func (t *Timer) Reset() {
	t.cancelled = false
	t.fired = false
	t.timers.schedule(t)
}

func (t *Timer) Active() bool {
	return !t.cancelled && !t.fired
}

// 队列元素, gen不一致表示已被Reset
type timerItem struct {
	timer    *Timer
	deadline time.Time
	gen      uint64
	seq      uint64
}

func (i *timerItem) Compare(other queue.Item) int {
	o := other.(*timerItem)
	switch {
	case i.deadline.Before(o.deadline):
		return -1
	case i.deadline.After(o.deadline):
		return 1
	case i.seq < o.seq:
		return -1
	case i.seq > o.seq:
		return 1
	}
	return 0
}

func (i *timerItem) stale() bool {
	return i.gen != i.timer.gen || i.timer.cancelled
}

// 按截止时间排序的定时器集合
type Timers struct {
	pq  *queue.PriorityQueue
	seq uint64
}

func newTimers() *Timers {
	return &Timers{pq: queue.NewPriorityQueue(16, true)}
}

func (ts *Timers) after(d time.Duration, fn func()) *Timer {
	t := &Timer{timers: ts, interval: d, fn: fn}
	ts.schedule(t)
	return t
}

func (ts *Timers) every(d time.Duration, fn func()) *Timer {
	t := &Timer{timers: ts, interval: d, recurring: true, fn: fn}
	ts.schedule(t)
	return t
}

func (ts *Timers) schedule(t *Timer) {
	t.gen++
	t.deadline = time.Now().Add(t.interval)
	ts.seq++
	_ = ts.pq.Put(&timerItem{timer: t, deadline: t.deadline, gen: t.gen, seq: ts.seq})
}

// 最早的有效定时器, 顺带丢弃失效项
func (ts *Timers) peek() *timerItem {
	for ts.pq.Len() > 0 {
		item := ts.pq.Peek().(*timerItem)
		if !item.stale() {
			return item
		}
		_, _ = ts.pq.Get(1)
	}
	return nil
}

// 距离下一个定时器的时长, 没有定时器返回-1
func (ts *Timers) waitInterval() time.Duration {
	item := ts.peek()
	if item == nil {
		return -1
	}
	d := time.Until(item.deadline)
	if d < 0 {
		return 0
	}
	return d
}

// 触发所有到期定时器, 周期定时器重新计时
func (ts *Timers) fire() {
	now := time.Now()
	due := make([]*timerItem, 0)
	for {
		item := ts.peek()
		if item == nil || item.deadline.After(now) {
			break
		}
		_, _ = ts.pq.Get(1)
		due = append(due, item)
	}
	for _, item := range due {
		// 前面的回调可能取消或重置了后面的定时器
		if item.stale() {
			continue
		}
		t := item.timer
		if t.recurring {
			ts.schedule(t)
		} else {
			t.fired = true
		}
		t.fn()
	}
}

// 有效定时器数量
func (ts *Timers) Len() int {
	n := 0
	items := make([]queue.Item, 0, ts.pq.Len())
	for ts.pq.Len() > 0 {
		got, _ := ts.pq.Get(1)
		items = append(items, got...)
	}
	for _, item := range items {
		if !item.(*timerItem).stale() {
			n++
		}
		_ = ts.pq.Put(item)
	}
	return n
}

// 延迟d后在新任务中执行fn
func After(ctx context.Context, d time.Duration, fn func(ctx context.Context)) (*Timer, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	a := t.actor
	chainID := t.chainID
	return a.timers.after(d, func() {
		a.task(taskTimer, chainID, fn)
	}), nil
}

// 每隔d在新任务中执行fn
func Every(ctx context.Context, d time.Duration, fn func(ctx context.Context)) (*Timer, error) {
	if d <= 0 {
		return nil, errors.Wrapf(ErrInterval, "every %v", d)
	}
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	a := t.actor
	return a.timers.every(d, func() {
		a.task(taskTimer, "", fn)
	}), nil
}

type sleepWait struct{}

// 挂起当前任务d时长, 非actor内直接阻塞, 独占模式下阻塞actor
func Sleep(ctx context.Context, d time.Duration) error {
	t, err := scope(ctx)
	if err != nil {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a := t.actor
	if a.exclusive > 0 {
		time.Sleep(d)
		return nil
	}
	key := &sleepWait{}
	a.timers.after(d, func() {
		a.wake(t, key, nil)
	})
	t.wait("sleeping", key)
	return nil
}
