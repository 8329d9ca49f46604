package xactor

import (
	"context"
	"sort"

	"gocell/pkg/xlog"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

type TaskState int

const (
	TaskRunnable TaskState = iota
	TaskRunning
	TaskSuspended
	TaskTerminated
)

func (s TaskState) String() string {
	switch s {
	case TaskRunnable:
		return "runnable"
	case TaskRunning:
		return "running"
	case TaskSuspended:
		return "suspended"
	case TaskTerminated:
		return "terminated"
	}
	return "unknown"
}

type resumption struct {
	value     interface{}
	terminate bool
}

type yield struct {
	done  bool
	panic interface{}
}

// 可挂起的执行单元
// 每个任务一个协程, 恢复方阻塞到任务挂起或结束, 同一actor同一时刻只有一个协程在运行
type Task struct {
	id       string
	kind     TaskKind
	actor    *Actor
	ctx      context.Context
	chainID  string
	state    TaskState
	status   string      // 挂起原因
	awaiting interface{} // 等待的对象, 唤醒时校验
	inline   bool        // 独占模式下直接在恢复方执行

	resumeCh chan resumption
	yieldCh  chan yield
}

// 任务快照
type TaskInfo struct {
	ID     string
	Kind   string
	State  string
	Status string
	Chain  string
}

func newTask(a *Actor, kind TaskKind, chainID string) *Task {
	if chainID == "" {
		chainID = xid.New().String()
	}
	t := &Task{
		id:       xid.New().String(),
		kind:     kind,
		actor:    a,
		chainID:  chainID,
		state:    TaskRunnable,
		resumeCh: make(chan resumption),
		yieldCh:  make(chan yield),
	}
	t.ctx = newTaskContext(a.ctx, t)
	return t
}

func (t *Task) ID() string {
	return t.id
}

func (t *Task) info() TaskInfo {
	return TaskInfo{ID: t.id, Kind: t.kind.String(), State: t.state.String(), Status: t.status, Chain: t.chainID}
}

// 任务协程, 等待第一次恢复后执行body
func (t *Task) run(body func(ctx context.Context)) {
	r := <-t.resumeCh
	if r.terminate {
		t.yieldCh <- yield{done: true}
		return
	}
	y := yield{done: true}
	func() {
		defer func() {
			if p := recover(); p != nil {
				if _, ok := p.(taskTerminated); !ok {
					y.panic = recoverCrash(p)
				}
			}
		}()
		body(t.ctx)
	}()
	t.yieldCh <- y
}

// 恢复任务执行, 直到任务挂起或结束
// 任务内的panic在恢复方重新抛出
func (t *Task) resume(value interface{}) error {
	return t.deliver(resumption{value: value})
}

func (t *Task) deliver(r resumption) error {
	if t.state != TaskRunnable && t.state != TaskSuspended {
		return ErrDeadTask
	}
	a := t.actor
	prev := a.current
	a.current = t
	t.state = TaskRunning
	t.resumeCh <- r
	y := <-t.yieldCh
	a.current = prev

	if !y.done {
		t.state = TaskSuspended
		return nil
	}
	t.state = TaskTerminated
	a.tasks.remove(t)
	if y.panic != nil {
		if r.terminate {
			xlog.Get(a.ctx).Warn("Task panic while terminating", zap.String("task", t.id), zap.Any("err", y.panic))
			return nil
		}
		panic(y.panic)
	}
	return nil
}

// 挂起当前任务, 返回恢复时传入的值
func (t *Task) suspend(status string) interface{} {
	t.status = status
	t.yieldCh <- yield{}
	r := <-t.resumeCh
	t.status = ""
	if r.terminate {
		panic(taskTerminated{})
	}
	return r.value
}

// 挂起并记录等待对象, 只有匹配的唤醒才会恢复
func (t *Task) wait(status string, key interface{}) interface{} {
	t.awaiting = key
	defer func() { t.awaiting = nil }()
	return t.suspend(status)
}

// 终止挂起的任务
func (t *Task) terminate() {
	if t.state != TaskSuspended && t.state != TaskRunnable {
		return
	}
	if err := t.deliver(resumption{terminate: true}); err != nil {
		return
	}
	if t.state == TaskSuspended {
		xlog.Get(t.actor.ctx).Warn("Task suspended again after terminate", zap.String("task", t.id), zap.String("status", t.status))
	}
}

// actor的任务集合
type TaskSet struct {
	tasks map[string]*Task
}

func newTaskSet() *TaskSet {
	return &TaskSet{tasks: make(map[string]*Task)}
}

func (s *TaskSet) add(t *Task) {
	s.tasks[t.id] = t
}

func (s *TaskSet) remove(t *Task) {
	delete(s.tasks, t.id)
}

func (s *TaskSet) Len() int {
	return len(s.tasks)
}

func (s *TaskSet) snapshot() []*Task {
	ts := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].id < ts[j].id })
	return ts
}

func (s *TaskSet) infos() []TaskInfo {
	ts := s.snapshot()
	infos := make([]TaskInfo, 0, len(ts))
	for _, t := range ts {
		infos = append(infos, t.info())
	}
	return infos
}

// 创建并立即运行任务, 独占模式下直接执行
func (a *Actor) task(kind TaskKind, chainID string, body func(ctx context.Context)) {
	if a.exclusive > 0 {
		a.inline(kind, chainID, body)
		return
	}
	t := newTask(a, kind, chainID)
	a.tasks.add(t)
	go t.run(body)
	_ = t.resume(nil)
}

// 独占模式执行, 不创建协程
func (a *Actor) inline(kind TaskKind, chainID string, body func(ctx context.Context)) {
	t := newTask(a, kind, chainID)
	t.inline = true
	t.state = TaskRunning
	prev := a.current
	a.current = t
	defer func() {
		a.current = prev
		t.state = TaskTerminated
	}()
	a.exclusively(func() { body(t.ctx) })
}

// 进入独占模式, 可重入, 退出最外层时重放暂存的系统事件
func (a *Actor) exclusively(fn func()) {
	a.exclusive++
	func() {
		defer func() { a.exclusive-- }()
		fn()
	}()
	if a.exclusive == 0 {
		a.replayStash()
	}
}
