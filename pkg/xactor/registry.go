package xactor

import (
	"context"
	"sort"
	"sync"

	"gocell/pkg/xcommon"
	"gocell/pkg/xlog"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// 名称 -> actor
type Registry struct {
	mu     sync.RWMutex
	actors map[string]*Proxy
}

var (
	root   = NewRegistry() // 全局注册表
	actors = NewRegistry() // 所有运行中的actor, 按id索引
)

func NewRegistry() *Registry {
	return &Registry{actors: make(map[string]*Proxy)}
}

// 注册名称, 同名覆盖, 并通知actor自身的名称
func (r *Registry) Register(name string, p *Proxy) error {
	if p == nil {
		return errors.Errorf("register %s with nil actor", name)
	}
	r.mu.Lock()
	r.actors[name] = p
	r.mu.Unlock()
	if err := p.mailbox.Push(&NamingRequest{Name: name}); err != nil {
		r.mu.Lock()
		if r.actors[name] == p {
			delete(r.actors, name)
		}
		r.mu.Unlock()
		return errors.Wrapf(ErrDeadActor, "register %s", name)
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Proxy, error) {
	r.mu.RLock()
	p := r.actors[name]
	r.mu.RUnlock()
	if p == nil {
		return nil, errors.Wrapf(ErrNotRegistered, "actor[%v]", name)
	}
	return p, nil
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actors, name)
}

// 删除指向p的所有名称
func (r *Registry) unregisterActor(p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, actor := range r.actors {
		if actor == p {
			delete(r.actors, name)
		}
	}
}

func (r *Registry) add(p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[p.id] = p
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.actors))
	for name := range r.actors {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors = make(map[string]*Proxy)
}

func (r *Registry) proxies() []*Proxy {
	names := r.Names()
	ps := make([]*Proxy, 0, len(names))
	r.mu.RLock()
	for _, name := range names {
		if p := r.actors[name]; p != nil {
			ps = append(ps, p)
		}
	}
	r.mu.RUnlock()
	return ps
}

// 结束所有注册的actor并等待
func (r *Registry) TerminateAll(ctx context.Context) {
	wg := xcommon.WaitGroup{}
	for _, p := range r.proxies() {
		p := p
		wg.Go(ctx, func() {
			if err := p.Terminate(ctx); err != nil && !errors.Is(err, ErrDeadActor) {
				xlog.Get(ctx).Warn("Terminate actor failed", zap.String("actor", p.id), zap.Any("err", err))
			}
		})
	}
	wg.Wait()
}

func (r *Registry) rows() [][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actors))
	for name := range r.actors {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := r.actors[name]
		rows = append(rows, []string{name, p.id, p.State().String(), xcommon.ToString(p.Alive())})
	}
	return rows
}

var registryKeys = []string{"name", "id", "state", "alive"}

func (r *Registry) Format() (string, error) {
	return xcommon.FormatTable(registryKeys, r.rows())
}

func (r *Registry) Print(ctx context.Context) {
	xcommon.PrintTable(ctx, registryKeys, r.rows())
}

func Register(name string, p *Proxy) error {
	return root.Register(name, p)
}

func Lookup(name string) (*Proxy, error) {
	return root.Lookup(name)
}

func Unregister(name string) {
	root.Unregister(name)
}

func Names() []string {
	return root.Names()
}

func ClearRegistry() {
	root.Clear()
}

func TerminateAll(ctx context.Context) {
	root.TerminateAll(ctx)
}

func PrintRegistry(ctx context.Context) {
	root.Print(ctx)
}

// 所有运行中的actor
func All() []*Proxy {
	return actors.proxies()
}

// 结束所有运行中的actor
func Shutdown(ctx context.Context) {
	actors.TerminateAll(ctx)
}

func unregisterActor(p *Proxy) {
	root.unregisterActor(p)
	actors.Unregister(p.id)
}
