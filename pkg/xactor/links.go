package xactor

import (
	"context"
	"sort"

	"gocell/pkg/xmailbox"

	"github.com/pkg/errors"
)

// 链接的actor集合, 按id去重
type Links struct {
	peers map[string]*Proxy
}

func newLinks() *Links {
	return &Links{peers: make(map[string]*Proxy)}
}

func (l *Links) add(p *Proxy) {
	l.peers[p.id] = p
}

func (l *Links) remove(p *Proxy) {
	delete(l.peers, p.id)
}

func (l *Links) has(p *Proxy) bool {
	_, ok := l.peers[p.id]
	return ok
}

func (l *Links) Len() int {
	return len(l.peers)
}

func (l *Links) list() []*Proxy {
	ps := make([]*Proxy, 0, len(l.peers))
	for _, p := range l.peers {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].id < ps[j].id })
	return ps
}

// 链接握手: 独占模式下发送请求并等待响应, 超时不留下链接
func (a *Actor) linkingRequest(target *Proxy, kind LinkKind) error {
	if target == nil {
		return errors.New("link target is nil")
	}
	if target.actor == a {
		return ErrSelfLink
	}
	var err error
	a.exclusively(func() {
		if perr := target.mailbox.Push(&LinkingRequest{Actor: a.proxy, Kind: kind}); perr != nil {
			err = errors.Wrapf(ErrDeadActor, "%s %s", kind, target.id)
			return
		}
		_, rerr := a.receiveDirect(a.opts.linkTimeout, func(m interface{}) bool {
			resp, ok := m.(*LinkingResponse)
			return ok && resp.Actor.id == target.id && resp.Kind == kind
		})
		if errors.Is(rerr, xmailbox.ErrTimeout) {
			err = errors.Wrapf(ErrLinkTimeout, "%s %s after %v", kind, target.id, a.opts.linkTimeout)
			return
		}
		err = rerr
	})
	return err
}

// 监听other: other退出时自身收到ExitEvent
func Monitor(ctx context.Context, other *Proxy) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	return t.actor.linkingRequest(other, LinkKindLink)
}

func Unmonitor(ctx context.Context, other *Proxy) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	return t.actor.linkingRequest(other, LinkKindUnlink)
}

// 双向链接, 任意一方退出另一方收到ExitEvent
func Link(ctx context.Context, other *Proxy) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	if err := t.actor.linkingRequest(other, LinkKindLink); err != nil {
		return err
	}
	t.actor.links.add(other)
	return nil
}

func Unlink(ctx context.Context, other *Proxy) error {
	t, err := scope(ctx)
	if err != nil {
		return err
	}
	err = t.actor.linkingRequest(other, LinkKindUnlink)
	t.actor.links.remove(other)
	return err
}

// 当前actor链接的actor
func LinkedActors(ctx context.Context) ([]*Proxy, error) {
	t, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	return t.actor.links.list(), nil
}

// 是否正在监听other
func Monitoring(ctx context.Context, other *Proxy) (bool, error) {
	t, err := scope(ctx)
	if err != nil {
		return false, err
	}
	self := t.actor.proxy
	v, err := other.exec(ctx, func(ctx context.Context) (interface{}, error) {
		ot, err := scope(ctx)
		if err != nil {
			return false, err
		}
		return ot.actor.links.has(self), nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// 是否与other双向链接
func LinkedTo(ctx context.Context, other *Proxy) (bool, error) {
	t, err := scope(ctx)
	if err != nil {
		return false, err
	}
	if !t.actor.links.has(other) {
		return false, nil
	}
	return Monitoring(ctx, other)
}
