package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// generation is a per-operation request counter. Each new request supersedes
// every earlier one of the same kind; only the request holding the current
// id may commit.
type generation struct {
	cancelStale bool

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func newGeneration(policy string) *generation {
	return &generation{cancelStale: policy != StaleCompare}
}

// begin starts a new request. Under the cancel policy the previous request's
// context is cancelled and the returned context is cancelled by the next one.
func (g *generation) begin(ctx context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	if g.cancelStale {
		if g.cancel != nil {
			g.cancel()
		}
		ctx, g.cancel = context.WithCancel(ctx)
	}
	return ctx, g.seq
}

func (g *generation) current(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return id == g.seq
}

// invalidate makes every outstanding request stale and cancels the newest.
func (g *generation) invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// commit runs fn only if id is still current and lc is alive. No newer
// request can begin while fn runs.
func (g *generation) commit(id uint64, lc *lifecycle, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id != g.seq || !lc.alive() {
		return false
	}
	fn()
	return true
}

var errUnmounted = errors.New("dashboard was unmounted")

// lifecycle tracks whether the hosting view is mounted. Once stopped it never
// comes back: every context bound to it is cancelled and commits are refused.
type lifecycle struct {
	mu      sync.RWMutex
	started bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc

	version  atomic.Uint64
	onChange func(uint64)
}

func newLifecycle(started bool) *lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &lifecycle{started: started, ctx: ctx, cancel: cancel}
}

func (l *lifecycle) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return errUnmounted
	}
	l.started = true
	return nil
}

func (l *lifecycle) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	l.cancel()
}

func (l *lifecycle) alive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started && !l.stopped
}

// bind derives a context that is also cancelled when the view goes away.
func (l *lifecycle) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// background is the context for fire-and-forget work owned by the view.
func (l *lifecycle) background() context.Context {
	return l.ctx
}

// changed bumps the state version and tells the host about it.
func (l *lifecycle) changed() {
	v := l.version.Add(1)
	if l.onChange != nil && l.alive() {
		l.onChange(v)
	}
}
