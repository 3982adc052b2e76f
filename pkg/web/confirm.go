package web

import (
	"context"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
)

// Confirmer asks the browser to confirm a search on low credits. A request
// blocks until POST /api/confirm answers it or its search is cancelled. A
// newer request declines the one still waiting.
type Confirmer struct {
	onPending func(leads.UsageSnapshot)

	mu      sync.Mutex
	pending *pendingConfirm
}

type pendingConfirm struct {
	usage  leads.UsageSnapshot
	answer chan bool
}

// NewConfirmer returns a Confirmer that calls onPending, if set, whenever a
// confirmation starts waiting.
func NewConfirmer(onPending func(leads.UsageSnapshot)) *Confirmer {
	return &Confirmer{onPending: onPending}
}

func (c *Confirmer) ConfirmLowCredit(ctx context.Context, usage leads.UsageSnapshot) (bool, error) {
	p := &pendingConfirm{usage: usage, answer: make(chan bool, 1)}

	c.mu.Lock()
	if c.pending != nil {
		c.pending.answer <- false
	}
	c.pending = p
	c.mu.Unlock()

	if c.onPending != nil {
		c.onPending(usage)
	}

	select {
	case ok := <-p.answer:
		return ok, nil
	case <-ctx.Done():
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
		}
		c.mu.Unlock()
		return false, ctx.Err()
	}
}

// Pending returns the usage snapshot of the confirmation waiting for an
// answer, if any.
func (c *Confirmer) Pending() (leads.UsageSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return leads.UsageSnapshot{}, false
	}
	return c.pending.usage, true
}

// Answer resolves the waiting confirmation. It reports false when nothing
// was waiting.
func (c *Confirmer) Answer(ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending.answer <- ok
	c.pending = nil
	return true
}
