package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
)

// ErrSearchDeclined is returned when the user declines a low-credit search.
var ErrSearchDeclined = errors.New("search cancelled at credit confirmation")

// Decision is the usage guard's verdict on a search.
type Decision int

const (
	Proceed Decision = iota
	NeedsConfirmation
)

func (d Decision) String() string {
	if d == NeedsConfirmation {
		return "needs_confirmation"
	}
	return "proceed"
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// CheckBeforeSearch decides whether a search may run without asking. A nil
// snapshot (usage never loaded) and unlimited plans proceed. A negative
// threshold never asks.
func CheckBeforeSearch(usage *leads.UsageSnapshot, threshold int) Decision {
	if usage == nil || usage.Unlimited() || threshold < 0 {
		return Proceed
	}
	if usage.Remaining <= threshold {
		return NeedsConfirmation
	}
	return Proceed
}

// Confirmer asks the user whether to spend credits while running low.
type Confirmer interface {
	ConfirmLowCredit(ctx context.Context, usage leads.UsageSnapshot) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, usage leads.UsageSnapshot) (bool, error)

func (f ConfirmFunc) ConfirmLowCredit(ctx context.Context, usage leads.UsageSnapshot) (bool, error) {
	return f(ctx, usage)
}

// AlwaysConfirm accepts every low-credit search.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, leads.UsageSnapshot) (bool, error) {
	return true, nil
})

// UsageGuard keeps the last known usage snapshot and gates searches on it.
// It is advisory; the service enforces the real quota.
type UsageGuard struct {
	svc       Service
	lc        *lifecycle
	threshold int
	confirmer Confirmer
	obs       Observer
	logger    *log.Logger

	mu    sync.RWMutex
	usage *leads.UsageSnapshot
}

func newUsageGuard(svc Service, lc *lifecycle, threshold int, confirmer Confirmer, obs Observer) *UsageGuard {
	return &UsageGuard{
		svc:       svc,
		lc:        lc,
		threshold: threshold,
		confirmer: confirmer,
		obs:       obs,
		logger:    log.ForService("usage"),
	}
}

// Refresh reloads the usage snapshot. On failure the previous one is kept.
func (g *UsageGuard) Refresh(ctx context.Context) (leads.UsageSnapshot, error) {
	if !g.lc.alive() {
		return leads.UsageSnapshot{}, ErrNotMounted
	}
	ctx, done := g.lc.bind(ctx)
	defer done()

	usage, err := g.svc.Usage(ctx)
	if err != nil {
		g.logger.Debugf("refreshing usage: %v", err)
		g.obs.RequestFinished(RequestUsage, OutcomeFailed)
		return leads.UsageSnapshot{}, err
	}
	if !g.lc.alive() {
		g.obs.RequestFinished(RequestUsage, OutcomeStale)
		return leads.UsageSnapshot{}, ErrNotMounted
	}
	g.mu.Lock()
	g.usage = &usage
	g.mu.Unlock()
	g.obs.RequestFinished(RequestUsage, OutcomeCommitted)
	g.lc.changed()
	return usage, nil
}

// Snapshot returns the last known usage, if any.
func (g *UsageGuard) Snapshot() (leads.UsageSnapshot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.usage == nil {
		return leads.UsageSnapshot{}, false
	}
	return *g.usage, true
}

// Check applies CheckBeforeSearch to the last known snapshot.
func (g *UsageGuard) Check() Decision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return CheckBeforeSearch(g.usage, g.threshold)
}

// SetThreshold changes the low-credit threshold. Zero means the default
// of 10; a negative threshold never asks.
func (g *UsageGuard) SetThreshold(n int) {
	if n == 0 {
		n = defaultLowCreditThreshold
	}
	g.mu.Lock()
	g.threshold = n
	g.mu.Unlock()
	g.lc.changed()
}

// Gate returns nil when the search may run. It asks the confirmer when
// credits are low and returns ErrSearchDeclined if the user says no or no
// confirmer is configured.
func (g *UsageGuard) Gate(ctx context.Context) error {
	if g.Check() == Proceed {
		return nil
	}
	usage, _ := g.Snapshot()
	if g.confirmer == nil {
		return ErrSearchDeclined
	}
	ok, err := g.confirmer.ConfirmLowCredit(ctx, usage)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSearchDeclined
	}
	return nil
}
