package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
)

// PreviewState is what the preview panel shows.
type PreviewState struct {
	Estimate    *leads.PreviewEstimate `json:"estimate,omitempty"`
	Loading     bool                   `json:"loading"`
	Unavailable bool                   `json:"unavailable"`
}

// PreviewFetcher asks for a volume estimate once the filters have been quiet
// for the debounce delay. A newer filter change always wins over an older
// estimate, even one already on the wire.
type PreviewFetcher struct {
	svc     Service
	filters *FilterState
	lc      *lifecycle
	delay   time.Duration
	obs     Observer
	logger  *log.Logger
	gen     *generation

	mu        sync.Mutex
	timer     *time.Timer
	pending   func()
	pendingID uint64
	state     PreviewState
}

func newPreviewFetcher(svc Service, filters *FilterState, lc *lifecycle, delay time.Duration, policy string, obs Observer) *PreviewFetcher {
	return &PreviewFetcher{
		svc:     svc,
		filters: filters,
		lc:      lc,
		delay:   delay,
		obs:     obs,
		logger:  log.ForService("preview"),
		gen:     newGeneration(policy),
	}
}

// State returns the current preview panel state.
func (p *PreviewFetcher) State() PreviewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state
	if st.Estimate != nil {
		est := *st.Estimate
		st.Estimate = &est
	}
	return st
}

// Schedule restarts the debounce window. Any pending or in-flight preview
// is superseded. An empty selection clears the estimate right away.
func (p *PreviewFetcher) Schedule() {
	if !p.lc.alive() {
		return
	}
	ctx, id := p.gen.begin(p.lc.background())

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		p.pending = nil
	}
	if p.filters.Snapshot().Empty() {
		p.state = PreviewState{}
		p.mu.Unlock()
		p.lc.changed()
		return
	}
	fire := func() { p.fire(ctx, id) }
	p.pending = fire
	p.pendingID = id
	p.timer = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		if p.pending == nil || p.pendingID != id {
			p.mu.Unlock()
			return
		}
		p.pending = nil
		p.timer = nil
		p.mu.Unlock()
		fire()
	})
	p.mu.Unlock()
}

// Flush fires a pending preview now and waits for it. It reports whether a
// preview was pending.
func (p *PreviewFetcher) Flush() bool {
	p.mu.Lock()
	fire := p.pending
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = nil
	p.pending = nil
	p.mu.Unlock()

	if fire == nil {
		return false
	}
	fire()
	return true
}

// SetDelay changes the debounce delay for later schedules.
func (p *PreviewFetcher) SetDelay(d time.Duration) {
	p.mu.Lock()
	p.delay = d
	p.mu.Unlock()
}

// cancel drops any pending or in-flight preview.
func (p *PreviewFetcher) cancel() {
	p.gen.invalidate()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = nil
	p.pending = nil
}

func (p *PreviewFetcher) fire(ctx context.Context, id uint64) {
	snap := p.filters.Snapshot()
	if snap.Empty() {
		p.gen.commit(id, p.lc, func() { p.setState(PreviewState{}) })
		return
	}
	if !p.gen.commit(id, p.lc, func() { p.setLoading() }) {
		return
	}
	p.lc.changed()

	est, err := p.svc.Preview(ctx, snap)

	var committed bool
	if err != nil {
		committed = p.gen.commit(id, p.lc, func() {
			p.setState(PreviewState{Unavailable: true})
		})
		if committed {
			p.logger.Debugf("no preview available: %v", err)
			p.obs.RequestFinished(RequestPreview, OutcomeFailed)
		}
	} else {
		committed = p.gen.commit(id, p.lc, func() {
			p.setState(PreviewState{Estimate: &est})
		})
		if committed {
			p.obs.RequestFinished(RequestPreview, OutcomeCommitted)
		}
	}
	if !committed {
		p.logger.With("generation", id).Debugf("discarding stale preview")
		p.obs.RequestFinished(RequestPreview, OutcomeStale)
		return
	}
	p.lc.changed()
}

func (p *PreviewFetcher) setLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Loading = true
}

func (p *PreviewFetcher) setState(st PreviewState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = st
}
