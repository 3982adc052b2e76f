package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/notify"
)

type searchCall struct {
	filters leads.FilterSelection
	page    int
	perPage int
}

// fakeService records calls and delegates to optional per-method funcs.
type fakeService struct {
	mu       sync.Mutex
	calls    map[string]int
	searches []searchCall
	previews []leads.FilterSelection
	cities   []string
	exports  []leads.ExportJob

	searchFn    func(ctx context.Context, call searchCall) (leads.SearchResultPage, error)
	previewFn   func(ctx context.Context, f leads.FilterSelection) (leads.PreviewEstimate, error)
	usageFn     func(ctx context.Context) (leads.UsageSnapshot, error)
	countriesFn func(ctx context.Context) ([]string, error)
	popularFn   func(ctx context.Context) ([]string, error)
	citiesFn    func(ctx context.Context, country string) ([]string, error)
	exportFn    func(ctx context.Context, job leads.ExportJob) (string, error)
}

func newFakeService() *fakeService {
	return &fakeService{calls: make(map[string]int)}
}

func (f *fakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) Search(ctx context.Context, filters leads.FilterSelection, page, perPage int) (leads.SearchResultPage, error) {
	call := searchCall{filters: filters, page: page, perPage: perPage}
	f.mu.Lock()
	f.calls["search"]++
	f.searches = append(f.searches, call)
	f.mu.Unlock()
	if f.searchFn != nil {
		return f.searchFn(ctx, call)
	}
	return leads.SearchResultPage{}, nil
}

func (f *fakeService) Preview(ctx context.Context, filters leads.FilterSelection) (leads.PreviewEstimate, error) {
	f.mu.Lock()
	f.calls["preview"]++
	f.previews = append(f.previews, filters)
	f.mu.Unlock()
	if f.previewFn != nil {
		return f.previewFn(ctx, filters)
	}
	return leads.PreviewEstimate{EstimatedCount: 100}, nil
}

func (f *fakeService) Usage(ctx context.Context) (leads.UsageSnapshot, error) {
	f.record("usage")
	if f.usageFn != nil {
		return f.usageFn(ctx)
	}
	return leads.UsageSnapshot{UsageCount: 10, UsageLimit: 500, Remaining: 490, Tier: "pro"}, nil
}

func (f *fakeService) Countries(ctx context.Context) ([]string, error) {
	f.record("countries")
	if f.countriesFn != nil {
		return f.countriesFn(ctx)
	}
	return []string{"DE", "GB", "US"}, nil
}

func (f *fakeService) PopularCountries(ctx context.Context) ([]string, error) {
	f.record("popular")
	if f.popularFn != nil {
		return f.popularFn(ctx)
	}
	return []string{"US"}, nil
}

func (f *fakeService) Cities(ctx context.Context, country string) ([]string, error) {
	f.mu.Lock()
	f.calls["cities"]++
	f.cities = append(f.cities, country)
	f.mu.Unlock()
	if f.citiesFn != nil {
		return f.citiesFn(ctx, country)
	}
	return []string{country + "-city"}, nil
}

func (f *fakeService) CreateExport(ctx context.Context, job leads.ExportJob) (string, error) {
	f.mu.Lock()
	f.calls["export"]++
	f.exports = append(f.exports, job)
	f.mu.Unlock()
	if f.exportFn != nil {
		return f.exportFn(ctx, job)
	}
	return "exp_1", nil
}

func (f *fakeService) lastSearch() searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches[len(f.searches)-1]
}

type testEnv struct {
	svc   *fakeService
	notes *notify.Recorder
	d     *Dashboard
}

func newTestEnv(t *testing.T, svc *fakeService, mutate func(*Options)) *testEnv {
	t.Helper()
	notes := &notify.Recorder{}
	opts := Options{
		Service:         svc,
		Credentials:     auth.Static("test-token"),
		Notifier:        notes,
		Confirmer:       AlwaysConfirm,
		PreviewDebounce: 20 * time.Millisecond,
		PageSize:        25,
	}
	if mutate != nil {
		mutate(&opts)
	}
	d, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(d.Unmount)
	return &testEnv{svc: svc, notes: notes, d: d}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func makeLeads(n int) []leads.Lead {
	out := make([]leads.Lead, n)
	for i := range out {
		out[i] = leads.Lead{ID: fmt.Sprintf("l%d", i+1), Name: fmt.Sprintf("Lead %d", i+1)}
	}
	return out
}

func onePage(n, total, totalPages, page int) leads.SearchResultPage {
	return leads.SearchResultPage{
		Leads: makeLeads(n),
		Pagination: leads.Pagination{
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
			Page:       page,
		},
	}
}

// gate blocks callers until released, honouring context cancellation.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for blocked call")
	}
}

type recordingObserver struct {
	NopObserver
	mu       sync.Mutex
	outcomes map[RequestKind][]Outcome
}

func (o *recordingObserver) RequestFinished(kind RequestKind, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[RequestKind][]Outcome)
	}
	o.outcomes[kind] = append(o.outcomes[kind], outcome)
}

func (o *recordingObserver) has(kind RequestKind, outcome Outcome) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, oc := range o.outcomes[kind] {
		if oc == outcome {
			return true
		}
	}
	return false
}

func (o *recordingObserver) finished(kind RequestKind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.outcomes[kind])
}
