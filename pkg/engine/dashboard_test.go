package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/config"
	"github.com/rubiojr/prospect/pkg/leads"
)

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Credentials: auth.Static("x")}); err == nil {
		t.Error("expected error without a service")
	}
	if _, err := New(Options{Service: newFakeService()}); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestMountLoadsConcurrently(t *testing.T) {
	svc := newFakeService()
	var inFlight, peak atomic.Int32
	track := func() func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return func() { inFlight.Add(-1) }
	}
	svc.usageFn = func(context.Context) (leads.UsageSnapshot, error) {
		defer track()()
		return leads.UsageSnapshot{UsageLimit: 100, Remaining: 50}, nil
	}
	svc.countriesFn = func(context.Context) ([]string, error) {
		defer track()()
		return []string{"US", "GB"}, nil
	}
	svc.popularFn = func(context.Context) ([]string, error) {
		defer track()()
		return []string{"US"}, nil
	}
	env := newTestEnv(t, svc, nil)

	for _, name := range []string{"usage", "countries", "popular"} {
		if n := svc.count(name); n != 1 {
			t.Errorf("%s calls = %d, want 1", name, n)
		}
	}
	if peak.Load() < 2 {
		t.Errorf("mount loads ran sequentially (peak %d)", peak.Load())
	}
	st := env.d.State()
	if len(st.Countries) != 2 || len(st.PopularCountries) != 1 || st.Usage == nil || st.Usage.Remaining != 50 {
		t.Errorf("state after mount = %+v", st)
	}
	if !st.Mounted {
		t.Error("state should report mounted")
	}
}

func TestOperationsBeforeMount(t *testing.T) {
	d, err := New(Options{Service: newFakeService(), Credentials: auth.Static("x")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Search.Submit(context.Background()); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Submit before mount: %v", err)
	}
	if _, err := d.Usage.Refresh(context.Background()); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Refresh before mount: %v", err)
	}
}

func TestUnmountDropsLateResults(t *testing.T) {
	svc := newFakeService()
	slow := newGate()
	svc.searchFn = func(ctx context.Context, c searchCall) (leads.SearchResultPage, error) {
		<-slow.release
		return onePage(3, 3, 1, 1), nil
	}
	svc.previewFn = func(ctx context.Context, f leads.FilterSelection) (leads.PreviewEstimate, error) {
		return leads.PreviewEstimate{EstimatedCount: 9}, nil
	}
	env := newTestEnv(t, svc, func(o *Options) {
		o.StalePolicy = StaleCompare
		o.PreviewDebounce = 100 * time.Millisecond
	})
	env.d.Filters.SetCountry("US")

	errc := make(chan error, 1)
	go func() {
		_, err := env.d.Search.Submit(context.Background())
		errc <- err
	}()
	waitFor(t, "search in flight", env.d.Search.Searching)

	env.d.Unmount()
	close(slow.release)

	select {
	case err := <-errc:
		if !errors.Is(err, ErrStale) {
			t.Errorf("search after unmount returned %v, want ErrStale", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search never returned")
	}
	if env.d.Results.EmptyState() != Idle {
		t.Error("no commit may happen after unmount")
	}
	time.Sleep(150 * time.Millisecond)
	if env.d.Preview.State().Estimate != nil {
		t.Error("pending preview must not commit after unmount")
	}
	if env.d.Mounted() {
		t.Error("dashboard should report unmounted")
	}

	if _, err := env.d.Search.Submit(context.Background()); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Submit after unmount: %v", err)
	}
	if err := env.d.Mount(context.Background()); err == nil {
		t.Error("remounting an unmounted dashboard should fail")
	}
}

func TestUnmountCancelsInFlightRequests(t *testing.T) {
	svc := newFakeService()
	cancelled := make(chan struct{})
	svc.searchFn = func(ctx context.Context, c searchCall) (leads.SearchResultPage, error) {
		<-ctx.Done()
		close(cancelled)
		return leads.SearchResultPage{}, ctx.Err()
	}
	env := newTestEnv(t, svc, func(o *Options) { o.StalePolicy = StaleCompare })
	env.d.Filters.SetCountry("US")

	go func() { _, _ = env.d.Search.Submit(context.Background()) }()
	waitFor(t, "search in flight", func() bool { return svc.count("search") == 1 })
	env.d.Unmount()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("unmount did not cancel the request")
	}
	if env.notes.Len() != 0 {
		t.Errorf("a cancelled request must not notify, got %+v", env.notes.All())
	}
}

func TestOnChangeAndStateJSON(t *testing.T) {
	svc := newFakeService()
	svc.searchFn = func(context.Context, searchCall) (leads.SearchResultPage, error) {
		return onePage(2, 2, 1, 1), nil
	}
	var versions atomic.Uint64
	env := newTestEnv(t, svc, func(o *Options) {
		o.OnChange = func(v uint64) { versions.Store(v) }
	})
	before := versions.Load()
	env.d.Filters.SetIndustries([]string{"tattoo"})
	if _, err := env.d.Search.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if versions.Load() <= before {
		t.Error("OnChange should be called on state changes")
	}

	data, err := json.Marshal(env.d.State())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["empty"] != "results" || decoded["view"] != "cards" || decoded["decision"] != "proceed" {
		t.Errorf("state json = %s", data)
	}
	exports, _ := decoded["export_enabled"].(map[string]any)
	if exports["csv"] != true {
		t.Errorf("export_enabled = %v", decoded["export_enabled"])
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Engine.StalePolicy = config.StaleCompare
	cfg.View.Mode = "table"
	opts := OptionsFromConfig(cfg)
	if opts.PreviewDebounce != 500*time.Millisecond || opts.LowCreditThreshold != 10 || opts.PageSize != 25 {
		t.Errorf("engine options = %+v", opts)
	}
	if opts.StalePolicy != StaleCompare || opts.View.Mode != ViewTable || opts.View.CardColumns != 2 {
		t.Errorf("view options = %+v", opts.View)
	}
}

func TestObserverSeesOutcomes(t *testing.T) {
	svc := newFakeService()
	svc.searchFn = func(context.Context, searchCall) (leads.SearchResultPage, error) {
		return onePage(1, 1, 1, 1), nil
	}
	obs := &recordingObserver{}
	env := newTestEnv(t, svc, func(o *Options) { o.Observer = obs })
	env.d.Filters.SetCountry("US")
	if _, err := env.d.Search.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, kind := range []RequestKind{RequestUsage, RequestCountries, RequestPopularCountries, RequestSearch} {
		if !obs.has(kind, OutcomeCommitted) {
			t.Errorf("missing committed %s", kind)
		}
	}
}

func TestTuneAppliesToLiveView(t *testing.T) {
	svc := newFakeService()
	svc.usageFn = func(context.Context) (leads.UsageSnapshot, error) {
		return leads.UsageSnapshot{UsageLimit: 100, Remaining: 30}, nil
	}
	env := newTestEnv(t, svc, nil)
	if d := env.d.Usage.Check(); d != Proceed {
		t.Fatalf("decision with default threshold = %v", d)
	}

	cfg := config.GetDefaultConfig()
	cfg.Engine.LowCreditThreshold = 50
	cfg.Engine.PreviewDebounce = config.Duration{Duration: time.Millisecond}
	env.d.Tune(cfg)

	if d := env.d.Usage.Check(); d != NeedsConfirmation {
		t.Errorf("decision after tune = %v, want %v", d, NeedsConfirmation)
	}
	env.d.Filters.SetCountry("US")
	waitFor(t, "fast preview", func() bool { return env.d.Preview.State().Estimate != nil })
}
