package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/config"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/notify"
)

// ErrNotMounted is returned by operations on a view that is not mounted.
var ErrNotMounted = errors.New("dashboard is not mounted")

const defaultLowCreditThreshold = 10

// Options wires a Dashboard.
type Options struct {
	Service     Service
	Credentials auth.Provider
	Notifier    notify.Sink
	Confirmer   Confirmer
	Observer    Observer

	PreviewDebounce    time.Duration
	LowCreditThreshold int
	StalePolicy        string
	PageSize           int
	View               ViewOptions

	// OnChange is called with a new version number after every visible
	// state change.
	OnChange func(version uint64)
}

// OptionsFromConfig fills the tunables from the [engine] and [view]
// sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PreviewDebounce:    cfg.Engine.PreviewDebounce.Duration,
		LowCreditThreshold: cfg.Engine.LowCreditThreshold,
		StalePolicy:        cfg.Engine.StalePolicy,
		PageSize:           cfg.Engine.PageSize,
		View: ViewOptions{
			Mode:        ViewMode(cfg.View.Mode),
			CardHeight:  cfg.View.CardHeight,
			RowHeight:   cfg.View.RowHeight,
			CardColumns: cfg.View.CardColumns,
			Overscan:    cfg.View.Overscan,
		},
	}
}

// Dashboard is one hosting view: filters, preview, locations, usage, search,
// results, view mode and exports sharing a single mount lifecycle.
type Dashboard struct {
	Filters   *FilterState
	Preview   *PreviewFetcher
	Locations *LocationResolver
	Usage     *UsageGuard
	Search    *Coordinator
	Results   *ResultStore
	View      *ViewController
	Exports   *ExportDispatcher

	lc     *lifecycle
	logger *log.Logger

	mu    sync.Mutex
	unsub func()
}

func New(opts Options) (*Dashboard, error) {
	if opts.Service == nil {
		return nil, errors.New("engine: service is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("engine: credential provider is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.StalePolicy == "" {
		opts.StalePolicy = StaleCancel
	}
	if opts.LowCreditThreshold == 0 {
		opts.LowCreditThreshold = defaultLowCreditThreshold
	}

	lc := newLifecycle(false)
	lc.onChange = opts.OnChange

	filters := NewFilterState()
	store := NewResultStore()
	guard := newUsageGuard(opts.Service, lc, opts.LowCreditThreshold, opts.Confirmer, opts.Observer)

	d := &Dashboard{
		Filters:   filters,
		Preview:   newPreviewFetcher(opts.Service, filters, lc, opts.PreviewDebounce, opts.StalePolicy, opts.Observer),
		Locations: newLocationResolver(opts.Service, filters, lc, opts.StalePolicy, opts.Observer),
		Usage:     guard,
		Results:   store,
		View:      NewViewController(store, opts.View),
		Exports:   newExportDispatcher(opts.Service, filters, store, opts.Notifier, lc, opts.Observer),
		lc:        lc,
		logger:    log.ForService("dashboard"),
	}
	d.Search = &Coordinator{
		svc:     opts.Service,
		creds:   opts.Credentials,
		filters: filters,
		guard:   guard,
		store:   store,
		notes:   opts.Notifier,
		lc:      lc,
		perPage: opts.PageSize,
		obs:     opts.Observer,
		logger:  log.ForService("search"),
		gen:     newGeneration(opts.StalePolicy),
	}
	return d, nil
}

// Mount starts the view: it subscribes to filter changes and loads usage,
// countries and popular countries concurrently. Load failures are logged
// and leave the corresponding data empty.
func (d *Dashboard) Mount(ctx context.Context) error {
	if err := d.lc.start(); err != nil {
		return err
	}
	d.mu.Lock()
	if d.unsub == nil {
		d.unsub = d.Filters.Subscribe(d.filtersChanged)
	}
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := d.Usage.Refresh(gctx); err != nil {
			d.logger.Warnf("usage unavailable: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		_ = d.Locations.LoadCountries(gctx)
		return nil
	})
	g.Go(func() error {
		_ = d.Locations.LoadPopularCountries(gctx)
		return nil
	})
	if country := d.Filters.Snapshot().Country(); country != "" {
		if load, err := d.Locations.beginCities(gctx, country); err == nil {
			g.Go(func() error {
				_ = load()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	d.logger.Debugf("mounted")
	return ctx.Err()
}

// Unmount stops the view for good. Outstanding requests are cancelled and
// their results, if they still arrive, are dropped.
func (d *Dashboard) Unmount() {
	d.lc.stop()
	d.mu.Lock()
	if d.unsub != nil {
		d.unsub()
		d.unsub = nil
	}
	d.mu.Unlock()
	d.Preview.cancel()
	d.Search.cancel()
	d.Locations.gen.invalidate()
	d.logger.Debugf("unmounted")
}

// Tune applies new engine tunables to a live view. Requests already in
// flight keep the values they started with.
func (d *Dashboard) Tune(cfg *config.Config) {
	d.Preview.SetDelay(cfg.Engine.PreviewDebounce.Duration)
	d.Usage.SetThreshold(cfg.Engine.LowCreditThreshold)
	d.logger.Infof("engine tunables updated: preview_debounce=%s low_credit_threshold=%d",
		cfg.Engine.PreviewDebounce, cfg.Engine.LowCreditThreshold)
}

// Mounted reports whether the view is live.
func (d *Dashboard) Mounted() bool {
	return d.lc.alive()
}

// Version increases with every visible state change.
func (d *Dashboard) Version() uint64 {
	return d.lc.version.Load()
}

func (d *Dashboard) filtersChanged(sel leads.FilterSelection, changed Change) {
	d.Preview.Schedule()
	if changed.Has(ChangeCountry) {
		if load, err := d.Locations.beginCities(d.lc.background(), sel.Country()); err == nil {
			go func() { _ = load() }()
		}
	}
	d.lc.changed()
}

// State is a consistent read model of the whole view.
type State struct {
	Version          uint64                      `json:"version"`
	Mounted          bool                        `json:"mounted"`
	Filters          leads.FilterFields          `json:"filters"`
	Preview          PreviewState                `json:"preview"`
	Countries        []string                    `json:"countries"`
	PopularCountries []string                    `json:"popular_countries"`
	Cities           []string                    `json:"cities"`
	LoadingCities    bool                        `json:"loading_cities"`
	Usage            *leads.UsageSnapshot        `json:"usage,omitempty"`
	Decision         Decision                    `json:"decision"`
	Searching        bool                        `json:"searching"`
	Results          *leads.SearchResultPage     `json:"results,omitempty"`
	ResultsEpoch     uint64                      `json:"results_epoch"`
	Empty            EmptyState                  `json:"empty"`
	Controls         Controls                    `json:"controls"`
	View             ViewMode                    `json:"view"`
	Window           Window                      `json:"window"`
	ExportEnabled    map[leads.ExportFormat]bool `json:"export_enabled"`
}

func (d *Dashboard) State() State {
	sel := d.Filters.Snapshot()
	cities, citiesFor := d.Locations.Cities()
	if citiesFor != sel.Country() {
		cities = nil
	}
	st := State{
		Version:          d.Version(),
		Mounted:          d.Mounted(),
		Filters:          sel.Fields(),
		Preview:          d.Preview.State(),
		Countries:        d.Locations.Countries(),
		PopularCountries: d.Locations.PopularCountries(),
		Cities:           cities,
		LoadingCities:    d.Locations.LoadingCities(),
		Decision:         d.Usage.Check(),
		Searching:        d.Search.Searching(),
		ResultsEpoch:     d.Results.Epoch(),
		Empty:            d.Results.EmptyState(),
		Controls:         d.Results.Controls(),
		View:             d.View.Mode(),
		ExportEnabled: map[leads.ExportFormat]bool{
			leads.FormatCSV:   d.Exports.Enabled(leads.FormatCSV),
			leads.FormatExcel: d.Exports.Enabled(leads.FormatExcel),
		},
	}
	if usage, ok := d.Usage.Snapshot(); ok {
		st.Usage = &usage
	}
	if page, ok := d.Results.Page(); ok {
		st.Results = &page
	}
	st.Window, _ = d.View.Visible()
	return st
}
