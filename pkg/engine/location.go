package engine

import (
	"context"
	"slices"
	"sync"

	"github.com/rubiojr/prospect/pkg/log"
)

// LocationResolver loads country and city option lists. Failures leave the
// previous lists in place and never block filter editing.
type LocationResolver struct {
	svc     Service
	filters *FilterState
	lc      *lifecycle
	obs     Observer
	logger  *log.Logger
	gen     *generation

	mu            sync.RWMutex
	countries     []string
	popular       []string
	cities        []string
	citiesCountry string
	loadingCities bool
}

func newLocationResolver(svc Service, filters *FilterState, lc *lifecycle, policy string, obs Observer) *LocationResolver {
	return &LocationResolver{
		svc:     svc,
		filters: filters,
		lc:      lc,
		obs:     obs,
		logger:  log.ForService("locations"),
		gen:     newGeneration(policy),
	}
}

func (r *LocationResolver) LoadCountries(ctx context.Context) error {
	return r.loadList(ctx, RequestCountries, r.svc.Countries, &r.countries)
}

func (r *LocationResolver) LoadPopularCountries(ctx context.Context) error {
	return r.loadList(ctx, RequestPopularCountries, r.svc.PopularCountries, &r.popular)
}

func (r *LocationResolver) loadList(ctx context.Context, kind RequestKind, fetch func(context.Context) ([]string, error), dst *[]string) error {
	if !r.lc.alive() {
		return ErrNotMounted
	}
	ctx, done := r.lc.bind(ctx)
	defer done()

	list, err := fetch(ctx)
	if err != nil {
		r.logger.Warnf("loading %s: %v", kind, err)
		r.obs.RequestFinished(kind, OutcomeFailed)
		return err
	}
	if !r.lc.alive() {
		r.obs.RequestFinished(kind, OutcomeStale)
		return ErrNotMounted
	}
	r.mu.Lock()
	*dst = list
	r.mu.Unlock()
	r.obs.RequestFinished(kind, OutcomeCommitted)
	r.lc.changed()
	return nil
}

// LoadCities replaces the city options with those of country. Only the
// newest call commits. An empty country clears the list without a request.
func (r *LocationResolver) LoadCities(ctx context.Context, country string) error {
	load, err := r.beginCities(ctx, country)
	if err != nil {
		return err
	}
	return load()
}

// beginCities supersedes every earlier city load and returns the fetch for
// country. The generation is taken by the caller's goroutine so request
// order follows the order of country edits, whatever goroutine runs load.
func (r *LocationResolver) beginCities(ctx context.Context, country string) (load func() error, err error) {
	if !r.lc.alive() {
		return nil, ErrNotMounted
	}
	ctx, done := r.lc.bind(ctx)
	ctx, id := r.gen.begin(ctx)
	if country != "" {
		r.mu.Lock()
		r.loadingCities = true
		r.mu.Unlock()
	}
	return func() error {
		defer done()
		return r.fetchCities(ctx, id, country)
	}, nil
}

func (r *LocationResolver) fetchCities(ctx context.Context, id uint64, country string) error {
	if country == "" {
		r.gen.commit(id, r.lc, func() {
			r.mu.Lock()
			r.cities, r.citiesCountry, r.loadingCities = nil, "", false
			r.mu.Unlock()
			r.filters.clearCityOptions()
		})
		r.lc.changed()
		return nil
	}

	cities, err := r.svc.Cities(ctx, country)

	if err != nil {
		current := r.gen.commit(id, r.lc, func() {
			r.mu.Lock()
			r.loadingCities = false
			r.mu.Unlock()
		})
		if !current {
			r.obs.RequestFinished(RequestCities, OutcomeStale)
			return ErrStale
		}
		r.logger.With("country", country).Warnf("loading cities: %v", err)
		r.obs.RequestFinished(RequestCities, OutcomeFailed)
		r.lc.changed()
		return err
	}

	committed := r.gen.commit(id, r.lc, func() {
		r.mu.Lock()
		r.cities, r.citiesCountry, r.loadingCities = cities, country, false
		r.mu.Unlock()
	})
	if !committed {
		r.logger.With("country", country).Debugf("discarding stale city list")
		r.obs.RequestFinished(RequestCities, OutcomeStale)
		return ErrStale
	}
	// Outside the generation lock: this may notify filter listeners which
	// start the next city load.
	r.filters.setCityOptions(country, cities)
	r.obs.RequestFinished(RequestCities, OutcomeCommitted)
	r.lc.changed()
	return nil
}

func (r *LocationResolver) Countries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.countries)
}

func (r *LocationResolver) PopularCountries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.popular)
}

// Cities returns the loaded city options and the country they belong to.
func (r *LocationResolver) Cities() ([]string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.cities), r.citiesCountry
}

func (r *LocationResolver) LoadingCities() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadingCities
}
