package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/notify"
)

var (
	// ErrStale is returned to a search that was superseded by a newer one.
	ErrStale = errors.New("request superseded by a newer one")
	// ErrNoSuchPage is returned by NextPage and PrevPage at either end.
	ErrNoSuchPage = errors.New("no such page")
)

// Coordinator runs paginated searches. The newest search always wins: an
// older response, successful or not, never reaches the store or the user.
type Coordinator struct {
	svc     Service
	creds   auth.Provider
	filters *FilterState
	guard   *UsageGuard
	store   *ResultStore
	notes   notify.Sink
	lc      *lifecycle
	perPage int
	obs     Observer
	logger  *log.Logger
	gen     *generation
	submit  singleflight.Group

	mu        sync.Mutex
	searching bool
	owner     uint64
}

// Search fetches page for filters. It fails with an AuthenticationRequired
// SearchError without any request when no credential is available.
func (c *Coordinator) Search(ctx context.Context, filters leads.FilterSelection, page int) (leads.SearchResultPage, error) {
	if !c.lc.alive() {
		return leads.SearchResultPage{}, ErrNotMounted
	}
	if page < 1 {
		page = 1
	}
	if _, err := c.creds.Token(); err != nil {
		se := &SearchError{Kind: AuthenticationRequired, Err: err}
		c.notes.Toast(se.Notification())
		c.obs.RequestFinished(RequestSearch, OutcomeFailed)
		return leads.SearchResultPage{}, se
	}

	ctx, done := c.lc.bind(ctx)
	defer done()
	ctx, id := c.gen.begin(ctx)
	c.setSearching(id)
	defer c.release(id)

	logger := c.logger.With("generation", id)

	if err := c.guard.Gate(ctx); err != nil {
		if !c.gen.current(id) || !c.lc.alive() {
			c.obs.RequestFinished(RequestSearch, OutcomeStale)
			return leads.SearchResultPage{}, ErrStale
		}
		c.obs.RequestFinished(RequestSearch, OutcomeDeclined)
		if errors.Is(err, ErrSearchDeclined) {
			logger.Infof("search declined at credit confirmation")
			return leads.SearchResultPage{}, err
		}
		return leads.SearchResultPage{}, fmt.Errorf("confirming search: %w", err)
	}

	result, err := c.svc.Search(ctx, filters, page, c.perPage)

	if err != nil {
		var se *SearchError
		current := c.gen.commit(id, c.lc, func() {
			se = Classify(err)
		})
		if !current {
			logger.Debugf("discarding stale search failure: %v", err)
			c.obs.RequestFinished(RequestSearch, OutcomeStale)
			return leads.SearchResultPage{}, ErrStale
		}
		logger.Warnf("search failed (%s): %v", se.Kind, err)
		c.notes.Toast(se.Notification())
		c.obs.RequestFinished(RequestSearch, OutcomeFailed)
		return leads.SearchResultPage{}, se
	}

	if result.Pagination.Page == 0 {
		result.Pagination.Page = page
	}
	committed := c.gen.commit(id, c.lc, func() {
		c.store.Replace(filters, result)
	})
	if !committed {
		logger.Debugf("discarding stale search page %d", page)
		c.obs.RequestFinished(RequestSearch, OutcomeStale)
		return leads.SearchResultPage{}, ErrStale
	}

	logger.Debugf("committed page %d/%d (%d leads)", result.Pagination.Page, result.Pagination.TotalPages, len(result.Leads))
	c.obs.RequestFinished(RequestSearch, OutcomeCommitted)
	c.obs.SearchCommitted(filters, result)
	c.lc.changed()

	// credits moved; refresh in the background
	go func() {
		_, _ = c.guard.Refresh(c.lc.background())
	}()
	return result, nil
}

// Submit runs a first-page search with the current filters. Concurrent
// submits share one request.
func (c *Coordinator) Submit(ctx context.Context) (leads.SearchResultPage, error) {
	v, err, _ := c.submit.Do("submit", func() (any, error) {
		return c.Search(ctx, c.filters.Snapshot(), 1)
	})
	if err != nil {
		return leads.SearchResultPage{}, err
	}
	return v.(leads.SearchResultPage), nil
}

// GoToPage searches page with the filters of the results on screen, or the
// current filters before the first search.
func (c *Coordinator) GoToPage(ctx context.Context, page int) (leads.SearchResultPage, error) {
	filters := c.filters.Snapshot()
	if _, ok := c.store.Page(); ok {
		filters = c.store.Filters()
	}
	return c.Search(ctx, filters, page)
}

func (c *Coordinator) NextPage(ctx context.Context) (leads.SearchResultPage, error) {
	ctrl := c.store.Controls()
	if !ctrl.HasNext {
		return leads.SearchResultPage{}, ErrNoSuchPage
	}
	return c.GoToPage(ctx, ctrl.Page+1)
}

func (c *Coordinator) PrevPage(ctx context.Context) (leads.SearchResultPage, error) {
	ctrl := c.store.Controls()
	if !ctrl.HasPrev || ctrl.Page <= 1 {
		return leads.SearchResultPage{}, ErrNoSuchPage
	}
	return c.GoToPage(ctx, ctrl.Page-1)
}

// Searching reports whether a search is in flight.
func (c *Coordinator) Searching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searching
}

func (c *Coordinator) cancel() {
	c.gen.invalidate()
}

// setSearching hands the loading flag to id. Ids come from the generation
// counter, so an older request that gets here late never takes the flag
// back from a newer one, even one that has already released it.
func (c *Coordinator) setSearching(id uint64) {
	c.mu.Lock()
	taken := id > c.owner
	if taken {
		c.searching = true
		c.owner = id
	}
	c.mu.Unlock()
	if taken {
		c.lc.changed()
	}
}

// release clears the loading flag if id still owns it.
func (c *Coordinator) release(id uint64) {
	c.mu.Lock()
	owned := c.owner == id
	if owned {
		c.searching = false
	}
	c.mu.Unlock()
	if owned {
		c.lc.changed()
	}
}
