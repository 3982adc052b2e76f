package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/notify"
)

var (
	// ErrNothingToExport is returned when there are no results on screen.
	ErrNothingToExport = errors.New("no results to export")
	// ErrExportInFlight is returned while the same format is still submitting.
	ErrExportInFlight = errors.New("export already in progress")
)

// ExportDispatcher submits export jobs for the current filters. It shares no
// state with searches beyond the filter snapshot and the notifications.
type ExportDispatcher struct {
	svc     Service
	filters *FilterState
	store   *ResultStore
	notes   notify.Sink
	lc      *lifecycle
	obs     Observer
	logger  *log.Logger

	mu       sync.Mutex
	inflight map[leads.ExportFormat]bool
	wg       sync.WaitGroup
}

func newExportDispatcher(svc Service, filters *FilterState, store *ResultStore, notes notify.Sink, lc *lifecycle, obs Observer) *ExportDispatcher {
	return &ExportDispatcher{
		svc:      svc,
		filters:  filters,
		store:    store,
		notes:    notes,
		lc:       lc,
		obs:      obs,
		logger:   log.ForService("export"),
		inflight: make(map[leads.ExportFormat]bool),
	}
}

// Enabled reports whether format can be exported right now.
func (e *ExportDispatcher) Enabled(format leads.ExportFormat) bool {
	if !e.store.ExportEnabled() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.inflight[format]
}

// Export submits a job for the current filters and returns its id.
func (e *ExportDispatcher) Export(ctx context.Context, format leads.ExportFormat) (string, error) {
	job, err := e.acquire(format)
	if err != nil {
		return "", err
	}
	defer e.releaseFormat(format)
	return e.run(ctx, job)
}

// Dispatch is Export without waiting for the result, which is reported
// through notifications only.
func (e *ExportDispatcher) Dispatch(format leads.ExportFormat) error {
	job, err := e.acquire(format)
	if err != nil {
		return err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.releaseFormat(format)
		_, _ = e.run(e.lc.background(), job)
	}()
	return nil
}

// Wait blocks until dispatched exports finish.
func (e *ExportDispatcher) Wait() {
	e.wg.Wait()
}

func (e *ExportDispatcher) acquire(format leads.ExportFormat) (leads.ExportJob, error) {
	if !e.lc.alive() {
		return leads.ExportJob{}, ErrNotMounted
	}
	if !e.store.ExportEnabled() {
		return leads.ExportJob{}, ErrNothingToExport
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[format] {
		return leads.ExportJob{}, ErrExportInFlight
	}
	e.inflight[format] = true
	return leads.ExportJob{Format: format, Filters: e.filters.Snapshot()}, nil
}

func (e *ExportDispatcher) releaseFormat(format leads.ExportFormat) {
	e.mu.Lock()
	delete(e.inflight, format)
	e.mu.Unlock()
	e.lc.changed()
}

func (e *ExportDispatcher) run(ctx context.Context, job leads.ExportJob) (string, error) {
	ctx, done := e.lc.bind(ctx)
	defer done()
	e.lc.changed()

	id, err := e.svc.CreateExport(ctx, job)
	if err != nil {
		se := &SearchError{Kind: ExportFailure, Message: Classify(err).Message, Err: err}
		e.logger.With("format", job.Format).Warnf("export failed: %v", err)
		e.obs.RequestFinished(RequestExport, OutcomeFailed)
		if e.lc.alive() {
			e.notes.Toast(se.Notification())
		}
		return "", se
	}

	e.logger.With("format", job.Format).Infof("export %s started", id)
	e.obs.RequestFinished(RequestExport, OutcomeCommitted)
	e.obs.ExportSubmitted(id, job)
	if e.lc.alive() {
		e.notes.Toast(notify.New(notify.VariantSuccess, "Export Started",
			fmt.Sprintf("Your %s export is being prepared (job %s).", job.Format, id)))
	}
	return id, nil
}
