// Package engine coordinates filter edits, debounced previews, paginated
// searches, credit confirmation, result windows and exports for one
// lead-search view.
//
// Every asynchronous operation kind (preview, cities, search) keeps its own
// request generation: a response is committed only if it belongs to the
// newest request of its kind and the view is still mounted. Everything else
// is discarded.
package engine

import (
	"context"

	"github.com/rubiojr/prospect/pkg/leads"
)

// Stale request policies.
const (
	// StaleCancel cancels a superseded request's context.
	StaleCancel = "cancel"
	// StaleCompare lets superseded requests finish and drops their result.
	StaleCompare = "compare"
)

// Service is the remote lead-search API. *client.Client implements it.
type Service interface {
	Search(ctx context.Context, filters leads.FilterSelection, page, perPage int) (leads.SearchResultPage, error)
	Preview(ctx context.Context, filters leads.FilterSelection) (leads.PreviewEstimate, error)
	Usage(ctx context.Context) (leads.UsageSnapshot, error)
	Countries(ctx context.Context) ([]string, error)
	PopularCountries(ctx context.Context) ([]string, error)
	Cities(ctx context.Context, country string) ([]string, error)
	CreateExport(ctx context.Context, job leads.ExportJob) (string, error)
}

// RequestKind names an operation for observers.
type RequestKind string

const (
	RequestPreview          RequestKind = "preview"
	RequestCountries        RequestKind = "countries"
	RequestPopularCountries RequestKind = "popular_countries"
	RequestCities           RequestKind = "cities"
	RequestUsage            RequestKind = "usage"
	RequestSearch           RequestKind = "search"
	RequestExport           RequestKind = "export"
)

// Outcome is how a request ended.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeStale     Outcome = "stale"
	OutcomeFailed    Outcome = "failed"
	OutcomeDeclined  Outcome = "declined"
)

// Observer is told about finished requests. Implementations must be fast and
// safe for concurrent use.
type Observer interface {
	RequestFinished(kind RequestKind, outcome Outcome)
	SearchCommitted(filters leads.FilterSelection, page leads.SearchResultPage)
	ExportSubmitted(id string, job leads.ExportJob)
}

// NopObserver ignores everything. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) RequestFinished(RequestKind, Outcome)                          {}
func (NopObserver) SearchCommitted(leads.FilterSelection, leads.SearchResultPage) {}
func (NopObserver) ExportSubmitted(string, leads.ExportJob)                       {}

type observers []Observer

// Observers combines several observers; nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var out observers
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (o observers) RequestFinished(kind RequestKind, outcome Outcome) {
	for _, ob := range o {
		ob.RequestFinished(kind, outcome)
	}
}

func (o observers) SearchCommitted(filters leads.FilterSelection, page leads.SearchResultPage) {
	for _, ob := range o {
		ob.SearchCommitted(filters, page)
	}
}

func (o observers) ExportSubmitted(id string, job leads.ExportJob) {
	for _, ob := range o {
		ob.ExportSubmitted(id, job)
	}
}
