package engine

import (
	"slices"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
)

// EmptyState distinguishes "nothing searched yet" from "searched, no rows".
type EmptyState int

const (
	Idle EmptyState = iota
	NoResults
	HasResults
)

func (e EmptyState) String() string {
	switch e {
	case NoResults:
		return "no_results"
	case HasResults:
		return "results"
	}
	return "idle"
}

func (e EmptyState) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Controls is the pagination bar, read straight from the page descriptor.
type Controls struct {
	Visible    bool `json:"visible"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
}

// ResultStore holds the latest committed search page. Pages replace each
// other whole; the epoch counts replacements.
type ResultStore struct {
	mu      sync.RWMutex
	page    *leads.SearchResultPage
	filters leads.FilterSelection
	epoch   uint64
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Replace installs page as the current result and returns the new epoch.
func (s *ResultStore) Replace(filters leads.FilterSelection, page leads.SearchResultPage) uint64 {
	page.Leads = slices.Clone(page.Leads)
	if page.Leads == nil {
		page.Leads = []leads.Lead{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = &page
	s.filters = filters
	s.epoch++
	return s.epoch
}

// Page returns the current page and whether a search has committed yet.
func (s *ResultStore) Page() (leads.SearchResultPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.page == nil {
		return leads.SearchResultPage{}, false
	}
	return *s.page, true
}

// Filters returns the selection the current page was searched with.
func (s *ResultStore) Filters() leads.FilterSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *ResultStore) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *ResultStore) Controls() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.page == nil {
		return Controls{}
	}
	p := s.page.Pagination
	return Controls{
		Visible:    p.TotalPages > 1,
		HasPrev:    p.HasPrev && p.Page > 1,
		HasNext:    p.HasNext,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}

// ExportEnabled reports whether there is anything to export.
func (s *ResultStore) ExportEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page != nil && len(s.page.Leads) > 0
}

func (s *ResultStore) EmptyState() EmptyState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.page == nil:
		return Idle
	case len(s.page.Leads) == 0:
		return NoResults
	}
	return HasResults
}
