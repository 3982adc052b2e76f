package engine

import (
	"errors"
	"slices"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
)

// ErrUnknownCity is returned by SetCity for a city outside the loaded list.
var ErrUnknownCity = errors.New("city is not available for the selected country")

// Change is a bit set naming what a filter mutation touched.
type Change uint8

const (
	ChangeIndustries Change = 1 << iota
	ChangeCountry
	ChangeCity
	ChangeQuality
)

func (c Change) Has(o Change) bool { return c&o != 0 }

// FilterListener receives the new selection and what changed.
type FilterListener func(sel leads.FilterSelection, changed Change)

// FilterState owns the current FilterSelection. It never talks to the
// network; listeners react to changes.
type FilterState struct {
	mu  sync.Mutex
	sel leads.FilterSelection

	// city options for optionsFor, nil until loaded
	options    map[string]struct{}
	optionsFor string

	listeners map[int]FilterListener
	order     []int
	nextID    int
}

func NewFilterState() *FilterState {
	return &FilterState{listeners: make(map[int]FilterListener)}
}

// Snapshot returns the current selection.
func (s *FilterState) Snapshot() leads.FilterSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Subscribe registers fn and returns a function that removes it.
func (s *FilterState) Subscribe(fn FilterListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *FilterState) SetIndustries(ids []string) {
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		return sel.WithIndustries(ids)
	})
}

// SetCountry selects a country. A different country clears the city and
// drops the city options of the previous one.
func (s *FilterState) SetCountry(code string) {
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		return sel.WithCountry(code)
	})
}

// SetCity selects a city of the current country. While the city list for the
// country has not loaded yet any name is accepted and checked on arrival.
func (s *FilterState) SetCity(name string) error {
	var err error
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		if name != "" && s.options != nil && s.optionsFor == sel.Country() {
			if _, ok := s.options[name]; !ok {
				err = ErrUnknownCity
				return sel
			}
		}
		return sel.WithCity(name)
	})
	return err
}

func (s *FilterState) SetQualityFlags(q leads.QualityFlags) {
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		return sel.WithQuality(q)
	})
}

// Replace swaps the whole selection, e.g. from a preset or a query string.
func (s *FilterState) Replace(next leads.FilterSelection) {
	s.update(func(leads.FilterSelection) leads.FilterSelection {
		return next
	})
}

// Apply swaps the whole selection like Replace but rejects a city the loaded
// city list of the new country does not offer. On error the selection is
// left unchanged.
func (s *FilterState) Apply(next leads.FilterSelection) error {
	var err error
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		if next.City() != "" && s.options != nil && s.optionsFor == next.Country() {
			if _, ok := s.options[next.City()]; !ok {
				err = ErrUnknownCity
				return sel
			}
		}
		return next
	})
	return err
}

// setCityOptions installs the city list of country. When the selected city
// is not part of it the city is cleared.
func (s *FilterState) setCityOptions(country string, cities []string) {
	s.update(func(sel leads.FilterSelection) leads.FilterSelection {
		if sel.Country() != country {
			return sel
		}
		s.options = make(map[string]struct{}, len(cities))
		for _, c := range cities {
			s.options[c] = struct{}{}
		}
		s.optionsFor = country
		if sel.City() != "" {
			if _, ok := s.options[sel.City()]; !ok {
				return sel.WithCity("")
			}
		}
		return sel
	})
}

func (s *FilterState) clearCityOptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = nil
	s.optionsFor = ""
}

func (s *FilterState) update(fn func(leads.FilterSelection) leads.FilterSelection) {
	s.mu.Lock()
	prev := s.sel
	next := fn(prev)
	changed := diff(prev, next)
	if changed == 0 {
		s.mu.Unlock()
		return
	}
	s.sel = next
	if changed.Has(ChangeCountry) && s.optionsFor != next.Country() {
		s.options = nil
		s.optionsFor = ""
	}
	listeners := make([]FilterListener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next, changed)
	}
}

func diff(a, b leads.FilterSelection) Change {
	var c Change
	if !slices.Equal(a.Industries(), b.Industries()) {
		c |= ChangeIndustries
	}
	if a.Country() != b.Country() {
		c |= ChangeCountry
	}
	if a.City() != b.City() {
		c |= ChangeCity
	}
	if a.Quality() != b.Quality() {
		c |= ChangeQuality
	}
	return c
}
