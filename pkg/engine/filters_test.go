package engine

import (
	"errors"
	"testing"

	"github.com/rubiojr/prospect/pkg/leads"
)

type change struct {
	sel     leads.FilterSelection
	changed Change
}

func subscribe(s *FilterState) *[]change {
	var got []change
	s.Subscribe(func(sel leads.FilterSelection, c Change) {
		got = append(got, change{sel, c})
	})
	return &got
}

func TestFilterStateNotifiesChanges(t *testing.T) {
	s := NewFilterState()
	got := subscribe(s)

	s.SetIndustries([]string{"tattoo", "bakery"})
	s.SetIndustries([]string{" bakery", "tattoo", "tattoo"})
	s.SetCountry("US")
	if err := s.SetCity("Austin"); err != nil {
		t.Fatalf("SetCity before options load: %v", err)
	}
	s.SetQualityFlags(leads.QualityFlags{HasEmail: true})
	s.SetCountry("GB")

	want := []Change{ChangeIndustries, ChangeCountry, ChangeCity, ChangeQuality, ChangeCountry | ChangeCity}
	if len(*got) != len(want) {
		t.Fatalf("got %d notifications, want %d: %+v", len(*got), len(want), *got)
	}
	for i, c := range *got {
		if c.changed != want[i] {
			t.Errorf("notification %d changed = %b, want %b", i, c.changed, want[i])
		}
	}
	last := s.Snapshot()
	if last.Country() != "GB" || last.City() != "" {
		t.Errorf("country change should clear city, got %q/%q", last.Country(), last.City())
	}
	if !(*got)[len(*got)-1].sel.Equal(last) {
		t.Error("listener should receive the committed snapshot")
	}
}

func TestFilterStateUnsubscribe(t *testing.T) {
	s := NewFilterState()
	calls := 0
	unsub := s.Subscribe(func(leads.FilterSelection, Change) { calls++ })
	s.SetCountry("US")
	unsub()
	s.SetCountry("DE")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSetCityValidatesAgainstLoadedOptions(t *testing.T) {
	s := NewFilterState()
	s.SetCountry("US")
	s.setCityOptions("US", []string{"Austin", "Boston"})

	if err := s.SetCity("Paris"); !errors.Is(err, ErrUnknownCity) {
		t.Fatalf("expected ErrUnknownCity, got %v", err)
	}
	if s.Snapshot().City() != "" {
		t.Error("rejected city must not be selected")
	}
	if err := s.SetCity("Boston"); err != nil {
		t.Fatalf("SetCity: %v", err)
	}
	if err := s.SetCity(""); err != nil {
		t.Fatalf("clearing city: %v", err)
	}
}

func TestCityOptionsReconcileSelectedCity(t *testing.T) {
	s := NewFilterState()
	s.SetCountry("US")
	if err := s.SetCity("Miami"); err != nil {
		t.Fatal(err)
	}
	got := subscribe(s)

	s.setCityOptions("US", []string{"Austin"})
	if s.Snapshot().City() != "" {
		t.Fatalf("city not in the new list should be cleared, got %q", s.Snapshot().City())
	}
	if len(*got) != 1 || (*got)[0].changed != ChangeCity {
		t.Fatalf("expected one city change, got %+v", *got)
	}

	// options for another country are ignored
	s.setCityOptions("DE", []string{"Berlin"})
	if err := s.SetCity("Austin"); err != nil {
		t.Fatalf("SetCity: %v", err)
	}
}

func TestCountryChangeDropsCityOptions(t *testing.T) {
	s := NewFilterState()
	s.SetCountry("US")
	s.setCityOptions("US", []string{"Austin"})
	s.SetCountry("DE")
	if err := s.SetCity("Berlin"); err != nil {
		t.Fatalf("options of the previous country must not apply: %v", err)
	}
}

func TestReplaceNotifiesOnlyOnDifference(t *testing.T) {
	s := NewFilterState()
	got := subscribe(s)
	sel := leads.NewFilterSelection([]string{"tattoo"}, "US", "Austin", leads.QualityFlags{})
	s.Replace(sel)
	s.Replace(sel)
	if len(*got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(*got))
	}
	if c := (*got)[0].changed; !c.Has(ChangeIndustries) || !c.Has(ChangeCountry) || !c.Has(ChangeCity) || c.Has(ChangeQuality) {
		t.Errorf("changed = %b", c)
	}
}

func TestApplyValidatesCity(t *testing.T) {
	s := NewFilterState()
	s.SetCountry("US")
	s.setCityOptions("US", []string{"Austin"})
	got := subscribe(s)

	bad := leads.NewFilterSelection([]string{"saas"}, "US", "Paris", leads.QualityFlags{})
	if err := s.Apply(bad); !errors.Is(err, ErrUnknownCity) {
		t.Fatalf("expected ErrUnknownCity, got %v", err)
	}
	if len(*got) != 0 || len(s.Snapshot().Industries()) != 0 {
		t.Fatalf("rejected selection was applied: %+v", s.Snapshot())
	}

	good := leads.NewFilterSelection([]string{"saas"}, "US", "Austin", leads.QualityFlags{HasEmail: true})
	if err := s.Apply(good); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !s.Snapshot().Equal(good) || len(*got) != 1 {
		t.Errorf("selection = %+v, notifications = %d", s.Snapshot(), len(*got))
	}

	// options for another country do not constrain the city
	other := leads.NewFilterSelection(nil, "DE", "Berlin", leads.QualityFlags{})
	if err := s.Apply(other); err != nil {
		t.Fatalf("Apply for a new country: %v", err)
	}
}
