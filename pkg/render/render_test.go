package render

import (
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
)

func sampleLeads(n int) []leads.Lead {
	out := make([]leads.Lead, n)
	for i := range out {
		out[i] = leads.Lead{
			ID:           string(rune('a' + i)),
			Name:         "Acme " + string(rune('A'+i)),
			Industry:     "real_estate",
			City:         "Lisbon",
			Country:      "PT",
			Email:        "hello@example.com",
			QualityScore: 0.8,
			Verified:     i%2 == 0,
		}
	}
	return out
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleAndScore(t *testing.T) {
	if got := Title("real_estate"); got != "Real Estate" {
		t.Errorf("Title = %q", got)
	}
	if got := Score(0.82); got != "82%" {
		t.Errorf("Score(0.82) = %q", got)
	}
	if got := Score(67); got != "67%" {
		t.Errorf("Score(67) = %q", got)
	}
	if got := Percent(12.345); got != "12.3%" {
		t.Errorf("Percent = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute + time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{30 * time.Hour, "1 day ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTime(time.Now().Add(-tt.ago)); got != tt.want {
				t.Errorf("FormatTime = %q, want %q", got, tt.want)
			}
		})
	}
	if FormatTime(time.Time{}) != "" {
		t.Error("zero time should render empty")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a much longer name", 6); got != "a muc…" {
		t.Errorf("got %q", got)
	}
}

func TestEmptyStates(t *testing.T) {
	r := New(80)
	if got := r.Empty(engine.Idle); !strings.Contains(got, idleText) {
		t.Errorf("idle = %q", got)
	}
	if got := r.Empty(engine.NoResults); !strings.Contains(got, noResultsText) {
		t.Errorf("no results = %q", got)
	}
	if got := r.Empty(engine.HasResults); got != "" {
		t.Errorf("has results = %q", got)
	}
}

func TestFooter(t *testing.T) {
	r := New(80)
	if got := r.Footer(engine.Controls{Visible: false, Page: 1, TotalPages: 1}); got != "" {
		t.Errorf("single page footer = %q", got)
	}

	got := r.Footer(engine.Controls{Visible: true, HasNext: true, Page: 1, TotalPages: 3})
	if !strings.Contains(got, "Page 1 of 3") || !strings.Contains(got, "next") {
		t.Errorf("footer = %q", got)
	}
	if strings.Contains(got, "prev") {
		t.Errorf("first page footer offers prev: %q", got)
	}

	got = r.Footer(engine.Controls{Visible: true, HasPrev: true, Page: 3, TotalPages: 3})
	if !strings.Contains(got, "prev") || strings.Contains(got, "next") {
		t.Errorf("last page footer = %q", got)
	}
}

func TestUsageLine(t *testing.T) {
	r := New(80)
	if r.Usage(nil, engine.Proceed) != "" {
		t.Error("nil usage should render nothing")
	}
	got := r.Usage(&leads.UsageSnapshot{UsageCount: 95, UsageLimit: 100, Remaining: 5, Tier: "pro"}, engine.NeedsConfirmation)
	if !strings.Contains(got, "5 of 100 remaining (Pro)") || !strings.Contains(got, "running low") {
		t.Errorf("usage = %q", got)
	}
	got = r.Usage(&leads.UsageSnapshot{UsageLimit: -1, Tier: "enterprise"}, engine.Proceed)
	if !strings.Contains(got, "unlimited") {
		t.Errorf("unlimited usage = %q", got)
	}
}

func TestPreviewLine(t *testing.T) {
	r := New(80)
	if got := r.Preview(engine.PreviewState{Loading: true}); !strings.Contains(got, "Estimating") {
		t.Errorf("loading = %q", got)
	}
	if got := r.Preview(engine.PreviewState{Unavailable: true}); !strings.Contains(got, "unavailable") {
		t.Errorf("unavailable = %q", got)
	}
	if got := r.Preview(engine.PreviewState{}); got != "" {
		t.Errorf("empty = %q", got)
	}
	got := r.Preview(engine.PreviewState{Estimate: &leads.PreviewEstimate{EstimatedCount: 12500, WithEmailPct: 40}})
	if !strings.Contains(got, "~12,500 leads") || !strings.Contains(got, "40.0% with email") {
		t.Errorf("estimate = %q", got)
	}
}

func TestCardsAndTable(t *testing.T) {
	r := New(100)
	list := sampleLeads(3)

	cards := r.Cards(list, 2)
	for _, l := range list {
		if !strings.Contains(cards, l.Name) {
			t.Errorf("cards missing %q", l.Name)
		}
	}
	if !strings.Contains(cards, "Real Estate") || !strings.Contains(cards, "Lisbon, PT") {
		t.Errorf("cards missing details:\n%s", cards)
	}

	tbl := r.Table(list)
	if !strings.Contains(tbl, "Name") || !strings.Contains(tbl, "Quality") {
		t.Errorf("table missing headers:\n%s", tbl)
	}
	for _, l := range list {
		if !strings.Contains(tbl, l.Name) {
			t.Errorf("table missing %q", l.Name)
		}
	}
}

func TestResultsRendersOnlyVisibleWindow(t *testing.T) {
	r := New(100)
	all := sampleLeads(10)
	page := leads.SearchResultPage{
		Leads:      all,
		Pagination: leads.Pagination{Total: 1200, TotalPages: 48, HasNext: true, Page: 1},
	}
	st := engine.State{
		Empty:    engine.HasResults,
		Results:  &page,
		View:     engine.ViewTable,
		Window:   engine.Window{Start: 2, End: 5},
		Controls: engine.Controls{Visible: true, HasNext: true, Page: 1, TotalPages: 48},
	}

	out := r.Results(st, all[2:5], 1)
	if !strings.Contains(out, "1,200 leads found") {
		t.Errorf("missing total:\n%s", out)
	}
	if !strings.Contains(out, "2 above") || !strings.Contains(out, "5 below") {
		t.Errorf("missing window hints:\n%s", out)
	}
	if strings.Contains(out, all[0].Name) || strings.Contains(out, all[7].Name) {
		t.Errorf("rendered rows outside the window:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 48") {
		t.Errorf("missing footer:\n%s", out)
	}
}

func TestDashboardIdle(t *testing.T) {
	out := New(80).Dashboard(engine.State{Empty: engine.Idle}, nil, 2)
	if !strings.Contains(out, "Prospect") || !strings.Contains(out, idleText) {
		t.Errorf("dashboard = %q", out)
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name string
		sel  leads.FilterSelection
		want string
	}{
		{"empty", leads.FilterSelection{}, "any"},
		{"country", leads.NewFilterSelection(nil, "US", "", leads.QualityFlags{}), "US"},
		{"full", leads.NewFilterSelection([]string{"saas"}, "US", "Austin", leads.QualityFlags{HasEmail: true, VerifiedOnly: true}),
			"Saas · Austin, US · email · verified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filters(tt.sel); got != tt.want {
				t.Errorf("Filters() = %q, want %q", got, tt.want)
			}
		})
	}
}
