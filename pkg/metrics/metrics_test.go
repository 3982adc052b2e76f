package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/notify"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()
	m.RequestFinished(engine.RequestSearch, engine.OutcomeCommitted)
	m.RequestFinished(engine.RequestSearch, engine.OutcomeCommitted)
	m.RequestFinished(engine.RequestPreview, engine.OutcomeStale)
	m.SearchCommitted(leads.FilterSelection{}, leads.SearchResultPage{Leads: make([]leads.Lead, 7)})
	m.ExportSubmitted("exp_1", leads.ExportJob{Format: leads.FormatCSV})

	var rec notify.Recorder
	sink := m.Sink(&rec)
	sink.Toast(notify.New(notify.VariantDestructive, "Too Many Requests", ""))
	sink.Toast(notify.New(notify.VariantSuccess, "Export Started", ""))
	if rec.Len() != 2 {
		t.Errorf("wrapped sink got %d notifications, want 2", rec.Len())
	}

	body := scrape(t, m)
	for _, want := range []string{
		`prospect_requests_total{kind="search",outcome="committed"} 2`,
		`prospect_requests_total{kind="preview",outcome="stale"} 1`,
		`prospect_leads_returned_total 7`,
		`prospect_exports_submitted_total{format="csv"} 1`,
		`prospect_notifications_total{variant="destructive"} 1`,
		`prospect_notifications_total{variant="success"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RequestFinished(engine.RequestUsage, engine.OutcomeFailed)
	if strings.Contains(scrape(t, b), `kind="usage"`) {
		t.Error("registries should not be shared")
	}
}

func TestSinkWithoutNext(t *testing.T) {
	m := New()
	m.Sink(nil).Toast(notify.New(notify.VariantDefault, "x", "y"))
	if !strings.Contains(scrape(t, m), `prospect_notifications_total{variant="default"} 1`) {
		t.Error("notification should be counted")
	}
}
