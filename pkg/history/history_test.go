package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/prospect/pkg/leads"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenInDir: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func page(n, total, totalPages int) leads.SearchResultPage {
	return leads.SearchResultPage{
		Leads:      make([]leads.Lead, n),
		Pagination: leads.Pagination{Total: total, TotalPages: totalPages, Page: 1},
	}
}

func TestRecordAndListSearches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := leads.NewFilterSelection([]string{"tattoo"}, "US", "Austin", leads.QualityFlags{HasEmail: true})
	second := leads.NewFilterSelection([]string{"bakery"}, "GB", "", leads.QualityFlags{})
	if err := s.RecordSearch(ctx, first, page(2, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSearch(ctx, second, page(25, 60, 3)); err != nil {
		t.Fatal(err)
	}

	got, err := s.RecentSearches(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d searches, want 2", len(got))
	}
	if !got[0].Filters.Equal(second) || got[0].Total != 60 || got[0].TotalPages != 3 {
		t.Errorf("newest entry = %+v", got[0])
	}
	if !got[1].Filters.Equal(first) || !got[1].Filters.Quality().HasEmail {
		t.Errorf("oldest entry = %+v", got[1])
	}
	if !got[0].At.After(got[1].At) {
		t.Error("entries should be ordered newest first")
	}

	limited, err := s.RecentSearches(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("RecentSearches(1) = %d entries, %v", len(limited), err)
	}
}

func TestLastFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LastFilters(ctx); err != nil || ok {
		t.Fatalf("LastFilters on empty history = %v, %v", ok, err)
	}
	want := leads.NewFilterSelection([]string{"florist"}, "DE", "Berlin", leads.QualityFlags{VerifiedOnly: true})
	if err := s.RecordSearch(ctx, leads.NewFilterSelection(nil, "US", "", leads.QualityFlags{}), page(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSearch(ctx, want, page(0, 0, 0)); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.LastFilters(ctx)
	if err != nil || !ok {
		t.Fatalf("LastFilters = %v, %v", ok, err)
	}
	if !got.Equal(want) {
		t.Errorf("LastFilters = %s, want %s", got.Key(), want.Key())
	}
}

func TestRecordExports(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	job := leads.ExportJob{Format: leads.FormatExcel, Filters: leads.NewFilterSelection([]string{"gym"}, "FR", "", leads.QualityFlags{})}

	if err := s.RecordExport(ctx, "exp_7", job); err != nil {
		t.Fatal(err)
	}
	got, err := s.RecentExports(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].JobID != "exp_7" || got[0].Format != leads.FormatExcel || !got[0].Filters.Equal(job.Filters) {
		t.Errorf("exports = %+v", got)
	}
}

func TestReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenInDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordSearch(context.Background(), leads.NewFilterSelection(nil, "US", "", leads.QualityFlags{}), page(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(filepath.Join(dir, DatabaseName))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err := s.migrate()
	if err != nil || n != 0 {
		t.Errorf("second migrate applied %d, %v", n, err)
	}
	got, err := s.RecentSearches(context.Background(), 5)
	if err != nil || len(got) != 1 {
		t.Errorf("RecentSearches after reopen = %d, %v", len(got), err)
	}
}

func TestObserverRecords(t *testing.T) {
	s := openTestStore(t)
	obs := s.Observer()

	f := leads.NewFilterSelection([]string{"tattoo"}, "US", "", leads.QualityFlags{})
	obs.SearchCommitted(f, page(2, 2, 1))
	obs.ExportSubmitted("exp_1", leads.ExportJob{Format: leads.FormatCSV, Filters: f})
	obs.RequestFinished("search", "committed")

	searches, _ := s.RecentSearches(context.Background(), 5)
	exports, _ := s.RecentExports(context.Background(), 5)
	if len(searches) != 1 || len(exports) != 1 {
		t.Errorf("recorded %d searches and %d exports, want 1 and 1", len(searches), len(exports))
	}
}

func TestAvailableMigrationsOrdered(t *testing.T) {
	ms, err := availableMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) < 2 || ms[0].Version != 1 || ms[0].Name != "searches" || ms[1].Version != 2 {
		t.Errorf("migrations = %+v", ms)
	}
}
