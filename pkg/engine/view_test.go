package engine

import (
	"testing"

	"github.com/rubiojr/prospect/pkg/leads"
)

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		name                                          string
		count, itemHeight, scroll, viewport, overscan int
		want                                          Window
	}{
		{"empty", 0, 10, 0, 100, 2, Window{}},
		{"zero item height", 5, 0, 0, 100, 2, Window{}},
		{"one item", 1, 10, 0, 100, 2, Window{Start: 0, End: 1, OffsetTop: 0, TotalHeight: 10}},
		{"fits viewport", 5, 10, 0, 100, 0, Window{Start: 0, End: 5, OffsetTop: 0, TotalHeight: 50}},
		{"top of long list", 1000, 10, 0, 100, 2, Window{Start: 0, End: 12, OffsetTop: 0, TotalHeight: 10000}},
		{"middle", 1000, 10, 500, 100, 2, Window{Start: 48, End: 62, OffsetTop: 480, TotalHeight: 10000}},
		{"partial item", 1000, 10, 505, 100, 0, Window{Start: 50, End: 61, OffsetTop: 500, TotalHeight: 10000}},
		{"scrolled past end", 1000, 10, 1_000_000, 100, 2, Window{Start: 988, End: 1000, OffsetTop: 9880, TotalHeight: 10000}},
		{"negative scroll", 1000, 10, -50, 100, 0, Window{Start: 0, End: 10, OffsetTop: 0, TotalHeight: 10000}},
		{"negative overscan", 1000, 10, 0, 100, -3, Window{Start: 0, End: 10, OffsetTop: 0, TotalHeight: 10000}},
		{"zero viewport", 100, 10, 200, 0, 0, Window{Start: 20, End: 21, OffsetTop: 200, TotalHeight: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleRange(tt.count, tt.itemHeight, tt.scroll, tt.viewport, tt.overscan)
			if got != tt.want {
				t.Errorf("VisibleRange() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVisibleRangeNeverEscapesBounds(t *testing.T) {
	for count := 0; count < 40; count++ {
		for scroll := -20; scroll < 500; scroll += 7 {
			w := VisibleRange(count, 3, scroll, 17, 2)
			if w.Start < 0 || w.End > count || w.Start > w.End {
				t.Fatalf("count=%d scroll=%d: bad window %+v", count, scroll, w)
			}
			if count > 0 && w.Len() == 0 {
				t.Fatalf("count=%d scroll=%d: empty window", count, scroll)
			}
		}
	}
}

func TestVisibleGrid(t *testing.T) {
	// 10 items in 3 columns: 4 rows of height 6
	got := VisibleGrid(10, 3, 6, 6, 6, 0)
	want := Window{Start: 3, End: 6, OffsetTop: 6, TotalHeight: 24}
	if got != want {
		t.Errorf("VisibleGrid() = %+v, want %+v", got, want)
	}
	got = VisibleGrid(10, 3, 6, 100, 12, 1)
	want = Window{Start: 3, End: 10, OffsetTop: 6, TotalHeight: 24}
	if got != want {
		t.Errorf("VisibleGrid() at end = %+v, want %+v", got, want)
	}
	if w := VisibleGrid(0, 3, 6, 0, 12, 1); w != (Window{}) {
		t.Errorf("empty grid = %+v", w)
	}
}

func TestViewControllerResetsScrollOnReplace(t *testing.T) {
	store := NewResultStore()
	v := NewViewController(store, ViewOptions{Mode: ViewTable, RowHeight: 1})
	v.SetViewportHeight(10)

	store.Replace(leads.FilterSelection{}, onePage(100, 100, 1, 1))
	v.ScrollTo(50)
	w, rows := v.Visible()
	if w.Start != 50 || len(rows) != 10 || rows[0].ID != "l51" {
		t.Fatalf("window = %+v first=%v", w, rows[0].ID)
	}

	store.Replace(leads.FilterSelection{}, onePage(100, 100, 1, 1))
	if v.ScrollOffset() != 0 {
		t.Errorf("scroll offset = %d after replacement, want 0", v.ScrollOffset())
	}
	w, _ = v.Visible()
	if w.Start != 0 {
		t.Errorf("window start = %d, want 0", w.Start)
	}
}

func TestViewControllerModes(t *testing.T) {
	store := NewResultStore()
	store.Replace(leads.FilterSelection{}, onePage(9, 9, 1, 1))
	v := NewViewController(store, ViewOptions{CardHeight: 5, RowHeight: 1, CardColumns: 3})
	v.SetViewportHeight(5)

	if v.Mode() != ViewCards || v.Columns() != 3 {
		t.Fatalf("mode=%s columns=%d", v.Mode(), v.Columns())
	}
	w, rows := v.Visible()
	if w.Start != 0 || w.End != 3 || len(rows) != 3 {
		t.Errorf("cards window = %+v", w)
	}

	v.ScrollBy(3)
	if v.Toggle() != ViewTable || v.ScrollOffset() != 0 {
		t.Errorf("toggle should switch to table and scroll to top")
	}
	w, _ = v.Visible()
	if w.End != 5 || w.TotalHeight != 9 {
		t.Errorf("table window = %+v", w)
	}
	if v.Columns() != 1 {
		t.Error("tables have one column")
	}
}

func TestParseViewMode(t *testing.T) {
	for in, want := range map[string]ViewMode{"cards": ViewCards, " Table ": ViewTable} {
		got, err := ParseViewMode(in)
		if err != nil || got != want {
			t.Errorf("ParseViewMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseViewMode("grid"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSwitchingViewDoesNotFetch(t *testing.T) {
	svc := newFakeService()
	env := newTestEnv(t, svc, nil)
	before := svc.count("search")
	env.d.View.Toggle()
	env.d.View.Toggle()
	if svc.count("search") != before {
		t.Error("switching views must not search")
	}
}
