package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rubiojr/prospect/pkg/leads"
)

// ViewMode is how results are laid out.
type ViewMode string

const (
	ViewCards ViewMode = "cards"
	ViewTable ViewMode = "table"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewCards, ViewTable:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want cards or table)", s)
}

// Window is the slice of items worth drawing for a scroll position.
// Items [Start, End) are drawn OffsetTop units below the top of a scroll
// area TotalHeight units tall.
type Window struct {
	Start       int `json:"start"`
	End         int `json:"end"`
	OffsetTop   int `json:"offset_top"`
	TotalHeight int `json:"total_height"`
}

// Len is the number of items in the window.
func (w Window) Len() int { return w.End - w.Start }

// VisibleRange computes the window of a single-column list. Out of range
// scroll offsets are clamped and overscan extra items are kept on both sides.
func VisibleRange(count, itemHeight, scrollOffset, viewportHeight, overscan int) Window {
	if count <= 0 || itemHeight <= 0 {
		return Window{}
	}
	if overscan < 0 {
		overscan = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}
	total := count * itemHeight

	maxScroll := total - viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	scroll := min(max(scrollOffset, 0), maxScroll)

	first := scroll / itemHeight
	last := (scroll + viewportHeight + itemHeight - 1) / itemHeight
	if last <= first {
		last = first + 1
	}

	start := max(first-overscan, 0)
	end := min(last+overscan, count)
	return Window{
		Start:       start,
		End:         end,
		OffsetTop:   start * itemHeight,
		TotalHeight: total,
	}
}

// VisibleGrid computes the window of a grid with columns items per row. The
// range is computed over rows and mapped back to item indices.
func VisibleGrid(count, columns, rowHeight, scrollOffset, viewportHeight, overscan int) Window {
	if columns < 1 {
		columns = 1
	}
	if count <= 0 {
		return Window{}
	}
	rows := (count + columns - 1) / columns
	w := VisibleRange(rows, rowHeight, scrollOffset, viewportHeight, overscan)
	return Window{
		Start:       w.Start * columns,
		End:         min(w.End*columns, count),
		OffsetTop:   w.OffsetTop,
		TotalHeight: w.TotalHeight,
	}
}

// ViewOptions sizes the two layouts in rendering units (terminal lines for
// the CLI, pixels for a browser).
type ViewOptions struct {
	Mode        ViewMode
	CardHeight  int
	RowHeight   int
	CardColumns int
	Overscan    int
}

// ViewController holds the view mode and scroll position over a ResultStore.
// Switching modes never fetches; a store replacement scrolls back to the top.
type ViewController struct {
	store *ResultStore
	opts  ViewOptions

	mu       sync.Mutex
	mode     ViewMode
	scroll   int
	viewport int
	epoch    uint64
}

func NewViewController(store *ResultStore, opts ViewOptions) *ViewController {
	if opts.Mode == "" {
		opts.Mode = ViewCards
	}
	if opts.CardHeight <= 0 {
		opts.CardHeight = 6
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = 1
	}
	if opts.CardColumns <= 0 {
		opts.CardColumns = 1
	}
	return &ViewController{store: store, opts: opts, mode: opts.Mode}
}

func (v *ViewController) Mode() ViewMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// SetMode switches layout and scrolls to the top.
func (v *ViewController) SetMode(m ViewMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if m == v.mode {
		return
	}
	v.mode = m
	v.scroll = 0
}

func (v *ViewController) Toggle() ViewMode {
	next := ViewCards
	if v.Mode() == ViewCards {
		next = ViewTable
	}
	v.SetMode(next)
	return next
}

// Columns is the number of items per row in the current mode.
func (v *ViewController) Columns() int {
	if v.Mode() == ViewTable {
		return 1
	}
	return v.opts.CardColumns
}

func (v *ViewController) SetViewportHeight(h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = max(h, 0)
}

// ScrollTo sets the scroll offset. Offsets past either end are clamped
// when the window is computed.
func (v *ViewController) ScrollTo(offset int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sync()
	v.scroll = max(offset, 0)
}

func (v *ViewController) ScrollBy(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sync()
	v.scroll = max(v.scroll+delta, 0)
}

// ScrollOffset is the current offset, zero after the store was replaced.
func (v *ViewController) ScrollOffset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sync()
	return v.scroll
}

// Visible returns the window for the current page and the leads in it.
func (v *ViewController) Visible() (Window, []leads.Lead) {
	page, _ := v.store.Page()

	v.mu.Lock()
	v.sync()
	mode, scroll, viewport := v.mode, v.scroll, v.viewport
	v.mu.Unlock()

	var w Window
	if mode == ViewTable {
		w = VisibleRange(len(page.Leads), v.opts.RowHeight, scroll, viewport, v.opts.Overscan)
	} else {
		w = VisibleGrid(len(page.Leads), v.opts.CardColumns, v.opts.CardHeight, scroll, viewport, v.opts.Overscan)
	}
	return w, page.Leads[w.Start:w.End]
}

// sync resets the scroll offset when the store moved to a new epoch.
func (v *ViewController) sync() {
	if e := v.store.Epoch(); e != v.epoch {
		v.epoch = e
		v.scroll = 0
	}
}
