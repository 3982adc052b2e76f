package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/render"
)

// htmlWriter keeps the first write error so components can write
// unconditionally and check once.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

func verifiedMark(ok bool) string {
	if ok {
		return `<span class="verified">✓</span>`
	}
	return ""
}

// leadCard renders one lead as a card. Website links go through templ's URL
// sanitizer so a javascript: URL from the service is never clickable.
func leadCard(l leads.Lead) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="card"><h3>`)
		h.text(l.Name)
		if l.Verified {
			h.raw(" " + verifiedMark(true))
		}
		h.raw(`</h3>`)
		if l.Industry != "" {
			h.raw(`<div>`)
			h.text(render.Title(l.Industry))
			h.raw(`</div>`)
		}
		if loc := l.Location(); loc != "" {
			h.raw(`<div class="muted">`)
			h.text(loc)
			h.raw(`</div>`)
		}
		for _, v := range []string{l.Email, l.Phone} {
			if v != "" {
				h.raw(`<div>`)
				h.text(v)
				h.raw(`</div>`)
			}
		}
		if l.Website != "" {
			h.raw(`<div><a href="`)
			h.text(string(templ.URL(l.Website)))
			h.raw(`" target="_blank" rel="noopener noreferrer">`)
			h.text(l.Website)
			h.raw(`</a></div>`)
		}
		h.raw(`<div class="muted">quality `)
		h.text(render.Score(l.QualityScore))
		h.raw(`</div></div>`)
		return h.err
	})
}

func leadCards(list []leads.Lead) templ.Component {
	cards := make([]templ.Component, len(list))
	for i, l := range list {
		cards[i] = leadCard(l)
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="cards">`)
		h.render(ctx, templ.Join(cards...))
		h.raw(`</div>`)
		return h.err
	})
}

func leadTable(list []leads.Lead) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<table><thead><tr><th>Name</th><th>Industry</th><th>Location</th><th>Email</th><th>Phone</th><th>Quality</th><th>Verified</th></tr></thead><tbody>`)
		for _, l := range list {
			h.raw(`<tr>`)
			for _, cell := range []string{l.Name, render.Title(l.Industry), l.Location(), l.Email, l.Phone, render.Score(l.QualityScore)} {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`<td>` + verifiedMark(l.Verified) + `</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// results renders the results section body: the empty state, or the visible
// window in the current view mode.
func results(d pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		st := d.State
		if st.Searching {
			h.raw(`<p class="muted">Searching…</p>`)
		}
		switch st.Empty {
		case engine.Idle:
			h.raw(`<div class="empty">Choose filters and run a search to see leads.</div>`)
			return h.err
		case engine.NoResults:
			h.raw(`<div class="empty">No leads match these filters. Try broadening your search.</div>`)
			return h.err
		}
		if st.Results != nil {
			h.raw(`<p><strong>`)
			h.text(render.Number(st.Results.Pagination.Total))
			h.raw(`</strong> leads found</p>`)
		}
		if st.Window.Start > 0 {
			h.raw(fmt.Sprintf(`<p class="muted">… %d above</p>`, st.Window.Start))
		}
		if st.View == engine.ViewTable {
			h.render(ctx, leadTable(d.Visible))
		} else {
			h.render(ctx, leadCards(d.Visible))
		}
		if d.Below > 0 {
			h.raw(fmt.Sprintf(`<p class="muted">… %d below</p>`, d.Below))
		}
		return h.err
	})
}

// pager renders the pagination controls. Nothing is drawn for a single page.
func pager(c engine.Controls) templ.Component {
	if !c.Visible {
		return templ.NopComponent
	}
	disabled := func(ok bool) string {
		if ok {
			return ""
		}
		return " disabled"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(fmt.Sprintf(`<button data-action="page" data-page="%d" data-delta="-1"%s>‹ Previous</button>`, c.Page, disabled(c.HasPrev)))
		h.raw(`<span>Page `)
		h.text(render.Number(c.Page))
		h.raw(` of `)
		h.text(render.Number(c.TotalPages))
		h.raw(`</span>`)
		h.raw(fmt.Sprintf(`<button data-action="page" data-page="%d" data-delta="1"%s>Next ›</button>`, c.Page, disabled(c.HasNext)))
		return h.err
	})
}
