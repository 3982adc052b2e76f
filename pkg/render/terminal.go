// Package render draws the dashboard read model to a terminal. Only the
// visible window of the current page is rendered.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
)

const (
	idleText      = "Choose filters and run a search to see leads."
	noResultsText = "No leads match these filters. Try broadening your search."
)

// Renderer lays out cards and tables for a terminal of a given width.
type Renderer struct {
	width int
}

// New returns a Renderer for a terminal width columns wide. A width <= 0
// defaults to 100.
func New(width int) *Renderer {
	if width <= 0 {
		width = 100
	}
	return &Renderer{width: width}
}

// Dashboard renders usage, preview, the visible results and the footer.
func (r *Renderer) Dashboard(st engine.State, visible []leads.Lead, columns int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Prospect"))
	b.WriteString("\n")
	if line := r.Usage(st.Usage, st.Decision); line != "" {
		b.WriteString(line + "\n")
	}
	if line := r.Preview(st.Preview); line != "" {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(r.Results(st, visible, columns))
	return b.String()
}

// Results renders the visible window in the current view mode, or the empty
// state when there is nothing to show.
func (r *Renderer) Results(st engine.State, visible []leads.Lead, columns int) string {
	if st.Empty != engine.HasResults {
		return r.Empty(st.Empty)
	}

	var b strings.Builder
	if st.Results != nil {
		b.WriteString(summaryStyle.Render(fmt.Sprintf("%s leads found", Number(st.Results.Pagination.Total))))
		b.WriteString("\n")
	}
	if st.Window.Start > 0 {
		b.WriteString(metaStyle.Render(fmt.Sprintf("… %d above", st.Window.Start)) + "\n")
	}
	if st.View == engine.ViewTable {
		b.WriteString(r.Table(visible))
	} else {
		b.WriteString(r.Cards(visible, columns))
	}
	b.WriteString("\n")
	if st.Results != nil {
		if below := len(st.Results.Leads) - st.Window.End; below > 0 {
			b.WriteString(metaStyle.Render(fmt.Sprintf("… %d below", below)) + "\n")
		}
	}
	if footer := r.Footer(st.Controls); footer != "" {
		b.WriteString(footer + "\n")
	}
	return b.String()
}

// Empty renders the idle or no-results message.
func (r *Renderer) Empty(state engine.EmptyState) string {
	switch state {
	case engine.NoResults:
		return noDataStyle.Render(noResultsText) + "\n"
	case engine.Idle:
		return noDataStyle.Render(idleText) + "\n"
	}
	return ""
}

// Cards lays leads out in rows of columns cards.
func (r *Renderer) Cards(list []leads.Lead, columns int) string {
	if columns < 1 {
		columns = 1
	}
	cardWidth := max(r.width/columns-4, 20)

	var rows []string
	for i := 0; i < len(list); i += columns {
		end := min(i+columns, len(list))
		cells := make([]string, 0, end-i)
		for _, l := range list[i:end] {
			cells = append(cells, r.Card(l, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Card renders one lead inside a bordered box width columns wide.
func (r *Renderer) Card(l leads.Lead, width int) string {
	name := headerStyle.Render(truncate(l.Name, width-2))
	if l.Verified {
		name += " " + verifiedStyle.Render("✓")
	}

	lines := []string{name}
	if l.Industry != "" {
		lines = append(lines, Title(l.Industry))
	}
	if loc := l.Location(); loc != "" {
		lines = append(lines, truncate(loc, width-2))
	}
	var contact []string
	if l.Email != "" {
		contact = append(contact, l.Email)
	}
	if l.Phone != "" {
		contact = append(contact, l.Phone)
	}
	if len(contact) > 0 {
		lines = append(lines, truncate(strings.Join(contact, " · "), width-2))
	}
	if l.Website != "" {
		lines = append(lines, urlStyle.Render(truncate(l.Website, width-2)))
	}
	lines = append(lines, metaStyle.Render("quality "+Score(l.QualityScore)))

	return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// Table renders leads as one row each.
func (r *Renderer) Table(list []leads.Lead) string {
	rows := make([][]string, 0, len(list))
	for _, l := range list {
		verified := ""
		if l.Verified {
			verified = "✓"
		}
		rows = append(rows, []string{
			truncate(l.Name, 32),
			Title(l.Industry),
			truncate(l.Location(), 28),
			truncate(l.Email, 30),
			l.Phone,
			Score(l.QualityScore),
			verified,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Name", "Industry", "Location", "Email", "Phone", "Quality", "Verified").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}

// Footer renders the pagination bar. It is empty when there is a single
// page of results.
func (r *Renderer) Footer(c engine.Controls) string {
	if !c.Visible {
		return ""
	}
	prev, next := "  ", "  "
	if c.HasPrev {
		prev = "‹ prev"
	}
	if c.HasNext {
		next = "next ›"
	}
	return metaStyle.Render(fmt.Sprintf("%s   Page %s of %s   %s", prev, Number(c.Page), Number(c.TotalPages), next))
}

// Usage renders the credit line, flagged when the next search needs
// confirmation.
func (r *Renderer) Usage(u *leads.UsageSnapshot, d engine.Decision) string {
	if u == nil {
		return ""
	}
	tier := ""
	if u.Tier != "" {
		tier = " (" + Title(u.Tier) + ")"
	}
	if u.Unlimited() {
		return metaStyle.Render("Credits: unlimited" + tier)
	}
	line := fmt.Sprintf("Credits: %s of %s remaining%s", Number(u.Remaining), Number(u.UsageLimit), tier)
	if d == engine.NeedsConfirmation {
		return warnStyle.Render(line + ", running low")
	}
	return metaStyle.Render(line)
}

// Preview renders the estimate panel as a single line.
func (r *Renderer) Preview(p engine.PreviewState) string {
	switch {
	case p.Loading:
		return metaStyle.Render("Estimating…")
	case p.Unavailable:
		return metaStyle.Render("Estimate unavailable")
	case p.Estimate == nil:
		return ""
	}
	e := p.Estimate
	return fmt.Sprintf("~%s leads · %s with email · %s with phone · %s verified · avg quality %s",
		Number(e.EstimatedCount), Percent(e.WithEmailPct), Percent(e.WithPhonePct),
		Percent(e.VerifiedPct), Score(e.QualityScoreAvg))
}
