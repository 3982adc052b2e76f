package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rubiojr/prospect/pkg/leads"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// Number formats n with thousands separators.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats a 0..100 percentage with one decimal.
func Percent(p float64) string {
	return printer.Sprintf("%.1f%%", p)
}

// Title title-cases an industry or tier identifier such as "real_estate".
func Title(s string) string {
	return titler.String(strings.ReplaceAll(s, "_", " "))
}

// Score renders a quality score as a percentage. Scores up to 1 are
// fractions; larger ones are already percentages.
func Score(s float64) string {
	if s <= 1 {
		s *= 100
	}
	return printer.Sprintf("%.0f%%", s)
}

// FormatTime renders t relative to now for recent times.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// Filters describes a selection on one line.
func Filters(f leads.FilterSelection) string {
	var parts []string
	if ids := f.Industries(); len(ids) > 0 {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = Title(id)
		}
		parts = append(parts, strings.Join(names, ", "))
	}
	switch {
	case f.City() != "":
		parts = append(parts, f.City()+", "+f.Country())
	case f.Country() != "":
		parts = append(parts, f.Country())
	}
	q := f.Quality()
	if q.HasEmail {
		parts = append(parts, "email")
	}
	if q.HasPhone {
		parts = append(parts, "phone")
	}
	if q.VerifiedOnly {
		parts = append(parts, "verified")
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " · ")
}
