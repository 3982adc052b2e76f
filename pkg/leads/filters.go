// Package leads defines the values exchanged between the lead-search service
// and the dashboard engine: filter selections, leads, result pages, preview
// estimates, usage snapshots and export jobs.
package leads

import (
	"slices"
	"strings"
)

// QualityFlags narrows a search to leads carrying specific contact data.
type QualityFlags struct {
	HasEmail     bool `json:"has_email" yaml:"has_email"`
	HasPhone     bool `json:"has_phone" yaml:"has_phone"`
	VerifiedOnly bool `json:"verified_only" yaml:"verified_only"`
}

// FilterSelection is the immutable set of search criteria. Every With*
// method returns a new value and leaves the receiver untouched.
type FilterSelection struct {
	industries []string
	country    string
	city       string
	quality    QualityFlags
}

// NewFilterSelection builds a normalized selection.
func NewFilterSelection(industries []string, country, city string, quality QualityFlags) FilterSelection {
	f := FilterSelection{
		industries: normalizeIndustries(industries),
		country:    strings.TrimSpace(country),
		quality:    quality,
	}
	if f.country != "" {
		f.city = strings.TrimSpace(city)
	}
	return f
}

// Industries returns a copy of the selected industry ids, sorted.
func (f FilterSelection) Industries() []string {
	return slices.Clone(f.industries)
}

// Country returns the selected country code or "".
func (f FilterSelection) Country() string { return f.country }

// City returns the selected city or "".
func (f FilterSelection) City() string { return f.city }

// Quality returns the selected quality flags.
func (f FilterSelection) Quality() QualityFlags { return f.quality }

// WithIndustries replaces the industry set.
func (f FilterSelection) WithIndustries(ids []string) FilterSelection {
	f.industries = normalizeIndustries(ids)
	return f
}

// WithCountry replaces the country. A different country always clears the
// city, since cities only exist within their country's option set.
func (f FilterSelection) WithCountry(code string) FilterSelection {
	code = strings.TrimSpace(code)
	if code != f.country {
		f.city = ""
	}
	f.country = code
	return f
}

// WithCity replaces the city. Without a country the city stays empty.
func (f FilterSelection) WithCity(name string) FilterSelection {
	if f.country == "" {
		f.city = ""
		return f
	}
	f.city = strings.TrimSpace(name)
	return f
}

// WithQuality replaces the quality flags.
func (f FilterSelection) WithQuality(q QualityFlags) FilterSelection {
	f.quality = q
	return f
}

// Empty reports whether nothing has been selected. Quality flags alone do
// not make a searchable selection.
func (f FilterSelection) Empty() bool {
	return len(f.industries) == 0 && f.country == ""
}

// Equal reports whether both selections describe the same criteria.
func (f FilterSelection) Equal(o FilterSelection) bool {
	return f.country == o.country &&
		f.city == o.city &&
		f.quality == o.quality &&
		slices.Equal(f.industries, o.industries)
}

// Key returns a stable string identifying the criteria, suitable as a map or
// cache key.
func (f FilterSelection) Key() string {
	return f.Values().Encode()
}

func normalizeIndustries(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
