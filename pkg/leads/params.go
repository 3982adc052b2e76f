package leads

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// FilterFields is the flat wire form of a FilterSelection used in request
// bodies, export jobs and presets.
type FilterFields struct {
	Industries   []string `json:"industries,omitempty" yaml:"industries"`
	Country      string   `json:"country,omitempty" yaml:"country"`
	City         string   `json:"city,omitempty" yaml:"city"`
	HasEmail     bool     `json:"has_email,omitempty" yaml:"has_email"`
	HasPhone     bool     `json:"has_phone,omitempty" yaml:"has_phone"`
	VerifiedOnly bool     `json:"verified_only,omitempty" yaml:"verified_only"`
}

// Fields flattens the selection.
func (f FilterSelection) Fields() FilterFields {
	return FilterFields{
		Industries:   f.Industries(),
		Country:      f.country,
		City:         f.city,
		HasEmail:     f.quality.HasEmail,
		HasPhone:     f.quality.HasPhone,
		VerifiedOnly: f.quality.VerifiedOnly,
	}
}

// Selection builds a normalized FilterSelection from the flat form.
func (ff FilterFields) Selection() FilterSelection {
	return NewFilterSelection(ff.Industries, ff.Country, ff.City, QualityFlags{
		HasEmail:     ff.HasEmail,
		HasPhone:     ff.HasPhone,
		VerifiedOnly: ff.VerifiedOnly,
	})
}

// MarshalJSON encodes the selection in its flat wire form.
func (f FilterSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Fields())
}

// UnmarshalJSON decodes the flat wire form.
func (f *FilterSelection) UnmarshalJSON(b []byte) error {
	var ff FilterFields
	if err := json.Unmarshal(b, &ff); err != nil {
		return err
	}
	*f = ff.Selection()
	return nil
}

// Values encodes the selection as query parameters. Flags are only present
// when set.
func (f FilterSelection) Values() url.Values {
	v := url.Values{}
	for _, id := range f.industries {
		v.Add("industry", id)
	}
	if f.country != "" {
		v.Set("country", f.country)
	}
	if f.city != "" {
		v.Set("city", f.city)
	}
	if f.quality.HasEmail {
		v.Set("has_email", "true")
	}
	if f.quality.HasPhone {
		v.Set("has_phone", "true")
	}
	if f.quality.VerifiedOnly {
		v.Set("verified_only", "true")
	}
	return v
}

// ParseFilters decodes query parameters into a selection and page number.
//
// Supported parameters:
//   - industry: industry id, repeatable
//   - country: country code
//   - city: city name (ignored without country)
//   - has_email, has_phone, verified_only: booleans
//   - page: positive page number, defaults to 1
//
// Invalid booleans are reported as errors; an invalid page falls back to 1.
func ParseFilters(query url.Values) (FilterSelection, int, error) {
	page := 1
	if p := query.Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	var q QualityFlags
	flags := []struct {
		name string
		dst  *bool
	}{
		{"has_email", &q.HasEmail},
		{"has_phone", &q.HasPhone},
		{"verified_only", &q.VerifiedOnly},
	}
	for _, fl := range flags {
		raw := query.Get(fl.name)
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return FilterSelection{}, page, fmt.Errorf("invalid %s value %q: %w", fl.name, raw, err)
		}
		*fl.dst = b
	}

	f := NewFilterSelection(query["industry"], query.Get("country"), query.Get("city"), q)
	return f, page, nil
}
