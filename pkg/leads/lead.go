package leads

import (
	"fmt"
	"strings"
	"time"
)

// Lead is a single business record returned by the search service.
type Lead struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Industry     string    `json:"industry"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Address      string    `json:"address,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Website      string    `json:"website,omitempty"`
	QualityScore float64   `json:"quality_score"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Location renders "City, Country", omitting missing parts.
func (l Lead) Location() string {
	parts := make([]string, 0, 2)
	if l.City != "" {
		parts = append(parts, l.City)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

// Pagination describes where a page sits in the full result set. The values
// come from the service and are never recomputed by the client.
type Pagination struct {
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	Page       int  `json:"page"`
}

// SearchResultPage is one page of leads plus its pagination descriptor.
type SearchResultPage struct {
	Leads      []Lead     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PreviewEstimate is the advisory volume estimate for a selection.
type PreviewEstimate struct {
	EstimatedCount  int     `json:"estimated_count"`
	WithEmailCount  int     `json:"with_email_count"`
	WithEmailPct    float64 `json:"with_email_pct"`
	WithPhoneCount  int     `json:"with_phone_count"`
	WithPhonePct    float64 `json:"with_phone_pct"`
	VerifiedCount   int     `json:"verified_count"`
	VerifiedPct     float64 `json:"verified_pct"`
	QualityScoreAvg float64 `json:"quality_score_avg"`
}

// UsageSnapshot is the account's credit position as last reported by the
// service. It may be stale; the service enforces the real quota.
type UsageSnapshot struct {
	UsageCount int    `json:"usage_count"`
	UsageLimit int    `json:"usage_limit"`
	Remaining  int    `json:"remaining"`
	Tier       string `json:"tier"`
}

// Unlimited reports whether the plan has no credit ceiling.
func (u UsageSnapshot) Unlimited() bool {
	return u.UsageLimit <= 0
}

// ExportFormat is the file format of an export job.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// ParseExportFormat validates a user supplied format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatExcel:
		return f, nil
	case "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or excel)", s)
}

// ExportJob is a request to export every lead matching Filters.
type ExportJob struct {
	Format  ExportFormat
	Filters FilterSelection
}
