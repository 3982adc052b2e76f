// Package client is a typed HTTP client for the hosted lead-search service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/config"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/version"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 64 << 10

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Credentials       auth.Provider
	// Transport is the innermost round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client talks to the lead-search API. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}
	if opts.Credentials == nil {
		return nil, errors.New("credential provider is required")
	}

	inner := opts.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &oauth2.Transport{
				Source: tokenSource{opts.Credentials},
				Base:   gzhttp.Transport(inner),
			},
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.ForService("client"),
	}, nil
}

// NewFromConfig builds a client from the [api] section.
func NewFromConfig(cfg *config.Config, creds auth.Provider) (*Client, error) {
	return New(Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout.Duration,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Credentials:       creds,
	})
}

// tokenSource reads the provider on every request so a logout or a new
// login is picked up without rebuilding the client.
type tokenSource struct {
	p auth.Provider
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.p.Token()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

type searchRequest struct {
	leads.FilterFields
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Search fetches one page of leads matching filters.
func (c *Client) Search(ctx context.Context, filters leads.FilterSelection, page, perPage int) (leads.SearchResultPage, error) {
	var out leads.SearchResultPage
	req := searchRequest{FilterFields: filters.Fields(), Page: page, PerPage: perPage}
	if err := c.do(ctx, http.MethodPost, "/api/leads/search", nil, req, &out); err != nil {
		return leads.SearchResultPage{}, err
	}
	if out.Pagination.Page == 0 {
		out.Pagination.Page = page
	}
	if out.Leads == nil {
		out.Leads = []leads.Lead{}
	}
	return out, nil
}

// Preview returns the estimated volume for filters.
func (c *Client) Preview(ctx context.Context, filters leads.FilterSelection) (leads.PreviewEstimate, error) {
	var out leads.PreviewEstimate
	if err := c.do(ctx, http.MethodPost, "/api/leads/preview", nil, filters.Fields(), &out); err != nil {
		return leads.PreviewEstimate{}, err
	}
	return out, nil
}

func (c *Client) Usage(ctx context.Context) (leads.UsageSnapshot, error) {
	var out leads.UsageSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/usage", nil, nil, &out); err != nil {
		return leads.UsageSnapshot{}, err
	}
	return out, nil
}

func (c *Client) Countries(ctx context.Context) ([]string, error) {
	return c.strings(ctx, "/api/locations/countries", nil)
}

func (c *Client) PopularCountries(ctx context.Context) ([]string, error) {
	return c.strings(ctx, "/api/locations/countries/popular", nil)
}

func (c *Client) Cities(ctx context.Context, country string) ([]string, error) {
	return c.strings(ctx, "/api/locations/cities", url.Values{"country": {country}})
}

type exportRequest struct {
	Format leads.ExportFormat `json:"format"`
	leads.FilterFields
}

type exportResponse struct {
	ID json.RawMessage `json:"id"`
}

// CreateExport submits an export job and returns its identifier.
func (c *Client) CreateExport(ctx context.Context, job leads.ExportJob) (string, error) {
	var out exportResponse
	req := exportRequest{Format: job.Format, FilterFields: job.Filters.Fields()}
	if err := c.do(ctx, http.MethodPost, "/api/exports", nil, req, &out); err != nil {
		return "", err
	}
	// ids are strings or numbers depending on the deployment
	var id string
	if err := json.Unmarshal(out.ID, &id); err != nil {
		id = string(bytes.TrimSpace(out.ID))
	}
	return id, nil
}

func (c *Client) strings(ctx context.Context, path string, query url.Values) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
