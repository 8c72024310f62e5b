// Package fetcher issues paginated queries against the historical endpoint
// and reads the aggregate statistics.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/dashboard/filter"
	"fridge_monitor/internal/logger"
)

// PageSize is the fixed page size requested by the dashboard.
const PageSize = 20

// Endpoint paths.
const (
	PathFridges   = "/fridges"
	PathSettings  = "/settings"
	PathAnalytics = "/analytics"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 4 << 20 // 4 MB
)

// Client talks to the monitoring backend over HTTP.
type Client struct {
	base *url.URL
	path string
	http *http.Client
	log  *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPath selects the paginated endpoint (PathFridges or PathSettings).
func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

// WithTimeout bounds each request. A client passed to WithHTTPClient is
// copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			cp := *c.http
			cp.Timeout = d
			c.http = &cp
		}
	}
}

// WithHTTPClient replaces the transport. The client's own timeout is kept
// unless WithTimeout is applied afterwards.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.Component("fetcher") }
}

// New builds a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	c := &Client{
		base: u,
		path: PathFridges,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HasMore reports whether pages remain after page given total records.
func HasMore(page, total int) bool {
	return page*PageSize < total
}

// Query builds the outgoing parameters for page and criteria. A fridge id
// filter that is not an integer is left out; the caller enforces it locally.
func Query(page int, c filter.Criteria) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(PageSize))
	if c.FridgeID != "" {
		if _, err := strconv.Atoi(c.FridgeID); err == nil {
			q.Set(string(filter.FieldFridgeID), c.FridgeID)
		}
	}
	if c.InstrumentName != "" {
		q.Set(string(filter.FieldInstrumentName), c.InstrumentName)
	}
	if c.ParameterName != "" {
		q.Set(string(filter.FieldParameterName), c.ParameterName)
	}
	return q
}

// FetchPage requests one page of records. Errors wrap fridge_monitor.ErrNetwork
// or fridge_monitor.ErrDecode.
func (c *Client) FetchPage(ctx context.Context, page int, crit filter.Criteria) (fridge_monitor.FridgePage, error) {
	if page < 1 {
		return fridge_monitor.FridgePage{}, fmt.Errorf("invalid page %d", page)
	}
	var out fridge_monitor.FridgePage
	if err := c.getJSON(ctx, c.path, Query(page, crit), &out); err != nil {
		return fridge_monitor.FridgePage{}, err
	}
	if out.Fridges == nil {
		out.Fridges = []fridge_monitor.Record{}
	}
	c.log.Debugw("page_fetched", "page", page, "count", len(out.Fridges), "total", out.Total)
	return out, nil
}

// FetchAnalytics reads the precomputed summaries.
func (c *Client) FetchAnalytics(ctx context.Context) (fridge_monitor.Analytics, error) {
	var out fridge_monitor.Analytics
	if err := c.getJSON(ctx, PathAnalytics, nil, &out); err != nil {
		return fridge_monitor.Analytics{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", fridge_monitor.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", fridge_monitor.ErrNetwork, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: GET %s: status %d", fridge_monitor.ErrNetwork, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: GET %s: %w", fridge_monitor.ErrDecode, path, err)
	}
	return nil
}
