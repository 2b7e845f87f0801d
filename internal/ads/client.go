// Package ads is a client for the NASA ADS search API.
package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the ADS search API endpoint.
	BaseURL = "https://api.adsabs.harvard.edu/v1/search/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit smooths bursts; ADS allows 5000 calls per day per token.
	RateLimit = 5.0

	// MaxAttempts bounds retries on bad status codes before giving up.
	MaxAttempts = 3

	// MaxRows is the largest row count ADS accepts for a single query.
	MaxRows = 2000

	// DefaultPublicationFields are the fields requested when refreshing an
	// author's publication list.
	DefaultPublicationFields = "title,bibcode,author,citation_count,pubdate"

	// DefaultCitationFields are the fields requested for citation queries.
	DefaultCitationFields = "title,bibcode,author,date,doi,citation_count"

	// DeepCheckFields adds the abstract so candidates can be reviewed.
	DeepCheckFields = "title,bibcode,author,citation_count,pubdate,abstract"
)

// Client is a rate-limited HTTP client for the ADS search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	calls      int
	remaining  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the API token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a new ADS search API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Calls returns how many API calls this client has made.
func (c *Client) Calls() int {
	return c.calls
}

// Remaining returns the last seen X-RateLimit-Remaining header value.
func (c *Client) Remaining() string {
	return c.remaining
}

// Search performs a generic query against the ADS search API.
// Bad status codes are retried up to MaxAttempts before ErrBadResponse;
// authentication failures and rate limiting fail immediately.
func (c *Client) Search(ctx context.Context, q, fields string, rows int, sort string) (*QueryResult, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no API token set", ErrAuth)
	}
	if rows <= 0 || rows > MaxRows {
		rows = MaxRows
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("fl", fields)
	params.Set("rows", fmt.Sprintf("%d", rows))
	if sort != "" {
		params.Set("sort", sort)
	}
	reqURL := c.baseURL + "?" + params.Encode()

	var body []byte
	var lastStatus int
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
		c.calls++

		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
		}
		if resp.StatusCode == 429 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		}
		if resp.StatusCode != 200 {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			logrus.WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  resp.StatusCode,
			}).Warn("bad status from ADS, retrying")
			continue
		}

		if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
			c.remaining = remaining
		}

		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		break
	}

	if body == nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, &APIError{
			StatusCode: lastStatus,
			Query:      q,
			Message:    fmt.Sprintf("gave up after %d attempts", MaxAttempts),
		})
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.ResponseHeader.Status != 0 {
		return nil, fmt.Errorf("%w: query status %d", ErrInvalidResponse, parsed.ResponseHeader.Status)
	}

	result := &QueryResult{
		Query:     q,
		NumFound:  parsed.Response.NumFound,
		Papers:    parsed.Response.Docs,
		QTime:     parsed.ResponseHeader.QTime,
		Remaining: c.remaining,
	}

	// The snapshot is a best-effort partial view when the result cap is hit.
	if result.NumFound > len(result.Papers) {
		result.Truncated = true
		logrus.WithFields(logrus.Fields{
			"query":     q,
			"num_found": result.NumFound,
			"rows":      rows,
		}).Warn("query returns over max rows, not all papers will be in the list")
	}

	return result, nil
}

// Citations queries which papers cite the paper with the given bibcode.
func (c *Client) Citations(ctx context.Context, bibcode, fields string, rows int) (*QueryResult, error) {
	if fields == "" {
		fields = DefaultCitationFields
	}
	return c.Search(ctx, fmt.Sprintf("citations(bibcode:%s)", bibcode), fields, rows, "")
}

// References queries which papers the paper with the given bibcode cites.
func (c *Client) References(ctx context.Context, bibcode, fields string, rows int) (*QueryResult, error) {
	if fields == "" {
		fields = DefaultCitationFields
	}
	return c.Search(ctx, fmt.Sprintf("references(bibcode:%s)", bibcode), fields, rows, "")
}
