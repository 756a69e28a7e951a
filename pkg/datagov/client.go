// Package datagov fetches complete record sets from a data.gov.sg-style
// datastore_search API using offset/limit pagination.
//
// The upstream is assumed unreliable: requests may time out, and oversized
// pages are rejected with 413. The client adapts its page size downward on
// rejection and retries timed-out requests a bounded number of times, always
// resuming at the same offset so the accumulated record set has no gaps and
// no duplicated pages.
package datagov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options tunes the fetch loop. Zero values fall back to defaults.
type Options struct {
	// PageSize is the initial limit per request.
	PageSize int
	// MinPageSize is the floor for adaptive page-size reduction. A 413 at
	// this size fails the fetch permanently.
	MinPageSize int
	// MaxRetries is the number of extra attempts after a timed-out request.
	MaxRetries int
	// RetryBackoff is the fixed pause before retrying after a timeout.
	RetryBackoff time.Duration
	// PolitenessDelay is the minimum spacing between successive page
	// requests. The upstream documents no concurrency tolerance, so requests
	// never overlap and this delay is a blocking pause.
	PolitenessDelay time.Duration
	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 5000
	}
	if o.MinPageSize <= 0 {
		o.MinPageSize = 1000
	}
	if o.MinPageSize > o.PageSize {
		o.MinPageSize = o.PageSize
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.PolitenessDelay <= 0 {
		o.PolitenessDelay = 500 * time.Millisecond
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	return o
}

// Client fetches paginated record sets.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient constructs a client for the datastore_search endpoint.
//
// baseURL should point at the search action itself, e.g.
// "https://data.gov.sg/api/action/datastore_search".
func NewClient(baseURL string, opts Options, logger zerolog.Logger) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("datagov base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse datagov base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("datagov base URL must include a host (got %q)", baseURL)
	}

	opts = opts.withDefaults()
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: opts.RequestTimeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.PolitenessDelay), 1),
		log:     logger,
	}, nil
}

type searchResponse struct {
	Result *struct {
		Records []map[string]any `json:"records"`
		Total   int              `json:"total"`
	} `json:"result"`
}

// FetchAll retrieves every record for the resource, in upstream page order.
//
// The loop terminates at the first empty page. Failures are reported as
// *FetchError; a failed fetch returns no records so callers never act on a
// partial result.
func (c *Client) FetchAll(ctx context.Context, resourceID string) ([]map[string]any, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return nil, fmt.Errorf("resource id is required")
	}

	var all []map[string]any
	offset := 0
	pageSize := c.opts.PageSize
	timeoutAttempts := 0

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, status, err := c.fetchPage(ctx, resourceID, offset, pageSize)
		switch {
		case err == nil:
			// fall through below
		case status == http.StatusRequestEntityTooLarge:
			if pageSize <= c.opts.MinPageSize {
				return nil, &FetchError{Kind: ErrPageSizeExceeded, StatusCode: status, Offset: offset, Err: err}
			}
			pageSize = pageSize / 2
			if pageSize < c.opts.MinPageSize {
				pageSize = c.opts.MinPageSize
			}
			c.log.Warn().Int("offset", offset).Int("page_size", pageSize).
				Msg("payload too large, shrinking page size")
			continue
		case isTimeout(err):
			if timeoutAttempts >= c.opts.MaxRetries {
				return nil, &FetchError{Kind: ErrTimeout, Offset: offset, Err: err}
			}
			timeoutAttempts++
			c.log.Warn().Int("offset", offset).Int("attempt", timeoutAttempts).
				Msg("request timed out, backing off")
			if err := sleepCtx(ctx, c.opts.RetryBackoff); err != nil {
				return nil, err
			}
			continue
		default:
			var fe *FetchError
			if errors.As(err, &fe) {
				return nil, err
			}
			return nil, &FetchError{Kind: ErrHTTP, StatusCode: status, Offset: offset, Err: err}
		}

		if len(page) == 0 {
			c.log.Info().Str("resource", resourceID).Int("rows", len(all)).Msg("fetch complete")
			return all, nil
		}
		all = append(all, page...)
		offset += pageSize
		timeoutAttempts = 0
		c.log.Debug().Str("resource", resourceID).Int("rows", len(all)).Msg("downloaded rows so far")
	}
}

// fetchPage requests one page. The returned status is the HTTP status code
// when a response was received, 0 otherwise.
func (c *Client) fetchPage(ctx context.Context, resourceID string, offset, limit int) ([]map[string]any, int, error) {
	u := *c.baseURL
	q := u.Query()
	q.Set("resource_id", resourceID)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, resp.StatusCode, fmt.Errorf("datastore_search: status=%s", resp.Status)
	}

	var out searchResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, resp.StatusCode, &FetchError{Kind: ErrMalformed, Offset: offset, Err: fmt.Errorf("parse response: %w", err)}
	}
	if out.Result == nil {
		return nil, resp.StatusCode, &FetchError{Kind: ErrMalformed, Offset: offset, Err: fmt.Errorf("response missing result field")}
	}
	return out.Result.Records, resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
