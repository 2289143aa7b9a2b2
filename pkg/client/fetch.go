package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/alpweather/meteoswiss-mcp/pkg/cache"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 1 * time.Second
	defaultTimeout    = 5 * time.Second
	defaultUserAgent  = "meteoswiss-mcp/1.0"

	// retryJitterMax is added on top of the base delay before each retry to
	// avoid synchronized retry storms.
	retryJitterMax = 200 * time.Millisecond
)

// Fetcher issues upstream GET requests with bounded retries, cooperating with
// the response cache for conditional revalidation. Retries are spaced by a
// constant base delay plus jitter; only the retry count is load-bearing.
type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
	log    *slog.Logger

	retries    int
	retryDelay time.Duration
	timeout    time.Duration
	userAgent  string
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithCache enables response caching. Without it every fetch goes upstream.
func WithCache(c *cache.Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
	}
}

func WithLogger(log *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log
	}
}

func WithRetries(retries int) FetcherOption {
	return func(f *Fetcher) {
		if retries < 0 {
			panic("retries must be >= 0")
		}
		f.retries = retries
	}
}

func WithRetryDelay(delay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.retryDelay = delay
	}
}

func WithRequestTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout <= 0 {
			panic("timeout must be > 0")
		}
		f.timeout = timeout
	}
}

func WithUserAgent(userAgent string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:     NewClient(),
		log:        slog.Default(),
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		timeout:    defaultTimeout,
		userAgent:  defaultUserAgent,
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// fetchOpts are per-call overrides of the Fetcher defaults.
type fetchOpts struct {
	headers  map[string]string
	useCache bool
}

type FetchOption func(*fetchOpts)

// WithHeader adds a request header to every attempt of this fetch.
func WithHeader(key, value string) FetchOption {
	return func(o *fetchOpts) {
		o.headers[key] = value
	}
}

// WithoutCache bypasses the cache for this fetch: no fresh-hit shortcut, no
// conditional headers, no store of the response.
func WithoutCache() FetchOption {
	return func(o *fetchOpts) {
		o.useCache = false
	}
}

// FetchText fetches url and returns the response body. A fresh cache hit is
// returned without network I/O. Otherwise up to retries+1 attempts are made,
// each bounded by the request timeout; the last error is returned as a
// *HTTPRequestError.
func (f *Fetcher) FetchText(ctx context.Context, url string, opts ...FetchOption) (string, error) {
	o := fetchOpts{
		headers:  map[string]string{},
		useCache: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// The stale entry is read before the freshness check: Get evicts expired
	// entries, and the evicted body and validators are still needed to
	// revalidate with a conditional request.
	var stale cache.Entry
	var hasStale bool
	if f.cacheEnabled(o) {
		stale, hasStale = f.cache.GetStaleEntry(url)
		if entry, ok := f.cache.Get(url); ok {
			f.log.Debug("fetch served from cache", "url", url)
			return entry.Data, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			if err := f.backoff(ctx); err != nil {
				return "", &HTTPRequestError{URL: url, Err: err}
			}
		}

		body, err := f.attempt(ctx, url, o, stale, hasStale)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.log.Warn("fetch attempt failed", "url", url, "attempt", attempt+1, "err", err)
	}

	var reqErr *HTTPRequestError
	if !errors.As(lastErr, &reqErr) {
		lastErr = &HTTPRequestError{URL: url, Err: lastErr}
	}
	return "", lastErr
}

// FetchJSON fetches url and decodes the body into v. Decode failures are not
// retried; they are a property of the fetched body, not a transient fault.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any, opts ...FetchOption) error {
	opts = append([]FetchOption{WithHeader("Accept", "application/json")}, opts...)

	body, err := f.FetchText(ctx, url, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return &HTTPRequestError{URL: url, Err: fmt.Errorf("parsing JSON response: %w", err)}
	}
	return nil
}

// FetchHTML is FetchText with an HTML accept preference.
func (f *Fetcher) FetchHTML(ctx context.Context, url string, opts ...FetchOption) (string, error) {
	opts = append([]FetchOption{
		WithHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"),
	}, opts...)
	return f.FetchText(ctx, url, opts...)
}

func (f *Fetcher) attempt(ctx context.Context, url string, o fetchOpts, stale cache.Entry, hasStale bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("Accept", "text/plain,*/*;q=0.8")
	req.Header.Set("User-Agent", f.userAgent)
	for key, value := range o.headers {
		req.Header.Set(key, value)
	}

	// Validators of an expired entry still allow revalidation instead of a
	// full refetch.
	if hasStale {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastModified != "" {
			req.Header.Set("If-Modified-Since", stale.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		if !hasStale {
			// 304 without a cached body; retry as an upstream error
			return "", &HTTPRequestError{URL: url, Status: resp.StatusCode}
		}
		f.cache.UpdateNotModified(url, resp.Header)
		if entry, ok := f.cache.Get(url); ok {
			f.log.Debug("fetch revalidated", "url", url)
			return entry.Data, nil
		}
		// The expired entry was already evicted; re-store the stale body with
		// a refreshed TTL, falling back to its old validators when the 304
		// carries none.
		f.cache.Set(url, stale.Data, withStaleValidators(resp.Header, stale))
		return stale.Data, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPRequestError{URL: url, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := string(raw)

	if f.cacheEnabled(o) {
		f.cache.Set(url, body, resp.Header)
	}
	return body, nil
}

func withStaleValidators(headers http.Header, stale cache.Entry) http.Header {
	merged := headers.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	if merged.Get("Etag") == "" && stale.ETag != "" {
		merged.Set("Etag", stale.ETag)
	}
	if merged.Get("Last-Modified") == "" && stale.LastModified != "" {
		merged.Set("Last-Modified", stale.LastModified)
	}
	return merged
}

func (f *Fetcher) cacheEnabled(o fetchOpts) bool {
	return o.useCache && f.cache != nil
}

// backoff waits the base retry delay plus up to 200ms of jitter, honoring
// context cancellation.
func (f *Fetcher) backoff(ctx context.Context) error {
	wait := f.retryDelay + rand.N(retryJitterMax)
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
