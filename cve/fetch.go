package cve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/flanksource/commons/logger"

	"github.com/brel-ge/kcfg-vex/internal/cache"
	"github.com/brel-ge/kcfg-vex/models"
)

const advisoryEndpoint = "https://cveawg.mitre.org/api/cve/%s"

// Fetcher implements the Advisory Fetcher (spec.md §6, C6a): a thin
// HTTP client mapping advisory id to JSON document, with an on-disk cache.
//
// Grounded on the teacher's analysis/resolution_service.go: an *http.Client
// with a fixed timeout paired with a golang.org/x/time/rate limiter guarding
// a cache-backed lookup.
type Fetcher struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cache       *cache.AdvisoryCache
	cacheOnly   bool
}

// FetcherOption configures a Fetcher at construction.
type FetcherOption func(*Fetcher)

// WithCacheOnly fails closed with CveNotFound instead of making a network
// call for any id not already cached (SPEC_FULL.md §4.7, --cache-only).
func WithCacheOnly(cacheOnly bool) FetcherOption {
	return func(f *Fetcher) { f.cacheOnly = cacheOnly }
}

// NewFetcher builds a Fetcher backed by the given cache, with a 30s
// per-request timeout (spec.md §6) and a 5 req/s rate limit.
func NewFetcher(advisoryCache *cache.AdvisoryCache, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
		cache:       advisoryCache,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the raw JSON document for id, preferring the cache unless
// forceRefresh is set. A cache miss under --cache-only is CveNotFound, not
// a network error.
func (f *Fetcher) Fetch(ctx context.Context, id string, forceRefresh bool) (string, error) {
	if !forceRefresh {
		if doc, ok, err := f.cache.Get(id); err == nil && ok {
			logger.Debugf("advisory cache hit for %s", id)
			return doc, nil
		}
	}

	if f.cacheOnly {
		return "", models.NewCveNotFoundError(id)
	}

	if err := f.rateLimiter.Wait(ctx); err != nil {
		return "", models.NewHttpError("rate limiter wait failed for "+id, err)
	}

	url := fmt.Sprintf(advisoryEndpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", models.NewHttpError("failed to build request for "+id, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", models.NewHttpError("request failed for "+id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", models.NewCveNotFoundError(id)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewHttpError("failed to read response body for "+id, err)
	}

	doc := string(body)
	if err := f.cache.Put(id, doc); err != nil {
		logger.Warnf("failed to cache advisory %s: %v", id, err)
	}
	return doc, nil
}
