package workerpool

import (
	"context"

	"github.com/wildanrfq/filmbro/internal/scraper"
)

// Fetcher dispatches every page fetch of the wrapped fetcher onto a Pool.
type Fetcher struct {
	pool *Pool
	next scraper.Fetcher
}

// NewFetcher wraps next so its fetches run on pool workers.
func NewFetcher(pool *Pool, next scraper.Fetcher) *Fetcher {
	return &Fetcher{pool: pool, next: next}
}

// Fetch implements scraper.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, req scraper.FetchRequest) (scraper.FetchResponse, error) {
	return Submit(ctx, f.pool, func(ctx context.Context) (scraper.FetchResponse, error) {
		return f.next.Fetch(ctx, req)
	})
}
