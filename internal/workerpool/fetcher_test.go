package workerpool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanrfq/filmbro/internal/scraper"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(_ context.Context, req scraper.FetchRequest) (scraper.FetchResponse, error) {
	f.calls.Add(1)
	return scraper.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte("ok")}, nil
}

func TestFetcherRunsOnPool(t *testing.T) {
	t.Parallel()

	pool := startPool(t, 1, 1)
	next := &countingFetcher{}
	fetcher := NewFetcher(pool, next)

	resp, err := fetcher.Fetch(context.Background(), scraper.FetchRequest{URL: "https://lb.test/film/ran/"})
	require.NoError(t, err)
	assert.Equal(t, "https://lb.test/film/ran/", resp.URL)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestFetcherClosedPool(t *testing.T) {
	t.Parallel()

	pool := New(1, 1, nil)
	pool.Close()
	_, err := NewFetcher(pool, &countingFetcher{}).Fetch(context.Background(), scraper.FetchRequest{URL: "https://lb.test"})
	require.ErrorIs(t, err, ErrClosed)
}
