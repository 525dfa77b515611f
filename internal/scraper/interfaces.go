package scraper

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// FilmFinder resolves a free-text title to a film.
type FilmFinder interface {
	Film(ctx context.Context, title string) (FilmResult, error)
}
