package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrStructure marks a page that lacks a structural prerequisite, such as
	// the search results container. It is fatal for the current lookup.
	ErrStructure = errors.New("unexpected page structure")

	// ErrRouletteExhausted is returned when random discovery runs out of
	// probes or attempts without landing on a film.
	ErrRouletteExhausted = errors.New("roulette exhausted")
)

// StatusError reports an upstream response with an unexpected status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
