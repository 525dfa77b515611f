package extract

import (
	"fmt"
	"strings"

	"github.com/wildanrfq/filmbro/internal/scraper"
)

// Landing page types reported in the X-Letterboxd-Type header.
const (
	TypeFilm     = "Film"
	TypeLogEntry = "LogEntry"
)

var logEntryPhrases = []string{"entry for ", "review of "}

// ParseLandingTitle resolves the film title a short link landed on. Film
// pages carry it verbatim in og:title; diary and review pages embed it after
// a fixed phrase.
func ParseLandingTitle(body []byte, pageType string) (string, error) {
	doc, err := newDocument(body)
	if err != nil {
		return "", err
	}
	title := ogTitle(doc)
	if title == "" {
		return "", fmt.Errorf("landing title missing: %w", scraper.ErrStructure)
	}
	if pageType != TypeLogEntry {
		return title, nil
	}
	for _, phrase := range logEntryPhrases {
		if _, rest, ok := strings.Cut(title, phrase); ok && strings.TrimSpace(rest) != "" {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("log entry title %q: %w", title, scraper.ErrStructure)
}
