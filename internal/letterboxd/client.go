// Package letterboxd fetches and assembles film, profile and diary records
// from letterboxd.com.
package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/extract"
	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

// DefaultBaseURL is the public site root.
const DefaultBaseURL = "https://letterboxd.com"

// Config controls where and how pages are fetched.
type Config struct {
	BaseURL string
	Stars   format.Stars
}

// Client fetches Letterboxd pages through a scraper.Fetcher.
type Client struct {
	fetcher scraper.Fetcher
	clock   scraper.Clock
	cfg     Config
	logger  *zap.Logger
}

// New builds a Client.
func New(fetcher scraper.Fetcher, clock scraper.Clock, cfg Config, logger *zap.Logger) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Stars == (format.Stars{}) {
		cfg.Stars = format.DefaultStars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{fetcher: fetcher, clock: clock, cfg: cfg, logger: logger}
}

// BaseURL returns the site root used for requests and canonical URLs.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Film searches for title, takes the first hit, and assembles its page and
// review tallies. A search without hits yields a FilmResult with Found=false.
func (c *Client) Film(ctx context.Context, title string) (scraper.FilmResult, error) {
	query := format.NormalizeTitle(title)
	if query == "" {
		return scraper.FilmResult{}, nil
	}
	search, err := c.get(ctx, c.cfg.BaseURL+"/search/films/"+url.PathEscape(query)+"/?adult", false)
	if err != nil {
		return scraper.FilmResult{}, err
	}
	path, found, err := extract.ParseSearch(search.Body)
	if err != nil {
		return scraper.FilmResult{}, fmt.Errorf("parse search for %q: %w", query, err)
	}
	if !found {
		c.logger.Debug("film search empty", zap.String("query", query))
		return scraper.FilmResult{}, nil
	}

	filmURL := c.cfg.BaseURL + path
	page, err := c.get(ctx, filmURL, false)
	if err != nil {
		return scraper.FilmResult{}, err
	}
	reviews, err := c.get(ctx, strings.TrimSuffix(filmURL, "/")+"/reviews/", false)
	if err != nil {
		return scraper.FilmResult{}, err
	}

	film, err := extract.ParseFilm(page.Body, c.cfg.Stars)
	if err != nil {
		return scraper.FilmResult{}, fmt.Errorf("parse film %s: %w", filmURL, err)
	}
	film.Found = true
	film.Counts = extract.ParseFilmCounts(reviews.Body)
	film.URL = filmURL
	c.logger.Debug("film resolved", zap.String("query", query), zap.String("url", filmURL))
	return film, nil
}

// Profile fetches a member profile. Unknown members yield Found=false.
func (c *Client) Profile(ctx context.Context, username string) (scraper.ProfileResult, error) {
	profileURL := c.cfg.BaseURL + "/" + url.PathEscape(username)
	resp, err := c.get(ctx, profileURL, true)
	if err != nil {
		return scraper.ProfileResult{}, err
	}
	profile, err := extract.ParseProfile(resp.Body, c.cfg.BaseURL)
	if err != nil {
		if resp.StatusCode == http.StatusNotFound && errors.Is(err, scraper.ErrStructure) {
			return scraper.ProfileResult{}, nil
		}
		return scraper.ProfileResult{}, fmt.Errorf("parse profile %s: %w", profileURL, err)
	}
	if profile.Found {
		profile.URL = profileURL
	}
	return profile, nil
}

// Diary fetches the most recent diary entries of a member, distinguishing a
// missing member from an empty diary.
func (c *Client) Diary(ctx context.Context, username string) (scraper.DiaryPage, error) {
	diaryURL := c.cfg.BaseURL + "/" + url.PathEscape(username) + "/films/diary/"
	resp, err := c.get(ctx, diaryURL, true)
	if err != nil {
		return scraper.DiaryPage{}, err
	}
	page, err := extract.ParseDiary(resp.Body, extract.DiaryOptions{
		BaseURL: c.cfg.BaseURL,
		RefYear: c.clock.Now().Year(),
		Stars:   c.cfg.Stars,
	})
	if err != nil {
		if resp.StatusCode == http.StatusNotFound && errors.Is(err, scraper.ErrStructure) {
			return scraper.NotFoundDiary(), nil
		}
		return scraper.DiaryPage{}, fmt.Errorf("parse diary %s: %w", diaryURL, err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, rawURL string, allowNotFound bool) (scraper.FetchResponse, error) {
	resp, err := c.fetcher.Fetch(ctx, scraper.FetchRequest{URL: rawURL})
	if err != nil {
		return scraper.FetchResponse{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	if allowNotFound && resp.StatusCode == http.StatusNotFound {
		return resp, nil
	}
	return scraper.FetchResponse{}, &scraper.StatusError{URL: rawURL, StatusCode: resp.StatusCode}
}
