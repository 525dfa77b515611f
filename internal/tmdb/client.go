// Package tmdb resolves poster and backdrop image sets through the TMDB v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/metrics"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

// Defaults for the public API.
const (
	DefaultAPIBase   = "https://api.themoviedb.org/3"
	DefaultImageBase = "https://www.themoviedb.org/t/p/original"
)

// Config controls the API client.
type Config struct {
	APIBase   string
	ImageBase string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the TMDB API with a static API key.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID            int64  `json:"id"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

type imagesResponse struct {
	Posters   []image `json:"posters"`
	Backdrops []image `json:"backdrops"`
}

type image struct {
	FilePath string `json:"file_path"`
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.ImageBase == "" {
		cfg.ImageBase = DefaultImageBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(cfg.APIBase, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetQueryParam("api_key", cfg.APIKey)
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		metrics.ObserveUpstream(res.Request.URL, res.StatusCode(), res.Time())
		return nil
	})
	client.OnError(func(req *resty.Request, _ error) {
		metrics.ObserveUpstream(req.URL, 0, 0)
	})

	return &Client{http: client, cfg: cfg, logger: logger}
}

// Images resolves title (optionally narrowed to year; 0 means any year) and
// returns the image URLs of kind. Posters are restricted to English assets.
// A search without matches yields an empty ImageSet and no error.
func (c *Client) Images(ctx context.Context, title string, year int, kind scraper.ImageKind) (scraper.ImageSet, error) {
	match, ok, err := c.search(ctx, title, year)
	if err != nil {
		return scraper.ImageSet{}, err
	}
	if !ok {
		c.logger.Debug("tmdb search empty", zap.String("title", title), zap.Int("year", year))
		return scraper.ImageSet{}, nil
	}

	req := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(match.ID, 10)).
		SetResult(&imagesResponse{})
	if kind == scraper.ImagePosters {
		req.SetQueryParams(map[string]string{
			"language":               "en-US",
			"include_image_language": "en",
		})
	}
	res, err := req.Get("/movie/{id}/images")
	if err != nil {
		return scraper.ImageSet{}, fmt.Errorf("tmdb images %d: %w", match.ID, redactErr(err))
	}
	if res.IsError() {
		return scraper.ImageSet{}, &scraper.StatusError{URL: redact(res.Request.URL), StatusCode: res.StatusCode()}
	}
	payload, _ := res.Result().(*imagesResponse)
	if payload == nil {
		return scraper.ImageSet{}, fmt.Errorf("tmdb images %d: empty payload", match.ID)
	}

	list := payload.Backdrops
	if kind == scraper.ImagePosters {
		list = payload.Posters
	}
	set := scraper.ImageSet{Title: displayTitle(match)}
	for _, img := range list {
		if img.FilePath == "" {
			continue
		}
		set.Images = append(set.Images, c.cfg.ImageBase+img.FilePath)
	}
	return set, nil
}

func (c *Client) search(ctx context.Context, title string, year int) (searchResult, bool, error) {
	params := map[string]string{
		"language":      "en-US",
		"query":         title,
		"page":          "1",
		"include_adult": "false",
	}
	if year != 0 {
		params["year"] = strconv.Itoa(year)
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&searchResponse{}).
		Get("/search/movie")
	if err != nil {
		return searchResult{}, false, fmt.Errorf("tmdb search %q: %w", title, redactErr(err))
	}
	if res.IsError() {
		return searchResult{}, false, &scraper.StatusError{URL: redact(res.Request.URL), StatusCode: res.StatusCode()}
	}
	payload, _ := res.Result().(*searchResponse)
	if payload == nil || len(payload.Results) == 0 {
		return searchResult{}, false, nil
	}
	return payload.Results[0], true, nil
}

func displayTitle(r searchResult) string {
	if len(r.ReleaseDate) < 4 {
		return r.OriginalTitle
	}
	return fmt.Sprintf("%s (%s)", r.OriginalTitle, r.ReleaseDate[:4])
}

// redact drops the query string, which carries the API key.
func redact(rawURL string) string {
	head, _, _ := strings.Cut(rawURL, "?")
	return head
}

func redactErr(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: redact(urlErr.URL), Err: urlErr.Err}
	}
	return err
}
