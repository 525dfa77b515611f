// Package roulette discovers a random film by sampling the short-link space
// of the site until a link lands on a film or a diary entry.
package roulette

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/extract"
	"github.com/wildanrfq/filmbro/internal/metrics"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

// Defaults for Config.
const (
	DefaultShortLinkBase = "https://boxd.it"
	DefaultMaxProbes     = 200
	DefaultAttempts      = 3

	// TypeHeader carries the page type of a short-link landing page.
	TypeHeader = "X-Letterboxd-Type"

	idLength    = 6
	idMinLength = 4
	alphabet    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var errLandedNowhere = errors.New("landing page resolved to no film")

// Config bounds a spin.
type Config struct {
	ShortLinkBase string
	// MaxProbes caps short-link requests within a single spin.
	MaxProbes int
}

// Random is the source of candidate identifiers.
type Random interface {
	IntN(n int) int
}

// Spinner runs the random discovery loop.
type Spinner struct {
	fetcher scraper.Fetcher
	films   scraper.FilmFinder
	retry   RetryPolicy
	rnd     Random
	cfg     Config
	logger  *zap.Logger
}

// Option customizes a Spinner.
type Option func(*Spinner)

// WithRandom replaces the identifier source.
func WithRandom(r Random) Option {
	return func(s *Spinner) { s.rnd = r }
}

// WithRetryPolicy replaces the outer retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Spinner) { s.retry = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Spinner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Spinner that probes through fetcher and resolves landed titles
// through films.
func New(fetcher scraper.Fetcher, films scraper.FilmFinder, cfg Config, opts ...Option) *Spinner {
	cfg.ShortLinkBase = strings.TrimSuffix(cfg.ShortLinkBase, "/")
	if cfg.ShortLinkBase == "" {
		cfg.ShortLinkBase = DefaultShortLinkBase
	}
	if cfg.MaxProbes <= 0 {
		cfg.MaxProbes = DefaultMaxProbes
	}
	s := &Spinner{
		fetcher: fetcher,
		films:   films,
		retry:   NewExponentialRetryPolicy(DefaultAttempts, 250*time.Millisecond, 2*time.Second),
		rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spin returns a random found film. When every attempt fails the error wraps
// scraper.ErrRouletteExhausted.
func (s *Spinner) Spin(ctx context.Context) (scraper.FilmResult, error) {
	for attempt := 1; ; attempt++ {
		film, err := s.spinOnce(ctx)
		if err == nil {
			return film, nil
		}
		if ctx.Err() != nil {
			return scraper.FilmResult{}, ctx.Err()
		}
		if !s.retry.ShouldRetry(err, attempt) {
			if errors.Is(err, scraper.ErrRouletteExhausted) {
				return scraper.FilmResult{}, err
			}
			return scraper.FilmResult{}, fmt.Errorf("%w after %d attempts: %w", scraper.ErrRouletteExhausted, attempt, err)
		}
		wait := s.retry.Backoff(attempt)
		s.logger.Debug("roulette attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return scraper.FilmResult{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Spinner) spinOnce(ctx context.Context) (scraper.FilmResult, error) {
	pageType, landing, err := s.probe(ctx)
	if err != nil {
		return scraper.FilmResult{}, err
	}
	title, err := extract.ParseLandingTitle(landing.Body, pageType)
	if err != nil {
		return scraper.FilmResult{}, fmt.Errorf("landing %s: %w", landing.URL, err)
	}
	film, err := s.films.Film(ctx, title)
	if err != nil {
		return scraper.FilmResult{}, err
	}
	if !film.Found {
		return scraper.FilmResult{}, fmt.Errorf("%q: %w", title, errLandedNowhere)
	}
	s.logger.Info("roulette landed", zap.String("title", film.Title), zap.String("via", landing.URL))
	return film, nil
}

// probe walks candidate short links until one lands on an accepted page type
// or the probe budget runs out.
func (s *Spinner) probe(ctx context.Context) (string, scraper.FetchResponse, error) {
	id := s.newID()
	for probes := 0; probes < s.cfg.MaxProbes; probes++ {
		if len(id) < idMinLength {
			id = s.newID()
		}
		resp, err := s.fetcher.Fetch(ctx, scraper.FetchRequest{URL: s.cfg.ShortLinkBase + "/" + id})
		if err != nil {
			if ctx.Err() != nil {
				return "", scraper.FetchResponse{}, ctx.Err()
			}
			metrics.ObserveRouletteProbe("error")
			continue
		}
		pageType := resp.Headers.Get(TypeHeader)
		if pageType != extract.TypeFilm && pageType != extract.TypeLogEntry {
			metrics.ObserveRouletteProbe("rejected")
			id = id[:len(id)-1]
			continue
		}
		metrics.ObserveRouletteProbe("accepted")
		return pageType, resp, nil
	}
	return "", scraper.FetchResponse{}, fmt.Errorf("%w: %d probes without a film", scraper.ErrRouletteExhausted, s.cfg.MaxProbes)
}

func (s *Spinner) newID() string {
	var b strings.Builder
	b.Grow(idLength)
	for range idLength {
		b.WriteByte(alphabet[s.rnd.IntN(len(alphabet))])
	}
	return b.String()
}
