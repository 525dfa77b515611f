// Package service is the lookup surface of filmbro: every entity kind is
// served through its own result cache in front of the upstream fetchers.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/cache"
	"github.com/wildanrfq/filmbro/internal/metrics"
	"github.com/wildanrfq/filmbro/internal/scraper"
	"github.com/wildanrfq/filmbro/internal/workerpool"
)

// Lookup outcomes recorded in metrics.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
)

// Letterboxd fetches review-site entities.
type Letterboxd interface {
	Film(ctx context.Context, title string) (scraper.FilmResult, error)
	Profile(ctx context.Context, username string) (scraper.ProfileResult, error)
	Diary(ctx context.Context, username string) (scraper.DiaryPage, error)
}

// ImageSource resolves poster and backdrop sets.
type ImageSource interface {
	Images(ctx context.Context, title string, year int, kind scraper.ImageKind) (scraper.ImageSet, error)
}

// Spinner runs random film discovery.
type Spinner interface {
	Spin(ctx context.Context) (scraper.FilmResult, error)
}

// Deps wires the Service.
type Deps struct {
	Letterboxd Letterboxd
	Images     ImageSource
	// Pool runs image lookups. Letterboxd fetches are expected to be pooled
	// at the fetcher level.
	Pool *workerpool.Pool
	// NewSpinner builds the roulette spinner around the cached film finder
	// the Service hands it.
	NewSpinner func(films scraper.FilmFinder) Spinner
	Cache      cache.Options
	Logger     *zap.Logger
}

// Service answers lookups, caching every result per entity kind.
type Service struct {
	lb      Letterboxd
	images  ImageSource
	pool    *workerpool.Pool
	spinner Spinner
	logger  *zap.Logger

	films     *cache.Store[scraper.FilmResult]
	profiles  *cache.Store[scraper.ProfileResult]
	diaries   *cache.Store[scraper.DiaryPage]
	posters   *cache.Store[scraper.ImageSet]
	backdrops *cache.Store[scraper.ImageSet]
	roulette  *cache.Store[scraper.FilmResult]
}

// New builds a Service.
func New(deps Deps) (*Service, error) {
	if deps.Letterboxd == nil {
		return nil, errors.New("service: letterboxd client is required")
	}
	if deps.Images == nil {
		return nil, errors.New("service: image source is required")
	}
	if deps.Pool == nil {
		return nil, errors.New("service: worker pool is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{lb: deps.Letterboxd, images: deps.Images, pool: deps.Pool, logger: logger}
	var err error
	if s.films, err = cache.New(string(scraper.KindFilm), scraper.FilmResult.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if s.profiles, err = cache.New(string(scraper.KindProfile), scraper.ProfileResult.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if s.diaries, err = cache.New(string(scraper.KindDiary), scraper.DiaryPage.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if s.posters, err = cache.New(string(scraper.KindPoster), scraper.ImageSet.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if s.backdrops, err = cache.New(string(scraper.KindBackdrop), scraper.ImageSet.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if s.roulette, err = cache.New(string(scraper.KindRoulette), scraper.FilmResult.Clone, deps.Cache); err != nil {
		return nil, err
	}
	if deps.NewSpinner != nil {
		s.spinner = deps.NewSpinner(rouletteFilms{s})
	}
	return s, nil
}

// Film looks up a film by free-text title.
func (s *Service) Film(ctx context.Context, title string) (scraper.FilmResult, error) {
	film, err := s.films.GetOrFetch(ctx, title, func(ctx context.Context) (scraper.FilmResult, error) {
		return s.lb.Film(ctx, title)
	})
	s.observe(scraper.KindFilm, foundOutcome(film.Found), err)
	return film, err
}

// Profile looks up a member profile.
func (s *Service) Profile(ctx context.Context, username string) (scraper.ProfileResult, error) {
	profile, err := s.profiles.GetOrFetch(ctx, username, func(ctx context.Context) (scraper.ProfileResult, error) {
		return s.lb.Profile(ctx, username)
	})
	s.observe(scraper.KindProfile, foundOutcome(profile.Found), err)
	return profile, err
}

// Diary looks up the recent diary of a member.
func (s *Service) Diary(ctx context.Context, username string) (scraper.DiaryPage, error) {
	page, err := s.diaries.GetOrFetch(ctx, username, func(ctx context.Context) (scraper.DiaryPage, error) {
		return s.lb.Diary(ctx, username)
	})
	outcome := foundOutcome(page.Found)
	if page.IsEmpty() {
		outcome = outcomeEmpty
	}
	s.observe(scraper.KindDiary, outcome, err)
	return page, err
}

// Posters returns the English poster set of a film. A year of 0 means any
// release year.
func (s *Service) Posters(ctx context.Context, title string, year int) (scraper.ImageSet, error) {
	return s.imageSet(ctx, s.posters, scraper.KindPoster, scraper.ImagePosters, title, year)
}

// Backdrops returns the backdrop set of a film.
func (s *Service) Backdrops(ctx context.Context, title string, year int) (scraper.ImageSet, error) {
	return s.imageSet(ctx, s.backdrops, scraper.KindBackdrop, scraper.ImageBackdrops, title, year)
}

// Roulette returns a random film.
func (s *Service) Roulette(ctx context.Context) (scraper.FilmResult, error) {
	if s.spinner == nil {
		return scraper.FilmResult{}, errors.New("roulette is not configured")
	}
	film, err := s.spinner.Spin(ctx)
	s.observe(scraper.KindRoulette, foundOutcome(film.Found), err)
	return film, err
}

// CacheStats reports the number of cached results per entity kind.
func (s *Service) CacheStats() map[string]int {
	return map[string]int{
		s.films.Kind():     s.films.Len(),
		s.profiles.Kind():  s.profiles.Len(),
		s.diaries.Kind():   s.diaries.Len(),
		s.posters.Kind():   s.posters.Len(),
		s.backdrops.Kind(): s.backdrops.Len(),
		s.roulette.Kind():  s.roulette.Len(),
	}
}

func (s *Service) imageSet(ctx context.Context, store *cache.Store[scraper.ImageSet], kind scraper.Kind, imageKind scraper.ImageKind, title string, year int) (scraper.ImageSet, error) {
	set, err := store.GetOrFetch(ctx, imageKey(title, year), func(ctx context.Context) (scraper.ImageSet, error) {
		return workerpool.Submit(ctx, s.pool, func(ctx context.Context) (scraper.ImageSet, error) {
			return s.images.Images(ctx, title, year, imageKind)
		})
	})
	s.observe(kind, foundOutcome(set.Found()), err)
	return set, err
}

func (s *Service) observe(kind scraper.Kind, outcome string, err error) {
	if err != nil {
		outcome = outcomeError
		s.logger.Warn("lookup failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	metrics.ObserveLookup(string(kind), outcome)
}

// rouletteFilms resolves landed titles through the roulette-film cache.
type rouletteFilms struct{ s *Service }

func (r rouletteFilms) Film(ctx context.Context, title string) (scraper.FilmResult, error) {
	return r.s.roulette.GetOrFetch(ctx, title, func(ctx context.Context) (scraper.FilmResult, error) {
		return r.s.lb.Film(ctx, title)
	})
}

func imageKey(title string, year int) string {
	if year == 0 {
		return title
	}
	return fmt.Sprintf("%s\x00%d", title, year)
}

func foundOutcome(found bool) string {
	if found {
		return outcomeFound
	}
	return outcomeNotFound
}
