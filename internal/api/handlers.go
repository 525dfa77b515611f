package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/scraper"
)

const upstreamFailure = "upstream lookup failed"

var (
	errBadYear = errors.New("year must be a non-negative integer")
	errNoTitle = errors.New("title is required")
)

// filmTitle reads the title from the path, or from ?title= for titles that
// contain a slash. Escaped path segments are decoded.
func filmTitle(r *http.Request) (string, error) {
	title := r.URL.Query().Get("title")
	if title == "" {
		raw := chi.URLParam(r, "title")
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			decoded = raw
		}
		title = decoded
	}
	if strings.TrimSpace(title) == "" {
		return "", errNoTitle
	}
	return title, nil
}

func (s *Server) getFilm(w http.ResponseWriter, r *http.Request) {
	title, err := filmTitle(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	film, err := s.lookup.Film(r.Context(), title)
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, film)
}

func (s *Server) getImages(kind scraper.ImageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := parseYear(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		title, err := filmTitle(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var set scraper.ImageSet
		if kind == scraper.ImagePosters {
			set, err = s.lookup.Posters(r.Context(), title, year)
		} else {
			set, err = s.lookup.Backdrops(r.Context(), title, year)
		}
		if err != nil {
			s.upstreamError(w, r, err)
			return
		}
		if set.Images == nil {
			set.Images = []string{}
		}
		writeJSON(w, http.StatusOK, set)
	}
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.lookup.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) getDiary(w http.ResponseWriter, r *http.Request) {
	page, err := s.lookup.Diary(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getRoulette(w http.ResponseWriter, r *http.Request) {
	film, err := s.lookup.Roulette(r.Context())
	if err != nil {
		s.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, film)
}

func (s *Server) getCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.lookup.CacheStats()})
}

// upstreamError logs the detailed failure and answers with a generic message.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("lookup failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusBadGateway, upstreamFailure)
}

func parseYear(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0, errBadYear
	}
	return year, nil
}
