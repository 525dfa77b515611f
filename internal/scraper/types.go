// Package scraper defines the domain records and collaborator contracts shared
// by the fetchers, the cache, and the outer surfaces.
package scraper

import (
	"maps"
	"net/http"
	"slices"
	"time"
)

// Kind names an entity kind. Each kind owns an independent cache.
type Kind string

// Entity kinds served by the service.
const (
	KindFilm     Kind = "film"
	KindProfile  Kind = "profile"
	KindDiary    Kind = "diary"
	KindPoster   Kind = "poster"
	KindBackdrop Kind = "backdrop"
	KindRoulette Kind = "roulette"
)

// Count keys used in FilmResult.Counts.
const (
	CountPeople  = "people"
	CountLikes   = "likes"
	CountReviews = "reviews"
)

// FilmResult is the assembled view of a single film page.
// A result with Found=false carries no other populated field.
type FilmResult struct {
	Found       bool              `json:"found"`
	Title       string            `json:"title,omitempty"`
	Tagline     string            `json:"tagline,omitempty"`
	Synopsis    string            `json:"synopsis,omitempty"`
	Rating      string            `json:"rating,omitempty"`
	RatingValue float64           `json:"rating_value,omitempty"`
	Duration    string            `json:"duration,omitempty"`
	Directors   string            `json:"directors,omitempty"`
	Countries   string            `json:"countries,omitempty"`
	Genre       string            `json:"genre,omitempty"`
	Poster      string            `json:"poster,omitempty"`
	Counts      map[string]string `json:"counts,omitempty"`
	URL         string            `json:"url,omitempty"`
}

// Clone returns a deep copy so cached values are never aliased.
func (f FilmResult) Clone() FilmResult {
	cp := f
	if f.Counts != nil {
		cp.Counts = maps.Clone(f.Counts)
	}
	return cp
}

// Favorite is one entry of a profile's four favourite films.
type Favorite struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ProfileResult is the assembled view of a member profile.
type ProfileResult struct {
	Found      bool       `json:"found"`
	Avatar     string     `json:"avatar,omitempty"`
	Username   string     `json:"username,omitempty"`
	Name       string     `json:"name,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Followers  string     `json:"followers,omitempty"`
	Favorites  []Favorite `json:"favorites,omitempty"`
	Location   string     `json:"location,omitempty"`
	FilmsCount string     `json:"films_count,omitempty"`
	Websites   []string   `json:"websites,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// Clone returns a deep copy of the profile.
func (p ProfileResult) Clone() ProfileResult {
	cp := p
	cp.Favorites = slices.Clone(p.Favorites)
	cp.Websites = slices.Clone(p.Websites)
	return cp
}

// MaxDiaryEntries bounds the diary sequence to the most recent viewings.
const MaxDiaryEntries = 5

// DiaryEntry is a single logged viewing.
type DiaryEntry struct {
	Title     string `json:"title"`
	Rating    string `json:"rating"`
	Date      string `json:"date"`
	Rewatched bool   `json:"rewatched"`
	Liked     bool   `json:"liked"`
	Reviewed  bool   `json:"reviewed"`
	URL       string `json:"url"`
}

// DiaryPage is the newest-first diary of a member.
//
// Two sentinel shapes exist: Found=false means the member does not exist,
// and Found=true with a single empty-titled entry means the diary is empty.
type DiaryPage struct {
	Found   bool         `json:"found"`
	Avatar  string       `json:"avatar,omitempty"`
	Name    string       `json:"name,omitempty"`
	Entries []DiaryEntry `json:"entries,omitempty"`
}

// NotFoundDiary is the sentinel for a missing member.
func NotFoundDiary() DiaryPage {
	return DiaryPage{}
}

// EmptyDiary is the sentinel for a member without diary entries.
func EmptyDiary(name, avatar string) DiaryPage {
	return DiaryPage{
		Found:   true,
		Avatar:  avatar,
		Name:    name,
		Entries: []DiaryEntry{{}},
	}
}

// IsEmpty reports whether the page is the empty-diary sentinel.
func (d DiaryPage) IsEmpty() bool {
	return d.Found && len(d.Entries) == 1 && d.Entries[0].Title == ""
}

// Clone returns a deep copy of the page.
func (d DiaryPage) Clone() DiaryPage {
	cp := d
	cp.Entries = slices.Clone(d.Entries)
	return cp
}

// ImageKind selects which TMDB image list to read.
type ImageKind string

// Image kinds.
const (
	ImagePosters   ImageKind = "posters"
	ImageBackdrops ImageKind = "backdrops"
)

// ImageSet holds the resolved title and its image URLs. An empty Images
// slice signals that no film matched.
type ImageSet struct {
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

// Found reports whether the set resolved to a film.
func (s ImageSet) Found() bool {
	return len(s.Images) > 0
}

// Clone returns a deep copy of the set.
func (s ImageSet) Clone() ImageSet {
	cp := s
	cp.Images = slices.Clone(s.Images)
	return cp
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the raw result of a page fetch.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
