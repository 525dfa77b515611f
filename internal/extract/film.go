package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

var (
	posterPattern   = regexp.MustCompile(`"image":"([^\s"']+)`)
	genrePattern    = regexp.MustCompile(`"genre":\[([^\]]*)\]`)
	durationPattern = regexp.MustCompile(`(\d+)[\s\x{00a0}]*mins`)
	countsPattern   = regexp.MustCompile(`title="[^"]*?([\d][\d,.]*)(?:&nbsp;|\x{00a0}| )(people|likes|reviews)"`)
)

// ParseSearch returns the site-relative path of the first search result.
// found is false when the search produced no matches.
func ParseSearch(body []byte) (path string, found bool, err error) {
	doc, err := newDocument(body)
	if err != nil {
		return "", false, err
	}
	results := doc.Find("ul.results")
	if results.Length() == 0 {
		if HasMarker(body, NoSearchMatchMarker) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("search results container missing: %w", scraper.ErrStructure)
	}
	link, ok := results.Find("li div[data-target-link]").First().Attr("data-target-link")
	if !ok || strings.TrimSpace(link) == "" {
		return "", false, nil
	}
	return strings.TrimSpace(link), true, nil
}

// ParseFilm extracts the film page fields. Found, Counts and URL are left to
// the caller.
func ParseFilm(body []byte, stars format.Stars) (scraper.FilmResult, error) {
	doc, err := newDocument(body)
	if err != nil {
		return scraper.FilmResult{}, err
	}
	title := ogTitle(doc)
	if title == "" {
		return scraper.FilmResult{}, fmt.Errorf("film title missing: %w", scraper.ErrStructure)
	}

	film := scraper.FilmResult{
		Title:     title,
		Synopsis:  format.TruncateSynopsis(metaContent(doc, `meta[name="description"]`)),
		Tagline:   strings.TrimSpace(doc.Find("h4.tagline").First().Text()),
		Directors: metaContent(doc, `meta[name="twitter:data1"]`),
		Countries: countries(doc),
	}

	if m := posterPattern.FindSubmatch(body); m != nil {
		film.Poster = string(m[1])
	}
	if m := genrePattern.FindSubmatch(body); m != nil {
		film.Genre = joinGenres(string(m[1]))
	}
	if m := durationPattern.FindStringSubmatch(doc.Find("p.text-link.text-footer").First().Text()); m != nil {
		if minutes, convErr := strconv.Atoi(m[1]); convErr == nil {
			film.Duration = format.ConvertDuration(minutes)
		}
	}
	if raw := metaContent(doc, `meta[name="twitter:data2"]`); raw != "" {
		if value, parseErr := strconv.ParseFloat(strings.TrimSpace(before(raw, " out")), 64); parseErr == nil {
			film.RatingValue = value
			film.Rating = renderRating(stars, value)
		}
	}
	return film, nil
}

// ParseFilmCounts reads the people/likes/reviews tallies from a film's
// reviews page. Unparseable tallies are skipped.
func ParseFilmCounts(body []byte) map[string]string {
	counts := make(map[string]string, 3)
	for _, m := range countsPattern.FindAllSubmatch(body, -1) {
		formatted, err := format.FormatNumber(string(m[1]))
		if err != nil {
			continue
		}
		counts[string(m[2])] = formatted
	}
	return counts
}

func renderRating(stars format.Stars, value float64) string {
	number := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(number, ".") {
		number += ".0"
	}
	return strings.TrimSpace(stars.Render(value) + " " + number)
}

func countries(doc *goquery.Document) string {
	seen := make(map[string]struct{})
	var names []string
	doc.Find(`a[href*="/films/country/"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return strings.Join(names, ", ")
}

func joinGenres(raw string) string {
	parts := strings.Split(strings.ReplaceAll(raw, `"`, ""), ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
