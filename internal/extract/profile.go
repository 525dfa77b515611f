package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

// MaxWebsites caps the number of profile links surfaced.
const MaxWebsites = 2

const (
	favoritesLabel = "Favorites: "
	bioLabel       = "Bio: "
	metadatumClass = "metadatum -has-label js-metadatum"
)

// ParseProfile extracts a member profile. baseURL prefixes favourite links
// and the canonical URL is left to the caller.
func ParseProfile(body []byte, baseURL string) (scraper.ProfileResult, error) {
	if HasMarker(body, NotFoundMarker) {
		return scraper.ProfileResult{}, nil
	}
	doc, err := newDocument(body)
	if err != nil {
		return scraper.ProfileResult{}, err
	}
	username, ok := doc.Find(`div[data-profile="true"]`).First().Attr("data-username")
	if !ok {
		return scraper.ProfileResult{}, fmt.Errorf("profile node missing: %w", scraper.ErrStructure)
	}

	profile := scraper.ProfileResult{
		Found:    true,
		Username: strings.TrimSpace(username),
		Name:     before(ogTitle(doc), "’s profile"),
		Avatar:   avatar(doc, `img[width="110"]`),
		Bio:      profileBio(doc),
		Location: strings.TrimSpace(doc.Find(`div[class="` + metadatumClass + `"]`).First().Text()),
	}

	doc.Find(`a[class="` + metadatumClass + `"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && href != "" {
			profile.Websites = append(profile.Websites, href)
		}
		return len(profile.Websites) < MaxWebsites
	})

	var links []string
	doc.Find(`section#favourites [data-film-slug]`).Each(func(_ int, s *goquery.Selection) {
		slug, _ := s.Attr("data-film-slug")
		links = append(links, baseURL+slug)
	})
	titles := favoriteTitles(metaContent(doc, `meta[name="description"]`))
	profile.Favorites = pairFavorites(titles, links)

	stats := doc.Find(`h4[class="profile-statistic statistic"]`)
	if stats.Length() >= 2 {
		profile.FilmsCount = fmt.Sprintf("%s films logged, %s this year.",
			firstText(stats.Eq(0)), firstText(stats.Eq(1)))
	}
	if stats.Length() > 2 {
		profile.Followers = firstText(stats.Last())
	}
	return profile, nil
}

// pairFavorites zips favourite titles with their links by position. The two
// lists are scraped from different parts of the page and only line up while
// the site renders both in the same order.
func pairFavorites(titles, links []string) []scraper.Favorite {
	n := min(len(titles), len(links))
	if n == 0 {
		return nil
	}
	out := make([]scraper.Favorite, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, scraper.Favorite{Title: titles[i], URL: links[i]})
	}
	return out
}

func favoriteTitles(description string) []string {
	_, rest, ok := strings.Cut(description, favoritesLabel)
	if !ok || rest == "" {
		return nil
	}
	if strings.Contains(rest, bioLabel) {
		rest = before(rest, ". "+bioLabel)
	} else {
		_, size := utf8.DecodeLastRuneInString(rest)
		rest = rest[:len(rest)-size]
	}
	return strings.Split(rest, ", ")
}

func profileBio(doc *goquery.Document) string {
	section := doc.Find("section#person-bio").First()
	if section.Length() > 0 {
		for _, selector := range []string{
			`div[class="collapsed-text"]`,
			`div[class="collapsible-text body-text -small"]`,
		} {
			if node := section.Find(selector).First(); node.Length() > 0 {
				return bioMarkup(node)
			}
		}
		return ""
	}
	if node := doc.Find(`div[class="collapsible-text body-text -small js-bio-content"]`).First(); node.Length() > 0 {
		return bioMarkup(node)
	}
	return ""
}

func bioMarkup(node *goquery.Selection) string {
	fragment, err := node.Html()
	if err != nil {
		return strings.TrimSpace(node.Text())
	}
	return format.FormatBio(fragment)
}

func avatar(doc *goquery.Document, selector string) string {
	src, _ := doc.Find(selector).First().Attr("src")
	if strings.Contains(src, "static") {
		return ""
	}
	return src
}
