package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

const (
	editReviewButton = `a[class="edit-review-button has-icon icon-16 icon-edit"]`
	likedIcon        = `span[class="has-icon icon-16 large-liked icon-liked hide-for-owner"]`
)

// DiaryOptions carries the values a diary page needs beyond its body.
type DiaryOptions struct {
	BaseURL string
	RefYear int
	Stars   format.Stars
}

// ParseDiary extracts up to scraper.MaxDiaryEntries diary rows, newest first.
// It returns scraper.NotFoundDiary for a missing member and
// scraper.EmptyDiary for a member without entries.
func ParseDiary(body []byte, opts DiaryOptions) (scraper.DiaryPage, error) {
	if HasMarker(body, NotFoundMarker) {
		return scraper.NotFoundDiary(), nil
	}
	doc, err := newDocument(body)
	if err != nil {
		return scraper.DiaryPage{}, err
	}
	avatarURL := strings.ReplaceAll(avatar(doc, `img[width="24"]`), "0-48-0-48", "0-220-0-220")
	name := before(ogTitle(doc), "’s")

	if HasMarker(body, EmptyDiaryMarker) {
		return scraper.EmptyDiary(name, avatarURL), nil
	}
	table := doc.Find("tbody").First()
	if table.Length() == 0 {
		return scraper.DiaryPage{}, fmt.Errorf("diary table missing: %w", scraper.ErrStructure)
	}

	rows := table.Find("tr")
	page := scraper.DiaryPage{Found: true, Avatar: avatarURL, Name: name}
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if entry, ok := diaryEntry(row, opts); ok {
			page.Entries = append(page.Entries, entry)
		}
		return len(page.Entries) < scraper.MaxDiaryEntries
	})
	if len(page.Entries) == 0 {
		if rows.Length() > 0 {
			return scraper.DiaryPage{}, fmt.Errorf("diary rows without entries: %w", scraper.ErrStructure)
		}
		return scraper.EmptyDiary(name, avatarURL), nil
	}
	return page, nil
}

func diaryEntry(row *goquery.Selection, opts DiaryOptions) (scraper.DiaryEntry, bool) {
	button := row.Find(editReviewButton).First()
	if button.Length() == 0 {
		return scraper.DiaryEntry{}, false
	}
	attr := func(name string) string {
		v, _ := button.Attr(name)
		return strings.TrimSpace(v)
	}

	entry := scraper.DiaryEntry{
		Title:    fmt.Sprintf("%s (%s)", attr("data-film-name"), attr("data-film-year")),
		Date:     format.FormatViewingDate(attr("data-viewing-date-str"), opts.RefYear),
		Reviewed: attr("data-review-text") != "",
		Liked:    row.Find(likedIcon).Length() > 0,
	}
	if poster := attr("data-film-poster"); poster != "" {
		entry.URL = opts.BaseURL + strings.ReplaceAll(poster, "image-150/", "")
	}
	if rating, err := strconv.ParseFloat(attr("data-rating"), 64); err == nil {
		entry.Rating = opts.Stars.Render(rating / 2)
	}
	if rewatch, err := strconv.ParseBool(attr("data-rewatch")); err == nil {
		entry.Rewatched = rewatch
	}
	return entry, true
}
