package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanrfq/filmbro/internal/format"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

const base = "https://letterboxd.com"

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		file      string
		wantPath  string
		wantFound bool
	}{
		{name: "first result", file: "search.html", wantPath: "/film/heat-1995/", wantFound: true},
		{name: "empty results", file: "search_empty.html"},
		{name: "no matches marker", file: "search_nomatch.html"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path, found, err := ParseSearch(fixture(t, tc.file))
			require.NoError(t, err)
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.wantPath, path)
		})
	}
}

func TestParseSearchMissingContainer(t *testing.T) {
	t.Parallel()

	_, _, err := ParseSearch([]byte(`<html><body><p>maintenance</p></body></html>`))
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestParseFilm(t *testing.T) {
	t.Parallel()

	film, err := ParseFilm(fixture(t, "film.html"), format.DefaultStars)
	require.NoError(t, err)

	assert.Equal(t, "Heat (1995)", film.Title)
	assert.Equal(t, "A Los Angeles crime saga", film.Tagline)
	assert.Equal(t, "Michael Mann", film.Directors)
	assert.Equal(t, "USA", film.Countries)
	assert.Equal(t, "Crime, Drama, Thriller", film.Genre)
	assert.Equal(t, "2h 50m", film.Duration)
	assert.Equal(t, "https://a.ltrbxd.com/resized/film-poster/5/1/4/9/7/51497-heat-0-230-0-345-crop.jpg", film.Poster)
	assert.InDelta(t, 4.36, film.RatingValue, 1e-9)
	assert.Equal(t, "★★★★½ 4.36", film.Rating)

	assert.True(t, strings.HasPrefix(film.Synopsis, "Obsessive master thief"))
	assert.True(t, strings.HasSuffix(film.Synopsis, "..."))
	assert.Equal(t, format.SynopsisLimit+3, utf8.RuneCountInString(film.Synopsis))
}

func TestParseFilmDefaultsOptionalFields(t *testing.T) {
	t.Parallel()

	film, err := ParseFilm(fixture(t, "film_minimal.html"), format.DefaultStars)
	require.NoError(t, err)

	assert.Equal(t, "Obscure Short (2020)", film.Title)
	assert.Equal(t, "★★★ 3.0", film.Rating)
	assert.Empty(t, film.Tagline)
	assert.Empty(t, film.Synopsis)
	assert.Empty(t, film.Duration)
	assert.Empty(t, film.Genre)
	assert.Empty(t, film.Countries)
	assert.Empty(t, film.Poster)
}

func TestParseFilmWithoutTitle(t *testing.T) {
	t.Parallel()

	_, err := ParseFilm([]byte(`<html><head></head><body></body></html>`), format.DefaultStars)
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestParseFilmCounts(t *testing.T) {
	t.Parallel()

	counts := ParseFilmCounts(fixture(t, "film_reviews.html"))
	assert.Equal(t, map[string]string{
		scraper.CountPeople:  "1.48m",
		scraper.CountLikes:   "402.1k",
		scraper.CountReviews: "71.2k",
	}, counts)
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	profile, err := ParseProfile(fixture(t, "profile.html"), base)
	require.NoError(t, err)

	assert.True(t, profile.Found)
	assert.Equal(t, "davevis", profile.Username)
	assert.Equal(t, "Dave Vis", profile.Name)
	assert.Equal(t, "https://a.ltrbxd.com/resized/avatar/upload/1/2/3/davevis-0-110-0-110-crop.jpg", profile.Avatar)
	assert.Equal(t, "Lisbon, Portugal", profile.Location)
	assert.Equal(t, []string{"https://davevis.example", "https://twitter.com/davevis"}, profile.Websites)
	assert.Equal(t, "1,234 films logged, 87 this year.", profile.FilmsCount)
	assert.Equal(t, "2,048", profile.Followers)
	assert.Equal(t, "I watch **everything** & write *some*.\nMore at [my site](https://davevis.example)", profile.Bio)
	assert.Equal(t, []scraper.Favorite{
		{Title: "Heat (1995)", URL: base + "/film/heat-1995/"},
		{Title: "Alien (1979)", URL: base + "/film/alien/"},
		{Title: "Stalker (1979)", URL: base + "/film/stalker/"},
		{Title: "Ran (1985)", URL: base + "/film/ran/"},
	}, profile.Favorites)
}

func TestParseProfileShortBioAndStaticAvatar(t *testing.T) {
	t.Parallel()

	profile, err := ParseProfile(fixture(t, "profile_short_bio.html"), base)
	require.NoError(t, err)

	assert.Equal(t, "Kim", profile.Username)
	assert.Equal(t, "kim", profile.Name)
	assert.Empty(t, profile.Avatar)
	assert.Equal(t, "Short bio\nsecond line", profile.Bio)
	assert.Empty(t, profile.FilmsCount)
	assert.Empty(t, profile.Followers)
	assert.Empty(t, profile.Websites)
	assert.Equal(t, []scraper.Favorite{
		{Title: "Ran (1985)", URL: base + "/film/ran/"},
		{Title: "Heat (1995)", URL: base + "/film/heat-1995/"},
	}, profile.Favorites)
}

func TestParseProfileNotFound(t *testing.T) {
	t.Parallel()

	profile, err := ParseProfile(fixture(t, "profile_missing.html"), base)
	require.NoError(t, err)
	assert.Equal(t, scraper.ProfileResult{}, profile)
}

func TestParseProfileMissingNode(t *testing.T) {
	t.Parallel()

	_, err := ParseProfile([]byte(`<html><body><p>hello</p></body></html>`), base)
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestPairFavorites(t *testing.T) {
	t.Parallel()

	got := pairFavorites([]string{"A", "B", "C"}, []string{"/a", "/b"})
	assert.Equal(t, []scraper.Favorite{{Title: "A", URL: "/a"}, {Title: "B", URL: "/b"}}, got)
	assert.Nil(t, pairFavorites(nil, []string{"/a"}))
}

func TestFavoriteTitles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Heat (1995)", "Ran (1985)"},
		favoriteTitles("Member. Favorites: Heat (1995), Ran (1985). Bio: hello there."))
	assert.Equal(t, []string{"Heat (1995)"}, favoriteTitles("Member. Favorites: Heat (1995)."))
	assert.Nil(t, favoriteTitles("Member since 2020."))
}

func TestParseDiary(t *testing.T) {
	t.Parallel()

	page, err := ParseDiary(fixture(t, "diary.html"), DiaryOptions{
		BaseURL: base,
		RefYear: 2026,
		Stars:   format.DefaultStars,
	})
	require.NoError(t, err)

	assert.True(t, page.Found)
	assert.False(t, page.IsEmpty())
	assert.Equal(t, "Dave Vis", page.Name)
	assert.Equal(t, "https://a.ltrbxd.com/resized/avatar/upload/1/2/3/davevis-0-220-0-220-crop.jpg", page.Avatar)
	require.Len(t, page.Entries, scraper.MaxDiaryEntries)

	assert.Equal(t, scraper.DiaryEntry{
		Title:    "Heat (1995)",
		Rating:   "★★★★½",
		Date:     "Oct 12",
		Liked:    true,
		Reviewed: true,
		URL:      base + "/film/heat-1995/",
	}, page.Entries[0])
	assert.True(t, page.Entries[1].Rewatched)
	assert.Equal(t, "★★★½", page.Entries[1].Rating)
	assert.Equal(t, "Dec 28, 2025", page.Entries[2].Date)
	assert.Equal(t, "Paris, Texas (1984)", page.Entries[3].Title)
	assert.Equal(t, "Rope (1948)", page.Entries[4].Title)
}

func TestParseDiarySentinels(t *testing.T) {
	t.Parallel()

	opts := DiaryOptions{BaseURL: base, RefYear: 2026, Stars: format.DefaultStars}

	missing, err := ParseDiary(fixture(t, "profile_missing.html"), opts)
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Empty(t, missing.Entries)

	empty, err := ParseDiary(fixture(t, "diary_empty.html"), opts)
	require.NoError(t, err)
	assert.True(t, empty.Found)
	assert.True(t, empty.IsEmpty())
	require.Len(t, empty.Entries, 1)
	assert.Empty(t, empty.Entries[0].Title)
	assert.Equal(t, "kim", empty.Name)
	assert.Empty(t, empty.Avatar)
}

func TestParseDiaryMissingTable(t *testing.T) {
	t.Parallel()

	_, err := ParseDiary([]byte(`<html><body></body></html>`), DiaryOptions{})
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestParseDiaryRowsWithoutEntries(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body><table><tbody>
<tr class="diary-entry-row"><td class="td-film-details">Heat</td></tr>
<tr class="diary-entry-row"><td class="td-film-details">Alien</td></tr>
</tbody></table></body></html>`)
	_, err := ParseDiary(body, DiaryOptions{BaseURL: base, RefYear: 2026, Stars: format.DefaultStars})
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestParseDiaryNoRowsIsEmpty(t *testing.T) {
	t.Parallel()

	page, err := ParseDiary([]byte(`<html><body><table><tbody></tbody></table></body></html>`), DiaryOptions{})
	require.NoError(t, err)
	assert.True(t, page.Found)
	assert.True(t, page.IsEmpty())
}

func TestParseLandingTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file     string
		pageType string
		want     string
	}{
		{file: "landing_film.html", pageType: TypeFilm, want: "Alien (1979)"},
		{file: "landing_review.html", pageType: TypeLogEntry, want: "Heat (1995)"},
		{file: "landing_entry.html", pageType: TypeLogEntry, want: "Ran (1985)"},
	}
	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLandingTitle(fixture(t, tc.file), tc.pageType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseLandingTitleUnknownPhrase(t *testing.T) {
	t.Parallel()

	_, err := ParseLandingTitle(fixture(t, "landing_film.html"), TypeLogEntry)
	require.ErrorIs(t, err, scraper.ErrStructure)
}

func TestHasMarkerDecodesEntities(t *testing.T) {
	t.Parallel()

	assert.True(t, HasMarker(fixture(t, "profile_missing.html"), NotFoundMarker))
	assert.False(t, HasMarker(fixture(t, "profile.html"), NotFoundMarker))
}
