// Package format holds the pure text normalizers that turn scraped values into
// display-ready strings.
package format

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SynopsisLimit is the rune length after which a synopsis is truncated.
const SynopsisLimit = 100

var (
	anchorPattern = regexp.MustCompile(`(?s)<a[^>]*?href="([^"]*)"[^>]*>(.*?)</a>`)
	breakPattern  = regexp.MustCompile(`<br\s*/?>`)
	titlePattern  = regexp.MustCompile(
		`([^[:ascii:][:alnum:]'\s]|^)([[:ascii:][:alnum:]'\s\x{4e00}-\x{9fff}]*)([^[:ascii:][:alnum:]'\s]|$)`,
	)

	bioReplacer = strings.NewReplacer(
		"<p>", "",
		"</p>", "\n",
		"<b>", "**",
		"</b>", "**",
		"<strong>", "**",
		"</strong>", "**",
		"<i>", "*",
		"</i>", "*",
		"<em>", "*",
		"</em>", "*",
	)
)

// FormatNumber renders a raw count with k/m suffixes. Commas are ignored and
// already-suffixed input is accepted so that formatting is stable when
// re-applied.
func FormatNumber(raw string) (string, error) {
	n, err := parseCount(raw)
	if err != nil {
		return "", err
	}
	abs := math.Abs(n)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fm", n/1_000_000), nil
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", n/1_000), nil
	default:
		return fmt.Sprintf("%.0f", n), nil
	}
}

func parseCount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", raw, err)
	}
	return n * multiplier, nil
}

// ConvertDuration renders a runtime in minutes as "Xh Ym", omitting a zero
// component. Zero minutes renders as "0m".
func ConvertDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatBio converts a bio HTML fragment into chat markup: anchors become
// [text](href), paragraphs and breaks become newlines, bold and italic become
// ** and *. Entities are decoded last.
func FormatBio(fragment string) string {
	out := anchorPattern.ReplaceAllString(fragment, "[$2]($1)")
	out = breakPattern.ReplaceAllString(out, "\n")
	out = bioReplacer.Replace(out)
	return html.UnescapeString(strings.TrimSpace(out))
}

// FormatViewingDate reorders a "DD Mon YYYY" viewing date. Dates in refYear
// render as "Mon DD", others as "Mon DD, YYYY". Unexpected input is returned
// unchanged.
func FormatViewingDate(raw string, refYear int) string {
	parts := strings.Fields(raw)
	if len(parts) != 3 {
		return raw
	}
	day, month, year := parts[0], parts[1], parts[2]
	if year == strconv.Itoa(refYear) {
		return month + " " + day
	}
	return fmt.Sprintf("%s %s, %s", month, day, year)
}

// TruncateSynopsis cuts s to SynopsisLimit runes and appends an ellipsis when
// it was longer.
func TruncateSynopsis(s string) string {
	if utf8.RuneCountInString(s) <= SynopsisLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:SynopsisLimit]) + "..."
}

// NormalizeTitle lowercases a search title and strips a single pair of
// non-alphanumeric wrapping characters such as typographic quotes.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	return strings.TrimSpace(titlePattern.ReplaceAllString(lowered, "$2"))
}
