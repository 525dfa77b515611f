package format

import (
	"math"
	"strings"
)

// Stars holds the glyphs used to render a 0-5 rating.
type Stars struct {
	Whole string
	Half  string
}

// DefaultStars renders ratings with plain unicode glyphs.
var DefaultStars = Stars{Whole: "★", Half: "½"}

// Render rounds rating to the nearest half star and repeats the whole glyph,
// appending the half glyph when needed. A zero rating renders as "".
func (s Stars) Render(rating float64) string {
	if rating <= 0 || math.IsNaN(rating) {
		return ""
	}
	rounded := math.Round(rating*2) / 2
	whole := int(math.Floor(rounded))
	var b strings.Builder
	b.WriteString(strings.Repeat(s.Whole, whole))
	if rounded-float64(whole) > 0 {
		b.WriteString(s.Half)
	}
	return b.String()
}

// Starrize renders rating with DefaultStars.
func Starrize(rating float64) string {
	return DefaultStars.Render(rating)
}
