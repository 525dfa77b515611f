package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page markers used to classify negative outcomes.
const (
	NotFoundMarker      = "Sorry, we can’t find the page you’ve requested."
	EmptyDiaryMarker    = "No diary entries"
	NoSearchMatchMarker = "There were no matches for your search term"
)

func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// HasMarker reports whether body contains marker, either verbatim or after
// entity decoding.
func HasMarker(body []byte, marker string) bool {
	if bytes.Contains(body, []byte(marker)) {
		return true
	}
	return strings.Contains(html.UnescapeString(string(body)), marker)
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func ogTitle(doc *goquery.Document) string {
	return metaContent(doc, `meta[property="og:title"]`)
}

// firstText returns the first non-blank descendant text node of the first
// element in sel.
func firstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var walk func(n *html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(sel.Nodes[0])
}

func before(s, sep string) string {
	head, _, _ := strings.Cut(s, sep)
	return head
}
