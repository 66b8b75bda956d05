package scavenger

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips any markup left in s, decodes entities and turns non-breaking spaces into spaces.
func CleanText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// Lines returns the cleaned non-empty text lines of the selection. Line breaks in the source
// markup and <br> elements both split lines. The selection itself is left untouched.
func Lines(s *goquery.Selection) []string {
	c := s.Clone()
	c.Find("br").ReplaceWithHtml("\n")

	var lines []string
	for _, l := range strings.Split(c.Text(), "\n") {
		if l = CleanText(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// LabelMatcher returns a func reporting whether a text mentions the date label as a whole date:
// "June 1" matches "June 1, 2025" but never "June 13".
func LabelMatcher(label string) func(text string) bool {
	re := regexp.MustCompile(`(?:^|[^\pL\pN])` + regexp.QuoteMeta(label) + `(?:[^\pN]|$)`)
	return func(text string) bool {
		return re.MatchString(strings.ReplaceAll(text, "\u00a0", " "))
	}
}
