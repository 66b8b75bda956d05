// Package cos extracts the weekly releases from the Consequence "upcoming releases" calendar.
//
// The page lists releases under date headers ("June 6") and every record is a line like
// "—Radiohead–In Rainbows" (em dash, artist, en dash, album).
package cos

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samgozman/release-thread/pkg/week"
	"github.com/samgozman/release-thread/registry"
	"github.com/samgozman/release-thread/scavenger"
)

const (
	Name       = "cos"
	DefaultURL = "https://consequence.net/upcoming-releases/"
)

// recordPattern matches "—Artist–Album". The artist can't contain a hyphen, such lines are skipped.
var recordPattern = regexp.MustCompile(`^—([^-]+)–(.+)`)

// Consequence is the calendar-list release source.
type Consequence struct {
	url     string
	fetcher scavenger.Fetcher
	logger  *slog.Logger
}

// New creates a Consequence extractor reading url with the given fetcher.
func New(url string, f scavenger.Fetcher) *Consequence {
	if url == "" || f == nil {
		panic("cos: url and fetcher are required")
	}
	return &Consequence{
		url:     url,
		fetcher: f,
		logger:  slog.Default(),
	}
}

// WithLogger replaces the default logger.
func (c *Consequence) WithLogger(l *slog.Logger) *Consequence {
	c.logger = l
	return c
}

func (c *Consequence) Name() string {
	return Name
}

// Extract fetches the calendar and returns the releases of the week anchored on the next Friday.
func (c *Consequence) Extract(ctx context.Context, now time.Time) (*registry.Registry, error) {
	markup, err := c.fetcher.Fetch(ctx, c.url, "p")
	if err != nil {
		c.logger.Warn("[cos][fetch]", "url", c.url, "error", err)
		return registry.NewWithMessage("CoS doesn't respond"), scavenger.NewError(Name, scavenger.ErrSourceUnreachable, err)
	}

	r, err := Parse(markup, week.NextAnchor(now))
	if err != nil {
		c.logger.Info("[cos][parse]", "error", err)
		return r, err
	}

	c.logger.Info("[cos] extracted releases", "count", r.Len())
	return r, nil
}

// Parse reads the records listed between the anchor header and the next week's header.
func Parse(markup string, anchor time.Time) (*registry.Registry, error) {
	startLabel := week.Label(anchor)
	isStart := scavenger.LabelMatcher(startLabel)
	isEnd := scavenger.LabelMatcher(week.Label(week.WindowEnd(anchor)))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return registry.NewWithMessage(fmt.Sprintf("CoS has no release list for %s", startLabel)),
			scavenger.NewError(Name, scavenger.ErrStructuralMiss, err)
	}

	start := doc.Find("p").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isStart(s.Text())
	}).First()
	if start.Length() == 0 {
		return registry.NewWithMessage(fmt.Sprintf("CoS has no release list for %s", startLabel)),
			scavenger.NewError(Name, scavenger.ErrStructuralMiss, fmt.Errorf("no header for %s", startLabel))
	}

	r := registry.New()
	header := goquery.NodeName(start)
	start.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == header && isEnd(s.Text()) {
			return false
		}
		for _, line := range scavenger.Lines(s) {
			if band, album, ok := matchRecord(line); ok {
				r.Add(band, album)
			}
		}
		return true
	})

	if r.Len() == 0 {
		r.SetMessage(fmt.Sprintf("CoS has no releases for %s", startLabel))
		return r, scavenger.NewError(Name, scavenger.ErrEmptyResult)
	}

	return r, nil
}

// matchRecord splits a "—Artist–Album" line.
func matchRecord(line string) (band, album string, ok bool) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
