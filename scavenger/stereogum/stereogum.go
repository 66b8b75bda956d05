// Package stereogum extracts the weekly releases from the Stereogum "album of the week" column.
//
// Every week the column publishes one feature article. Its title names the album of the week,
// and a trailing paragraph ("Other albums of note out this week:") lists the other releases
// as bullet lines like "• Protomartyr’s Formal Growth In The Desert".
package stereogum

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/samgozman/release-thread/pkg/week"
	"github.com/samgozman/release-thread/registry"
	"github.com/samgozman/release-thread/scavenger"
)

const (
	Name       = "stereogum"
	DefaultURL = "https://www.stereogum.com/category/album-of-the-week/"

	// LeadIn opens the paragraph with the secondary releases. It follows the site's current wording.
	LeadIn = "Other albums of note out this week:"

	// DateLayout is the format of the article date stamp.
	DateLayout = "January 2, 2006"

	cardSelector = "p.article-card__title"
)

// Diagnostic messages stored on degraded registries.
const (
	msgNoResponse        = "Stereogum doesn't respond"
	msgNoCard            = "Could not find article card on Stereogum"
	msgNoLink            = "Could not find article link on Stereogum"
	msgNoFeedItem        = "Could not find article in Stereogum feed"
	msgArticleNoResponse = "Stereogum article doesn't respond"
	msgNoTitle           = "Could not parse Stereogum album of the week"
	msgNoDate            = "Could not find date on Stereogum article"
	msgStale             = "Stereogum has no releases for this week"
	msgNoList            = "Something wrong with Stereogum's list."
)

var (
	// bulletPattern matches "• Artist’s Album" and "• Artists’ Album", with straight or curly apostrophes.
	bulletPattern = regexp.MustCompile(`^•\s*(.+?)['’‘]s?\s+(.+)$`)
	quotes        = "'\"‘’“”"
	titlePrefix   = regexp.MustCompile(`(?i)^\s*album of the week:\s*`)
)

// Stereogum is the feature-article release source.
type Stereogum struct {
	listingURL string
	feedURL    string            // optional category feed, used instead of the listing cards
	listing    scavenger.Fetcher // fetches the category listing (or feed)
	article    scavenger.Fetcher // fetches the article, must be able to bypass the paywall
	logger     *slog.Logger
}

// New creates a Stereogum extractor. The article fetcher should render the page with scripts
// disabled (see fetcher.Rendered), the listing page is fine with a plain fetch.
func New(listingURL string, listing, article scavenger.Fetcher) *Stereogum {
	if listingURL == "" || listing == nil || article == nil {
		panic("stereogum: listing url and fetchers are required")
	}
	return &Stereogum{
		listingURL: listingURL,
		listing:    listing,
		article:    article,
		logger:     slog.Default(),
	}
}

// WithFeed locates the latest article through the category feed at feedURL instead of the listing page.
func (s *Stereogum) WithFeed(feedURL string) *Stereogum {
	s.feedURL = feedURL
	return s
}

// WithLogger replaces the default logger.
func (s *Stereogum) WithLogger(l *slog.Logger) *Stereogum {
	s.logger = l
	return s
}

func (s *Stereogum) Name() string {
	return Name
}

// Extract finds the latest album of the week article and returns its releases.
// On success the registry message is the album of the week spotlight.
func (s *Stereogum) Extract(ctx context.Context, now time.Time) (r *registry.Registry, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("[stereogum] panic while scraping", "panic", p)
			r = registry.NewWithMessage(fmt.Sprintf("Error scraping Stereogum: %v", p))
			err = scavenger.NewError(Name, scavenger.ErrStructuralMiss, fmt.Errorf("panic: %v", p))
		}
	}()

	link, r, err := s.locateArticle(ctx)
	if err != nil {
		s.logger.Warn("[stereogum][locate]", "error", err)
		return r, err
	}

	markup, err := s.article.Fetch(ctx, link, "title")
	if err != nil {
		s.logger.Warn("[stereogum][article]", "url", link, "error", err)
		return fail(msgArticleNoResponse, scavenger.ErrSourceUnreachable, err)
	}

	r, err = ParseArticle(markup, week.NextAnchor(now))
	if err != nil {
		s.logger.Info("[stereogum][parse]", "url", link, "error", err)
		return r, err
	}

	s.logger.Info("[stereogum] extracted releases", "url", link, "count", r.Len())
	return r, nil
}

// locateArticle returns the link to the most recent article, or a degraded registry.
func (s *Stereogum) locateArticle(ctx context.Context) (string, *registry.Registry, error) {
	src := s.listingURL
	ready := cardSelector
	if s.feedURL != "" {
		src, ready = s.feedURL, ""
	}

	markup, err := s.listing.Fetch(ctx, src, ready)
	if err != nil {
		r, e := fail(msgNoResponse, scavenger.ErrSourceUnreachable, err)
		return "", r, e
	}

	var link string
	if s.feedURL != "" {
		link, err = LocateInFeed(markup)
	} else {
		link, err = LocateArticle(markup, s.listingURL)
	}
	if err != nil {
		return "", failed(err), err
	}
	return link, nil, nil
}

// LocateArticle finds the link of the first (most recent) article card of the listing page.
// Relative links are resolved against base.
func LocateArticle(markup, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", newMiss(msgNoCard, err)
	}

	card := doc.Find(cardSelector).First()
	if card.Length() == 0 {
		return "", newMiss(msgNoCard, nil)
	}

	href, ok := card.Find("a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", newMiss(msgNoLink, nil)
	}

	return resolve(base, strings.TrimSpace(href))
}

// LocateInFeed returns the link of the most recently published item of an RSS/Atom feed.
func LocateInFeed(markup string) (string, error) {
	feed, err := gofeed.NewParser().ParseString(markup)
	if err != nil {
		return "", newMiss(msgNoFeedItem, err)
	}

	var latest *gofeed.Item
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Link) == "" {
			continue
		}
		if latest == nil || newer(it, latest) {
			latest = it
		}
	}
	if latest == nil {
		return "", newMiss(msgNoFeedItem, nil)
	}

	return strings.TrimSpace(latest.Link), nil
}

// ParseArticle reads the album of the week and the secondary releases of an article.
// Articles published before the staleness threshold of anchor's window yield an empty registry.
func ParseArticle(markup string, anchor time.Time) (*registry.Registry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fail(msgNoTitle, scavenger.ErrStructuralMiss, err)
	}

	band, album, ok := splitTitle(doc.Find("title").First().Text())
	if !ok {
		return fail(msgNoTitle, scavenger.ErrStructuralMiss, nil)
	}
	spotlight := fmt.Sprintf("Stereogum album of the week: %s — %s", band, album)

	stamp := doc.Find("span.date").First()
	if stamp.Length() == 0 {
		return fail(msgNoDate, scavenger.ErrStructuralMiss, nil)
	}
	published, err := time.ParseInLocation(DateLayout, scavenger.CleanText(stamp.Text()), anchor.Location())
	if err != nil {
		return fail(msgNoDate, scavenger.ErrStructuralMiss, err)
	}
	if published.Before(week.StaleBefore(anchor)) {
		return fail(msgStale, scavenger.ErrStaleContent, fmt.Errorf("article from %s", published.Format(DateLayout)))
	}

	list := doc.Find("p").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ReplaceAll(s.Text(), "\u00a0", " "), LeadIn)
	}).First()
	if list.Length() == 0 {
		return fail(msgNoList, scavenger.ErrStructuralMiss, nil)
	}

	r := registry.New()
	for _, line := range scavenger.Lines(list) {
		if b, a, ok := matchBullet(line); ok {
			r.Add(b, a)
		}
	}
	r.SetMessage(spotlight)

	return r, nil
}

// splitTitle recovers band and album from a title like "Phoebe Bridgers ‘Punisher’":
// the band is the text before the first quote, the album sits between the first two quotes.
func splitTitle(title string) (band, album string, ok bool) {
	title = titlePrefix.ReplaceAllString(scavenger.CleanText(title), "")
	isQuote := func(r rune) bool { return strings.ContainsRune(quotes, r) }

	first := strings.IndexFunc(title, isQuote)
	if first < 0 {
		return "", "", false
	}
	_, w := utf8.DecodeRuneInString(title[first:])
	rest := title[first+w:]

	second := strings.IndexFunc(rest, isQuote)
	if second < 0 {
		return "", "", false
	}

	band = strings.TrimSpace(title[:first])
	album = strings.TrimSpace(rest[:second])
	if band == "" || album == "" {
		return "", "", false
	}
	return band, album, true
}

// matchBullet splits a "• Artist’s Album" line.
func matchBullet(line string) (band, album string, ok bool) {
	m := bulletPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

func newer(a, b *gofeed.Item) bool {
	if a.PublishedParsed == nil {
		return false
	}
	return b.PublishedParsed == nil || a.PublishedParsed.After(*b.PublishedParsed)
}

func resolve(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", newMiss(msgNoLink, err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", newMiss(msgNoLink, err)
	}
	return b.ResolveReference(ref).String(), nil
}
