package stereogum

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samgozman/release-thread/scavenger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url, ready string) (string, error) {
	args := m.Called(ctx, url, ready)
	return args.String(0), args.Error(1)
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

const articleURL = "https://www.stereogum.com/2290001/album-of-the-week-phoebe-bridgers-punisher/reviews/album-of-the-week/"

var (
	june6 = time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC)
	// a Wednesday: the anchor is June 6
	now = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)
)

func Test_matchBullet(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantBand  string
		wantAlbum string
		wantOk    bool
	}{
		{name: "curly possessive", line: "• Protomartyr’s Formal Growth In The Desert", wantBand: "Protomartyr", wantAlbum: "Formal Growth In The Desert", wantOk: true},
		{name: "straight possessive", line: "• Wilco's Cousin", wantBand: "Wilco", wantAlbum: "Cousin", wantOk: true},
		{name: "plural possessive", line: "• Boygenius’ The Record", wantBand: "Boygenius", wantAlbum: "The Record", wantOk: true},
		{name: "opening curly quote", line: "•Phoebe Bridgers‘ Punisher", wantBand: "Phoebe Bridgers", wantAlbum: "Punisher", wantOk: true},
		{name: "no apostrophe", line: "• Nameless line without apostrophe", wantOk: false},
		{name: "no bullet", line: "Wilco's Cousin", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, album, ok := matchBullet(tt.line)
			if ok != tt.wantOk || band != tt.wantBand || album != tt.wantAlbum {
				t.Errorf("matchBullet() = (%q, %q, %v), want (%q, %q, %v)", band, album, ok, tt.wantBand, tt.wantAlbum, tt.wantOk)
			}
		})
	}
}

func Test_splitTitle(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantBand  string
		wantAlbum string
		wantOk    bool
	}{
		{name: "straight quotes", title: "Phoebe Bridgers 'Punisher' - Stereogum", wantBand: "Phoebe Bridgers", wantAlbum: "Punisher", wantOk: true},
		{name: "curly quotes", title: "Phoebe Bridgers ‘Punisher’ - Stereogum", wantBand: "Phoebe Bridgers", wantAlbum: "Punisher", wantOk: true},
		{name: "column prefix is dropped", title: "Album Of The Week: Wilco “Cousin”", wantBand: "Wilco", wantAlbum: "Cousin", wantOk: true},
		{name: "no quotes", title: "Album Of The Week | Stereogum", wantOk: false},
		{name: "single quote", title: "Wilco 'Cousin", wantOk: false},
		{name: "quote first", title: "'Cousin' by Wilco", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, album, ok := splitTitle(tt.title)
			if ok != tt.wantOk || band != tt.wantBand || album != tt.wantAlbum {
				t.Errorf("splitTitle() = (%q, %q, %v), want (%q, %q, %v)", band, album, ok, tt.wantBand, tt.wantAlbum, tt.wantOk)
			}
		})
	}
}

func TestLocateArticle(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		want    string
		wantMsg string
	}{
		{
			name:   "relative link is resolved",
			markup: readFixture(t, "listing.html"),
			want:   articleURL,
		},
		{
			name:   "absolute link",
			markup: `<p class="article-card__title"><a href="https://example.com/a">A</a></p>`,
			want:   "https://example.com/a",
		},
		{
			name:    "no card",
			markup:  `<p class="something-else"><a href="/a">A</a></p>`,
			wantMsg: msgNoCard,
		},
		{
			name:    "no link",
			markup:  `<p class="article-card__title">Album Of The Week</p>`,
			wantMsg: msgNoLink,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateArticle(tt.markup, DefaultURL)
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, scavenger.ErrStructuralMiss)
				assert.Equal(t, tt.wantMsg, failed(err).Message())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocateInFeed(t *testing.T) {
	got, err := LocateInFeed(readFixture(t, "feed.xml"))
	require.NoError(t, err)
	assert.Equal(t, "https://www.stereogum.com/2290001/album-of-the-week-phoebe-bridgers-punisher/", got)

	_, err = LocateInFeed("<html>not a feed</html>")
	assert.ErrorIs(t, err, scavenger.ErrStructuralMiss)
	assert.Equal(t, msgNoFeedItem, failed(err).Message())
}

func TestParseArticle(t *testing.T) {
	r, err := ParseArticle(readFixture(t, "article.html"), june6)
	require.NoError(t, err)

	want := map[string]string{
		"protomartyr": "formal growth in the desert",
		"x":           "y",
		"wilco":       "cousin",
		"boygenius":   "the record",
	}
	if got := r.Releases(); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseArticle() releases = %v, want %v", got, want)
	}
	assert.Equal(t, "Stereogum album of the week: Phoebe Bridgers — Punisher", r.Message())
}

func TestParseArticle_staleness(t *testing.T) {
	article := readFixture(t, "article.html")
	tests := []struct {
		name      string
		date      string
		wantStale bool
	}{
		{name: "this week", date: "June 3, 2025", wantStale: false},
		{name: "exactly on the threshold", date: "May 30, 2025", wantStale: false},
		{name: "one day before the threshold", date: "May 29, 2025", wantStale: true},
		{name: "two weeks old", date: "May 23, 2025", wantStale: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := strings.Replace(article, "June 3, 2025", tt.date, 1)
			r, err := ParseArticle(markup, june6)
			if tt.wantStale {
				assert.ErrorIs(t, err, scavenger.ErrStaleContent)
				assert.Equal(t, msgStale, r.Message())
				assert.Equal(t, 0, r.Len())
				return
			}
			assert.NoError(t, err)
			assert.NotZero(t, r.Len())
		})
	}
}

func TestParseArticle_structuralMiss(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		wantMsg string
	}{
		{
			name:    "no quotes in title",
			markup:  `<html><head><title>Stereogum</title></head><body><span class="date">June 3, 2025</span></body></html>`,
			wantMsg: msgNoTitle,
		},
		{
			name:    "no date stamp",
			markup:  `<html><head><title>Wilco 'Cousin'</title></head><body><p>Other albums of note out this week:</p></body></html>`,
			wantMsg: msgNoDate,
		},
		{
			name:    "unparsable date stamp",
			markup:  `<html><head><title>Wilco 'Cousin'</title></head><body><span class="date">yesterday</span></body></html>`,
			wantMsg: msgNoDate,
		},
		{
			name:    "no lead-in paragraph",
			markup:  `<html><head><title>Wilco 'Cousin'</title></head><body><span class="date">June 3, 2025</span><p>• X’s Y</p></body></html>`,
			wantMsg: msgNoList,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseArticle(tt.markup, june6)
			require.NotNil(t, r)
			assert.ErrorIs(t, err, scavenger.ErrStructuralMiss)
			assert.Equal(t, tt.wantMsg, r.Message())
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestStereogum_Extract(t *testing.T) {
	listing := readFixture(t, "listing.html")
	article := readFixture(t, "article.html")

	tests := []struct {
		name       string
		listing    string
		listingErr error
		articleErr error
		wantKind   error
		wantMsg    string
		wantCount  int
	}{
		{
			name:      "ok",
			listing:   listing,
			wantMsg:   "Stereogum album of the week: Phoebe Bridgers — Punisher",
			wantCount: 4,
		},
		{
			name:       "listing does not respond",
			listingErr: errors.New("invalid status code: 500"),
			wantKind:   scavenger.ErrSourceUnreachable,
			wantMsg:    msgNoResponse,
		},
		{
			name:     "listing without cards",
			listing:  "<html><body>maintenance</body></html>",
			wantKind: scavenger.ErrStructuralMiss,
			wantMsg:  msgNoCard,
		},
		{
			name:       "article render times out",
			listing:    listing,
			articleErr: context.DeadlineExceeded,
			wantKind:   scavenger.ErrSourceUnreachable,
			wantMsg:    msgArticleNoResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain := new(MockFetcher)
			plain.On("Fetch", mock.Anything, DefaultURL, cardSelector).Return(tt.listing, tt.listingErr)
			rendered := new(MockFetcher)
			rendered.On("Fetch", mock.Anything, articleURL, "title").Return(article, tt.articleErr).Maybe()

			r, err := New(DefaultURL, plain, rendered).Extract(context.Background(), now)

			require.NotNil(t, r)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantMsg, r.Message())
			assert.Equal(t, tt.wantCount, r.Len())
			plain.AssertExpectations(t)
			rendered.AssertExpectations(t)
		})
	}
}

func TestStereogum_Extract_withFeed(t *testing.T) {
	const feedURL = "https://www.stereogum.com/category/album-of-the-week/feed/"
	link := "https://www.stereogum.com/2290001/album-of-the-week-phoebe-bridgers-punisher/"

	plain := new(MockFetcher)
	plain.On("Fetch", mock.Anything, feedURL, "").Return(readFixture(t, "feed.xml"), nil)
	rendered := new(MockFetcher)
	rendered.On("Fetch", mock.Anything, link, "title").Return(readFixture(t, "article.html"), nil)

	r, err := New(DefaultURL, plain, rendered).WithFeed(feedURL).Extract(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
	plain.AssertExpectations(t)
	rendered.AssertExpectations(t)
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(context.Context, string, string) (string, error) {
	panic("driver crashed")
}

func TestStereogum_Extract_recoversPanics(t *testing.T) {
	plain := new(MockFetcher)
	plain.On("Fetch", mock.Anything, DefaultURL, cardSelector).Return(readFixture(t, "listing.html"), nil)

	r, err := New(DefaultURL, plain, panickingFetcher{}).Extract(context.Background(), now)
	require.NotNil(t, r)
	assert.Error(t, err)
	assert.Equal(t, "Error scraping Stereogum: driver crashed", r.Message())
}
