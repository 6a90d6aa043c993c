package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body>
<article>
  <time>13.10.2026</time>
  <h2><a href="/2026/10/13/bank-merger">Bank merger announced</a></h2>
  <span class="author">Lukas Hässig</span>
</article>
<article>
  <time>12.10.2026</time>
  <h2><a href="/2026/10/12/too-old">Too old</a></h2>
</article>
<article>
  <time>not a date</time>
  <h2><a href="/broken">Broken</a></h2>
</article>
<article>
  <time>14.10.2026</time>
  <h2><a href="https://other.example/abs">Absolute link</a></h2>
</article>
</body></html>`

const articleHTML = `<html><body>
<div class="entry-content">
  <p>First paragraph.</p>
  <div class="wp-caption"><p>Photo caption</p></div>
  <p>  </p>
  <p>Second paragraph.</p>
  <div class="social-media"><p>Share this</p></div>
</div>
</body></html>`

func zurich(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	return loc
}

func fixedNow(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, loc) }
}

func TestListingFetchRecent(t *testing.T) {
	var fetched []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = append(fetched, r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, listingHTML)
		case "/2026/10/13/bank-merger":
			fmt.Fprint(w, articleHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loc := zurich(t)
	l := NewListing(srv.URL+"/", "", loc, nil)
	l.Now = fixedNow(loc)

	entries, err := l.FetchRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "13.10.2026", first.Date)
	assert.Equal(t, "Bank merger announced", first.Title)
	assert.Equal(t, "Lukas Hässig", first.Author)
	assert.Equal(t, srv.URL+"/2026/10/13/bank-merger", first.URL)
	assert.Empty(t, first.Content)
	assert.Equal(t, "https://other.example/abs", entries[1].URL)

	assert.Equal(t, []string{"/"}, fetched, "bodies are fetched lazily")

	body, err := first.Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", body)

	p := first.Params(body)
	assert.Equal(t, first.Hash(), p.Hash())
	assert.Equal(t, "Lukas Hässig", p.Author)
}

func TestListingBodyFallsBackToReadability(t *testing.T) {
	page := `<html><head><title>Plain</title></head><body><div id="main">` +
		strings.Repeat("<p>Readable body text that goes on for a while so extraction keeps it.</p>", 10) +
		`</div></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	l := NewListing(srv.URL, "", nil, nil)
	body, err := l.articleBody(context.Background(), srv.URL+"/post")
	require.NoError(t, err)
	assert.Contains(t, body, "Readable body text")
}

func TestListingHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotAcceptable)
	}))
	defer srv.Close()

	_, err := NewListing(srv.URL, "", nil, nil).FetchRecent(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Contains(t, err.Error(), "406")
}

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Finance</title>
<item>
  <title>Rates held</title>
  <link>https://news.example/rates</link>
  <pubDate>Tue, 13 Oct 2026 08:00:00 +0000</pubDate>
  <description>&lt;p&gt;The central bank &lt;b&gt;held&lt;/b&gt; rates.&lt;/p&gt;</description>
</item>
<item>
  <title>Old news</title>
  <link>https://news.example/old</link>
  <pubDate>Mon, 05 Oct 2026 08:00:00 +0000</pubDate>
  <description>old</description>
</item>
<item>
  <title>No date</title>
  <link>https://news.example/nodate</link>
</item>
</channel></rss>`

func TestFeedFetchRecent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	loc := zurich(t)
	f := NewFeed(srv.URL, "", loc, nil)
	f.Now = fixedNow(loc)

	entries, err := f.FetchRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "13.10.2026", entries[0].Date)
	assert.Equal(t, "Rates held", entries[0].Title)
	assert.Equal(t, "The central bank held rates.", entries[0].Content)

	body, err := entries[0].Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries[0].Content, body)
}

func TestFeedParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed")
	}))
	defer srv.Close()

	_, err := NewFeed(srv.URL, "", nil, nil).FetchRecent(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrFetch))
}

type stubSource struct {
	entries []Entry
	err     error
}

func (s stubSource) FetchRecent(context.Context, int) ([]Entry, error) {
	return s.entries, s.err
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{
		stubSource{entries: []Entry{{Title: "a"}}},
		stubSource{err: boom},
		stubSource{entries: []Entry{{Title: "b"}, {Title: "c"}}},
	}
	entries, err := m.FetchRecent(context.Background(), 2)
	assert.ErrorIs(t, err, boom)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[2].Title)

	entries, err = Multi{}.FetchRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, entries)
}

func TestWithinWindow(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	assert.True(t, withinWindow(now.Add(-48*time.Hour), now, 2))
	assert.False(t, withinWindow(now.Add(-48*time.Hour-time.Second), now, 2))
	assert.True(t, withinWindow(now.Add(time.Hour), now, 2))
}

func TestReadTextPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain notes"), 0o644))

	text, err := ReadText(path, 3)
	require.NoError(t, err)
	assert.Equal(t, "plain notes", text, "cap applies to PDFs only")

	_, err = ReadText(filepath.Join(t.TempDir(), "missing.txt"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadTextBadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.PDF")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))
	_, err := ReadText(path, 0)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "", truncate("héllo", 0))
}
