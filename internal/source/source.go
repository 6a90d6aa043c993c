// Package source fetches recent articles for ingestion: an HTML listing
// scraper, RSS/Atom feeds, and local text or PDF input.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/rcliao/podcaster/internal/store"
)

// ErrFetch wraps every network or parse failure while fetching a source.
var ErrFetch = errors.New("source fetch failed")

// Entry is one recent article. Content may be empty until Body is called.
type Entry struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`

	body func(ctx context.Context) (string, error)
}

// Params returns the store parameters for this entry with the given body.
func (e Entry) Params(content string) store.PutParams {
	return store.PutParams{
		Date:    e.Date,
		Title:   e.Title,
		Author:  e.Author,
		URL:     e.URL,
		Content: content,
	}
}

// Hash is the dedup key the store will assign to this entry.
func (e Entry) Hash() string {
	return store.Hash(e.Date, e.Title, e.URL)
}

// Body returns the article text, fetching the page when the listing or feed
// did not carry it.
func (e Entry) Body(ctx context.Context) (string, error) {
	if e.Content != "" || e.body == nil {
		return e.Content, nil
	}
	return e.body(ctx)
}

// Source lists articles published within the last windowDays days.
type Source interface {
	FetchRecent(ctx context.Context, windowDays int) ([]Entry, error)
}

// Multi concatenates sources in order. A failing source does not hide the
// entries of the others; its error is joined into the result.
type Multi []Source

// FetchRecent implements Source.
func (m Multi) FetchRecent(ctx context.Context, windowDays int) ([]Entry, error) {
	var all []Entry
	var errs []error
	for _, s := range m {
		entries, err := s.FetchRecent(ctx, windowDays)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, entries...)
	}
	if all == nil {
		all = []Entry{}
	}
	return all, errors.Join(errs...)
}

// Client issues GET requests with browser-like headers; some news sites
// answer 406 to Go's default user agent.
type Client struct {
	http *http.Client
}

// NewClient returns a Client with the given timeout. Zero means 30 seconds.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}}
}

// Get fetches url and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	return data, nil
}

// ExtractText returns the main article text of an HTML page.
func ExtractText(html string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return "", fmt.Errorf("%w: extract text: %v", ErrFetch, err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

// withinWindow reports whether published lies no more than windowDays
// before now. Future dates count as recent.
func withinWindow(published, now time.Time, windowDays int) bool {
	return now.Sub(published) <= time.Duration(windowDays)*24*time.Hour
}
