package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Feed reads an RSS or Atom feed. Item dates are rendered with DateLayout in
// Location so feed entries hash the same way listing entries do.
type Feed struct {
	URL        string
	DateLayout string
	Location   *time.Location
	Client     *Client
	Now        func() time.Time

	parser *gofeed.Parser
}

// NewFeed returns a Feed for feedURL with the same defaults as NewListing.
func NewFeed(feedURL, layout string, loc *time.Location, client *Client) *Feed {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	if client == nil {
		client = NewClient(0)
	}
	return &Feed{
		URL:        feedURL,
		DateLayout: layout,
		Location:   loc,
		Client:     client,
		Now:        time.Now,
		parser:     gofeed.NewParser(),
	}
}

// FetchRecent implements Source. Items without a publish or update date are
// skipped.
func (f *Feed) FetchRecent(ctx context.Context, windowDays int) ([]Entry, error) {
	data, err := f.Client.Get(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %v", ErrFetch, f.URL, err)
	}

	now := f.Now()
	entries := []Entry{}
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || item.Link == "" || !withinWindow(*published, now, windowDays) {
			continue
		}

		e := Entry{
			Date:    published.In(f.Location).Format(f.DateLayout),
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Content: htmlText(item.Content),
		}
		if e.Content == "" {
			e.Content = htmlText(item.Description)
		}
		if item.Author != nil {
			e.Author = item.Author.Name
		}
		link := item.Link
		e.body = func(ctx context.Context) (string, error) {
			page, err := f.Client.Get(ctx, link)
			if err != nil {
				return "", err
			}
			return ExtractText(string(page))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// htmlText strips markup from a feed content field.
func htmlText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
