package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDateLayout matches dates like "14.10.2026".
const DefaultDateLayout = "02.01.2006"

// Listing scrapes a news front page made of <article> elements, each with a
// <time>, an <h2><a href> headline and an optional span.author.
type Listing struct {
	URL        string
	DateLayout string
	Location   *time.Location
	Client     *Client
	Now        func() time.Time
}

// NewListing returns a Listing for pageURL. An empty layout selects
// DefaultDateLayout and a nil location selects UTC.
func NewListing(pageURL, layout string, loc *time.Location, client *Client) *Listing {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	if client == nil {
		client = NewClient(0)
	}
	return &Listing{URL: pageURL, DateLayout: layout, Location: loc, Client: client, Now: time.Now}
}

// FetchRecent implements Source. Article bodies are fetched lazily through
// Entry.Body so already-stored articles cost no extra request.
func (l *Listing) FetchRecent(ctx context.Context, windowDays int) ([]Entry, error) {
	page, err := l.Client.Get(ctx, l.URL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing: %v", ErrFetch, err)
	}
	base, err := url.Parse(l.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: listing url: %v", ErrFetch, err)
	}

	now := l.Now().In(l.Location)
	entries := []Entry{}
	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		dateStr := strings.TrimSpace(art.Find("time").First().Text())
		if dateStr == "" {
			return
		}
		published, err := time.ParseInLocation(l.DateLayout, dateStr, l.Location)
		if err != nil || !withinWindow(published, now, windowDays) {
			return
		}

		h2 := art.Find("h2").First()
		title := strings.TrimSpace(h2.Text())
		href, ok := h2.Find("a").First().Attr("href")
		if title == "" || !ok {
			return
		}
		link, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		e := Entry{
			Date:   dateStr,
			Title:  title,
			Author: strings.TrimSpace(art.Find("span.author").First().Text()),
			URL:    link.String(),
		}
		pageURL := e.URL
		e.body = func(ctx context.Context) (string, error) {
			return l.articleBody(ctx, pageURL)
		}
		entries = append(entries, e)
	})
	return entries, nil
}

func (l *Listing) articleBody(ctx context.Context, pageURL string) (string, error) {
	page, err := l.Client.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if text := entryParagraphs(page); text != "" {
		return text, nil
	}
	return ExtractText(string(page))
}

// entryParagraphs joins the <p> texts of div.entry-content, skipping captions
// and share widgets.
func entryParagraphs(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	var paras []string
	doc.Find("div.entry-content").First().Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.ParentsFiltered(".wp-caption, .social-media").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n")
}
