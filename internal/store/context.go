package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ContextParams holds parameters for assembling digest input.
type ContextParams struct {
	Since  time.Time
	Limit  int
	Budget int // max chars of item content in the result
}

// ContextItem is one item packed into a context, possibly truncated.
type ContextItem struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Excerpt bool   `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context.
type ContextResult struct {
	Budget int           `json:"budget"`
	Used   int           `json:"used"`
	Items  []ContextItem `json:"items"`
}

// Hashes returns the hashes of the packed items in order.
func (r *ContextResult) Hashes() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Hash
	}
	return out
}

// Context packs the newest items into a character budget. The first item
// that does not fit is excerpted if at least 100 chars remain; packing stops
// there.
func (s *SQLStore) Context(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = 16000
	}
	items, err := s.List(ctx, ListParams{Since: p.Since, Limit: p.Limit})
	if err != nil {
		return nil, err
	}

	result := &ContextResult{Budget: budget, Items: []ContextItem{}}
	for _, it := range items {
		ci := ContextItem{Hash: it.Hash, Date: it.Date, Title: it.Title, URL: it.URL, Content: it.Content}
		contentLen := len([]rune(it.Content))
		if result.Used+contentLen <= budget {
			result.Items = append(result.Items, ci)
			result.Used += contentLen
			continue
		}
		if remaining := budget - result.Used; remaining >= 100 {
			ci.Content = string([]rune(it.Content)[:remaining]) + "..."
			ci.Excerpt = true
			result.Items = append(result.Items, ci)
			result.Used += remaining
		}
		break
	}
	return result, nil
}

// Render formats the packed items as prompt input.
func (r *ContextResult) Render() string {
	var b strings.Builder
	for i, it := range r.Items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Title: %s\nDate: %s\nURL: %s\n\n%s", it.Title, it.Date, it.URL, it.Content)
	}
	return b.String()
}

var _ Store = (*SQLStore)(nil)
