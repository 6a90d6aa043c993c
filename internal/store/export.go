package store

import (
	"context"

	"github.com/rcliao/podcaster/internal/model"
)

// ExportAll returns every stored item, oldest first.
func (s *SQLStore) ExportAll(ctx context.Context) ([]model.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
}

// ImportResult reports how many exported items were new.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import stores items from an export. Items whose hash is already present
// are skipped, so importing the same export twice is a no-op.
func (s *SQLStore) Import(ctx context.Context, items []model.Item) (*ImportResult, error) {
	res := &ImportResult{}
	for _, it := range items {
		r, err := s.Put(ctx, PutParams{
			Date:    it.Date,
			Title:   it.Title,
			Author:  it.Author,
			URL:     it.URL,
			Content: it.Content,
		})
		if err != nil {
			return res, err
		}
		if r.Inserted {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}
