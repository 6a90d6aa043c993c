package store

import (
	"context"
	"strings"

	"github.com/rcliao/podcaster/internal/model"
)

// SearchParams holds parameters for searching items.
type SearchParams struct {
	Query string
	Limit int
}

// Search finds items whose title or content contains the query substring,
// case-insensitively, newest first.
func (s *SQLStore) Search(ctx context.Context, p SearchParams) ([]model.Item, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	q := "%" + strings.ToLower(p.Query) + "%"
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE LOWER(title) LIKE ? OR LOWER(content) LIKE ?
		 ORDER BY id DESC LIMIT ?`, q, q, limit)
}
