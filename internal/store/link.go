package store

import (
	"context"
	"database/sql"
	"fmt"
)

// linkSources records which items a digest was written from.
func (s *SQLStore) linkSources(ctx context.Context, tx *sql.Tx, digestID string, hashes []string) error {
	for i, h := range hashes {
		_, err := s.exec(ctx, tx,
			`INSERT INTO digest_items (digest_id, item_hash, seq) VALUES (?, ?, ?)
			 ON CONFLICT (digest_id, item_hash) DO NOTHING`,
			digestID, h, i)
		if err != nil {
			return fmt.Errorf("%w: link digest source: %w", ErrStorage, err)
		}
	}
	return nil
}

// DigestSources returns the item hashes a digest was written from, in the
// order they were supplied.
func (s *SQLStore) DigestSources(ctx context.Context, digestID string) ([]string, error) {
	rows, err := s.query(ctx,
		`SELECT item_hash FROM digest_items WHERE digest_id = ? ORDER BY seq`, digestID)
	if err != nil {
		return nil, fmt.Errorf("%w: digest sources: %w", ErrStorage, err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("%w: digest sources: %w", ErrStorage, err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
