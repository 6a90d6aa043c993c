package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath       string         `json:"db_path,omitempty"`
	DBSizeBytes  int64          `json:"db_size_bytes,omitempty"`
	TotalItems   int            `json:"total_items"`
	TotalDigests int            `json:"total_digests"`
	Runs         map[string]int `json:"runs"`
	LatestItemAt string         `json:"latest_item_at,omitempty"`
}

// Stats returns database statistics. dbPath is only used to report the file
// size of a SQLite database.
func (s *SQLStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Runs: map[string]int{}}

	if dbPath != "" && s.dialect == dialectSQLite {
		if info, err := os.Stat(dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.TotalItems); err != nil {
		return nil, fmt.Errorf("%w: count items: %w", ErrStorage, err)
	}
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM digests`).Scan(&st.TotalDigests); err != nil {
		return nil, fmt.Errorf("%w: count digests: %w", ErrStorage, err)
	}
	if st.TotalItems > 0 {
		s.queryRow(ctx, `SELECT MAX(created_at) FROM items`).Scan(&st.LatestItemAt)
	}

	rows, err := s.query(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: count runs: %w", ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: count runs: %w", ErrStorage, err)
		}
		st.Runs[status] = n
	}
	return st, rows.Err()
}
