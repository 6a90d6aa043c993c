package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/podcaster/internal/model"
)

// PutDigest stores a digest and links it to its source items.
func (s *SQLStore) PutDigest(ctx context.Context, p DigestParams) (*model.Digest, error) {
	now := time.Now().UTC()
	d := &model.Digest{
		ID:        s.newID(),
		RunID:     p.RunID,
		Content:   p.Content,
		Sources:   p.Sources,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = s.exec(ctx, tx,
		`INSERT INTO digests (id, run_id, content, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.RunID, d.Content, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("%w: insert digest: %w", ErrStorage, err)
	}
	if err := s.linkSources(ctx, tx, d.ID, p.Sources); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}
	return d, nil
}

// LatestDigest returns the most recently stored digest.
func (s *SQLStore) LatestDigest(ctx context.Context) (*model.Digest, error) {
	var d model.Digest
	var createdAt string
	err := s.queryRow(ctx,
		`SELECT id, run_id, content, created_at FROM digests ORDER BY id DESC LIMIT 1`).
		Scan(&d.ID, &d.RunID, &d.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("digest: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest digest: %w", ErrStorage, err)
	}
	d.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	d.Sources, err = s.DigestSources(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
