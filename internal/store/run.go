package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/podcaster/internal/model"
)

// StartRun records a new run, or restarts an existing one, at stage.
func (s *SQLStore) StartRun(ctx context.Context, runID, stage string) (*model.Run, error) {
	now := time.Now().UTC()
	_, err := s.exec(ctx, s.db,
		`INSERT INTO runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET stage = excluded.stage, status = excluded.status,
		   error = NULL, finished_at = NULL`,
		runID, stage, model.RunStarted, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("%w: start run: %w", ErrStorage, err)
	}
	return s.GetRun(ctx, runID)
}

// AdvanceRun moves a started run to the next stage.
func (s *SQLStore) AdvanceRun(ctx context.Context, runID, stage string) error {
	return s.updateRun(ctx,
		`UPDATE runs SET stage = ? WHERE id = ? AND status = ?`,
		stage, runID, model.RunStarted)
}

// FailRun marks a run failed at stage.
func (s *SQLStore) FailRun(ctx context.Context, runID, stage string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.updateRun(ctx,
		`UPDATE runs SET stage = ?, status = ?, error = ?, finished_at = ? WHERE id = ?`,
		stage, model.RunFailed, msg, formatTime(time.Now()), runID)
}

// CompleteRun marks a run complete. It is the durable record that the
// episode at episodePath was fully written.
func (s *SQLStore) CompleteRun(ctx context.Context, runID, episodePath string) error {
	return s.updateRun(ctx,
		`UPDATE runs SET stage = ?, status = ?, episode_path = ?, finished_at = ? WHERE id = ?`,
		"export", model.RunComplete, episodePath, formatTime(time.Now()), runID)
}

func (s *SQLStore) updateRun(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, s.db, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update run: %w", ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update run: %w", ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("run: %w", ErrNotFound)
	}
	return nil
}

const runColumns = `id, stage, status, episode_path, error, started_at, finished_at`

// GetRun retrieves a run by id.
func (s *SQLStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanRun(s.queryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get run: %w", ErrStorage, err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %w", ErrStorage, err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", ErrStorage, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	var episode, errMsg, finished sql.NullString
	var started string
	if err := row.Scan(&r.ID, &r.Stage, &r.Status, &episode, &errMsg, &started, &finished); err != nil {
		return r, err
	}
	r.EpisodePath = episode.String
	r.Error = errMsg.String
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}
