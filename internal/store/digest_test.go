package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rcliao/podcaster/internal/model"
)

func TestDigestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.LatestDigest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	s.PutDigest(ctx, DigestParams{RunID: "r1", Content: "old"})
	d, err := s.PutDigest(ctx, DigestParams{RunID: "r2", Content: "new", Sources: []string{"h2", "h1"}})
	if err != nil {
		t.Fatalf("put digest: %v", err)
	}

	got, err := s.LatestDigest(ctx)
	if err != nil {
		t.Fatalf("latest digest: %v", err)
	}
	if got.ID != d.ID || got.Content != "new" {
		t.Errorf("expected latest digest, got %+v", got)
	}
	if strings.Join(got.Sources, ",") != "h2,h1" {
		t.Errorf("expected sources in order, got %v", got.Sources)
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run, err := s.StartRun(ctx, "20261014_120000", "ingest")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.Status != model.RunStarted || run.FinishedAt != nil {
		t.Errorf("expected started run, got %+v", run)
	}

	if err := s.AdvanceRun(ctx, run.ID, "synthesize"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := s.FailRun(ctx, run.ID, "synthesize", fmt.Errorf("boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.GetRun(ctx, run.ID)
	if got.Status != model.RunFailed || got.Error != "boom" || got.Stage != "synthesize" {
		t.Errorf("expected failed run, got %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at on failure")
	}

	// Restarting clears the failure.
	s.StartRun(ctx, run.ID, "assemble")
	if err := s.CompleteRun(ctx, run.ID, "episodes/x/episode_x.wav"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = s.GetRun(ctx, run.ID)
	if got.Status != model.RunComplete || got.EpisodePath != "episodes/x/episode_x.wav" || got.Error != "" {
		t.Errorf("expected complete run, got %+v", got)
	}

	runs, _ := s.ListRuns(ctx, 0)
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestRunNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.CompleteRun(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContextBudget(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	long := strings.Repeat("programming languages and their features. ", 20)
	s.Put(ctx, PutParams{Date: "d", Title: "older", URL: "u1", Content: long})
	s.Put(ctx, PutParams{Date: "d", Title: "newer", URL: "u2", Content: "Go is great"})

	res, err := s.Context(ctx, ContextParams{Budget: 200})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected newer item plus an excerpt, got %d", len(res.Items))
	}
	if res.Items[0].Title != "newer" || res.Items[0].Excerpt {
		t.Errorf("expected newest item whole, got %+v", res.Items[0])
	}
	if !res.Items[1].Excerpt {
		t.Error("expected older item excerpted")
	}
	if res.Used > res.Budget {
		t.Errorf("used %d exceeds budget %d", res.Used, res.Budget)
	}
	if len(res.Hashes()) != 2 {
		t.Errorf("expected 2 hashes")
	}
	if !strings.Contains(res.Render(), "Title: newer") {
		t.Errorf("expected rendered titles, got %q", res.Render())
	}
}
