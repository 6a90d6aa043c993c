package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/podcaster/internal/source"
	"github.com/rcliao/podcaster/internal/store"
)

// IngestResult counts what one ingestion pass did.
type IngestResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Ingest fetches recent entries and stores the new ones. Entries already in
// the store are skipped before their body is fetched. An entry whose body
// cannot be fetched is logged and counted; a failing source only aborts when
// it yields nothing. Storage errors abort the pass.
func (p *Pipeline) Ingest(ctx context.Context) (*IngestResult, error) {
	if p.src == nil {
		return nil, errors.New("no article source configured")
	}
	entries, err := p.src.FetchRecent(ctx, p.cfg.Source.WindowDays)
	if err != nil {
		if len(entries) == 0 {
			return nil, fmt.Errorf("fetch recent: %w", err)
		}
		p.log.Warn("Some sources failed: %v", err)
	}

	res := &IngestResult{Fetched: len(entries)}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		inserted, err := p.ingestEntry(ctx, e)
		switch {
		case errors.Is(err, store.ErrStorage):
			return res, fmt.Errorf("store %q: %w", e.Title, err)
		case err != nil:
			res.Failed++
			p.log.Warn("Skipping %q: %v", e.Title, err)
		case inserted:
			res.Inserted++
			p.log.Info("Article saved: %s", e.Title)
		default:
			res.Skipped++
		}
	}
	p.log.Info("Processed %d articles, added %d", res.Fetched, res.Inserted)
	return res, nil
}

func (p *Pipeline) ingestEntry(ctx context.Context, e source.Entry) (bool, error) {
	params := e.Params(e.Content)
	exists, err := p.store.Has(ctx, params)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	body, err := e.Body(ctx)
	if err != nil {
		return false, err
	}
	res, err := p.store.Put(ctx, e.Params(body))
	if err != nil {
		return false, err
	}
	return res.Inserted, nil
}
