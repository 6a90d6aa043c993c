package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/podcaster/internal/chunker"
	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/store"
)

// Digest summarizes the newest stored items into one post and records which
// items it covered.
func (p *Pipeline) Digest(ctx context.Context, runID string) (*model.Digest, error) {
	if err := p.requireGenerator(); err != nil {
		return nil, err
	}
	packed, err := p.store.Context(ctx, store.ContextParams{
		Limit:  p.cfg.Source.DigestItems,
		Budget: p.cfg.Source.DigestChars,
	})
	if err != nil {
		return nil, err
	}
	if len(packed.Items) == 0 {
		return nil, fmt.Errorf("%w: no stored items to digest", ErrNoContent)
	}

	prompt, err := buildPrompt("digest", p.cfg.Prompts.Digest, p.cfg.Models.Digest,
		promptData{Content: packed.Render(), Styles: p.cfg.Styles})
	if err != nil {
		return nil, err
	}
	p.log.Info("Writing digest of %d items (%d chars)", len(packed.Items), packed.Used)
	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate digest: %w", err)
	}
	return p.store.PutDigest(ctx, store.DigestParams{
		RunID:   runID,
		Content: text,
		Sources: packed.Hashes(),
	})
}

// Distill cleans raw text chunk by chunk. A chunk whose generation fails
// keeps its raw text so the rest of the document still gets through.
func (p *Pipeline) Distill(ctx context.Context, text string) (string, error) {
	if err := p.requireGenerator(); err != nil {
		return "", err
	}
	chunks, err := chunker.Chunk(text, p.cfg.Source.ChunkSize)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrNoContent)
	}

	out := make([]model.Chunk, len(chunks))
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out[i] = c
		prompt, err := buildPrompt("distill", p.cfg.Prompts.Distill, p.cfg.Models.Distill,
			promptData{Content: c.Text, Styles: p.cfg.Styles})
		if err != nil {
			return "", err
		}
		cleaned, err := p.gen.Generate(ctx, prompt)
		if err != nil {
			p.log.Warn("Chunk %d/%d kept raw: %v", i+1, len(chunks), err)
			continue
		}
		out[i].Text = strings.TrimSpace(cleaned)
		p.log.Info("Distilled chunk %d/%d", i+1, len(chunks))
	}
	return chunker.Join(out), nil
}

// Brief turns text into a structured research briefing.
func (p *Pipeline) Brief(ctx context.Context, text string) (string, error) {
	if err := p.requireGenerator(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty input", ErrNoContent)
	}
	prompt, err := buildPrompt("briefing", p.cfg.Prompts.Briefing, p.cfg.Models.Briefing,
		promptData{Content: text, Styles: p.cfg.Styles})
	if err != nil {
		return "", err
	}
	return p.gen.Generate(ctx, prompt)
}
