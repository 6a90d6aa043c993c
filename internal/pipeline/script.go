package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/script"
)

// ScriptResult is a written and parsed script.
type ScriptResult struct {
	Path    string         `json:"path"`
	Dialect script.Dialect `json:"dialect"`
	Turns   []model.Turn   `json:"turns"`
}

// Script drafts a two-host conversation about content, optionally rewrites
// it into the annotated tuple dialect, stores the final text under the run's
// script path and parses it.
func (p *Pipeline) Script(ctx context.Context, runID, content string) (*ScriptResult, error) {
	if err := p.requireGenerator(); err != nil {
		return nil, err
	}
	hs, err := hosts(p.cfg)
	if err != nil {
		return nil, err
	}
	data := promptData{Content: content, Styles: p.cfg.Styles, Hosts: hs}

	prompt, err := buildPrompt("script", p.cfg.Prompts.Script, p.cfg.Models.Script, data)
	if err != nil {
		return nil, err
	}
	p.log.Info("Drafting script for run %s", runID)
	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	if p.cfg.Source.Rewrite {
		data.Content = raw
		prompt, err := buildPrompt("screenwriter", p.cfg.Prompts.Screenwriter, p.cfg.Models.Screenwriter, data)
		if err != nil {
			return nil, err
		}
		p.log.Info("Rewriting script for run %s", runID)
		raw, err = p.gen.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("rewrite script: %w", err)
		}
	}

	path := p.ScriptPath(runID)
	if err := writeFile(path, []byte(raw)); err != nil {
		return nil, err
	}
	res, err := p.ParseScript(path)
	if err != nil {
		return &ScriptResult{Path: path, Turns: []model.Turn{}}, err
	}
	return res, nil
}

// ParseScript reads and parses a stored script.
func (p *Pipeline) ParseScript(path string) (*ScriptResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	ids, err := p.cfg.SpeakerIDs()
	if err != nil {
		return nil, err
	}
	turns, dialect, err := script.NewParser(ids...).ParseDialect(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.log.Info("Parsed %d turns (%s) from %s", len(turns), dialect, path)
	return &ScriptResult{Path: path, Dialect: dialect, Turns: turns}, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
