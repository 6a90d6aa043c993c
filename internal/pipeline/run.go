package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/source"
	"github.com/rcliao/podcaster/internal/store"
)

// RunOptions selects the input of a full run. With InputPath set the file
// is distilled instead of digesting stored articles.
type RunOptions struct {
	RunID      string
	InputPath  string
	SkipIngest bool
}

// RunResult describes a completed run.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Ingest      *IngestResult `json:"ingest,omitempty"`
	DigestID    string        `json:"digest_id,omitempty"`
	ScriptPath  string        `json:"script_path"`
	Turns       int           `json:"turns"`
	Parts       []string      `json:"parts"`
	EpisodePath string        `json:"episode_path"`
}

// Run executes every stage in order. Any failure marks the run failed in the
// store and is returned as a *RunError.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	runID := opts.RunID
	if runID == "" {
		runID = p.NewRunID()
	}
	res := &RunResult{RunID: runID}
	p.log.System("Run %s started", runID)

	stage := StageIngest
	if opts.InputPath != "" {
		stage = StageDistill
	}
	if _, err := p.store.StartRun(ctx, runID, stage); err != nil {
		return nil, stageError(runID, stage, err)
	}

	content, err := p.runContent(ctx, runID, opts, res)
	if err != nil {
		return nil, err
	}

	if err := p.track(ctx, runID, StageScript); err != nil {
		return nil, p.fail(ctx, runID, StageScript, err)
	}
	sr, err := p.Script(ctx, runID, content)
	if err != nil {
		stage := StageScript
		if sr != nil {
			stage = StageParse
		}
		return nil, p.fail(ctx, runID, stage, err)
	}
	res.ScriptPath, res.Turns = sr.Path, len(sr.Turns)

	// Synthesize and Assemble track and record their own stages.
	parts, err := p.Synthesize(ctx, runID, sr.Turns)
	if err != nil {
		return nil, err
	}
	res.Parts = parts

	episode, err := p.Assemble(ctx, runID, sr.Turns, parts)
	if err != nil {
		return nil, err
	}
	res.EpisodePath = episode
	p.log.System("Run %s complete: %s", runID, episode)
	return res, nil
}

// runContent produces the script's main content: distilled input text, or a
// digest of freshly ingested articles.
func (p *Pipeline) runContent(ctx context.Context, runID string, opts RunOptions, res *RunResult) (string, error) {
	if opts.InputPath != "" {
		text, err := source.ReadText(opts.InputPath, p.cfg.Source.MaxPDFChars)
		if err != nil {
			return "", p.fail(ctx, runID, StageDistill, err)
		}
		distilled, err := p.Distill(ctx, text)
		if err != nil {
			return "", p.fail(ctx, runID, StageDistill, err)
		}
		return distilled, nil
	}

	if !opts.SkipIngest {
		ingest, err := p.Ingest(ctx)
		if err != nil {
			return "", p.fail(ctx, runID, StageIngest, err)
		}
		res.Ingest = ingest
	}
	if err := p.track(ctx, runID, StageDigest); err != nil {
		return "", p.fail(ctx, runID, StageDigest, err)
	}
	digest, err := p.Digest(ctx, runID)
	if err != nil {
		return "", p.fail(ctx, runID, StageDigest, err)
	}
	res.DigestID = digest.ID
	return digest.Content, nil
}

// track moves runID to stage, restarting the run record when it is missing
// or already finished. A run that failed before assembly is not restarted at
// assemble or export; it has to be synthesized again first.
func (p *Pipeline) track(ctx context.Context, runID, stage string) error {
	err := p.store.AdvanceRun(ctx, runID, stage)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	run, err := p.store.GetRun(ctx, runID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	case run.Status == model.RunFailed && stageOrder[run.Stage] <= stageOrder[StageSynthesize] &&
		stageOrder[stage] > stageOrder[StageSynthesize]:
		return fmt.Errorf("%w: run failed at %s, resynthesize before %s", ErrIncomplete, run.Stage, stage)
	}
	_, err = p.store.StartRun(ctx, runID, stage)
	return err
}

// fail records err on the run and returns it as a *RunError, keeping the
// stage of an inner RunError.
func (p *Pipeline) fail(ctx context.Context, runID, stage string, err error) error {
	var re *RunError
	if !errors.As(err, &re) {
		re = stageError(runID, stage, err)
	}
	if ferr := p.store.FailRun(context.WithoutCancel(ctx), re.RunID, re.Stage, re.Err); ferr != nil {
		p.log.Warn("Recording failure of run %s: %v", runID, ferr)
	}
	p.log.Error("%v", re)
	return re
}
