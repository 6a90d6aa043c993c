package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rcliao/podcaster/internal/audio"
	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/timeline"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// TimelineOptions maps the timeline configuration onto assembler options.
// The ambient bed is loaded separately by Assemble.
func TimelineOptions(tc config.TimelineConfig) (timeline.Options, error) {
	strategy, err := timeline.ParseStrategy(tc.Strategy)
	if err != nil {
		return timeline.Options{}, err
	}
	opts := timeline.DefaultOptions()
	opts.Pause = timeline.PauseRange{Min: ms(tc.PauseMinMs), Max: ms(tc.PauseMaxMs)}
	opts.HeadroomDB = tc.HeadroomDB
	opts.AmbientGainDB = tc.AmbientGainDB
	opts.Strategy = strategy
	opts.IntroWindow = timeline.Window{Start: ms(tc.IntroStartMs), End: ms(tc.IntroEndMs)}
	opts.OutroWindow = timeline.Window{Start: ms(tc.OutroStartMs), End: ms(tc.OutroEndMs)}
	opts.Fade = ms(tc.FadeMs)
	opts.MusicGainDB = tc.MusicGainDB
	opts.OverlayWindow = ms(tc.OverlayWindowMs)
	opts.FinalFadeOut = ms(tc.FinalFadeOutMs)
	return opts, nil
}

// Assemble masters the parts of turns into the run's episode and returns
// its path. parts must hold exactly one part file per turn, in turn order.
// The run is marked complete only after the export succeeded; a run that
// failed before assembly is refused and left as it is.
func (p *Pipeline) Assemble(ctx context.Context, runID string, turns []model.Turn, parts []string) (string, error) {
	if err := p.track(ctx, runID, StageAssemble); err != nil {
		return "", &RunError{RunID: runID, Stage: StageAssemble, Turn: -1, Parts: parts, Err: err}
	}
	fail := func(stage string, turn int, err error) (string, error) {
		return "", p.fail(ctx, runID, stage, &RunError{RunID: runID, Stage: stage, Turn: turn, Parts: parts, Err: err})
	}
	if len(parts) == 0 {
		return fail(StageAssemble, -1, fmt.Errorf("%w: no part files", ErrNoContent))
	}
	if len(parts) != len(turns) {
		return fail(StageAssemble, -1, fmt.Errorf("%w: %d part files for %d turns", ErrIncomplete, len(parts), len(turns)))
	}
	for i, t := range turns {
		if want := p.PartPath(runID, t.Index); filepath.Clean(parts[i]) != want {
			return fail(StageAssemble, t.Index, fmt.Errorf("%w: part %s, want %s", ErrIncomplete, parts[i], want))
		}
	}

	tc := p.cfg.Timeline
	opts, err := TimelineOptions(tc)
	if err != nil {
		return fail(StageAssemble, -1, err)
	}
	if opts.Ambient, err = timeline.Load(tc.AmbientPath); err != nil {
		return fail(StageAssemble, -1, err)
	}
	intro, err := timeline.Load(tc.IntroPath)
	if err != nil {
		return fail(StageAssemble, -1, err)
	}
	outro, err := timeline.Load(tc.OutroPath)
	if err != nil {
		return fail(StageAssemble, -1, err)
	}

	clips := make([]audio.Clip, 0, len(parts))
	for i, path := range parts {
		if err := ctx.Err(); err != nil {
			return fail(StageAssemble, -1, err)
		}
		c, err := timeline.Load(path)
		if err != nil {
			return fail(StageAssemble, turns[i].Index, err)
		}
		clips = append(clips, c.ForTurn(turns[i].Index))
	}

	p.log.Info("Assembling %d parts (%s)", len(clips), opts.Strategy)
	episode, err := timeline.NewAssembler(opts, p.newRand()).Assemble(clips, intro, outro)
	if err != nil {
		return fail(StageAssemble, -1, err)
	}

	if err := p.track(ctx, runID, StageExport); err != nil {
		return fail(StageExport, -1, err)
	}
	dest := p.EpisodePath(runID)
	if err := timeline.Export(episode, dest, timeline.ExportFormat(tc.ExportFormat)); err != nil {
		return fail(StageExport, -1, err)
	}
	if err := p.store.CompleteRun(ctx, runID, dest); err != nil {
		return fail(StageExport, -1, err)
	}
	p.log.Info("Episode exported to %s (%s)", dest, episode.Duration().Round(time.Millisecond))
	return dest, nil
}
