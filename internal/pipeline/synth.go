package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rcliao/podcaster/internal/history"
	"github.com/rcliao/podcaster/internal/llm"
	"github.com/rcliao/podcaster/internal/model"
)

// historyTurns is how many previous turns condition each synthesis call.
const historyTurns = 2

// PartPath is the file of turn index within runID; parts are numbered from 1.
func (p *Pipeline) PartPath(runID string, index int) string {
	return filepath.Join(p.AudioDir(), fmt.Sprintf("%s_part_%d.wav", PartPrefix(runID), index+1))
}

// Synthesize voices each turn in order and writes one part file per turn,
// replacing any parts left from an earlier synthesis of runID. Each call is
// conditioned on the two previous turns. The first failure stops and fails
// the run; the returned RunError lists the parts already written.
func (p *Pipeline) Synthesize(ctx context.Context, runID string, turns []model.Turn) ([]string, error) {
	if err := p.track(ctx, runID, StageSynthesize); err != nil {
		return nil, p.fail(ctx, runID, StageSynthesize, err)
	}
	if p.tts == nil {
		return nil, p.fail(ctx, runID, StageSynthesize, errors.New("no speech synthesizer configured"))
	}
	if len(turns) == 0 {
		return nil, p.fail(ctx, runID, StageSynthesize, fmt.Errorf("%w: no turns to synthesize", ErrNoContent))
	}
	hs, err := hosts(p.cfg)
	if err != nil {
		return nil, p.fail(ctx, runID, StageSynthesize, err)
	}
	byID := make(map[int]Host, len(hs))
	for _, h := range hs {
		byID[h.ID] = h
	}
	if err := p.clearParts(runID); err != nil {
		return nil, p.fail(ctx, runID, StageSynthesize, err)
	}

	window := history.New(history.DefaultCapacity)
	parts := make([]string, 0, len(turns))
	fail := func(t model.Turn, err error) ([]string, error) {
		re := &RunError{RunID: runID, Stage: StageSynthesize, Turn: t.Index, Parts: parts, Err: err}
		return parts, p.fail(ctx, runID, StageSynthesize, re)
	}

	for _, t := range turns {
		host, ok := byID[t.Speaker]
		if !ok {
			return fail(t, fmt.Errorf("%w: speaker %d not configured", ErrSynthesis, t.Speaker))
		}
		req, err := p.speechRequest(host, t, window.Recent(historyTurns))
		if err != nil {
			return fail(t, err)
		}
		p.log.Info("Synthesizing turn %d/%d (%s)", t.Index+1, len(turns), t.Label())
		data, err := p.tts.Synthesize(ctx, req)
		if err != nil {
			return fail(t, fmt.Errorf("%w: %w", ErrSynthesis, err))
		}
		path := p.PartPath(runID, t.Index)
		if err := writeFile(path, data); err != nil {
			return fail(t, err)
		}
		parts = append(parts, path)
		window.Push(model.HistoryEntry{Speaker: t.Label(), Content: t.Text})
	}
	return parts, nil
}

// clearParts removes every part file of runID.
func (p *Pipeline) clearParts(runID string) error {
	stale, err := scanParts(p.AudioDir(), PartPrefix(runID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, sp := range stale {
		if err := os.Remove(sp.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale part: %w", err)
		}
	}
	if len(stale) > 0 {
		p.log.Info("Removed %d old parts of run %s", len(stale), runID)
	}
	return nil
}

func (p *Pipeline) speechRequest(host Host, t model.Turn, recent []model.HistoryEntry) (llm.SpeechRequest, error) {
	data := promptData{
		Styles:  p.cfg.Styles,
		Speaker: host,
		History: history.Render(recent),
		Note:    t.Note,
		Text:    t.Text,
	}
	system, err := render("speech.system", p.cfg.Prompts.Speech.System, data)
	if err != nil {
		return llm.SpeechRequest{}, err
	}
	user, err := render("speech.user", p.cfg.Prompts.Speech.User, data)
	if err != nil {
		return llm.SpeechRequest{}, err
	}
	return llm.SpeechRequest{
		System: system,
		User:   user,
		Voice:  host.Voice,
		Format: p.cfg.Models.Audio.Format,
		Model:  p.cfg.Models.Audio.Model,
	}, nil
}

// LoadParts returns the part files of prefix in dir ordered by their part
// number. File names and timestamps play no part in the order. The parts
// must be numbered 1..N without gaps or duplicates.
func LoadParts(dir, prefix string) ([]string, error) {
	found, err := scanParts(dir, prefix)
	if err != nil {
		return nil, fmt.Errorf("read parts: %w", err)
	}
	paths := make([]string, len(found))
	for i, f := range found {
		if f.n != i+1 {
			return nil, fmt.Errorf("%w: expected part %d of %s, found %s", ErrIncomplete, i+1, prefix, filepath.Base(f.path))
		}
		paths[i] = f.path
	}
	return paths, nil
}

type partFile struct {
	n    int
	path string
}

func scanParts(dir, prefix string) ([]partFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_part_(\d+)\.wav$`)

	var found []partFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, partFile{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	return found, nil
}
