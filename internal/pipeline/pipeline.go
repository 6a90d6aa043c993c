// Package pipeline sequences the episode stages: ingest, digest or distill,
// script, parse, synthesize, assemble and export.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"

	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/llm"
	"github.com/rcliao/podcaster/internal/source"
	"github.com/rcliao/podcaster/internal/store"
)

// Stage names recorded on runs and in errors.
const (
	StageIngest     = "ingest"
	StageDigest     = "digest"
	StageDistill    = "distill"
	StageScript     = "script"
	StageParse      = "parse"
	StageSynthesize = "synthesize"
	StageAssemble   = "assemble"
	StageExport     = "export"
)

// stageOrder ranks stages in execution order; distill stands in for digest.
var stageOrder = map[string]int{
	StageIngest:     0,
	StageDigest:     1,
	StageDistill:    1,
	StageScript:     2,
	StageParse:      3,
	StageSynthesize: 4,
	StageAssemble:   5,
	StageExport:     6,
}

// RunIDLayout formats run identifiers.
const RunIDLayout = "20060102_150405"

var (
	// ErrSynthesis wraps a failed speech synthesis call.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrNoContent is returned when a stage has nothing to work with.
	ErrNoContent = errors.New("no content")
	// ErrIncomplete is returned when a run's parts do not cover its script.
	ErrIncomplete = errors.New("incomplete run")
)

// RunError reports a fatal stage failure with enough context to resume.
type RunError struct {
	RunID string
	Stage string
	Turn  int      // failing turn index, -1 when not turn specific
	Parts []string // part files written before the failure
	Err   error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("run %s: stage %s", e.RunID, e.Stage)
	if e.Turn >= 0 {
		msg += fmt.Sprintf(": turn %d", e.Turn)
	}
	if len(e.Parts) > 0 {
		msg += fmt.Sprintf(" (%d parts written)", len(e.Parts))
	}
	return msg + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error { return e.Err }

func stageError(runID, stage string, err error) *RunError {
	return &RunError{RunID: runID, Stage: stage, Turn: -1, Err: err}
}

// Deps are the collaborators of a Pipeline. Source may be nil when only
// text input is used.
type Deps struct {
	Config      *config.Config
	Store       store.Store
	Generator   llm.Generator
	Synthesizer llm.Synthesizer
	Source      source.Source
	Log         *logger.Logger
}

// Pipeline runs episode stages against one store and one set of capabilities.
// A Pipeline may serve many runs; the per-run state lives in each call.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	gen   llm.Generator
	tts   llm.Synthesizer
	src   source.Source
	log   *logger.Logger

	now     func() time.Time
	newRand func() *rand.Rand
}

// New returns a Pipeline. Config, Store and Log are required.
func New(d Deps) (*Pipeline, error) {
	if d.Config == nil || d.Store == nil || d.Log == nil {
		return nil, errors.New("pipeline: config, store and log are required")
	}
	p := &Pipeline{
		cfg:   d.Config,
		store: d.Store,
		gen:   d.Generator,
		tts:   d.Synthesizer,
		src:   d.Source,
		log:   d.Log,
		now:   time.Now,
	}
	p.newRand = func() *rand.Rand {
		seed := p.cfg.Timeline.Seed
		if seed == 0 {
			seed = p.now().UnixNano()
		}
		return rand.New(rand.NewSource(seed))
	}
	return p, nil
}

// NewRunID returns an identifier derived from the current time.
func (p *Pipeline) NewRunID() string {
	return p.now().Format(RunIDLayout)
}

// ScriptPath is where the script of runID is written.
func (p *Pipeline) ScriptPath(runID string) string {
	return filepath.Join(p.cfg.Dir(p.cfg.Paths.Scripts), "script_"+runID+".txt")
}

// AudioDir holds the per-turn part files of every run.
func (p *Pipeline) AudioDir() string {
	return p.cfg.Dir(p.cfg.Paths.Audio)
}

// PartPrefix is the part file prefix of runID.
func PartPrefix(runID string) string {
	return "audio_" + runID
}

// EpisodePath is where the mastered episode of runID is written.
func (p *Pipeline) EpisodePath(runID string) string {
	return filepath.Join(p.cfg.Dir(p.cfg.Paths.Episodes), runID, "episode_"+runID+".wav")
}

func (p *Pipeline) requireGenerator() error {
	if p.gen == nil {
		return errors.New("no text generator configured")
	}
	return nil
}
