// Package timeline assembles synthesized dialogue clips into a mastered
// episode: stitching with pauses, post-processing, intro/outro bracketing
// and export.
package timeline

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rcliao/podcaster/internal/audio"
)

var (
	// ErrAssembly wraps every failure raised while building a timeline.
	ErrAssembly = errors.New("timeline assembly failed")
	// ErrAlreadyBracketed is returned when Bracket runs twice on one Assembler.
	ErrAlreadyBracketed = errors.New("episode already bracketed")
)

// Strategy selects how intro and outro music join the main clip.
type Strategy string

const (
	// PrependAppend places the intro before and the outro after the main clip.
	PrependAppend Strategy = "prepend-append"
	// OverlayBed mixes the music under the first and last Window of the main clip.
	OverlayBed Strategy = "overlay"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case PrependAppend, "":
		return PrependAppend, nil
	case OverlayBed:
		return OverlayBed, nil
	}
	return "", fmt.Errorf("%w: unknown bracket strategy %q", ErrAssembly, s)
}

// PauseRange bounds the silence inserted between consecutive clips.
type PauseRange struct {
	Min time.Duration
	Max time.Duration
}

// Window is a [Start, End) range within an asset. A zero End means the end
// of the asset.
type Window struct {
	Start time.Duration
	End   time.Duration
}

func (w Window) apply(c audio.Clip) audio.Clip {
	end := w.End
	if end <= 0 {
		end = c.Duration()
	}
	return c.Slice(w.Start, end)
}

// Options configures an Assembler.
type Options struct {
	Pause      PauseRange
	Compressor audio.CompressorOptions
	HeadroomDB float64

	// Ambient is an optional bed looped under the conversation.
	Ambient       audio.Clip
	AmbientGainDB float64

	Strategy    Strategy
	IntroWindow Window
	OutroWindow Window
	Fade        time.Duration

	// Overlay strategy only. OverlayWindow caps how much of each music
	// clip lies under the conversation, whatever its window.
	MusicGainDB   float64
	OverlayWindow time.Duration
	FinalFadeOut  time.Duration
}

// DefaultOptions returns the standard mastering settings.
func DefaultOptions() Options {
	return Options{
		Pause:         PauseRange{Min: 300 * time.Millisecond, Max: 700 * time.Millisecond},
		Compressor:    audio.DefaultCompressorOptions(),
		HeadroomDB:    0.1,
		AmbientGainDB: -25,
		Strategy:      PrependAppend,
		Fade:          2 * time.Second,
		MusicGainDB:   -15,
		OverlayWindow: 15 * time.Second,
		FinalFadeOut:  5 * time.Second,
	}
}

// Assembler builds one episode. It is not safe for concurrent use and must
// not be reused across runs.
type Assembler struct {
	opts      Options
	rng       *rand.Rand
	bracketed bool
}

// NewAssembler returns an Assembler drawing pauses from rng.
func NewAssembler(opts Options, rng *rand.Rand) *Assembler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Strategy == "" {
		opts.Strategy = PrependAppend
	}
	return &Assembler{opts: opts, rng: rng}
}

// Options returns the settings the Assembler was built with.
func (a *Assembler) Options() Options {
	return a.opts
}

// Assemble stitches, post-processes and brackets clips, in that order.
// Empty intro or outro clips are skipped.
func (a *Assembler) Assemble(clips []audio.Clip, intro, outro audio.Clip) (audio.Clip, error) {
	main, err := a.Stitch(clips)
	if err != nil {
		return audio.Clip{}, err
	}
	main, err = a.Postprocess(main)
	if err != nil {
		return audio.Clip{}, err
	}
	return a.Bracket(main, intro, outro)
}

// Stitch concatenates clips in order with a random pause in each gap.
// Clips are conformed to the format of the first clip.
func (a *Assembler) Stitch(clips []audio.Clip) (audio.Clip, error) {
	if len(clips) == 0 {
		return audio.Clip{}, fmt.Errorf("%w: no clips to stitch", ErrAssembly)
	}
	f := clips[0].Format
	parts := make([]audio.Clip, 0, 2*len(clips)-1)
	for i, c := range clips {
		conformed, err := audio.Conform(c, f)
		if err != nil {
			return audio.Clip{}, fmt.Errorf("%w: %s: %w", ErrAssembly, c.Label(fmt.Sprintf("clip %d", i)), err)
		}
		if i > 0 {
			parts = append(parts, audio.Silence(f, a.pause()))
		}
		parts = append(parts, conformed)
	}
	out, err := audio.Concat(parts...)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", ErrAssembly, err)
	}
	return out, nil
}

func (a *Assembler) pause() time.Duration {
	lo, hi := a.opts.Pause.Min, a.opts.Pause.Max
	if hi <= lo {
		return max(lo, 0)
	}
	return lo + time.Duration(a.rng.Int63n(int64(hi-lo)+1))
}

// Postprocess compresses then normalizes the clip, then mixes in the ambient
// bed when one is configured. Duration is unchanged.
func (a *Assembler) Postprocess(c audio.Clip) (audio.Clip, error) {
	out := audio.Compress(c, a.opts.Compressor)
	out = audio.Normalize(out, a.opts.HeadroomDB)

	if a.opts.Ambient.Empty() {
		return out, nil
	}
	bed, err := audio.Conform(a.opts.Ambient, out.Format)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: ambient bed: %w", ErrAssembly, err)
	}
	bed = bed.Gain(a.opts.AmbientGainDB).LoopFrames(out.Frames())
	out, err = out.Overlay(bed, 0)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: ambient bed: %w", ErrAssembly, err)
	}
	return out, nil
}

// Bracket adds intro and outro music using the configured strategy. It may
// be called once per Assembler.
func (a *Assembler) Bracket(main, intro, outro audio.Clip) (audio.Clip, error) {
	if a.bracketed {
		return audio.Clip{}, fmt.Errorf("%w: %w", ErrAssembly, ErrAlreadyBracketed)
	}

	intro, err := a.prepareMusic(intro, a.opts.IntroWindow, main.Format)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: intro: %w", ErrAssembly, err)
	}
	outro, err = a.prepareMusic(outro, a.opts.OutroWindow, main.Format)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: outro: %w", ErrAssembly, err)
	}

	var out audio.Clip
	switch a.opts.Strategy {
	case PrependAppend:
		out, err = a.prependAppend(main, intro, outro)
	case OverlayBed:
		out, err = a.overlay(main, intro, outro)
	default:
		err = fmt.Errorf("unknown strategy %q", a.opts.Strategy)
	}
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", ErrAssembly, err)
	}
	a.bracketed = true
	return out, nil
}

func (a *Assembler) prepareMusic(c audio.Clip, w Window, f audio.Format) (audio.Clip, error) {
	if c.Empty() {
		return audio.Clip{Format: f}, nil
	}
	c, err := audio.Conform(c, f)
	if err != nil {
		return audio.Clip{}, err
	}
	if a.opts.Strategy == OverlayBed && a.opts.OverlayWindow > 0 {
		if limit := w.Start + a.opts.OverlayWindow; w.End <= 0 || w.End > limit {
			w.End = limit
		}
	}
	return w.apply(c).FadeIn(a.opts.Fade).FadeOut(a.opts.Fade), nil
}

func (a *Assembler) prependAppend(main, intro, outro audio.Clip) (audio.Clip, error) {
	return audio.Concat(intro, main, outro)
}

func (a *Assembler) overlay(main, intro, outro audio.Clip) (audio.Clip, error) {
	out := main
	var err error
	if !intro.Empty() {
		bed := intro.Gain(a.opts.MusicGainDB)
		span := min(bed.Duration(), a.windowOr(bed.Duration()), main.Duration())
		if out, err = out.Overlay(bed.Slice(0, span), 0); err != nil {
			return audio.Clip{}, err
		}
	}
	if !outro.Empty() {
		bed := outro.Gain(a.opts.MusicGainDB)
		span := min(bed.Duration(), a.windowOr(bed.Duration()), main.Duration())
		offset := main.Duration() - span
		if out, err = out.Overlay(bed.Slice(0, span), offset); err != nil {
			return audio.Clip{}, err
		}
	}
	return out.FadeOut(a.opts.FinalFadeOut), nil
}

func (a *Assembler) windowOr(d time.Duration) time.Duration {
	if a.opts.OverlayWindow > 0 {
		return a.opts.OverlayWindow
	}
	return d
}
