// Package audio holds decoded PCM clips and the transforms the timeline
// applies to them.
//
// Samples are interleaved float32 values in [-1, 1]. Every transform returns
// a new Clip and leaves its input untouched.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrFormatMismatch is returned when clips with different formats are combined.
	ErrFormatMismatch = errors.New("audio format mismatch")
	// ErrInvalidFormat is returned for a non-positive rate or unsupported channel count.
	ErrInvalidFormat = errors.New("invalid audio format")
)

// Format describes the sample layout of a clip.
type Format struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

// Validate reports whether f can describe real audio.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	return nil
}

// FramesFor converts a duration to a whole number of frames, rounding down.
func (f Format) FramesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Clip is a decoded, in-memory audio segment. TurnIndex is set on spoken
// parts and nil on music, ambience and silence.
type Clip struct {
	Format    Format
	Samples   []float32
	TurnIndex *int
}

// ForTurn returns c tagged as the part of turn index.
func (c Clip) ForTurn(index int) Clip {
	c.TurnIndex = &index
	return c
}

// Label names the clip in diagnostics: its turn when known, else fallback.
func (c Clip) Label(fallback string) string {
	if c.TurnIndex != nil {
		return fmt.Sprintf("turn %d", *c.TurnIndex)
	}
	return fallback
}

func (c Clip) with(f Format, samples []float32) Clip {
	return Clip{Format: f, Samples: samples, TurnIndex: c.TurnIndex}
}

// Silence returns a silent clip of duration d.
func Silence(f Format, d time.Duration) Clip {
	return Clip{Format: f, Samples: make([]float32, f.FramesFor(d)*f.Channels)}
}

// Frames returns the number of sample frames in the clip.
func (c Clip) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the playing time of the clip.
func (c Clip) Duration() time.Duration {
	if c.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(int64(c.Frames()) * int64(time.Second) / int64(c.Format.SampleRate))
}

// Empty reports whether the clip holds no frames.
func (c Clip) Empty() bool {
	return c.Frames() == 0
}

// Slice returns the [start, end) range of c. Bounds are clamped to the clip.
func (c Clip) Slice(start, end time.Duration) Clip {
	n := c.Frames()
	from := min(c.Format.FramesFor(start), n)
	to := min(c.Format.FramesFor(end), n)
	if to < from {
		to = from
	}
	ch := c.Format.Channels
	out := make([]float32, (to-from)*ch)
	copy(out, c.Samples[from*ch:to*ch])
	return c.with(c.Format, out)
}

// Concat joins clips end to end. All clips must share one format.
func Concat(clips ...Clip) (Clip, error) {
	if len(clips) == 0 {
		return Clip{}, errors.New("concat: no clips")
	}
	f := clips[0].Format
	total := 0
	for i, c := range clips {
		if c.Format != f {
			return Clip{}, fmt.Errorf("%w: %s is %s, want %s", ErrFormatMismatch, c.Label(fmt.Sprintf("clip %d", i)), c.Format, f)
		}
		total += len(c.Samples)
	}
	out := make([]float32, 0, total)
	for _, c := range clips {
		out = append(out, c.Samples...)
	}
	return Clip{Format: f, Samples: out}, nil
}

// Gain scales the clip by db decibels.
func (c Clip) Gain(db float64) Clip {
	k := float32(dbToLinear(db))
	out := make([]float32, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = clamp(s * k)
	}
	return c.with(c.Format, out)
}

// FadeIn ramps the first d of the clip linearly from silence.
func (c Clip) FadeIn(d time.Duration) Clip {
	out := c.copy()
	n := min(c.Format.FramesFor(d), c.Frames())
	ch := c.Format.Channels
	for f := 0; f < n; f++ {
		k := float32(f) / float32(n)
		for j := 0; j < ch; j++ {
			out.Samples[f*ch+j] *= k
		}
	}
	return out
}

// FadeOut ramps the last d of the clip linearly down to silence.
func (c Clip) FadeOut(d time.Duration) Clip {
	out := c.copy()
	frames := c.Frames()
	n := min(c.Format.FramesFor(d), frames)
	ch := c.Format.Channels
	for i := 0; i < n; i++ {
		f := frames - n + i
		k := float32(n-1-i) / float32(n)
		for j := 0; j < ch; j++ {
			out.Samples[f*ch+j] *= k
		}
	}
	return out
}

// Overlay mixes other into c starting at offset. The result keeps c's
// length; whatever of other runs past the end is dropped.
func (c Clip) Overlay(other Clip, offset time.Duration) (Clip, error) {
	if other.Format != c.Format {
		return Clip{}, fmt.Errorf("%w: overlay %s onto %s", ErrFormatMismatch, other.Format, c.Format)
	}
	out := c.copy()
	start := c.Format.FramesFor(offset) * c.Format.Channels
	for i, s := range other.Samples {
		j := start + i
		if j >= len(out.Samples) {
			break
		}
		out.Samples[j] = clamp(out.Samples[j] + s)
	}
	return out, nil
}

// Loop repeats the clip ceil(d/len) times and trims it to exactly d.
// An empty clip loops to silence.
func (c Clip) Loop(d time.Duration) Clip {
	return c.LoopFrames(c.Format.FramesFor(d))
}

// LoopFrames is Loop measured in frames.
func (c Clip) LoopFrames(frames int) Clip {
	want := max(frames, 0) * c.Format.Channels
	out := make([]float32, want)
	if len(c.Samples) == 0 {
		return c.with(c.Format, out)
	}
	for i := 0; i < want; i += len(c.Samples) {
		copy(out[i:], c.Samples)
	}
	return c.with(c.Format, out)
}

// Peak returns the largest absolute sample value.
func (c Clip) Peak() float64 {
	var peak float64
	for _, s := range c.Samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak
}

// RMS returns the root mean square level of the [start, end) range.
func (c Clip) RMS(start, end time.Duration) float64 {
	seg := c.Slice(start, end)
	if len(seg.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range seg.Samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(seg.Samples)))
}

func (c Clip) copy() Clip {
	out := make([]float32, len(c.Samples))
	copy(out, c.Samples)
	return c.with(c.Format, out)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

func clamp(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
