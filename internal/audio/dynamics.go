package audio

import (
	"fmt"
	"math"
	"time"
)

// CompressorOptions configures Compress.
type CompressorOptions struct {
	ThresholdDB float64       // level above which gain is reduced
	Ratio       float64       // input:output ratio above the threshold
	Attack      time.Duration // envelope rise time
	Release     time.Duration // envelope fall time
}

// DefaultCompressorOptions returns the settings used for spoken dialogue.
func DefaultCompressorOptions() CompressorOptions {
	return CompressorOptions{
		ThresholdDB: -20,
		Ratio:       4,
		Attack:      5 * time.Millisecond,
		Release:     50 * time.Millisecond,
	}
}

// Compress applies feed-forward dynamic range compression. Channels share
// one envelope so the stereo image is preserved.
func Compress(c Clip, opts CompressorOptions) Clip {
	if opts.Ratio < 1 {
		opts.Ratio = 1
	}
	rate := float64(c.Format.SampleRate)
	attack := smoothing(opts.Attack, rate)
	release := smoothing(opts.Release, rate)

	out := c.copy()
	ch := c.Format.Channels
	var env float64
	for f := 0; f < c.Frames(); f++ {
		var level float64
		for j := 0; j < ch; j++ {
			level = math.Max(level, math.Abs(float64(c.Samples[f*ch+j])))
		}
		if level > env {
			env = attack*env + (1-attack)*level
		} else {
			env = release*env + (1-release)*level
		}

		over := linearToDB(env) - opts.ThresholdDB
		if over <= 0 {
			continue
		}
		gain := float32(dbToLinear(-over * (1 - 1/opts.Ratio)))
		for j := 0; j < ch; j++ {
			out.Samples[f*ch+j] *= gain
		}
	}
	return out
}

// smoothing returns the one-pole coefficient for a time constant.
func smoothing(d time.Duration, rate float64) float64 {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return math.Exp(-1 / (d.Seconds() * rate))
}

// Normalize scales the clip so its peak sits headroomDB below full scale.
// Silent clips are returned unchanged.
func Normalize(c Clip, headroomDB float64) Clip {
	peak := c.Peak()
	if peak == 0 {
		return c.copy()
	}
	target := dbToLinear(-math.Abs(headroomDB))
	return c.Gain(linearToDB(target / peak))
}

// ConvertChannels converts between mono and stereo. Stereo to mono averages
// the two channels.
func ConvertChannels(c Clip, channels int) (Clip, error) {
	if channels == c.Format.Channels {
		return c.copy(), nil
	}
	f := Format{SampleRate: c.Format.SampleRate, Channels: channels}
	if err := f.Validate(); err != nil {
		return Clip{}, err
	}
	frames := c.Frames()
	out := make([]float32, frames*channels)
	switch {
	case c.Format.Channels == 1 && channels == 2:
		for i, s := range c.Samples {
			out[2*i] = s
			out[2*i+1] = s
		}
	case c.Format.Channels == 2 && channels == 1:
		for i := range frames {
			out[i] = (c.Samples[2*i] + c.Samples[2*i+1]) / 2
		}
	default:
		return Clip{}, fmt.Errorf("%w: %d to %d channels", ErrInvalidFormat, c.Format.Channels, channels)
	}
	return c.with(f, out), nil
}

// Resample converts the clip to rate using linear interpolation.
func Resample(c Clip, rate int) (Clip, error) {
	if rate == c.Format.SampleRate {
		return c.copy(), nil
	}
	f := Format{SampleRate: rate, Channels: c.Format.Channels}
	if err := f.Validate(); err != nil {
		return Clip{}, err
	}
	in := c.Frames()
	n := int(int64(in) * int64(rate) / int64(c.Format.SampleRate))
	ch := c.Format.Channels
	out := make([]float32, n*ch)
	step := float64(c.Format.SampleRate) / float64(rate)
	for i := range n {
		pos := float64(i) * step
		lo := int(pos)
		hi := min(lo+1, in-1)
		frac := float32(pos - float64(lo))
		for j := 0; j < ch; j++ {
			a := c.Samples[lo*ch+j]
			b := c.Samples[hi*ch+j]
			out[i*ch+j] = a + (b-a)*frac
		}
	}
	return c.with(f, out), nil
}

// Conform converts c to format f, adjusting channels then sample rate.
func Conform(c Clip, f Format) (Clip, error) {
	if c.Format == f {
		return c, nil
	}
	out, err := ConvertChannels(c, f.Channels)
	if err != nil {
		return Clip{}, err
	}
	return Resample(out, f.SampleRate)
}
