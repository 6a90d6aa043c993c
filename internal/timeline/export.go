package timeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/podcaster/internal/audio"
)

// ExportFormat names an output container and codec.
type ExportFormat string

const (
	FormatWAV     ExportFormat = "wav"
	FormatWAVULaw ExportFormat = "wav-ulaw"
	FormatWAVALaw ExportFormat = "wav-alaw"
)

// Encoding returns the WAV sample encoding for the format.
func (f ExportFormat) Encoding() (audio.Encoding, error) {
	switch f {
	case FormatWAV, "":
		return audio.PCM16, nil
	case FormatWAVULaw:
		return audio.ULaw, nil
	case FormatWAVALaw:
		return audio.ALaw, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", ErrAssembly, f)
}

// Export writes the clip to dest. The file appears only once fully written.
func Export(c audio.Clip, dest string, format ExportFormat) error {
	enc, err := format.Encoding()
	if err != nil {
		return err
	}
	data, err := audio.EncodeBytes(c, enc)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrAssembly, dest, err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrAssembly, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssembly, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrAssembly, dest, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrAssembly, dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrAssembly, dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrAssembly, dest, err)
	}
	return nil
}

// Load reads a WAV asset such as an intro or outro bed. An empty path
// yields an empty clip.
func Load(path string) (audio.Clip, error) {
	if path == "" {
		return audio.Clip{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", ErrAssembly, err)
	}
	defer f.Close()
	c, err := audio.Decode(f)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %s: %w", ErrAssembly, path, err)
	}
	return c, nil
}
