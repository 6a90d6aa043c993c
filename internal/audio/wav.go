package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/zaf/g711"
)

// ErrInvalidWAV is returned when input is not a readable RIFF/WAVE stream.
var ErrInvalidWAV = errors.New("invalid wav")

// Encoding selects the sample codec of a WAV file.
type Encoding string

const (
	PCM16 Encoding = "pcm16"
	ULaw  Encoding = "ulaw"
	ALaw  Encoding = "alaw"
)

// WAV format tags.
const (
	tagPCM        = 0x0001
	tagFloat      = 0x0003
	tagALaw       = 0x0006
	tagULaw       = 0x0007
	tagExtensible = 0xFFFE
)

const (
	pcmMax = 32767
	pcmMin = -32768
)

// Decode reads a WAV stream. PCM (8, 16, 24 and 32 bit), IEEE float,
// G.711 µ-law and A-law are supported.
func Decode(r io.Reader) (Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Clip{}, fmt.Errorf("read wav: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	var (
		tag, channels, bits uint16
		rate                uint32
		haveFmt             bool
		body                []byte
	)
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + 8
		end := start + size
		if end > len(data) {
			// Streamed files may carry a placeholder size on the data chunk.
			if id != "data" {
				return Clip{}, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidWAV, id)
			}
			end = len(data)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			chunk := data[start:end]
			tag = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			rate = binary.LittleEndian.Uint32(chunk[4:8])
			bits = binary.LittleEndian.Uint16(chunk[14:16])
			if tag == tagExtensible && size >= 26 {
				tag = binary.LittleEndian.Uint16(chunk[24:26])
			}
			haveFmt = true
		case "data":
			body = data[start:end]
		}
		pos = end + size%2
	}
	if !haveFmt {
		return Clip{}, fmt.Errorf("%w: no fmt chunk", ErrInvalidWAV)
	}
	if body == nil {
		return Clip{}, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
	}

	f := Format{SampleRate: int(rate), Channels: int(channels)}
	if err := f.Validate(); err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	samples, err := decodeSamples(body, tag, bits)
	if err != nil {
		return Clip{}, err
	}
	// Drop a trailing partial frame.
	samples = samples[:len(samples)/f.Channels*f.Channels]
	return Clip{Format: f, Samples: samples}, nil
}

func decodeSamples(body []byte, tag, bits uint16) ([]float32, error) {
	switch {
	case tag == tagULaw:
		out := make([]float32, len(body))
		for i, b := range body {
			out[i] = fromInt16(g711.DecodeUlawFrame(b))
		}
		return out, nil
	case tag == tagALaw:
		out := make([]float32, len(body))
		for i, b := range body {
			out[i] = fromInt16(g711.DecodeAlawFrame(b))
		}
		return out, nil
	case tag == tagFloat && bits == 32:
		out := make([]float32, len(body)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
		}
		return out, nil
	case tag == tagPCM && bits == 8:
		out := make([]float32, len(body))
		for i, b := range body {
			out[i] = (float32(b) - 128) / 128
		}
		return out, nil
	case tag == tagPCM && bits == 16:
		out := make([]float32, len(body)/2)
		for i := range out {
			out[i] = fromInt16(int16(binary.LittleEndian.Uint16(body[i*2:])))
		}
		return out, nil
	case tag == tagPCM && bits == 24:
		out := make([]float32, len(body)/3)
		for i := range out {
			b := body[i*3:]
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			out[i] = float32(v) / (1 << 23)
		}
		return out, nil
	case tag == tagPCM && bits == 32:
		out := make([]float32, len(body)/4)
		for i := range out {
			out[i] = float32(int32(binary.LittleEndian.Uint32(body[i*4:]))) / (1 << 31)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported encoding tag %#x with %d bits", ErrInvalidWAV, tag, bits)
}

// Encode writes c as a WAV stream in the given encoding.
func Encode(w io.Writer, c Clip, enc Encoding) error {
	data, err := EncodeBytes(c, enc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeBytes is Encode into a new buffer.
func EncodeBytes(c Clip, enc Encoding) ([]byte, error) {
	if err := c.Format.Validate(); err != nil {
		return nil, err
	}

	var (
		tag  uint16
		bits uint16
		body []byte
	)
	switch enc {
	case PCM16, "":
		tag, bits = tagPCM, 16
		body = make([]byte, len(c.Samples)*2)
		for i, s := range c.Samples {
			binary.LittleEndian.PutUint16(body[i*2:], uint16(toInt16(s)))
		}
	case ULaw:
		tag, bits = tagULaw, 8
		body = make([]byte, len(c.Samples))
		for i, s := range c.Samples {
			body[i] = g711.EncodeUlawFrame(toInt16(s))
		}
	case ALaw:
		tag, bits = tagALaw, 8
		body = make([]byte, len(c.Samples))
		for i, s := range c.Samples {
			body[i] = g711.EncodeAlawFrame(toInt16(s))
		}
	default:
		return nil, fmt.Errorf("unsupported wav encoding %q", enc)
	}

	// Non-PCM formats carry a cbSize field, making the fmt chunk 18 bytes.
	fmtSize := uint32(16)
	if tag != tagPCM {
		fmtSize = 18
	}
	channels := uint16(c.Format.Channels)
	blockAlign := channels * bits / 8
	byteRate := uint32(c.Format.SampleRate) * uint32(blockAlign)
	riffSize := 4 + (8 + fmtSize) + (8 + uint32(len(body)))
	pad := len(body) % 2
	riffSize += uint32(pad)

	var buf bytes.Buffer
	buf.Grow(int(riffSize) + 8)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, fmtSize)
	binary.Write(&buf, binary.LittleEndian, tag)
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, uint32(c.Format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bits)
	if fmtSize == 18 {
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)
	if pad == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func fromInt16(v int16) float32 {
	return float32(v) / 32768
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	if v > pcmMax {
		return pcmMax
	}
	if v < pcmMin {
		return pcmMin
	}
	return int16(v)
}
