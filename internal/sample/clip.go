// Package sample holds decoded one-shot clips and the resampling layer that
// plays them back from the audio thread.
package sample

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidWAV  = errors.New("sample: not a valid WAV file")
	ErrUnsupported = errors.New("sample: unsupported WAV encoding")
	ErrEmpty       = errors.New("sample: file holds no audio frames")
	ErrMalformed   = errors.New("sample: clip channels differ in length or rate is not positive")
)

// Clip is an immutable decoded multichannel buffer. Once handed to a Layer
// it must not be modified.
type Clip struct {
	Channels   [][]float32
	SampleRate float64
	Name       string
}

// Frames returns the per-channel length.
// Validate reports whether c can be played: at least one frame, every
// channel the same length and a positive sample rate.
func (c *Clip) Validate() error {
	n := c.Frames()
	if n == 0 {
		return ErrEmpty
	}
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return ErrMalformed
	}
	for _, ch := range c.Channels {
		if len(ch) != n {
			return ErrMalformed
		}
	}
	return nil
}

func (c *Clip) Frames() int {
	if c == nil || len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

func (c *Clip) Duration() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / c.SampleRate
}

// DecodeWAV reads an integer PCM WAV stream (16, 24 or 32 bit) into a Clip
// normalized to [-1, 1).
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupported, dec.BitDepth)
	}
	if dec.WavAudioFormat != 1 && dec.WavAudioFormat != 0xfffe {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupported, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sample: decode pcm: %w", err)
	}
	chans := int(dec.NumChans)
	if chans < 1 {
		return nil, ErrInvalidWAV
	}
	frames := len(pcm.Data) / chans
	if frames == 0 {
		return nil, ErrEmpty
	}

	scale := 1 / float64(int64(1)<<(dec.BitDepth-1))
	clip := &Clip{
		Channels:   make([][]float32, chans),
		SampleRate: float64(dec.SampleRate),
	}
	for ch := range clip.Channels {
		clip.Channels[ch] = make([]float32, frames)
	}
	for f := 0; f < frames; f++ {
		for ch := 0; ch < chans; ch++ {
			clip.Channels[ch][f] = float32(float64(pcm.Data[f*chans+ch]) * scale)
		}
	}
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return clip, nil
}

// LoadFile decodes a WAV file from disk.
func LoadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: open %s: %w", path, err)
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("sample: %s: %w", path, err)
	}
	clip.Name = path
	return clip, nil
}

// EncodeWAV writes interleaved float samples as 16-bit PCM.
func EncodeWAV(w io.WriteSeeker, interleaved []float32, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("sample: invalid channel count %d", channels)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(v * 32767)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("sample: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("sample: finalize: %w", err)
	}
	return nil
}
