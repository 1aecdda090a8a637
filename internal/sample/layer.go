package sample

import (
	"sync/atomic"

	"github.com/cbegin/drumseq-go/internal/dsp"
)

const (
	tailDecay     = 0.9995
	tailSilence   = 1e-5
	tailThreshold = 0.9
	maxGain       = 2.0
)

// Layer is a one-shot player for a loaded clip. Load may be called from any
// goroutine; everything else belongs to the audio thread.
type Layer struct {
	clip atomic.Pointer[Clip]

	sampleRate float64

	// playing is the clip captured at note-on. A different pointer at render
	// time means the clip was replaced and the note is dropped.
	playing  *Clip
	position float64
	rate     float64
	env      float64

	tune        float64
	startOffset int
	gain        float64

	pending int
	active  bool
}

func NewLayer() *Layer {
	return &Layer{sampleRate: 44100, gain: 1, rate: 1}
}

func (l *Layer) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		l.sampleRate = sampleRate
	}
	l.Reset()
}

func (l *Layer) Reset() {
	l.active = false
	l.playing = nil
	l.position = 0
	l.env = 0
	l.pending = 0
}

// Load swaps in a new clip. A nil clip unloads the layer. A clip that fails
// Validate is rejected and the current clip is kept.
func (l *Layer) Load(c *Clip) error {
	if c != nil {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	l.clip.Store(c)
	return nil
}

// LoadFile decodes path and swaps it in. On error the current clip is kept.
func (l *Layer) LoadFile(path string) error {
	c, err := LoadFile(path)
	if err != nil {
		return err
	}
	return l.Load(c)
}

// LoadFromFile is LoadFile reporting only success.
func (l *Layer) LoadFromFile(path string) bool {
	return l.LoadFile(path) == nil
}

func (l *Layer) IsLoaded() bool { return l.clip.Load() != nil }

// Clip returns the currently loaded clip, or nil.
func (l *Layer) Clip() *Clip { return l.clip.Load() }

func (l *Layer) SetParameters(tuneSemitones float64, startOffset int, gain float64) {
	l.tune = tuneSemitones
	l.startOffset = max(0, startOffset)
	l.gain = dsp.Clamp(gain, 0, maxGain)
	if l.playing != nil {
		l.rate = l.playbackRate(l.playing)
	}
}

func (l *Layer) playbackRate(c *Clip) float64 {
	return (c.SampleRate / l.sampleRate) * dsp.SemitoneRatio(l.tune)
}

func (l *Layer) NoteOnWithDelay(v float64, d int) {
	c := l.clip.Load()
	if c == nil {
		return
	}
	l.playing = c
	l.rate = l.playbackRate(c)
	l.active = true
	l.pending = max(0, d+l.startOffset)
	l.position = 0
	l.env = dsp.Clamp(v, 0, 1)
}

func (l *Layer) Active() bool { return l.active }

func (l *Layer) Render(buf dsp.Buffer, start, n int) {
	if !l.active {
		return
	}
	c := l.clip.Load()
	if c == nil || c != l.playing {
		l.active = false
		l.playing = nil
		return
	}
	frames := buf.Frames()
	if start < 0 || start >= frames {
		return
	}
	n = min(n, frames-start)

	src := c.Channels
	length := c.Frames()
	for i := 0; i < n; i++ {
		if l.pending > 0 {
			l.pending--
			continue
		}
		pos := int(l.position)
		if pos >= length {
			l.active = false
			return
		}
		next := min(pos+1, length-1)
		frac := float32(l.position - float64(pos))
		amp := float32(l.env * l.gain)
		for ch := range buf {
			s := src[0]
			if ch < len(src) {
				s = src[ch]
			}
			s0, s1 := s[pos], s[next]
			buf[ch][start+i] += (s0 + (s1-s0)*frac) * amp
		}

		l.position += l.rate
		l.env *= tailDecay
		if l.env < tailSilence && l.position > float64(length)*tailThreshold {
			l.active = false
			return
		}
	}
}
