// Package voice implements the synthesized drum voices. Each voice is a
// single-instance, hard-retriggered generator that adds into a dsp.Buffer
// from the audio thread.
package voice

import "github.com/cbegin/drumseq-go/internal/dsp"

// Params are the per-lane controls re-applied every block.
type Params struct {
	Pitch float64 // semitones
	Decay float64 // seconds
	Tone  float64 // 0..1
	Drive float64 // 0..1
}

// Voice is the capability every lane generator provides.
type Voice interface {
	Prepare(sampleRate float64)
	SetParameters(p Params)
	NoteOn(velocity float64)
	NoteOnWithDelay(velocity float64, delaySamples int)
	// Render adds n frames into buf starting at frame start.
	Render(buf dsp.Buffer, start, n int)
	Active() bool
	// Level reports the main amplitude envelope, 0 when idle.
	Level() float64
	Reset()
}

const defaultSampleRate = 44100.0

func span(buf dsp.Buffer, start, n int) int {
	frames := buf.Frames()
	if start < 0 || start >= frames || n <= 0 {
		return 0
	}
	if start+n > frames {
		n = frames - start
	}
	return n
}

func velocity(v float64) float64 { return dsp.Clamp(v, 0, 1) }

func delay(d int) int {
	if d < 0 {
		return 0
	}
	return d
}
