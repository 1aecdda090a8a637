package sequencer

import "math"

// Position is a snapshot of the musical transport at a block start.
type Position struct {
	Playing            bool
	BPM                float64
	PPQ                float64 // quarter notes since the song start
	BarStartPPQ        float64 // start of the current bar; <= 0 means unknown
	TimeSigNumerator   int
	TimeSigDenominator int
}

// BarLength returns the bar length in quarter notes, 4 when the time
// signature is missing.
func (p Position) BarLength() float64 {
	if p.TimeSigNumerator <= 0 || p.TimeSigDenominator <= 0 {
		return 4
	}
	return float64(p.TimeSigNumerator) * 4 / float64(p.TimeSigDenominator)
}

// SamplesPerBeat converts a tempo to frames per quarter note.
func SamplesPerBeat(sampleRate, bpm float64) float64 {
	return sampleRate * 60 / bpm
}

// Clock is the fallback transport used when the host is not playing.
type Clock struct {
	PPQ     float64
	Playing bool
}

// NewClock returns a running clock at zero.
func NewClock() Clock { return Clock{Playing: true} }

func (c *Clock) Start() { c.Playing = true }

func (c *Clock) Pause() { c.Playing = false }

func (c *Clock) Restart() {
	c.PPQ = 0
	c.Playing = true
}

// Position reports the clock as a 4/4 transport at tempo.
func (c Clock) Position(tempo float64) Position {
	return Position{
		Playing:            c.Playing,
		BPM:                tempo,
		PPQ:                c.PPQ,
		BarStartPPQ:        math.Floor(c.PPQ/4) * 4,
		TimeSigNumerator:   4,
		TimeSigDenominator: 4,
	}
}

// Advance moves a running clock forward by one block.
func (c *Clock) Advance(sampleRate, tempo float64, blockSamples int) {
	if !c.Playing || tempo <= 0 || sampleRate <= 0 {
		return
	}
	c.PPQ += float64(blockSamples) / SamplesPerBeat(sampleRate, tempo)
}

// Resolve picks the block's transport: the host position when it is playing
// with a usable tempo, otherwise the internal clock, which is then advanced.
func Resolve(host *Position, clock *Clock, tempo, sampleRate float64, blockSamples int) (pos Position, usedHost bool) {
	if host != nil && host.Playing && host.BPM > 0 {
		return *host, true
	}
	pos = clock.Position(tempo)
	clock.Advance(sampleRate, tempo, blockSamples)
	return pos, false
}
