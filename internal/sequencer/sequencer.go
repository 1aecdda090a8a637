// Package sequencer turns a lane's step pattern and a musical transport
// position into sample-accurate triggers for one audio block.
package sequencer

import (
	"math"
	"sync/atomic"
)

const (
	// StepPPQ is the length of one step in quarter notes (a 16th note).
	StepPPQ = 0.25
	// MaxSteps is the storage size of a pattern; 16-step mode uses the first half.
	MaxSteps = 32
	// DefaultSteps is the step count of a new pattern.
	DefaultSteps = 16

	accentVelocity = 1.0
	normalVelocity = 0.8
)

// Trigger is a note-on scheduled inside the current block.
type Trigger struct {
	Offset   int     // frames from the block start, in [0, blockSamples)
	Velocity float64 // 1.0 accented, 0.8 otherwise
}

// Sequencer owns one lane's pattern. Step and accent flags may be edited
// from any goroutine; trigger computation runs on the audio thread and
// tolerates one block of staleness.
type Sequencer struct {
	steps  atomic.Int32
	on     [MaxSteps]atomic.Bool
	accent [MaxSteps]atomic.Bool
}

func New() *Sequencer {
	s := &Sequencer{}
	s.steps.Store(DefaultSteps)
	return s
}

// NumSteps returns 16 or 32.
func (s *Sequencer) NumSteps() int { return int(s.steps.Load()) }

// SetStepsMode switches between 16 and 32 steps. A change of size clears
// every step and accent.
func (s *Sequencer) SetStepsMode(is32 bool) {
	want := int32(DefaultSteps)
	if is32 {
		want = MaxSteps
	}
	if s.steps.Swap(want) != want {
		s.Clear()
	}
}

// Clear turns every step and accent off.
func (s *Sequencer) Clear() {
	for k := range s.on {
		s.on[k].Store(false)
		s.accent[k].Store(false)
	}
}

func (s *Sequencer) inRange(k int) bool { return k >= 0 && k < s.NumSteps() }

func (s *Sequencer) SetStepOn(k int, on bool) {
	if s.inRange(k) {
		s.on[k].Store(on)
	}
}

func (s *Sequencer) SetAccent(k int, on bool) {
	if s.inRange(k) {
		s.accent[k].Store(on)
	}
}

func (s *Sequencer) StepOn(k int) bool { return s.inRange(k) && s.on[k].Load() }

func (s *Sequencer) Accent(k int) bool { return s.inRange(k) && s.accent[k].Load() }

// ComputeTriggers appends to out[:0] every enabled step whose time falls in
// the block [pos.PPQ, pos.PPQ + blockSamples/samplesPerBeat) and returns it.
// Nothing is allocated when out has capacity for the result.
func (s *Sequencer) ComputeTriggers(pos Position, sampleRate float64, blockSamples int, is32 bool, swing float64, out []Trigger) []Trigger {
	out = out[:0]
	if !pos.Playing || pos.BPM <= 0 || sampleRate <= 0 || blockSamples <= 0 {
		return out
	}
	s.SetStepsMode(is32)

	spb := SamplesPerBeat(sampleRate, pos.BPM)
	start := pos.PPQ
	end := start + float64(blockSamples)/spb
	steps := s.NumSteps()
	anchor, span := cycleAnchor(pos, steps)
	w := block{
		start:  start,
		end:    end,
		spb:    spb,
		frames: blockSamples,
		swing:  clamp(swing, 0, 1) * StepPPQ * 0.5,
		steps:  steps,
		span:   span,
	}

	out = s.collect(out, anchor, w)
	if end-anchor >= span {
		out = s.collect(out, anchor+span, w)
	}
	return out
}

type block struct {
	start, end float64
	spb        float64
	frames     int
	swing      float64
	steps      int
	span       float64
}

func (s *Sequencer) collect(out []Trigger, anchor float64, w block) []Trigger {
	first := clampInt(int(math.Floor((w.start-anchor)/StepPPQ)), 0, w.steps-1)
	last := clampInt(int(math.Floor((w.end-anchor)/StepPPQ)), 0, w.steps-1)
	for k := first; k <= last; k++ {
		rel := float64(k) * StepPPQ
		if rel >= w.span {
			break
		}
		at := anchor + rel
		if k%2 == 1 {
			at += w.swing
		}
		if at < w.start || at >= w.end || !s.on[k].Load() {
			continue
		}
		offset := clampInt(int(math.Round((at-w.start)*w.spb)), 0, w.frames-1)
		vel := normalVelocity
		if s.accent[k].Load() {
			vel = accentVelocity
		}
		out = append(out, Trigger{Offset: offset, Velocity: vel})
	}
	return out
}

// CurrentStepIndex reports the step under the playhead, or -1 when stopped.
func (s *Sequencer) CurrentStepIndex(pos Position, is32 bool) int {
	if !pos.Playing || pos.BPM <= 0 {
		return -1
	}
	steps := DefaultSteps
	if is32 {
		steps = MaxSteps
	}
	anchor, _ := cycleAnchor(pos, steps)
	rel := math.Max(0, pos.PPQ-anchor)
	idx := int(math.Floor(math.Mod(rel, float64(steps)*StepPPQ) / StepPPQ))
	return clampInt(idx, 0, steps-1)
}

// cycleAnchor returns the PPQ at which step 0 of the running cycle sits and
// the cycle length. A cycle is the whole number of bars (at least one) that
// fits the pattern, so 32 steps in 4/4 alternate between two bars.
func cycleAnchor(pos Position, steps int) (anchor, span float64) {
	bar := pos.BarLength()
	barStart := pos.BarStartPPQ
	if barStart <= 0 {
		barStart = math.Floor(pos.PPQ/bar) * bar
	}
	bars := math.Max(1, math.Floor(float64(steps)*StepPPQ/bar))
	span = bars * bar
	if bars == 1 {
		return barStart, span
	}
	index := math.Floor(barStart/bar + 0.5)
	into := math.Mod(index, bars)
	if into < 0 {
		into += bars
	}
	return barStart - into*bar, span
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
