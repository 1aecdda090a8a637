// Package effects holds the master bus processors that run after the drum
// mix: tempo-synced delay, room reverb, glue compression, saturation and the
// five-band master EQ.
package effects

import (
	"fmt"
	"strings"
)

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	c := &Chain{}
	for _, e := range effects {
		c.Add(e)
	}
	return c
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessInterleaved runs every stereo frame of dst through the chain in place.
func (c *Chain) ProcessInterleaved(dst []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = c.Process(dst[i], dst[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

// Add appends e; nil is ignored.
func (c *Chain) Add(e Effector) {
	if e != nil {
		c.effects = append(c.effects, e)
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// Spec describes one bus effect by name, as stored in kit files.
type Spec struct {
	Type   string    `json:"type"`
	Params []float64 `json:"params,omitempty"`
}

func (s Spec) param(idx int, def float64) float64 {
	if idx < len(s.Params) {
		return s.Params[idx]
	}
	return def
}

// Build creates the effect named by s. bpm is used by tempo-synced types.
//
//	delay:    beats, feedback, cross, wet
//	reverb:   room, feedback, damping, wet
//	glue:     threshold dB, ratio, attack ms, release ms, makeup dB
//	saturate: drive, output, tone Hz
func Build(s Spec, sampleRate int, bpm float64) (Effector, error) {
	switch strings.ToLower(s.Type) {
	case "delay":
		return NewTempoDelay(sampleRate, bpm, s.param(0, 0.75),
			float32(s.param(1, 0.35)), float32(s.param(2, 0.5)), float32(s.param(3, 0.25))), nil
	case "reverb":
		return NewReverb(sampleRate, float32(s.param(0, 0.5)), float32(s.param(1, 0.78)),
			float32(s.param(2, 0.3)), float32(s.param(3, 0.2))), nil
	case "glue", "compressor":
		return NewCompressor(sampleRate, float32(s.param(0, -12)), float32(s.param(1, 3)),
			float32(s.param(2, 10)), float32(s.param(3, 120)), float32(s.param(4, 2))), nil
	case "saturate", "distortion":
		return NewSaturator(sampleRate, float32(s.param(0, 1.5)), float32(s.param(1, 0.8)),
			float32(s.param(2, 9000))), nil
	}
	return nil, fmt.Errorf("effects: unknown type %q", s.Type)
}

// BuildChain builds every spec in order. The first failure aborts.
func BuildChain(specs []Spec, sampleRate int, bpm float64) (*Chain, error) {
	c := NewChain()
	for i, s := range specs {
		e, err := Build(s, sampleRate, bpm)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		c.Add(e)
	}
	return c, nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
