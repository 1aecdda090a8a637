// Package dsp holds the small stateful building blocks the drum voices embed:
// noise generators, phase accumulators, one-pole and biquad filters and the
// shared drive shaper. Every type is a plain value so a voice owns its copy.
package dsp

import "math"

const twoPi = math.Pi * 2

// Silence is the envelope level under which a voice is considered finished.
const Silence = 1e-4

// Noise is a 32-bit linear-congruential white noise source.
type Noise struct {
	state uint32
	mul   uint32
	inc   uint32
}

// NewNoise returns the ANSI C constants (1103515245, 12345) seeded with seed.
func NewNoise(seed uint32) Noise {
	return Noise{state: seed, mul: 1103515245, inc: 12345}
}

// NewNoiseNR returns the Numerical Recipes constants (1664525, 1013904223).
func NewNoiseNR(seed uint32) Noise {
	return Noise{state: seed, mul: 1664525, inc: 1013904223}
}

// Seed restarts the sequence.
func (n *Noise) Seed(seed uint32) { n.state = seed }

// Next returns the next sample in [-1, 1].
func (n *Noise) Next() float64 {
	n.state = n.state*n.mul + n.inc
	v := float64(n.state&0x00ffffff) / float64(0x00ffffff)
	return v*2 - 1
}

// Phase is a normalized [0, 1) phase accumulator.
type Phase struct {
	v float64
}

// Advance moves the phase by inc cycles and returns the wrapped value.
func (p *Phase) Advance(inc float64) float64 {
	p.v += inc
	for p.v >= 1 {
		p.v -= 1
	}
	return p.v
}

// Value returns the current phase.
func (p *Phase) Value() float64 { return p.v }

// Reset rewinds to zero.
func (p *Phase) Reset() { p.v = 0 }

// Sine returns sin(2*pi*phase*ratio).
func (p *Phase) Sine(ratio float64) float64 {
	return math.Sin(p.v * twoPi * ratio)
}

// OnePole is y = a*x + b*y with b = exp(-2*pi*fc/fs).
type OnePole struct {
	a, b float64
	y    float64
}

// SetCutoff recomputes the coefficients. Memory is kept so a cutoff change
// mid-note does not click.
func (f *OnePole) SetCutoff(hz, sampleRate float64) {
	if sampleRate <= 0 {
		f.a, f.b = 1, 0
		return
	}
	x := math.Exp(-twoPi * hz / sampleRate)
	f.a = 1 - x
	f.b = x
}

// Process filters one sample.
func (f *OnePole) Process(x float64) float64 {
	f.y = f.a*x + f.b*f.y
	return f.y
}

// Reset clears the memory and restores a pass-through response.
func (f *OnePole) Reset() {
	f.y = 0
	f.a, f.b = 1, 0
}

// Biquad is a direct-form-I second order section with coefficients
// pre-normalized by a0.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// SetBandPass configures an RBJ constant 0 dB peak band-pass.
func (f *Biquad) SetBandPass(center, q, sampleRate float64) {
	if sampleRate <= 0 || q <= 0 {
		return
	}
	w0 := twoPi * center / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	f.b0 = alpha / a0
	f.b1 = 0
	f.b2 = -alpha / a0
	f.a1 = -2 * math.Cos(w0) / a0
	f.a2 = (1 - alpha) / a0
}

// Process filters one sample.
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Reset clears the delay memory; coefficients are kept.
func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// Drive blends x toward tanh(x*(1+k*amount)) by amount. Below 0.001 the
// signal passes through untouched.
func Drive(x, amount, k float64) float64 {
	if amount <= 0.001 {
		return x
	}
	wet := math.Tanh(x * (1 + k*amount))
	return x + amount*(wet-x)
}

// DecayMultiplier returns the per-sample factor that brings an exponential
// envelope to 1/e after seconds.
func DecayMultiplier(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * sampleRate))
}

// SemitoneRatio converts a semitone offset to a frequency ratio.
func SemitoneRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

// Lerp maps t in [0, 1] onto [lo, hi].
func Lerp(t, lo, hi float64) float64 {
	return lo + t*(hi-lo)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
