package effects

import "math"

// Saturator is a tanh waveshaper with a one-pole low-pass after it to tame
// the harmonics it adds to hats and claps.
type Saturator struct {
	drive  float32
	output float32
	alpha  float32
	lpL    float32
	lpR    float32
}

// NewSaturator creates a saturator. toneHz of 0, or at or above Nyquist,
// disables the low-pass.
func NewSaturator(sampleRate int, drive, output, toneHz float32) *Saturator {
	s := &Saturator{drive: max(drive, 0), output: output}
	if toneHz > 0 && toneHz < float32(sampleRate)/2 {
		rc := 1 / (2 * math.Pi * float64(toneHz))
		dt := 1 / float64(sampleRate)
		s.alpha = float32(dt / (rc + dt))
	}
	return s
}

func (s *Saturator) Process(l, r float32) (float32, float32) {
	l = float32(math.Tanh(float64(l*s.drive))) * s.output
	r = float32(math.Tanh(float64(r*s.drive))) * s.output
	if s.alpha == 0 {
		return l, r
	}
	s.lpL += s.alpha * (l - s.lpL)
	s.lpR += s.alpha * (r - s.lpR)
	return s.lpL, s.lpR
}

func (s *Saturator) Reset() {
	s.lpL, s.lpR = 0, 0
}
