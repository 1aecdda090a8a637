package voice

import "github.com/cbegin/drumseq-go/internal/dsp"

const (
	snareBaseHz       = 180.0
	snarePartial      = 1.5
	snareSnapSeconds  = 0.03
	snareSnapQ        = 0.7
	snareSnapWeight   = 0.7
	snareDriveK       = 3.0
	snareNoiseSeed    = 0x1234567
	snarePartialLevel = 0.6
)

// Snare mixes a two-partial body with a band-passed noise snap.
type Snare struct {
	sampleRate float64

	osc   dsp.Phase
	noise dsp.Noise
	bp    dsp.Biquad

	bodyEnv  float64
	bodyMult float64
	snapEnv  float64
	snapMult float64

	baseHz float64
	decay  float64
	tone   float64
	drive  float64

	pending int
	active  bool
}

func NewSnare() *Snare {
	s := &Snare{sampleRate: defaultSampleRate}
	s.Reset()
	return s
}

func (s *Snare) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		s.sampleRate = sampleRate
	}
	s.Reset()
	s.SetParameters(Params{Decay: s.decay, Tone: s.tone, Drive: s.drive})
}

func (s *Snare) Reset() {
	s.active = false
	s.osc.Reset()
	s.noise = dsp.NewNoiseNR(snareNoiseSeed)
	s.bp.Reset()
	s.bodyEnv, s.snapEnv = 0, 0
	s.bodyMult, s.snapMult = 0.995, 0.99
	s.pending = 0
	s.baseHz = snareBaseHz
	s.decay = 0.4
	s.tone = 0.5
	s.drive = 0
}

func (s *Snare) SetParameters(p Params) {
	s.baseHz = snareBaseHz * dsp.SemitoneRatio(p.Pitch)
	s.decay = dsp.Clamp(p.Decay, 0.02, 2.5)
	s.tone = dsp.Clamp(p.Tone, 0, 1)
	s.drive = dsp.Clamp(p.Drive, 0, 1)

	s.bodyMult = dsp.DecayMultiplier(s.decay, s.sampleRate)
	s.snapMult = dsp.DecayMultiplier(snareSnapSeconds, s.sampleRate)
	s.bp.SetBandPass(dsp.Lerp(s.tone, 1000, 3000), snareSnapQ, s.sampleRate)
}

func (s *Snare) NoteOn(v float64) { s.NoteOnWithDelay(v, 0) }

func (s *Snare) NoteOnWithDelay(v float64, d int) {
	v = velocity(v)
	s.active = true
	s.osc.Reset()
	s.noise.Seed(snareNoiseSeed)
	s.bodyEnv = v
	s.snapEnv = v
	s.pending = delay(d)
}

func (s *Snare) Active() bool   { return s.active }
func (s *Snare) Level() float64 { return s.bodyEnv }

func (s *Snare) Render(buf dsp.Buffer, start, n int) {
	if !s.active {
		return
	}
	n = span(buf, start, n)
	inc := s.baseHz / s.sampleRate
	for i := 0; i < n; i++ {
		if s.pending > 0 {
			s.pending--
			continue
		}

		s.osc.Advance(inc)
		body := (s.osc.Sine(1) + snarePartialLevel*s.osc.Sine(snarePartial)) * s.bodyEnv
		snap := s.bp.Process(s.noise.Next() * s.snapEnv)

		out := body + snareSnapWeight*snap
		out = dsp.Drive(out, s.drive, snareDriveK)
		buf.Add(start+i, float32(out))

		s.bodyEnv *= s.bodyMult
		s.snapEnv *= s.snapMult
		if s.bodyEnv < dsp.Silence && s.snapEnv < dsp.Silence {
			s.active = false
			return
		}
	}
}
