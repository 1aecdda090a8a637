package voice

import (
	"math"

	"github.com/cbegin/drumseq-go/internal/dsp"
)

const (
	kickBaseHz       = 55.0
	kickSweepRatio   = 1.6
	kickSweepSeconds = 0.02
	kickClickSeconds = 0.003
	kickDriveK       = 2.5
)

// Kick is a pitch-swept sine with a short click transient.
type Kick struct {
	sampleRate float64

	osc dsp.Phase
	lp  dsp.OnePole

	env     float64
	envMult float64

	sweepPos   float64
	sweepStart float64
	sweepEnd   float64

	click    int
	clickLen int

	baseHz float64
	decay  float64
	tone   float64
	drive  float64

	pending int
	active  bool
}

func NewKick() *Kick {
	k := &Kick{sampleRate: defaultSampleRate}
	k.Reset()
	return k
}

func (k *Kick) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		k.sampleRate = sampleRate
	}
	k.Reset()
	k.SetParameters(Params{Decay: k.decay, Tone: k.tone, Drive: k.drive})
}

func (k *Kick) Reset() {
	k.active = false
	k.osc.Reset()
	k.lp.Reset()
	k.env = 0
	k.envMult = 0.995
	k.sweepPos = 0
	k.click = 0
	k.pending = 0
	k.baseHz = kickBaseHz
	k.decay = 0.5
	k.tone = 0.5
	k.drive = 0
}

func (k *Kick) SetParameters(p Params) {
	k.baseHz = kickBaseHz * dsp.SemitoneRatio(p.Pitch)
	k.decay = dsp.Clamp(p.Decay, 0.01, 4)
	k.tone = dsp.Clamp(p.Tone, 0, 1)
	k.drive = dsp.Clamp(p.Drive, 0, 1)

	k.envMult = dsp.DecayMultiplier(k.decay, k.sampleRate)
	k.lp.SetCutoff(dsp.Lerp(k.tone, 400, 4000), k.sampleRate)
	k.sweepStart = k.baseHz * kickSweepRatio
	k.sweepEnd = k.baseHz
	k.clickLen = int(kickClickSeconds * k.sampleRate)
}

func (k *Kick) NoteOn(v float64) { k.NoteOnWithDelay(v, 0) }

func (k *Kick) NoteOnWithDelay(v float64, d int) {
	k.active = true
	k.osc.Reset()
	k.env = velocity(v)
	k.sweepPos = 0
	k.click = k.clickLen
	k.pending = delay(d)
}

func (k *Kick) Active() bool   { return k.active }
func (k *Kick) Level() float64 { return k.env }

func (k *Kick) Render(buf dsp.Buffer, start, n int) {
	if !k.active {
		return
	}
	n = span(buf, start, n)
	sweepLen := kickSweepSeconds * k.sampleRate
	for i := 0; i < n; i++ {
		if k.pending > 0 {
			k.pending--
			continue
		}

		alpha := dsp.Clamp(k.sweepPos/sweepLen, 0, 1)
		hz := k.sweepEnd + (k.sweepStart-k.sweepEnd)*math.Exp(-6*alpha)
		k.sweepPos++

		k.osc.Advance(hz / k.sampleRate)
		out := k.lp.Process(k.osc.Sine(1)) * k.env

		if k.click > 0 && k.clickLen > 0 {
			out += 0.25 * k.env * float64(k.click) / float64(k.clickLen)
			k.click--
		}

		out = dsp.Drive(out, k.drive, kickDriveK)
		buf.Add(start+i, float32(out))

		k.env *= k.envMult
		if k.env < dsp.Silence {
			k.active = false
			return
		}
	}
}
