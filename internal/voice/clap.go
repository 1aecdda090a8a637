package voice

import "github.com/cbegin/drumseq-go/internal/dsp"

const (
	clapPulses       = 4
	clapGapSeconds   = 0.008
	clapBurstSeconds = 0.002
	clapNoiseSeed    = 0x7654321
	clapDriveK       = 2.5
)

// Clap fires a train of four filtered noise bursts. Each burst dies away on
// its own fast decay; the shared envelope only scales their levels.
type Clap struct {
	sampleRate float64

	noise dsp.Noise
	lp    dsp.OnePole

	env       float64
	envMult   float64
	burst     float64
	burstMult float64

	pulse     int
	countdown int
	gap       int

	decay float64
	tone  float64
	drive float64

	pending int
	active  bool
}

func NewClap() *Clap {
	c := &Clap{sampleRate: defaultSampleRate}
	c.Reset()
	return c
}

func (c *Clap) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		c.sampleRate = sampleRate
	}
	c.Reset()
	c.SetParameters(Params{Decay: c.decay, Tone: c.tone, Drive: c.drive})
}

func (c *Clap) Reset() {
	c.active = false
	c.noise = dsp.NewNoise(clapNoiseSeed)
	c.lp.Reset()
	c.env, c.burst = 0, 0
	c.envMult, c.burstMult = 0.995, 0.99
	c.pulse, c.countdown = 0, 0
	c.pending = 0
	c.decay = 0.3
	c.tone = 0.5
	c.drive = 0
}

// SetParameters ignores Pitch.
func (c *Clap) SetParameters(p Params) {
	c.decay = dsp.Clamp(p.Decay, 0.05, 1.5)
	c.tone = dsp.Clamp(p.Tone, 0, 1)
	c.drive = dsp.Clamp(p.Drive, 0, 1)

	c.envMult = dsp.DecayMultiplier(c.decay, c.sampleRate)
	c.burstMult = dsp.DecayMultiplier(clapBurstSeconds, c.sampleRate)
	c.lp.SetCutoff(dsp.Lerp(c.tone, 1500, 6000), c.sampleRate)
	c.gap = int(clapGapSeconds * c.sampleRate)
}

func (c *Clap) NoteOn(v float64) { c.NoteOnWithDelay(v, 0) }

func (c *Clap) NoteOnWithDelay(v float64, d int) {
	c.active = true
	c.env = velocity(v)
	c.noise.Seed(clapNoiseSeed)
	c.pulse = 0
	c.countdown = 0
	c.burst = 0
	c.pending = delay(d)
}

func (c *Clap) Active() bool   { return c.active }
func (c *Clap) Level() float64 { return c.env }

// Pulses reports how many bursts have started since the last note-on.
func (c *Clap) Pulses() int { return c.pulse }

func (c *Clap) Render(buf dsp.Buffer, start, n int) {
	if !c.active {
		return
	}
	n = span(buf, start, n)
	for i := 0; i < n; i++ {
		if c.pending > 0 {
			c.pending--
			continue
		}
		if c.pulse >= clapPulses && c.burst*c.env < dsp.Silence {
			c.active = false
			return
		}

		if c.countdown <= 0 && c.pulse < clapPulses {
			c.pulse++
			c.countdown = c.gap
			c.burst = 1
		} else {
			c.countdown--
		}

		out := c.lp.Process(c.noise.Next()) * c.env * c.burst
		out = dsp.Drive(out, c.drive, clapDriveK)
		buf.Add(start+i, float32(out))

		c.burst *= c.burstMult
		c.env *= c.envMult
	}
}
