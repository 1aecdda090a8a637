package voice

import "github.com/cbegin/drumseq-go/internal/dsp"

// HatKind selects the gate length of a HiHat.
type HatKind int

const (
	ClosedHat HatKind = iota
	OpenHat
)

func (k HatKind) gateSeconds() float64 {
	if k == OpenHat {
		return 0.25
	}
	return 0.03
}

func (k HatKind) String() string {
	if k == OpenHat {
		return "open"
	}
	return "closed"
}

const (
	hatNoiseSeed = 0xabcdef
	hatDriveK    = 3.0
)

// HiHat is filtered noise under an exponential envelope and a hard gate.
type HiHat struct {
	kind       HatKind
	sampleRate float64

	noise dsp.Noise
	lp    dsp.OnePole

	env     float64
	envMult float64
	gate    int

	decay float64
	tone  float64
	drive float64

	pending int
	active  bool
}

func NewHiHat(kind HatKind) *HiHat {
	h := &HiHat{kind: kind, sampleRate: defaultSampleRate}
	h.Reset()
	return h
}

func (h *HiHat) Kind() HatKind { return h.kind }

func (h *HiHat) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		h.sampleRate = sampleRate
	}
	h.Reset()
	h.SetParameters(Params{Decay: h.decay, Tone: h.tone, Drive: h.drive})
}

func (h *HiHat) Reset() {
	h.active = false
	h.noise = dsp.NewNoise(hatNoiseSeed)
	h.lp.Reset()
	h.env = 0
	h.envMult = 0.999
	h.gate = 0
	h.pending = 0
	h.decay = 0.2
	h.tone = 0.5
	h.drive = 0
}

// SetParameters ignores Pitch; hats are tuned through their sample layer.
func (h *HiHat) SetParameters(p Params) {
	h.decay = dsp.Clamp(p.Decay, 0.01, 2)
	h.tone = dsp.Clamp(p.Tone, 0, 1)
	h.drive = dsp.Clamp(p.Drive, 0, 1)

	h.envMult = dsp.DecayMultiplier(h.decay, h.sampleRate)
	h.lp.SetCutoff(dsp.Lerp(h.tone, 3000, 10000), h.sampleRate)
}

func (h *HiHat) NoteOn(v float64) { h.NoteOnWithDelay(v, 0) }

func (h *HiHat) NoteOnWithDelay(v float64, d int) {
	h.active = true
	h.env = velocity(v)
	h.noise.Seed(hatNoiseSeed)
	h.gate = int(h.kind.gateSeconds() * h.sampleRate)
	h.pending = delay(d)
}

func (h *HiHat) Active() bool   { return h.active }
func (h *HiHat) Level() float64 { return h.env }

func (h *HiHat) Render(buf dsp.Buffer, start, n int) {
	if !h.active {
		return
	}
	n = span(buf, start, n)
	for i := 0; i < n; i++ {
		if h.pending > 0 {
			h.pending--
			continue
		}
		if h.gate <= 0 {
			h.active = false
			return
		}

		out := h.lp.Process(h.noise.Next()) * h.env
		out = dsp.Drive(out, h.drive, hatDriveK)
		buf.Add(start+i, float32(out))

		h.env *= h.envMult
		h.gate--
		if h.env < dsp.Silence {
			h.active = false
			return
		}
	}
}
