package effects

// Reverb is a Schroeder room: four damped comb filters in parallel feeding
// two allpass diffusers. The right channel uses slightly longer lines so the
// tail decorrelates.
type Reverb struct {
	combs   [2][4]comb
	diffuse [2][2]allpass
	wet     float32
}

type comb struct {
	line     ring
	feedback float32
	damp     float32
	store    float32
}

type allpass struct {
	line ring
}

var (
	combRatios    = [4]float32{1, 1.117, 1.271, 1.437}
	allpassRatios = [2]float32{0.347, 0.213}
)

const stereoSpread = 23

// NewReverb creates a reverb. room scales the line lengths, feedback sets the
// decay time and damping darkens the tail.
func NewReverb(sampleRate int, room, feedback, damping, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*clamp(room, 0, 1)*0.05), 10)
	fb := clamp(feedback, 0, 0.95)
	damp := clamp(damping, 0, 0.99)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	for side := range r.combs {
		spread := side * stereoSpread
		for i, ratio := range combRatios {
			r.combs[side][i] = comb{
				line:     newRing(int(float32(base)*ratio) + spread),
				feedback: fb,
				damp:     damp,
			}
		}
		for i, ratio := range allpassRatios {
			r.diffuse[side][i] = allpass{line: newRing(int(float32(base)*ratio) + spread)}
		}
	}
	return r
}

func (r *Reverb) Process(l, rt float32) (float32, float32) {
	in := (l + rt) * 0.5
	var out [2]float32
	for side := range r.combs {
		var sum float32
		for i := range r.combs[side] {
			sum += r.combs[side][i].process(in)
		}
		sum *= 0.25
		for i := range r.diffuse[side] {
			sum = r.diffuse[side][i].process(sum)
		}
		out[side] = sum
	}
	return l + (out[0]-l)*r.wet, rt + (out[1]-rt)*r.wet
}

func (r *Reverb) Reset() {
	for side := range r.combs {
		for i := range r.combs[side] {
			r.combs[side][i].line.clear()
			r.combs[side][i].store = 0
		}
		for i := range r.diffuse[side] {
			r.diffuse[side][i].line.clear()
		}
	}
}

func (c *comb) process(in float32) float32 {
	out := c.line.read()
	c.store = out*(1-c.damp) + c.store*c.damp
	c.line.write(in + c.store*c.feedback)
	return out
}

func (a *allpass) process(in float32) float32 {
	delayed := a.line.read()
	a.line.write(in + delayed*0.5)
	return delayed - in
}
