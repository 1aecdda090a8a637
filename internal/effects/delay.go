package effects

// Delay is a stereo echo with feedback. cross routes part of each side's
// feedback into the other side, giving a ping-pong pattern at 1.
type Delay struct {
	left, right ring
	feedback    float32
	cross       float32
	wet         float32
}

// NewDelay creates a delay of delayMs milliseconds.
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	frames := int(delayMs * float64(sampleRate) / 1000)
	return &Delay{
		left:     newRing(frames),
		right:    newRing(frames),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

// NewTempoDelay creates a delay lasting beats quarter notes at bpm.
// A non-positive bpm falls back to 120.
func NewTempoDelay(sampleRate int, bpm, beats float64, feedback, cross, wet float32) *Delay {
	if bpm <= 0 {
		bpm = 120
	}
	if beats <= 0 {
		beats = 0.75
	}
	return NewDelay(sampleRate, beats*60000/bpm, feedback, cross, wet)
}

// Frames is the delay length.
func (d *Delay) Frames() int { return len(d.left.buf) }

func (d *Delay) Process(l, r float32) (float32, float32) {
	dl, dr := d.left.read(), d.right.read()
	straight := d.feedback * (1 - d.cross)
	swapped := d.feedback * d.cross
	d.left.write(l + dl*straight + dr*swapped)
	d.right.write(r + dr*straight + dl*swapped)
	return l + (dl-l)*d.wet, r + (dr-r)*d.wet
}

func (d *Delay) Reset() {
	d.left.clear()
	d.right.clear()
}
