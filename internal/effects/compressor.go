package effects

import "math"

// Compressor is a stereo-linked bus compressor. Both sides share one
// detector so the kit's image does not shift when the kick ducks the hats.
type Compressor struct {
	threshold float32
	slope     float32
	attack    float32
	release   float32
	makeup    float32
	env       float32
	reduction float32
}

// NewCompressor takes the threshold and makeup in dB and the envelope times in
// milliseconds. ratio is clamped to at least 1.
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	ratio = max(ratio, 1)
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		slope:     1/ratio - 1,
		attack:    follower(sampleRate, attackMs),
		release:   follower(sampleRate, releaseMs),
		makeup:    dbToGain(makeupDB),
		reduction: 1,
	}
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	peak := max(abs32(l), abs32(r))
	coef := c.release
	if peak > c.env {
		coef = c.attack
	}
	c.env += coef * (peak - c.env)

	c.reduction = 1
	if c.env > c.threshold && c.threshold > 0 {
		c.reduction = float32(math.Pow(float64(c.env/c.threshold), float64(c.slope)))
	}
	g := c.reduction * c.makeup
	return l * g, r * g
}

// Reduction is the gain applied by the detector on the last frame, 1 when idle.
func (c *Compressor) Reduction() float32 { return c.reduction }

func (c *Compressor) Reset() {
	c.env = 0
	c.reduction = 1
}

func follower(sampleRate int, ms float32) float32 {
	if ms <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(ms)*float64(sampleRate)/1000)))
}

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
