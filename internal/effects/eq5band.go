package effects

import (
	"math"
	"sync/atomic"
)

// Bands is the number of master EQ bands.
const Bands = 5

// Crossovers are the split points of the master EQ in Hz.
var Crossovers = [Bands - 1]float64{200, 800, 2500, 8000}

// EQ5Band splits the signal with cascaded one-pole low-passes and sums the
// bands back with per-band gains. Gains are float32 bits so the UI can write
// them while the audio thread reads.
type EQ5Band struct {
	gains  [Bands]atomic.Uint32
	alphas [Bands - 1]float32
	lp     [2][Bands - 1]float32
}

// NewEQ5Band creates an EQ with every gain at unity, which sums back to the
// input exactly.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1 / float64(sampleRate)
	for i, hz := range Crossovers {
		rc := 1 / (2 * math.Pi * hz)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets a linear band gain; negative values are stored as 0.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < Bands {
		eq.gains[band].Store(math.Float32bits(max(gain, 0)))
	}
}

// SetGainDB sets a band gain in decibels.
func (eq *EQ5Band) SetGainDB(band int, db float32) {
	eq.SetGain(band, dbToGain(db))
}

// Gain returns a band's linear gain, 1 for an unknown band.
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < Bands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	return eq.side(0, l), eq.side(1, r)
}

func (eq *EQ5Band) side(ch int, in float32) float32 {
	lp := &eq.lp[ch]
	var out float32
	rest := in
	for i, a := range eq.alphas {
		lp[i] += a * (rest - lp[i])
		out += lp[i] * math.Float32frombits(eq.gains[i].Load())
		rest -= lp[i]
	}
	return out + rest*math.Float32frombits(eq.gains[Bands-1].Load())
}

func (eq *EQ5Band) Reset() {
	eq.lp = [2][Bands - 1]float32{}
}
