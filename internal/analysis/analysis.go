// Package analysis measures rendered audio: level, peak and where its
// spectral energy sits.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	frameSize = 2048
	hopSize   = frameSize / 2
)

// Report summarizes a mono signal.
type Report struct {
	RMS        float64
	Peak       float64
	Centroid   float64 // Hz, magnitude weighted
	DominantHz float64 // centre of the loudest bin
}

var hann = window.Hann(frameSize)

// Analyze measures mono. The spectrum is the average of Hann windowed frames
// with half overlap; signals shorter than a frame are zero padded.
func Analyze(mono []float32, sampleRate int) Report {
	var r Report
	if len(mono) == 0 || sampleRate <= 0 {
		return r
	}
	var sum float64
	for _, v := range mono {
		x := float64(v)
		sum += x * x
		r.Peak = max(r.Peak, math.Abs(x))
	}
	r.RMS = math.Sqrt(sum / float64(len(mono)))

	mags := make([]float64, frameSize/2)
	frame := make([]float64, frameSize)
	for start := 0; ; start += hopSize {
		for i := range frame {
			frame[i] = 0
			if start+i < len(mono) {
				frame[i] = float64(mono[start+i]) * hann[i]
			}
		}
		for i, c := range fft.FFTReal(frame)[:frameSize/2] {
			mags[i] += cmplx.Abs(c)
		}
		if start+frameSize >= len(mono) {
			break
		}
	}

	binHz := float64(sampleRate) / frameSize
	var weighted, total, loudest float64
	for i, m := range mags {
		hz := float64(i) * binHz
		weighted += hz * m
		total += m
		if m > loudest {
			loudest = m
			r.DominantHz = hz
		}
	}
	if total > 0 {
		r.Centroid = weighted / total
	}
	return r
}

// Mono averages interleaved frames down to one channel.
func Mono(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	out := make([]float32, len(interleaved)/channels)
	for i := range out {
		var s float32
		for c := 0; c < channels; c++ {
			s += interleaved[i*channels+c]
		}
		out[i] = s / float32(channels)
	}
	return out
}
