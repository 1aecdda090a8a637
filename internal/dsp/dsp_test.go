package dsp

import (
	"math"
	"testing"
)

func TestNoiseDeterministicAndBounded(t *testing.T) {
	a := NewNoise(0xabcdef)
	b := NewNoise(0xabcdef)
	for i := 0; i < 10000; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("sample %d differs: %v vs %v", i, x, y)
		}
		if x < -1 || x > 1 {
			t.Fatalf("sample %d out of range: %v", i, x)
		}
	}
}

func TestNoiseVariantsDiffer(t *testing.T) {
	a := NewNoise(1)
	b := NewNoiseNR(1)
	same := 0
	for i := 0; i < 64; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	if same == 64 {
		t.Fatalf("ANSI and NR generators produced identical sequences")
	}
}

func TestPhaseWraps(t *testing.T) {
	var p Phase
	for i := 0; i < 1000; i++ {
		v := p.Advance(0.37)
		if v < 0 || v >= 1 {
			t.Fatalf("phase out of range: %v", v)
		}
	}
}

func TestOnePoleSettlesOnDC(t *testing.T) {
	var f OnePole
	f.SetCutoff(1000, 48000)
	var y float64
	for i := 0; i < 48000; i++ {
		y = f.Process(0.5)
	}
	if math.Abs(y-0.5) > 1e-6 {
		t.Fatalf("expected DC to pass, got %v", y)
	}
}

func TestBiquadBandPassRejectsDC(t *testing.T) {
	var f Biquad
	f.SetBandPass(2000, 0.7, 48000)
	var y float64
	for i := 0; i < 48000; i++ {
		y = f.Process(1)
	}
	if math.Abs(y) > 1e-3 {
		t.Fatalf("band-pass should reject DC, got %v", y)
	}
}

func TestDriveBlend(t *testing.T) {
	if got := Drive(0.8, 0, 2.5); got != 0.8 {
		t.Fatalf("zero drive must pass through, got %v", got)
	}
	full := Drive(0.8, 1, 2.5)
	if want := math.Tanh(0.8 * 3.5); math.Abs(full-want) > 1e-12 {
		t.Fatalf("full drive = %v, want %v", full, want)
	}
	half := Drive(0.8, 0.5, 2.5)
	if half <= 0.8 || half >= 1 {
		t.Fatalf("half drive should sit between dry and shaped, got %v", half)
	}
}

func TestDecayMultiplierReachesInverseE(t *testing.T) {
	const sr = 48000.0
	m := DecayMultiplier(0.25, sr)
	env := 1.0
	for i := 0; i < int(0.25*sr); i++ {
		env *= m
	}
	if math.Abs(env-1/math.E) > 1e-3 {
		t.Fatalf("env after decay time = %v, want %v", env, 1/math.E)
	}
}

func TestBufferInterleaveAndWindow(t *testing.T) {
	b := NewBuffer(2, 4)
	for i := 0; i < 4; i++ {
		b[0][i] = float32(i)
		b[1][i] = float32(-i)
	}
	dst := make([]float32, 8)
	b.Interleave(dst)
	if dst[2] != 1 || dst[3] != -1 || dst[6] != 3 || dst[7] != -3 {
		t.Fatalf("unexpected interleave %v", dst)
	}
	view := make(Buffer, 2)
	w := Window(view, b, 1, 2)
	if w.Frames() != 2 || w[0][0] != 1 || w[1][1] != -2 {
		t.Fatalf("unexpected window %v", w)
	}
	w.Add(0, 10)
	if b[0][1] != 11 || b[1][1] != 9 {
		t.Fatalf("window must alias the source buffer")
	}
}
