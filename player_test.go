package drumseq

import (
	"math"
	"path/filepath"
	"testing"

	intfx "github.com/cbegin/drumseq-go/internal/effects"
	"github.com/cbegin/drumseq-go/internal/kit"
	"github.com/cbegin/drumseq-go/internal/sample"
)

func newTestPlayer(t *testing.T, opts ...PlayerOption) *Player {
	t.Helper()
	pl, err := NewPlayer(48000, opts...)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	return pl
}

func peak(buf []float32) float64 {
	var m float64
	for _, v := range buf {
		m = math.Max(m, math.Abs(float64(v)))
	}
	return m
}

func TestPlayerMasterVolumeRuntimeAPI(t *testing.T) {
	pl := newTestPlayer(t)
	if got := pl.MasterVolume(); got != 1 {
		t.Fatalf("default master volume = %v, want 1", got)
	}
	pl.SetMasterVolume(0.35)
	if got := pl.MasterVolume(); got != 0.35 {
		t.Fatalf("master volume = %v, want 0.35", got)
	}
	pl.SetMasterVolume(-2)
	if got := pl.MasterVolume(); got != 0 {
		t.Fatalf("master volume should clamp to 0, got %v", got)
	}
	pl.SetSequencing(true)
	pl.SetStep(Kick, 0, true)
	out, err := pl.Render(0.1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if peak(out) != 0 {
		t.Fatalf("zero volume should render silence")
	}
}

func TestPlayerRenderAndTap(t *testing.T) {
	var tapped int
	pl := newTestPlayer(t, WithBlockSize(256), WithSampleTap(func(buf []float32) {
		tapped += len(buf)
	}))
	if err := pl.ApplyKit(kit.Default()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := pl.Render(0.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 48000 {
		t.Fatalf("len = %d, want 48000", len(out))
	}
	if tapped != len(out) {
		t.Fatalf("tap saw %d samples, want %d", tapped, len(out))
	}
	if peak(out) == 0 {
		t.Fatalf("default kit rendered silence")
	}
}

func TestPlayerWatchReportsSteps(t *testing.T) {
	pl := newTestPlayer(t)
	events := pl.Watch()
	pl.SetSequencing(true)
	if _, err := pl.Render(0.05); err != nil {
		t.Fatalf("render: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Step != 0 {
			t.Fatalf("first event = %+v, want step 0", ev)
		}
	default:
		t.Fatalf("no step event")
	}
	if pl.CurrentStep(Clap) != 0 {
		t.Fatalf("current step = %d", pl.CurrentStep(Clap))
	}
}

func TestPlayerEQAndEffects(t *testing.T) {
	pl := newTestPlayer(t, WithMasterEQ(-120, 0, 0, 0, 0), WithEffects(intfx.Spec{Type: "glue"}))
	if g := pl.EQBand(0); g > 1e-5 {
		t.Fatalf("band 0 gain = %v", g)
	}
	pl.SetEQBand(4, 0.5)
	if pl.EQBand(4) != 0.5 {
		t.Fatalf("band 4 gain = %v", pl.EQBand(4))
	}
	if err := pl.SetEffects(intfx.Spec{Type: "phaser"}); err == nil {
		t.Fatalf("unknown effect accepted")
	}
	if _, err := NewPlayer(48000, WithEffects(intfx.Spec{Type: "phaser"})); err == nil {
		t.Fatalf("unknown initial effect accepted")
	}
}

func TestApplyKitEffectsFollowTempo(t *testing.T) {
	pl := newTestPlayer(t)
	k := kit.Default()
	k.Tempo = 120
	k.Effects = []intfx.Spec{{Type: "delay", Params: []float64{1, 0, 0, 1}}}
	k.Lanes = map[string]kit.LaneConfig{"kick": {Pattern: "x---"}}
	if err := pl.ApplyKit(k); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := pl.Render(0.75)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// one beat at 120 bpm is 24000 frames; the fully wet delay hides the dry hit
	if peak(out[:2*24000]) != 0 {
		t.Fatalf("wet delay leaked the dry signal")
	}
	if peak(out[2*24000:]) == 0 {
		t.Fatalf("no echo after one beat")
	}
}

func TestKitCaptureFromPlayer(t *testing.T) {
	pl := newTestPlayer(t)
	if err := pl.SetPattern(Snare, "|----|x---|"); err != nil {
		t.Fatalf("pattern: %v", err)
	}
	k := pl.Kit()
	if got := k.Lanes["snare"].Pattern; got != "|----|x---|----|----|" {
		t.Fatalf("captured snare = %q", got)
	}
}

func TestRenderKitAndWriteWAV(t *testing.T) {
	a, err := RenderKit(kit.Default(), 48000, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := RenderKit(kit.Default(), 48000, 1)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders differ at %d", i)
		}
	}

	path := filepath.Join(t.TempDir(), "groove.wav")
	if err := WriteWAV(path, a, 48000, 2); err != nil {
		t.Fatalf("write: %v", err)
	}
	clip, err := sample.LoadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if clip.Frames() != 48000 || len(clip.Channels) != 2 || clip.SampleRate != 48000 {
		t.Fatalf("clip = %d frames, %d channels, %v Hz", clip.Frames(), len(clip.Channels), clip.SampleRate)
	}
}

func TestAnalyzeLaneSeparatesKickFromHat(t *testing.T) {
	k := kit.Default()
	kick, err := AnalyzeLane(k, Kick, 48000, 0.4)
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	hat, err := AnalyzeLane(k, ClosedHat, 48000, 0.4)
	if err != nil {
		t.Fatalf("hat: %v", err)
	}
	if kick.Peak == 0 || hat.Peak == 0 {
		t.Fatalf("silent lane: kick %+v hat %+v", kick, hat)
	}
	if kick.Centroid >= hat.Centroid {
		t.Fatalf("kick centroid %v should sit below hat centroid %v", kick.Centroid, hat.Centroid)
	}
	if kick.DominantHz > 200 {
		t.Fatalf("kick dominant = %v Hz", kick.DominantHz)
	}
}
