package engine

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/drumseq-go/internal/dsp"
	"github.com/cbegin/drumseq-go/internal/params"
	"github.com/cbegin/drumseq-go/internal/sample"
	"github.com/cbegin/drumseq-go/internal/sequencer"
)

const testRate = 48000

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testRate, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func energy(buf dsp.Buffer, from, to int) float64 {
	var sum float64
	for _, ch := range buf {
		for _, v := range ch[from:to] {
			if v < 0 {
				sum -= float64(v)
			} else {
				sum += float64(v)
			}
		}
	}
	return sum
}

func constantClip(v float32, frames int) *sample.Clip {
	data := make([]float32, frames)
	for i := range data {
		data[i] = v
	}
	return &sample.Clip{Channels: [][]float32{data}, SampleRate: testRate}
}

func TestNewRejectsBadSampleRate(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestMIDINoteFiresMappedLane(t *testing.T) {
	cases := []struct {
		note uint8
		lane Lane
	}{
		{36, Kick},
		{38, Snare},
		{42, ClosedHat},
		{46, OpenHat},
		{39, Clap},
	}
	for _, tc := range cases {
		t.Run(tc.lane.String(), func(t *testing.T) {
			e := newTestEngine(t)
			buf := dsp.NewBuffer(2, 512)
			e.ProcessBlock(buf, nil, []gomidi.Message{gomidi.NoteOn(0, tc.note, 127)})
			if !e.Voice(tc.lane).Active() {
				t.Fatalf("lane %s not triggered by note %d", tc.lane, tc.note)
			}
			if energy(buf, 0, 512) == 0 {
				t.Fatalf("expected output")
			}
			for l := Lane(0); l < NumLanes; l++ {
				if l != tc.lane && e.Voice(l).Active() {
					t.Fatalf("lane %s fired by note %d", l, tc.note)
				}
			}
		})
	}
}

func TestUnmappedOrReleasedNotesAreIgnored(t *testing.T) {
	e := newTestEngine(t)
	buf := dsp.NewBuffer(2, 512)
	e.ProcessBlock(buf, nil, []gomidi.Message{
		gomidi.NoteOn(0, 60, 100),
		gomidi.NoteOn(0, 36, 0),
		gomidi.NoteOff(0, 38),
	})
	if energy(buf, 0, 512) != 0 {
		t.Fatalf("expected silence")
	}
}

func TestMIDIIgnoredWhileSequencing(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Set(params.SeqEnable, 1)
	buf := dsp.NewBuffer(2, 512)
	e.ProcessBlock(buf, nil, []gomidi.Message{gomidi.NoteOn(0, 36, 127)})
	if e.Voice(Kick).Active() {
		t.Fatalf("MIDI must not fire lanes while the sequencer runs")
	}
}

func TestSequencedStepFiresFromInternalClock(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Set(params.SeqEnable, 1)
	e.SetStep(Kick, 0, true)
	buf := dsp.NewBuffer(2, 512)
	e.ProcessBlock(buf, nil, nil)
	if !e.Voice(Kick).Active() || energy(buf, 0, 4) == 0 {
		t.Fatalf("kick should fire at the first frame")
	}
	if e.CurrentStep(Kick) != 0 {
		t.Fatalf("current step = %d, want 0", e.CurrentStep(Kick))
	}
	if want := 512 / sequencer.SamplesPerBeat(testRate, 125); e.clock.PPQ != want {
		t.Fatalf("clock = %v, want %v", e.clock.PPQ, want)
	}
}

func TestHostTransportOffset(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Set(params.SeqEnable, 1)
	e.SetStep(Snare, 0, true)
	host := &sequencer.Position{Playing: true, BPM: 120, PPQ: 3.99, TimeSigNumerator: 4, TimeSigDenominator: 4}
	buf := dsp.NewBuffer(2, 512)
	e.ProcessBlock(buf, host, nil)
	if energy(buf, 0, 240) != 0 {
		t.Fatalf("output before the trigger offset")
	}
	if energy(buf, 240, 512) == 0 {
		t.Fatalf("expected snare after frame 240")
	}
	if e.clock.PPQ != 0 {
		t.Fatalf("internal clock must not move while the host plays")
	}
	if e.CurrentStep(Snare) != 15 {
		t.Fatalf("current step = %d, want 15", e.CurrentStep(Snare))
	}
}

func TestSampleReplacesHatVoice(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetClip(ClosedHat, constantClip(0.5, 1000)); err != nil {
		t.Fatalf("set clip: %v", err)
	}
	buf := dsp.NewBuffer(2, 64)
	e.ProcessBlock(buf, nil, []gomidi.Message{gomidi.NoteOn(0, 42, 127)})
	if e.Voice(ClosedHat).Active() {
		t.Fatalf("loaded sample must replace the hat voice")
	}
	if buf[0][0] != 0.5 || buf[1][0] != 0.5 {
		t.Fatalf("first frame = %v/%v, want 0.5", buf[0][0], buf[1][0])
	}
}

func TestSetClipRejectsMalformedClip(t *testing.T) {
	e := newTestEngine(t)
	good := constantClip(0.5, 1000)
	if err := e.SetClip(Snare, good); err != nil {
		t.Fatalf("set clip: %v", err)
	}
	ragged := &sample.Clip{Channels: [][]float32{make([]float32, 100), make([]float32, 10)}, SampleRate: testRate}
	if err := e.SetClip(Snare, ragged); err == nil {
		t.Fatalf("ragged clip accepted")
	}
	if e.Clip(Snare) != good {
		t.Fatalf("rejected clip replaced the loaded one")
	}
	if err := e.SetClip(Lane(7), good); err != ErrUnknownLane {
		t.Fatalf("err = %v, want ErrUnknownLane", err)
	}
}

func TestSampleLayersUnderKick(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetClip(Kick, constantClip(1, 1000)); err != nil {
		t.Fatalf("set clip: %v", err)
	}
	buf := dsp.NewBuffer(2, 64)
	e.ProcessBlock(buf, nil, []gomidi.Message{gomidi.NoteOn(0, 36, 127)})
	if !e.Voice(Kick).Active() {
		t.Fatalf("kick voice must still play under a sample")
	}
	if !e.lanes[Kick].sample.Active() {
		t.Fatalf("kick sample layer should be playing")
	}
	if e.lanes[Kick].sample.Clip() == nil {
		t.Fatalf("clip lost")
	}
}

func TestStepObserverAndTransportCommands(t *testing.T) {
	var seen []int
	e := newTestEngine(t, WithStepObserver(func(l Lane, step int) {
		if l == Kick {
			seen = append(seen, step)
		}
	}))
	e.Params().Set(params.SeqEnable, 1)
	buf := dsp.NewBuffer(2, 512)

	// one step is 5760 frames at 125 bpm; block 12 starts at 6144
	for i := 0; i < 13; i++ {
		e.ProcessBlock(buf, nil, nil)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("observed steps %v, want [0 1]", seen)
	}

	if !e.PauseInternalTransport() {
		t.Fatalf("command queue rejected pause")
	}
	e.ProcessBlock(buf, nil, nil)
	paused := e.clock.PPQ
	e.ProcessBlock(buf, nil, nil)
	if e.clock.PPQ != paused {
		t.Fatalf("paused clock advanced")
	}
	if e.CurrentStep(Kick) != -1 {
		t.Fatalf("paused transport should report -1, got %d", e.CurrentStep(Kick))
	}

	e.RestartInternalTransport()
	e.ProcessBlock(buf, nil, nil)
	if want := 512 / sequencer.SamplesPerBeat(testRate, 125); e.clock.PPQ != want {
		t.Fatalf("restart should rewind the clock, got %v", e.clock.PPQ)
	}
	if e.CurrentStep(Kick) != 0 {
		t.Fatalf("restart should land on step 0, got %d", e.CurrentStep(Kick))
	}
}

func TestGlobalStepsModeSurvivesBlocks(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Set(params.SeqEnable, 1)
	e.SetGlobalStepsMode(true)
	e.SetStep(Clap, 24, true)
	buf := dsp.NewBuffer(2, 512)
	e.ProcessBlock(buf, nil, nil)
	for l := Lane(0); l < NumLanes; l++ {
		if e.Sequencer(l).NumSteps() != 32 {
			t.Fatalf("lane %s not in 32-step mode", l)
		}
	}
	if !e.Sequencer(Clap).StepOn(24) {
		t.Fatalf("block processing reset the pattern")
	}
	if v, _ := e.Param("stepsMode"); v != 1 {
		t.Fatalf("stepsMode param = %v, want 1", v)
	}
}

func TestAuditionQueuesNote(t *testing.T) {
	e := newTestEngine(t)
	if !e.Audition(OpenHat, 1) {
		t.Fatalf("audition rejected")
	}
	buf := dsp.NewBuffer(2, 256)
	e.ProcessBlock(buf, nil, nil)
	if !e.Voice(OpenHat).Active() {
		t.Fatalf("audition did not fire the open hat")
	}
	e.Voice(OpenHat).Reset()
	buf.Clear()
	e.ProcessBlock(buf, nil, nil)
	if e.Voice(OpenHat).Active() {
		t.Fatalf("queued note fired twice")
	}
	if e.Audition(Lane(9), 1) {
		t.Fatalf("unknown lane accepted")
	}
}

func TestProcessInterleavesAndCounts(t *testing.T) {
	e := newTestEngine(t, WithBlockSize(128))
	e.Params().Set(params.SeqEnable, 1)
	e.SetStep(Kick, 0, true)
	dst := make([]float32, 1000*2)
	e.Process(dst)
	if dst[0] != dst[1] {
		t.Fatalf("voices are centered: left and right must match")
	}
	var sum float64
	for _, v := range dst {
		if v < 0 {
			sum -= float64(v)
		} else {
			sum += float64(v)
		}
	}
	if sum == 0 {
		t.Fatalf("expected audio")
	}
	if e.FramesRendered() != 1000 {
		t.Fatalf("frames rendered = %d, want 1000", e.FramesRendered())
	}
}

func TestLoadSampleReportsFailure(t *testing.T) {
	e := newTestEngine(t)
	if e.LoadSample(Kick, "/nonexistent/kick.wav") {
		t.Fatalf("load of missing file reported success")
	}
	if err := e.LoadSampleErr(Lane(-1), "x.wav"); err != ErrUnknownLane {
		t.Fatalf("err = %v, want ErrUnknownLane", err)
	}
}

func TestLaneNames(t *testing.T) {
	for l := Lane(0); l < NumLanes; l++ {
		got, ok := ParseLane(l.String())
		if !ok || got != l {
			t.Fatalf("ParseLane(%q) = %v, %v", l.String(), got, ok)
		}
		back, ok := LaneForNote(l.Note())
		if !ok || back != l {
			t.Fatalf("LaneForNote(%d) = %v, %v", l.Note(), back, ok)
		}
	}
}

func TestProcessBlockDoesNotAllocate(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Set(params.SeqEnable, 1)
	for k := 0; k < 16; k += 2 {
		e.SetStep(Kick, k, true)
		e.SetStep(ClosedHat, k+1, true)
	}
	buf := dsp.NewBuffer(2, 512)
	allocs := testing.AllocsPerRun(200, func() {
		buf.Clear()
		e.ProcessBlock(buf, nil, nil)
	})
	if allocs != 0 {
		t.Fatalf("allocs per block = %v, want 0", allocs)
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	e, err := New(testRate)
	if err != nil {
		b.Fatalf("new engine: %v", err)
	}
	e.Params().Set(params.SeqEnable, 1)
	for k := 0; k < 16; k++ {
		e.SetStep(ClosedHat, k, true)
	}
	e.SetStep(Kick, 0, true)
	e.SetStep(Snare, 4, true)
	buf := dsp.NewBuffer(2, 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Clear()
		e.ProcessBlock(buf, nil, nil)
	}
}
