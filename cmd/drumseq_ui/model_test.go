package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cbegin/drumseq-go"
	"github.com/cbegin/drumseq-go/internal/kit"
	"github.com/cbegin/drumseq-go/internal/sample"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	pl, err := drumseq.NewPlayer(48000)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	return newModel(pl, kit.Default(), filepath.Join(t.TempDir(), "kit.json"), nil)
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.handleKey(k)
		m = next.(model)
	}
	return m
}

func TestKeysEditTheGrid(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "j", "l", "l", " ", "a")
	seq := m.player.Engine().Sequencer(drumseq.Snare)
	if !seq.StepOn(2) || !seq.Accent(2) {
		t.Fatalf("snare step 2 = %v/%v", seq.StepOn(2), seq.Accent(2))
	}
	m = press(t, m, " ")
	if seq.StepOn(2) {
		t.Fatalf("second toggle should clear the step")
	}

	m = press(t, m, "k", "k", "h", "h", "h")
	if m.lane != drumseq.Kick || m.step != 0 {
		t.Fatalf("cursor = %v/%d, want clamped at kick/0", m.lane, m.step)
	}
}

func TestStepModeToggleClampsCursor(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "t")
	for i := 0; i < 40; i++ {
		m = press(t, m, "l")
	}
	if m.step != 31 {
		t.Fatalf("cursor = %d, want 31", m.step)
	}
	m = press(t, m, "t")
	if m.steps() != 16 || m.step != 15 {
		t.Fatalf("steps = %d, cursor = %d", m.steps(), m.step)
	}
}

func TestTempoSwingAndSequencing(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "+", "+", "]", "s")
	if v, _ := m.player.Param("tempo"); v != 127 {
		t.Fatalf("tempo = %v", v)
	}
	if v, _ := m.player.Param("swing"); v != 0.05 {
		t.Fatalf("swing = %v", v)
	}
	if !m.player.Sequencing() {
		t.Fatalf("s should enable the sequencer")
	}
	if !strings.Contains(m.View(), "SEQ ON") {
		t.Fatalf("header does not show the sequencer state")
	}
}

func TestSaveWritesKit(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, " ", "w")
	if !strings.HasPrefix(m.status, "saved") {
		t.Fatalf("status = %q", m.status)
	}
	k, err := kit.Load(m.kitPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(k.Lanes["kick"].Pattern, "|x") {
		t.Fatalf("saved kick = %q", k.Lanes["kick"].Pattern)
	}
}

func typePath(t *testing.T, m model, path string) model {
	t.Helper()
	m = press(t, m, "L")
	for _, r := range path {
		m = press(t, m, string(r))
	}
	return press(t, m, "enter")
}

func TestLoadSampleIntoCurrentLane(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hit.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pcm := make([]float32, 480)
	for i := range pcm {
		pcm[i] = 0.5
	}
	if err := sample.EncodeWAV(f, pcm, 48000, 1); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	m := newTestModel(t)
	m = press(t, m, "j")
	m = typePath(t, m, path)
	if m.prompting {
		t.Fatalf("enter should close the prompt")
	}
	if m.player.Engine().Clip(drumseq.Snare) == nil {
		t.Fatalf("snare has no sample, status %q", m.status)
	}
	if m.player.Engine().Clip(drumseq.Kick) != nil {
		t.Fatalf("kick should stay empty")
	}
	if !strings.HasPrefix(m.status, "loaded") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestLoadSamplePrompt(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		m := newTestModel(t)
		m = typePath(t, m, filepath.Join(t.TempDir(), "nope.wav"))
		if m.status == "" || m.player.Engine().Clip(drumseq.Kick) != nil {
			t.Fatalf("status = %q, clip = %v", m.status, m.player.Engine().Clip(drumseq.Kick))
		}
	})
	t.Run("keys go to the prompt", func(t *testing.T) {
		m := newTestModel(t)
		m = press(t, m, "L", "x", "y", "backspace", "q")
		if !m.prompting || m.input != "xq" || m.quitting {
			t.Fatalf("prompting=%v input=%q quitting=%v", m.prompting, m.input, m.quitting)
		}
		if m.player.Engine().Sequencer(drumseq.Kick).StepOn(0) {
			t.Fatalf("typing must not edit the grid")
		}
		if !strings.Contains(m.View(), "sample for BD: xq_") {
			t.Fatalf("view does not show the prompt")
		}
		m = press(t, m, "esc")
		if m.prompting || m.status != "" {
			t.Fatalf("esc should cancel quietly, status %q", m.status)
		}
	})
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.handleKey("q")
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q returned %T", cmd())
	}
}

func TestMeterBar(t *testing.T) {
	if got := meterBar(0.5, 8); got != "[####    ]" {
		t.Fatalf("meter = %q", got)
	}
	if got := meterBar(3, 4); got != "[####]" {
		t.Fatalf("meter = %q", got)
	}
}
