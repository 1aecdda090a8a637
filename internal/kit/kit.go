// Package kit reads and writes drum kits: the tempo, patterns, voice
// settings, samples and bus effects of a session, stored as JSON.
package kit

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/cbegin/drumseq-go/internal/effects"
	"github.com/cbegin/drumseq-go/internal/engine"
	"github.com/cbegin/drumseq-go/internal/params"
	"github.com/cbegin/drumseq-go/internal/sample"
	"github.com/cbegin/drumseq-go/internal/sequencer"
)

// LaneConfig holds one lane's pattern, voice settings and sample. Unset
// voice settings keep whatever the engine already has.
type LaneConfig struct {
	Pattern string   `json:"pattern,omitempty"`
	Pitch   *float64 `json:"pitch,omitempty"`
	Decay   *float64 `json:"decay,omitempty"`
	Tone    *float64 `json:"tone,omitempty"`
	Drive   *float64 `json:"drive,omitempty"`
	Sample  string   `json:"sample,omitempty"`
}

// Kit is a saved session.
type Kit struct {
	Name       string                `json:"name,omitempty"`
	Tempo      float64               `json:"tempo,omitempty"`
	Swing      float64               `json:"swing,omitempty"`
	Steps      int                   `json:"steps,omitempty"` // 16 or 32; 0 infers from the patterns
	Sequencing bool                  `json:"sequencing"`
	Lanes      map[string]LaneConfig `json:"lanes,omitempty"`
	Effects    []effects.Spec        `json:"effects,omitempty"`
	EQ         []float32             `json:"eq,omitempty"` // dB per master band

	// dir resolves relative sample paths; set by Load.
	dir string
}

// Default returns a four-on-the-floor starter kit.
func Default() *Kit {
	return &Kit{
		Name:       "default",
		Tempo:      125,
		Steps:      16,
		Sequencing: true,
		Lanes: map[string]LaneConfig{
			"kick":      {Pattern: "|X---|x---|x---|x---|"},
			"snare":     {Pattern: "|----|X---|----|X---|"},
			"closedhat": {Pattern: "|x-x-|x-x-|x-x-|x-x-|"},
			"openhat":   {Pattern: "|----|----|----|---x|"},
			"clap":      {Pattern: "|----|----|----|x---|"},
		},
	}
}

// Dir returns the per-user kit directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "drumseq"), nil
}

// DefaultPath returns the path of the kit loaded when none is named.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kit.json"), nil
}

// Load reads a kit file.
func Load(path string) (*Kit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var k Kit
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("kit: %s: %w", path, err)
	}
	k.dir = filepath.Dir(path)
	return &k, nil
}

// LoadOrDefault reads path, or returns Default when the file does not exist.
func LoadOrDefault(path string) (*Kit, error) {
	k, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return k, err
}

// Save writes the kit as indented JSON, creating the directory if needed.
func (k *Kit) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SamplePath resolves a lane's sample against the kit's directory.
func (k *Kit) SamplePath(lc LaneConfig) string {
	if lc.Sample == "" || filepath.IsAbs(lc.Sample) || k.dir == "" {
		return lc.Sample
	}
	return filepath.Join(k.dir, lc.Sample)
}

// Target is what a kit is applied to.
type Target interface {
	SetParam(key string, v float64) bool
	SetGlobalStepsMode(is32 bool)
	SetPattern(l engine.Lane, notation string) error
	LoadSampleErr(l engine.Lane, path string) error
}

// Apply pushes the kit into t. Every problem is reported, joined, and does
// not stop the rest of the kit from loading.
func (k *Kit) Apply(t Target) error {
	var errs []error
	if k.Tempo > 0 {
		t.SetParam(params.Tempo.String(), k.Tempo)
	}
	t.SetParam(params.Swing.String(), k.Swing)
	seq := 0.0
	if k.Sequencing {
		seq = 1
	}
	t.SetParam(params.SeqEnable.String(), seq)

	steps, err := k.stepCount()
	if err != nil {
		errs = append(errs, err)
	}
	t.SetGlobalStepsMode(steps == sequencer.MaxSteps)

	for _, name := range slices.Sorted(maps.Keys(k.Lanes)) {
		lc := k.Lanes[name]
		l, ok := engine.ParseLane(name)
		if !ok {
			errs = append(errs, fmt.Errorf("kit: unknown lane %q", name))
			continue
		}
		if lc.Pattern != "" {
			if err := t.SetPattern(l, lc.Pattern); err != nil {
				errs = append(errs, fmt.Errorf("kit: lane %s: %w", name, err))
			}
		}
		for offset, v := range []*float64{lc.Pitch, lc.Decay, lc.Tone, lc.Drive} {
			if v != nil {
				t.SetParam(params.LaneParam(int(l), offset).String(), *v)
			}
		}
		if lc.Sample != "" {
			if err := t.LoadSampleErr(l, k.SamplePath(lc)); err != nil {
				errs = append(errs, fmt.Errorf("kit: lane %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (k *Kit) stepCount() (int, error) {
	switch k.Steps {
	case sequencer.DefaultSteps, sequencer.MaxSteps:
		return k.Steps, nil
	case 0:
		for _, lc := range k.Lanes {
			on, _, err := sequencer.ParsePattern(lc.Pattern)
			if err == nil && len(on) > sequencer.DefaultSteps {
				return sequencer.MaxSteps, nil
			}
		}
		return sequencer.DefaultSteps, nil
	}
	return sequencer.DefaultSteps, fmt.Errorf("kit: steps must be 16 or 32, got %d", k.Steps)
}

// Source is what a kit is captured from.
type Source interface {
	Param(key string) (float64, bool)
	Sequencer(l engine.Lane) *sequencer.Sequencer
	Clip(l engine.Lane) *sample.Clip
}

// Capture overwrites the kit's transport, patterns, voice settings and
// sample paths with the state of src. Effects and EQ are left alone.
func (k *Kit) Capture(src Source) {
	get := func(id params.ID) float64 {
		v, _ := src.Param(id.String())
		return v
	}
	k.Tempo = get(params.Tempo)
	k.Swing = get(params.Swing)
	k.Sequencing = get(params.SeqEnable) >= 0.5
	k.Steps = sequencer.DefaultSteps
	if get(params.StepsMode) >= 0.5 {
		k.Steps = sequencer.MaxSteps
	}
	k.Lanes = make(map[string]LaneConfig, engine.NumLanes)
	for l := engine.Lane(0); l < engine.NumLanes; l++ {
		lc := LaneConfig{Pattern: src.Sequencer(l).String()}
		for offset, dst := range []**float64{&lc.Pitch, &lc.Decay, &lc.Tone, &lc.Drive} {
			v := get(params.LaneParam(int(l), offset))
			*dst = &v
		}
		if c := src.Clip(l); c != nil {
			lc.Sample = c.Name
		}
		k.Lanes[l.String()] = lc
	}
}
