// Package params is the control-value registry: every id the engine reads
// per block, with its range and default, stored behind atomics so an editor
// goroutine can write while the audio thread reads.
package params

import (
	"math"
	"sync/atomic"
)

// ID indexes a control value.
type ID int

const (
	BDPitch ID = iota
	BDDecay
	BDTone
	BDDrive
	SDPitch
	SDDecay
	SDTone
	SDDrive
	CHPitch
	CHDecay
	CHTone
	CHDrive
	OHPitch
	OHDecay
	OHTone
	OHDrive
	ClapPitch
	ClapDecay
	ClapTone
	ClapDrive
	Swing
	StepsMode
	SeqEnable
	Tempo

	Count
)

// Per-lane controls are laid out in blocks of four in this order.
const (
	Pitch = iota
	Decay
	Tone
	Drive

	perLane
)

// LaneParam returns the id of a lane's control. Lanes are numbered kick,
// snare, closed hat, open hat, clap.
func LaneParam(lane, offset int) ID {
	return ID(lane*perLane + offset)
}

// Kind tells editors how to present a value.
type Kind int

const (
	Float Kind = iota
	Choice
	Bool
)

type Spec struct {
	Key     string
	Name    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
	Skew    float64
	Choices []string
}

var specs = [Count]Spec{
	BDPitch:   {Key: "bdPitch", Name: "BD Pitch", Min: -12, Max: 12, Default: 0, Skew: 1},
	BDDecay:   {Key: "bdDecay", Name: "BD Decay", Min: 0.05, Max: 2, Default: 0.5, Skew: 0.4},
	BDTone:    {Key: "bdTone", Name: "BD Tone", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	BDDrive:   {Key: "bdDrive", Name: "BD Drive", Min: 0, Max: 1, Default: 0, Skew: 1},
	SDPitch:   {Key: "sdPitch", Name: "SD Pitch", Min: -12, Max: 12, Default: 0, Skew: 1},
	SDDecay:   {Key: "sdDecay", Name: "SD Decay", Min: 0.05, Max: 2.5, Default: 0.4, Skew: 0.4},
	SDTone:    {Key: "sdTone", Name: "SD Tone", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	SDDrive:   {Key: "sdDrive", Name: "SD Drive", Min: 0, Max: 1, Default: 0, Skew: 1},
	CHPitch:   {Key: "chPitch", Name: "CH Pitch", Min: -12, Max: 12, Default: 0, Skew: 1},
	CHDecay:   {Key: "chDecay", Name: "CH Decay", Min: 0.01, Max: 0.3, Default: 0.08, Skew: 0.4},
	CHTone:    {Key: "chTone", Name: "CH Tone", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	CHDrive:   {Key: "chDrive", Name: "CH Drive", Min: 0, Max: 1, Default: 0, Skew: 1},
	OHPitch:   {Key: "ohPitch", Name: "OH Pitch", Min: -12, Max: 12, Default: 0, Skew: 1},
	OHDecay:   {Key: "ohDecay", Name: "OH Decay", Min: 0.1, Max: 2, Default: 0.4, Skew: 0.4},
	OHTone:    {Key: "ohTone", Name: "OH Tone", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	OHDrive:   {Key: "ohDrive", Name: "OH Drive", Min: 0, Max: 1, Default: 0, Skew: 1},
	ClapPitch: {Key: "clapPitch", Name: "Clap Pitch", Min: -12, Max: 12, Default: 0, Skew: 1},
	ClapDecay: {Key: "clapDecay", Name: "Clap Decay", Min: 0.05, Max: 1.5, Default: 0.3, Skew: 0.4},
	ClapTone:  {Key: "clapTone", Name: "Clap Tone", Min: 0, Max: 1, Default: 0.5, Skew: 1},
	ClapDrive: {Key: "clapDrive", Name: "Clap Drive", Min: 0, Max: 1, Default: 0, Skew: 1},
	Swing:     {Key: "swing", Name: "Swing", Min: 0, Max: 0.6, Default: 0, Skew: 1},
	StepsMode: {Key: "stepsMode", Name: "Steps", Kind: Choice, Min: 0, Max: 1, Default: 0, Skew: 1, Choices: []string{"16", "32"}},
	SeqEnable: {Key: "seqEnable", Name: "Sequencer On", Kind: Bool, Min: 0, Max: 1, Default: 0, Skew: 1},
	Tempo:     {Key: "tempo", Name: "Tempo", Min: 60, Max: 200, Default: 125, Skew: 1},
}

var byKey = func() map[string]ID {
	m := make(map[string]ID, Count)
	for id, s := range specs {
		m[s.Key] = ID(id)
	}
	return m
}()

func (id ID) Valid() bool { return id >= 0 && id < Count }

// Spec returns the registry entry; invalid ids yield the zero Spec.
func (id ID) Spec() Spec {
	if !id.Valid() {
		return Spec{}
	}
	return specs[id]
}

func (id ID) String() string { return id.Spec().Key }

// Lookup resolves a key such as "bdDecay".
func Lookup(key string) (ID, bool) {
	id, ok := byKey[key]
	return id, ok
}

// Clamp limits v to the range, rounding choices and bools to whole values.
func (s Spec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	if s.Kind != Float {
		v = math.Round(v)
	}
	return math.Min(s.Max, math.Max(s.Min, v))
}

// Normalize maps v to [0, 1] through the skew curve.
func (s Spec) Normalize(v float64) float64 {
	if s.Max <= s.Min {
		return 0
	}
	p := (s.Clamp(v) - s.Min) / (s.Max - s.Min)
	if s.Skew > 0 && s.Skew != 1 {
		p = math.Pow(p, s.Skew)
	}
	return p
}

// Denormalize is the inverse of Normalize.
func (s Spec) Denormalize(p float64) float64 {
	p = math.Min(1, math.Max(0, p))
	if s.Skew > 0 && s.Skew != 1 && p > 0 {
		p = math.Exp(math.Log(p) / s.Skew)
	}
	return s.Clamp(s.Min + p*(s.Max-s.Min))
}

// Store holds the live values.
type Store struct {
	values [Count]atomic.Uint64
}

// NewStore returns a store at defaults.
func NewStore() *Store {
	s := &Store{}
	s.ResetDefaults()
	return s
}

func (s *Store) ResetDefaults() {
	for id := ID(0); id < Count; id++ {
		s.values[id].Store(math.Float64bits(specs[id].Default))
	}
}

// Set clamps and stores v, returning the stored value.
func (s *Store) Set(id ID, v float64) float64 {
	if !id.Valid() {
		return 0
	}
	v = specs[id].Clamp(v)
	s.values[id].Store(math.Float64bits(v))
	return v
}

func (s *Store) Get(id ID) float64 {
	if !id.Valid() {
		return 0
	}
	return math.Float64frombits(s.values[id].Load())
}

// SetByKey is Set addressed by key; unknown keys report false.
func (s *Store) SetByKey(key string, v float64) bool {
	id, ok := Lookup(key)
	if !ok {
		return false
	}
	s.Set(id, v)
	return true
}

// Snapshot copies every value. Each value is read atomically; the set as a
// whole may straddle a concurrent edit.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	for id := range snap {
		snap[id] = math.Float64frombits(s.values[id].Load())
	}
	return snap
}

// Snapshot is a per-block copy of the store.
type Snapshot [Count]float64

func (s *Snapshot) Get(id ID) float64 { return s[id] }

func (s *Snapshot) Lane(lane, offset int) float64 { return s[LaneParam(lane, offset)] }

func (s *Snapshot) Enabled() bool { return s[SeqEnable] >= 0.5 }

func (s *Snapshot) Is32() bool { return s[StepsMode] >= 0.5 }
