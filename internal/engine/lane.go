package engine

import (
	"github.com/cbegin/drumseq-go/internal/sample"
	"github.com/cbegin/drumseq-go/internal/sequencer"
	"github.com/cbegin/drumseq-go/internal/voice"
)

// Lane identifies one of the five fixed drum lanes.
type Lane int

const (
	Kick Lane = iota
	Snare
	ClosedHat
	OpenHat
	Clap

	NumLanes
)

var laneNames = [NumLanes]string{"kick", "snare", "closedhat", "openhat", "clap"}

// General MIDI percussion notes per lane.
var laneNotes = [NumLanes]uint8{36, 38, 42, 46, 39}

func (l Lane) Valid() bool { return l >= 0 && l < NumLanes }

func (l Lane) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return laneNames[l]
}

// Note returns the MIDI note that triggers the lane.
func (l Lane) Note() uint8 {
	if !l.Valid() {
		return 0
	}
	return laneNotes[l]
}

// ParseLane resolves a lane name as printed by String.
func ParseLane(name string) (Lane, bool) {
	for i, n := range laneNames {
		if n == name {
			return Lane(i), true
		}
	}
	return 0, false
}

// LaneForNote maps a MIDI note to its lane.
func LaneForNote(note uint8) (Lane, bool) {
	for i, n := range laneNotes {
		if n == note {
			return Lane(i), true
		}
	}
	return 0, false
}

// layerGain is the sample level under a synthesized kick or snare.
const layerGain = 0.35

type lane struct {
	seq    *sequencer.Sequencer
	voice  voice.Voice
	sample *sample.Layer

	// layered lanes always play the voice and mix the sample underneath;
	// the others play the sample instead of the voice when one is loaded.
	layered bool

	triggers []sequencer.Trigger
}

func newLane(id Lane) lane {
	l := lane{
		seq:      sequencer.New(),
		sample:   sample.NewLayer(),
		triggers: make([]sequencer.Trigger, 0, 4),
	}
	switch id {
	case Kick:
		l.voice, l.layered = voice.NewKick(), true
	case Snare:
		l.voice, l.layered = voice.NewSnare(), true
	case ClosedHat:
		l.voice = voice.NewHiHat(voice.ClosedHat)
	case OpenHat:
		l.voice = voice.NewHiHat(voice.OpenHat)
	case Clap:
		l.voice = voice.NewClap()
	}
	return l
}

func (l *lane) fire(pitch, velocity float64, delay int) {
	if l.layered {
		l.voice.NoteOnWithDelay(velocity, delay)
		if l.sample.IsLoaded() {
			l.sample.SetParameters(pitch, 0, layerGain)
			l.sample.NoteOnWithDelay(velocity, delay)
		}
		return
	}
	if l.sample.IsLoaded() {
		l.sample.SetParameters(pitch, 0, 1)
		l.sample.NoteOnWithDelay(velocity, delay)
		return
	}
	l.voice.NoteOnWithDelay(velocity, delay)
}
