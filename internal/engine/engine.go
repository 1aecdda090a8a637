// Package engine runs the drum machine one audio block at a time: it reads
// the control values, resolves the transport, fires lanes from their
// sequencers or from MIDI and mixes every voice and sample layer.
package engine

import (
	"errors"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/drumseq-go/internal/dsp"
	"github.com/cbegin/drumseq-go/internal/params"
	"github.com/cbegin/drumseq-go/internal/sample"
	"github.com/cbegin/drumseq-go/internal/sequencer"
	"github.com/cbegin/drumseq-go/internal/voice"
)

const (
	DefaultBlockSize = 512
	commandQueueSize = 64
	maxQueuedMIDI    = 64
)

var ErrUnknownLane = errors.New("engine: unknown lane")

type commandKind int

const (
	cmdStart commandKind = iota
	cmdPause
	cmdRestart
	cmdMIDI
)

type command struct {
	kind commandKind
	msg  gomidi.Message
}

type Option func(*config)

type config struct {
	blockSize int
	store     *params.Store
	onStep    func(Lane, int)
}

// WithBlockSize sets the block length Process uses to slice its output.
func WithBlockSize(frames int) Option {
	return func(c *config) {
		if frames > 0 {
			c.blockSize = frames
		}
	}
}

// WithParams shares an existing control store instead of a private one.
func WithParams(store *params.Store) Option {
	return func(c *config) {
		if store != nil {
			c.store = store
		}
	}
}

// WithStepObserver installs a callback fired from the audio thread whenever a
// lane's current step changes. It must not block.
func WithStepObserver(fn func(Lane, int)) Option {
	return func(c *config) {
		c.onStep = fn
	}
}

type Engine struct {
	sampleRate float64
	blockSize  int
	params     *params.Store
	lanes      [NumLanes]lane
	current    [NumLanes]atomic.Int32
	onStep     func(Lane, int)

	// audio-thread state
	clock    sequencer.Clock
	commands chan command
	midi     [maxQueuedMIDI]gomidi.Message
	midiN    int
	scratch  dsp.Buffer
	view     dsp.Buffer
	rendered atomic.Int64
}

func New(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("engine: sampleRate must be positive")
	}
	cfg := config{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = params.NewStore()
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		blockSize:  cfg.blockSize,
		params:     cfg.store,
		onStep:     cfg.onStep,
		clock:      sequencer.NewClock(),
		commands:   make(chan command, commandQueueSize),
		scratch:    dsp.NewBuffer(2, cfg.blockSize),
		view:       make(dsp.Buffer, 2),
	}
	for i := range e.lanes {
		e.lanes[i] = newLane(Lane(i))
		e.current[i].Store(-1)
	}
	e.Prepare()
	return e, nil
}

// Prepare resets every voice and layer for the engine's sample rate.
// Call only while no block is being processed.
func (e *Engine) Prepare() {
	for i := range e.lanes {
		e.lanes[i].voice.Prepare(e.sampleRate)
		e.lanes[i].sample.Prepare(e.sampleRate)
	}
	snap := e.params.Snapshot()
	e.applyParameters(&snap)
}

func (e *Engine) SampleRate() int { return int(e.sampleRate) }

func (e *Engine) BlockSize() int { return e.blockSize }

// Params exposes the control store.
func (e *Engine) Params() *params.Store { return e.params }

// SetParam writes a control by key, e.g. "bdDecay".
func (e *Engine) SetParam(key string, v float64) bool {
	return e.params.SetByKey(key, v)
}

func (e *Engine) Param(key string) (float64, bool) {
	id, ok := params.Lookup(key)
	if !ok {
		return 0, false
	}
	return e.params.Get(id), true
}

// Sequencer returns a lane's pattern, or nil for an unknown lane.
func (e *Engine) Sequencer(l Lane) *sequencer.Sequencer {
	if !l.Valid() {
		return nil
	}
	return e.lanes[l].seq
}

func (e *Engine) SetStep(l Lane, k int, on bool) {
	if s := e.Sequencer(l); s != nil {
		s.SetStepOn(k, on)
	}
}

func (e *Engine) SetAccent(l Lane, k int, on bool) {
	if s := e.Sequencer(l); s != nil {
		s.SetAccent(k, on)
	}
}

func (e *Engine) SetPattern(l Lane, notation string) error {
	s := e.Sequencer(l)
	if s == nil {
		return ErrUnknownLane
	}
	return s.SetPattern(notation)
}

// SetGlobalStepsMode switches every lane and the stepsMode control together
// so the next block does not undo the change.
func (e *Engine) SetGlobalStepsMode(is32 bool) {
	v := 0.0
	if is32 {
		v = 1
	}
	e.params.Set(params.StepsMode, v)
	for i := range e.lanes {
		e.lanes[i].seq.SetStepsMode(is32)
	}
}

// SetStepsMode is SetGlobalStepsMode.
func (e *Engine) SetStepsMode(is32 bool) { e.SetGlobalStepsMode(is32) }

// CurrentStep reports the playhead step of a lane, -1 when stopped.
func (e *Engine) CurrentStep(l Lane) int {
	if !l.Valid() {
		return -1
	}
	return int(e.current[l].Load())
}

// LoadSampleErr decodes path into the lane's sample layer. The previous
// sample stays in place on error.
func (e *Engine) LoadSampleErr(l Lane, path string) error {
	if !l.Valid() {
		return ErrUnknownLane
	}
	return e.lanes[l].sample.LoadFile(path)
}

// LoadSample is LoadSampleErr reporting only success.
func (e *Engine) LoadSample(l Lane, path string) bool {
	return e.LoadSampleErr(l, path) == nil
}

// SetClip installs an already decoded clip; nil unloads the lane. A
// malformed clip is rejected and the lane keeps its sample.
func (e *Engine) SetClip(l Lane, c *sample.Clip) error {
	if !l.Valid() {
		return ErrUnknownLane
	}
	return e.lanes[l].sample.Load(c)
}

// Clip returns the lane's loaded clip, or nil.
func (e *Engine) Clip(l Lane) *sample.Clip {
	if !l.Valid() {
		return nil
	}
	return e.lanes[l].sample.Clip()
}

// StartInternalTransport, PauseInternalTransport and RestartInternalTransport
// queue clock commands applied at the next block. They report false when the
// queue is full.
func (e *Engine) StartInternalTransport() bool   { return e.send(command{kind: cmdStart}) }
func (e *Engine) PauseInternalTransport() bool   { return e.send(command{kind: cmdPause}) }
func (e *Engine) RestartInternalTransport() bool { return e.send(command{kind: cmdRestart}) }

// QueueMIDI hands a message to the audio thread for the next block.
func (e *Engine) QueueMIDI(msg gomidi.Message) bool {
	return e.send(command{kind: cmdMIDI, msg: msg})
}

// Audition queues a note-on for a lane, as a pad press would.
func (e *Engine) Audition(l Lane, velocity float64) bool {
	if !l.Valid() {
		return false
	}
	v := uint8(dsp.Clamp(velocity, 0, 1) * 127)
	if v == 0 {
		v = 1
	}
	return e.QueueMIDI(gomidi.NoteOn(9, l.Note(), v))
}

func (e *Engine) send(c command) bool {
	select {
	case e.commands <- c:
		return true
	default:
		return false
	}
}

// FramesRendered counts frames produced by Process since creation.
func (e *Engine) FramesRendered() int64 { return e.rendered.Load() }

// Voice exposes a lane's synthesized voice for metering.
func (e *Engine) Voice(l Lane) voice.Voice {
	if !l.Valid() {
		return nil
	}
	return e.lanes[l].voice
}
