// Package drumseq is a five-lane drum machine: synthesized kick, snare,
// hats and clap with optional sample layers, driven by a step sequencer and
// played live or rendered offline.
package drumseq

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	intaudio "github.com/cbegin/drumseq-go/internal/audio"
	intfx "github.com/cbegin/drumseq-go/internal/effects"
	"github.com/cbegin/drumseq-go/internal/engine"
	"github.com/cbegin/drumseq-go/internal/kit"
	"github.com/cbegin/drumseq-go/internal/params"
)

type Lane = engine.Lane

const (
	Kick      = engine.Kick
	Snare     = engine.Snare
	ClosedHat = engine.ClosedHat
	OpenHat   = engine.OpenHat
	Clap      = engine.Clap
	NumLanes  = engine.NumLanes
)

// StepEvent reports that a lane's playhead moved. Step is -1 when the
// transport stops.
type StepEvent struct {
	Lane Lane
	Step int
}

var ErrPlaying = errors.New("drumseq: player is running live")

type PlayerOption func(*playerConfig)

type playerConfig struct {
	blockSize int
	latency   time.Duration
	sampleTap func([]float32)
	effects   []intfx.Spec
	eqDB      []float32
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{blockSize: engine.DefaultBlockSize}
}

// WithBlockSize sets the largest block the engine renders at once.
func WithBlockSize(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = frames
	}
}

// WithLatency sets the output device buffer.
func WithLatency(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.latency = d
	}
}

// WithSampleTap installs a callback invoked with each finished stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithEffects sets the initial bus effect chain.
func WithEffects(specs ...intfx.Spec) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = specs
	}
}

// WithMasterEQ sets the master EQ bands in dB, lowest band first.
func WithMasterEQ(gainsDB ...float32) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.eqDB = gainsDB
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	latency    time.Duration
	engine     *engine.Engine
	bus        *bus
	audio      *intaudio.Player
	volume     float64
	eventCh    chan StepEvent
	eventChMu  sync.Mutex
}

// bus is the audio source: the drum mix followed by the effect chain, the
// master EQ and the master volume.
type bus struct {
	engine    *engine.Engine
	effects   atomic.Pointer[intfx.Chain]
	masterEQ  *intfx.EQ5Band
	volume    atomic.Uint64
	sampleTap func([]float32)
}

func (b *bus) Process(dst []float32) {
	b.engine.Process(dst)
	if fx := b.effects.Load(); fx != nil {
		fx.ProcessInterleaved(dst)
	}
	vol := float32(math.Float64frombits(b.volume.Load()))
	for i := 0; i+1 < len(dst); i += 2 {
		l, r := b.masterEQ.Process(dst[i], dst[i+1])
		dst[i], dst[i+1] = l*vol, r*vol
	}
	if b.sampleTap != nil {
		b.sampleTap(dst)
	}
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("drumseq: sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Player{sampleRate: sampleRate, latency: cfg.latency, volume: 1}
	eng, err := engine.New(sampleRate,
		engine.WithBlockSize(cfg.blockSize),
		engine.WithStepObserver(func(l engine.Lane, step int) {
			p.sendEvent(StepEvent{Lane: l, Step: step})
		}),
	)
	if err != nil {
		return nil, err
	}
	p.engine = eng
	p.bus = &bus{
		engine:    eng,
		masterEQ:  intfx.NewEQ5Band(sampleRate),
		sampleTap: cfg.sampleTap,
	}
	p.bus.volume.Store(math.Float64bits(1))
	for band, db := range cfg.eqDB {
		p.bus.masterEQ.SetGainDB(band, db)
	}
	if err := p.SetEffects(cfg.effects...); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

// Engine exposes the drum engine for pattern editing and kit capture.
func (p *Player) Engine() *engine.Engine { return p.engine }

// Play opens the output device on first use and starts pulling audio.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		backend, err := intaudio.NewPlayer(p.sampleRate, p.bus, p.latency)
		if err != nil {
			return err
		}
		p.audio = backend
	}
	p.audio.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

// Stop closes the output device. Patterns and settings are kept; Play opens
// a fresh device.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Close()
	p.audio = nil
	return err
}

func (p *Player) IsLive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil
}

func (p *Player) sendEvent(ev StepEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Watch returns a channel that receives a StepEvent whenever a lane's
// playhead moves. The channel is buffered (cap 8) and events are dropped
// when it is full. Only the most recent Watch channel receives events.
func (p *Player) Watch() <-chan StepEvent {
	ch := make(chan StepEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets the output scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.bus.volume.Store(math.Float64bits(volume))
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetEQBand sets the linear gain of a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
func (p *Player) SetEQBand(band int, gain float32) {
	p.bus.masterEQ.SetGain(band, gain)
}

func (p *Player) EQBand(band int) float32 {
	return p.bus.masterEQ.Gain(band)
}

// SetEffects replaces the bus effect chain. Tempo-synced effects use the
// current tempo. An empty list removes the chain.
func (p *Player) SetEffects(specs ...intfx.Spec) error {
	if len(specs) == 0 {
		p.bus.effects.Store(nil)
		return nil
	}
	chain, err := intfx.BuildChain(specs, p.sampleRate, p.engine.Params().Get(params.Tempo))
	if err != nil {
		return err
	}
	p.bus.effects.Store(chain)
	return nil
}

// SetParam writes a control by key, e.g. "sdTone" or "tempo".
func (p *Player) SetParam(key string, v float64) bool { return p.engine.SetParam(key, v) }

func (p *Player) Param(key string) (float64, bool) { return p.engine.Param(key) }

// SetSequencing turns the step sequencer on or off. While off, lanes only
// fire from MIDI and Audition.
func (p *Player) SetSequencing(on bool) {
	v := 0.0
	if on {
		v = 1
	}
	p.engine.Params().Set(params.SeqEnable, v)
}

func (p *Player) Sequencing() bool { return p.engine.Params().Get(params.SeqEnable) >= 0.5 }

func (p *Player) SetStep(l Lane, k int, on bool)    { p.engine.SetStep(l, k, on) }
func (p *Player) SetAccent(l Lane, k int, on bool)  { p.engine.SetAccent(l, k, on) }
func (p *Player) SetPattern(l Lane, s string) error { return p.engine.SetPattern(l, s) }
func (p *Player) SetStepsMode(is32 bool)            { p.engine.SetGlobalStepsMode(is32) }
func (p *Player) CurrentStep(l Lane) int            { return p.engine.CurrentStep(l) }

// LoadSample loads a WAV file into a lane, keeping the old sample on error.
func (p *Player) LoadSample(l Lane, path string) error {
	return p.engine.LoadSampleErr(l, path)
}

func (p *Player) StartTransport() bool   { return p.engine.StartInternalTransport() }
func (p *Player) PauseTransport() bool   { return p.engine.PauseInternalTransport() }
func (p *Player) RestartTransport() bool { return p.engine.RestartInternalTransport() }

// Audition fires a lane at the next block as a pad hit would.
func (p *Player) Audition(l Lane, velocity float64) bool { return p.engine.Audition(l, velocity) }

// SendMIDI queues a note message for the next block.
func (p *Player) SendMIDI(msg gomidi.Message) bool { return p.engine.QueueMIDI(msg) }

// ApplyKit loads a kit into the engine and the bus. Problems are reported
// together after everything loadable has loaded.
func (p *Player) ApplyKit(k *kit.Kit) error {
	errs := []error{k.Apply(p.engine)}
	if err := p.SetEffects(k.Effects...); err != nil {
		errs = append(errs, err)
	}
	for band := 0; band < intfx.Bands; band++ {
		db := float32(0)
		if band < len(k.EQ) {
			db = k.EQ[band]
		}
		p.bus.masterEQ.SetGainDB(band, db)
	}
	return errors.Join(errs...)
}

// Kit captures the current session. Effects and EQ are not read back.
func (p *Player) Kit() *kit.Kit {
	k := &kit.Kit{Name: "session"}
	k.Capture(p.engine)
	return k
}

// PlaybackPosition returns the output position in frames, i.e. what the
// listener hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
