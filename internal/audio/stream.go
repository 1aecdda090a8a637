// Package audio connects a pull-based frame source to the system output.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Source fills interleaved stereo float32 frames. It is called from the
// output thread and must not block.
type Source interface {
	Process(dst []float32)
}

const bytesPerFrame = 8

// Stream encodes a Source as little-endian float32 stereo for the output
// device. It never ends; pausing is the player's job.
type Stream struct {
	mu     sync.Mutex
	source Source
	frames []float32
	pulled int64
}

func NewStream(source Source) *Stream {
	return &Stream{source: source}
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	n := frames * 2
	if cap(s.frames) < n {
		s.frames = make([]float32, n)
	}
	s.frames = s.frames[:n]
	s.source.Process(s.frames)
	for i, v := range s.frames {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	s.pulled += int64(frames)
	return frames * bytesPerFrame, nil
}

// Pulled counts the frames handed to the device so far.
func (s *Stream) Pulled() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulled
}

type Player struct {
	player *ebitaudio.Player
	stream *Stream
}

var (
	outputOnce sync.Once
	output     *ebitaudio.Context
	outputRate int
)

// sharedContext returns the process-wide output context. The device runs at
// a single rate for the life of the process.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	outputOnce.Do(func() {
		outputRate = sampleRate
		output = ebitaudio.NewContext(sampleRate)
	})
	if outputRate != sampleRate {
		return nil, fmt.Errorf("audio: output already running at %d Hz (requested %d Hz)", outputRate, sampleRate)
	}
	return output, nil
}

// NewPlayer opens an output player pulling from source. latency sets the
// device buffer; zero keeps the platform default.
func NewPlayer(sampleRate int, source Source, latency time.Duration) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	stream := NewStream(source)
	pl, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, fmt.Errorf("audio: open player: %w", err)
	}
	if latency > 0 {
		pl.SetBufferSize(latency)
	}
	return &Player{player: pl, stream: stream}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position is what the listener has actually heard.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Pulled() int64 { return p.stream.Pulled() }

func (p *Player) Close() error {
	p.player.Pause()
	return p.player.Close()
}
