package drumseq

import (
	"fmt"
	"os"

	"github.com/cbegin/drumseq-go/internal/analysis"
	"github.com/cbegin/drumseq-go/internal/engine"
	"github.com/cbegin/drumseq-go/internal/kit"
	"github.com/cbegin/drumseq-go/internal/params"
	"github.com/cbegin/drumseq-go/internal/sample"
)

// RenderSeconds pulls seconds of interleaved stereo straight from an engine,
// without the bus effects.
func RenderSeconds(e *engine.Engine, seconds float64) []float32 {
	frames := int(float64(e.SampleRate()) * seconds)
	out := make([]float32, frames*2)
	e.Process(out)
	return out
}

// Render pulls seconds of interleaved stereo through the full bus. It is an
// error while the player is running live.
func (p *Player) Render(seconds float64) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		return nil, ErrPlaying
	}
	frames := int(float64(p.sampleRate) * seconds)
	out := make([]float32, frames*2)
	p.bus.Process(out)
	return out, nil
}

// RenderKit renders a kit from its first step on a fresh player.
func RenderKit(k *kit.Kit, sampleRate int, seconds float64, opts ...PlayerOption) ([]float32, error) {
	p, err := NewPlayer(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyKit(k); err != nil {
		return nil, err
	}
	return p.Render(seconds)
}

// WriteWAV writes interleaved samples to path as 16-bit PCM.
func WriteWAV(path string, samples []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sample.EncodeWAV(f, samples, sampleRate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AnalyzeLane hits one lane of a kit once, with the sequencer off, and
// measures the first seconds of the result.
func AnalyzeLane(k *kit.Kit, l Lane, sampleRate int, seconds float64) (analysis.Report, error) {
	e, err := engine.New(sampleRate)
	if err != nil {
		return analysis.Report{}, err
	}
	if err := k.Apply(e); err != nil {
		return analysis.Report{}, err
	}
	e.Params().Set(params.SeqEnable, 0)
	if !e.Audition(l, 1) {
		return analysis.Report{}, fmt.Errorf("drumseq: cannot audition lane %v", l)
	}
	out := RenderSeconds(e, seconds)
	return analysis.Analyze(analysis.Mono(out, 2), sampleRate), nil
}
