package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cbegin/drumseq-go"
	"github.com/cbegin/drumseq-go/internal/kit"
)

// peakMeter holds the loudest sample of the last buffer as float32 bits.
type peakMeter struct{ bits atomic.Uint32 }

func (m *peakMeter) tap(buf []float32) {
	var p float32
	for _, v := range buf {
		p = max(p, float32(math.Abs(float64(v))))
	}
	m.bits.Store(math.Float32bits(p))
}

func (m *peakMeter) level() float32 { return math.Float32frombits(m.bits.Load()) }

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		kitPath    = flag.String("kit", "", "kit file to edit (default ~/.config/drumseq/kit.json)")
	)
	flag.Parse()

	path := *kitPath
	if path == "" {
		def, err := kit.DefaultPath()
		if err != nil {
			log.Fatal(err)
		}
		path = def
	}
	k, err := kit.LoadOrDefault(path)
	if err != nil {
		log.Fatal(err)
	}

	meter := &peakMeter{}
	pl, err := drumseq.NewPlayer(*sampleRate, drumseq.WithSampleTap(meter.tap))
	if err != nil {
		log.Fatal(err)
	}
	status := ""
	if err := pl.ApplyKit(k); err != nil {
		status = err.Error()
	}

	m := newModel(pl, k, path, meter.level)
	m.status = status
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	pl.Stop()
}
