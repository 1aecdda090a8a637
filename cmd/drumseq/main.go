package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/cbegin/drumseq-go"
	"github.com/cbegin/drumseq-go/internal/engine"
	"github.com/cbegin/drumseq-go/internal/kit"
)

// sampleFlags collects repeated -sample lane=path values.
type sampleFlags map[string]string

func (s sampleFlags) String() string { return fmt.Sprint(map[string]string(s)) }

func (s sampleFlags) Set(v string) error {
	lane, path, ok := strings.Cut(v, "=")
	if !ok || path == "" {
		return fmt.Errorf("want lane=path, got %q", v)
	}
	if _, ok := engine.ParseLane(lane); !ok {
		return fmt.Errorf("unknown lane %q", lane)
	}
	s[lane] = path
	return nil
}

func main() {
	samples := sampleFlags{}
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		kitPath    = flag.String("kit", "", "kit file (default ~/.config/drumseq/kit.json, or the built-in kit)")
		outPath    = flag.String("out", "", "render to this WAV file instead of playing live")
		seconds    = flag.Float64("seconds", 8, "length of an offline render")
		analyze    = flag.Bool("analyze", false, "print a spectral report for each lane and exit")
		tempo      = flag.Float64("tempo", 0, "override the kit tempo (60-200)")
		swing      = flag.Float64("swing", -1, "override the kit swing (0-0.6)")
		steps      = flag.Int("steps", 0, "override the step count (16 or 32)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		savePath   = flag.String("save", "", "write the resulting kit to this file")
	)
	flag.Var(samples, "sample", "load a WAV into a lane, e.g. -sample kick=909.wav (repeatable)")
	flag.Parse()

	k, err := loadKit(*kitPath)
	if err != nil {
		log.Fatal(err)
	}
	if *tempo > 0 {
		k.Tempo = *tempo
	}
	if *swing >= 0 {
		k.Swing = *swing
	}
	if *steps != 0 {
		k.Steps = *steps
	}
	if len(samples) > 0 && k.Lanes == nil {
		k.Lanes = map[string]kit.LaneConfig{}
	}
	for lane, path := range samples {
		lc := k.Lanes[lane]
		lc.Sample = path
		k.Lanes[lane] = lc
	}
	if *savePath != "" {
		if err := k.Save(*savePath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("kit saved to %s\n", *savePath)
	}

	if *analyze {
		printAnalysis(k, *sampleRate)
		return
	}

	pl, err := drumseq.NewPlayer(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	if err := pl.ApplyKit(k); err != nil {
		log.Printf("kit: %v", err)
	}

	if *outPath != "" {
		out, err := pl.Render(*seconds)
		if err != nil {
			log.Fatal(err)
		}
		if err := drumseq.WriteWAV(*outPath, out, *sampleRate, 2); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %.1fs to %s\n", *seconds, *outPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events := pl.Watch()
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("playing %q at %.0f bpm, ctrl-c to stop\n", k.Name, k.Tempo)
	bars := 0
	for {
		select {
		case <-ctx.Done():
			if err := pl.Stop(); err != nil {
				log.Fatal(err)
			}
			fmt.Println()
			return
		case ev := <-events:
			if ev.Lane == drumseq.Kick && ev.Step == 0 {
				bars++
				fmt.Printf("\rbar %d", bars)
			}
		}
	}
}

func loadKit(path string) (*kit.Kit, error) {
	if path != "" {
		return kit.Load(path)
	}
	def, err := kit.DefaultPath()
	if err != nil {
		return kit.Default(), nil
	}
	return kit.LoadOrDefault(def)
}

func printAnalysis(k *kit.Kit, sampleRate int) {
	fmt.Printf("%-10s %8s %8s %10s %10s\n", "lane", "rms", "peak", "centroid", "dominant")
	for l := drumseq.Lane(0); l < drumseq.NumLanes; l++ {
		r, err := drumseq.AnalyzeLane(k, l, sampleRate, 1)
		if err != nil {
			log.Printf("%s: %v", l, err)
			continue
		}
		fmt.Printf("%-10s %8.3f %8.3f %8.0fHz %8.0fHz\n", l, r.RMS, r.Peak, r.Centroid, r.DominantHz)
	}
}
