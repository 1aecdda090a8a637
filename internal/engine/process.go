package engine

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/drumseq-go/internal/dsp"
	"github.com/cbegin/drumseq-go/internal/params"
	"github.com/cbegin/drumseq-go/internal/sequencer"
	"github.com/cbegin/drumseq-go/internal/voice"
)

// ProcessBlock renders one block additively into buf. host may be nil.
// events are note messages stamped for this block; they only fire lanes
// while the sequencer is disabled.
func (e *Engine) ProcessBlock(buf dsp.Buffer, host *sequencer.Position, events []gomidi.Message) {
	n := buf.Frames()
	if n == 0 {
		return
	}
	e.drainCommands()

	snap := e.params.Snapshot()
	e.applyParameters(&snap)

	if snap.Enabled() {
		e.sequence(&snap, host, n)
	} else {
		for _, msg := range events {
			e.handleMIDI(&snap, msg)
		}
		for i := 0; i < e.midiN; i++ {
			e.handleMIDI(&snap, e.midi[i])
		}
	}
	e.clearQueuedMIDI()

	for i := range e.lanes {
		e.lanes[i].voice.Render(buf, 0, n)
	}
	for i := range e.lanes {
		e.lanes[i].sample.Render(buf, 0, n)
	}
}

// Process fills interleaved stereo dst from the internal clock, slicing it
// into blocks of at most the configured block size.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	for done := 0; done < frames; {
		n := min(e.blockSize, frames-done)
		block := dsp.Window(e.view, e.scratch, 0, n)
		block.Clear()
		e.ProcessBlock(block, nil, nil)
		block.Interleave(dst[done*2 : (done+n)*2])
		done += n
	}
	e.rendered.Add(int64(frames))
}

func (e *Engine) drainCommands() {
	for {
		select {
		case c := <-e.commands:
			switch c.kind {
			case cmdStart:
				e.clock.Start()
			case cmdPause:
				e.clock.Pause()
			case cmdRestart:
				e.clock.Restart()
			case cmdMIDI:
				if e.midiN < len(e.midi) {
					e.midi[e.midiN] = c.msg
					e.midiN++
				}
			}
		default:
			return
		}
	}
}

func (e *Engine) clearQueuedMIDI() {
	for i := 0; i < e.midiN; i++ {
		e.midi[i] = nil
	}
	e.midiN = 0
}

func (e *Engine) applyParameters(snap *params.Snapshot) {
	for i := range e.lanes {
		e.lanes[i].voice.SetParameters(voice.Params{
			Pitch: snap.Lane(i, params.Pitch),
			Decay: snap.Lane(i, params.Decay),
			Tone:  snap.Lane(i, params.Tone),
			Drive: snap.Lane(i, params.Drive),
		})
	}
}

func (e *Engine) sequence(snap *params.Snapshot, host *sequencer.Position, n int) {
	tempo := snap.Get(params.Tempo)
	is32 := snap.Is32()
	swing := snap.Get(params.Swing)
	pos, _ := sequencer.Resolve(host, &e.clock, tempo, e.sampleRate, n)

	for i := range e.lanes {
		l := &e.lanes[i]
		l.triggers = l.seq.ComputeTriggers(pos, e.sampleRate, n, is32, swing, l.triggers)
		// first trigger only
		if len(l.triggers) > 0 {
			t := l.triggers[0]
			l.fire(snap.Lane(i, params.Pitch), t.Velocity, t.Offset)
		}
	}

	for i := range e.lanes {
		step := int32(e.lanes[i].seq.CurrentStepIndex(pos, is32))
		if e.current[i].Swap(step) != step && e.onStep != nil {
			e.onStep(Lane(i), int(step))
		}
	}
}

func (e *Engine) handleMIDI(snap *params.Snapshot, msg gomidi.Message) {
	var ch, key, vel uint8
	if !msg.GetNoteStart(&ch, &key, &vel) {
		return
	}
	l, ok := LaneForNote(key)
	if !ok {
		return
	}
	e.lanes[l].fire(snap.Lane(int(l), params.Pitch), float64(vel)/127, 0)
}
