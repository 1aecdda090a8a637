package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cbegin/drumseq-go"
	"github.com/cbegin/drumseq-go/internal/kit"
)

const refresh = 50 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	meterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var laneLabels = [drumseq.NumLanes]string{"BD", "SD", "CH", "OH", "CP"}

type tickMsg time.Time

type model struct {
	player  *drumseq.Player
	kit     *kit.Kit
	kitPath string
	level   func() float32

	lane     drumseq.Lane
	step     int
	live     bool
	quitting bool
	status   string

	// prompting is set while a sample path is being typed for lane.
	prompting bool
	input     string
}

func newModel(pl *drumseq.Player, k *kit.Kit, kitPath string, level func() float32) model {
	if level == nil {
		level = func() float32 { return 0 }
	}
	return model{player: pl, kit: k, kitPath: kitPath, level: level}
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) steps() int {
	return m.player.Engine().Sequencer(m.lane).NumSteps()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	m.status = ""
	if m.prompting {
		return m.handlePrompt(key)
	}
	seq := m.player.Engine().Sequencer(m.lane)
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "h", "left":
		if m.step > 0 {
			m.step--
		}
	case "l", "right":
		if m.step < m.steps()-1 {
			m.step++
		}
	case "k", "up":
		if m.lane > 0 {
			m.lane--
		}
	case "j", "down":
		if m.lane < drumseq.NumLanes-1 {
			m.lane++
		}

	case " ", "x":
		m.player.SetStep(m.lane, m.step, !seq.StepOn(m.step))
	case "a":
		m.player.SetAccent(m.lane, m.step, !seq.Accent(m.step))
	case "c":
		seq.Clear()

	case "t":
		m.player.SetStepsMode(m.steps() != 32)
		m.step = min(m.step, m.steps()-1)
	case "s":
		m.player.SetSequencing(!m.player.Sequencing())
	case "r":
		m.player.RestartTransport()
	case "p":
		if m.live {
			m.player.Pause()
			m.live = false
		} else if err := m.player.Play(); err != nil {
			m.status = err.Error()
		} else {
			m.live = true
		}

	case "1", "2", "3", "4", "5":
		m.player.Audition(drumseq.Lane(key[0]-'1'), 1)

	case "+", "=":
		m.nudge("tempo", 1)
	case "-", "_":
		m.nudge("tempo", -1)
	case "]":
		m.nudge("swing", 0.05)
	case "[":
		m.nudge("swing", -0.05)

	case "L":
		m.prompting = true
		m.input = ""

	case "w":
		snap := m.player.Kit()
		snap.Name = m.kit.Name
		snap.Effects = m.kit.Effects
		snap.EQ = m.kit.EQ
		if err := snap.Save(m.kitPath); err != nil {
			m.status = err.Error()
		} else {
			m.status = "saved " + m.kitPath
		}
	}
	return m, nil
}

// handlePrompt edits the sample path; enter loads it into the current lane.
func (m model) handlePrompt(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.prompting = false
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case "enter":
		m.prompting = false
		path := strings.TrimSpace(m.input)
		if path == "" {
			break
		}
		if err := m.player.LoadSample(m.lane, path); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("loaded %s into %s", path, laneLabels[m.lane])
		}
	default:
		if r := []rune(key); len(r) == 1 {
			m.input += key
		}
	}
	return m, nil
}

func (m model) nudge(key string, by float64) {
	v, _ := m.player.Param(key)
	m.player.SetParam(key, v+by)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	tempo, _ := m.player.Param("tempo")
	swing, _ := m.player.Param("swing")
	state := "SEQ OFF"
	if m.player.Sequencing() {
		state = "SEQ ON"
	}
	out := "STOP"
	if m.live {
		out = "LIVE"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("drumseq  %s  %s  %3.0fbpm  swing %.2f  %d steps",
		out, state, tempo, swing, m.steps())))
	b.WriteString("\n\n")
	for l := drumseq.Lane(0); l < drumseq.NumLanes; l++ {
		b.WriteString(m.laneRow(l))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(meterStyle.Render(meterBar(m.level(), 32)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("hjkl:move  space:step  a:accent  c:clear  t:16/32  s:seq  p:play  r:restart  1-5:pad  +/-:tempo  [/]:swing  L:load sample  w:save  q:quit"))
	if m.prompting {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("sample for %s: %s_", laneLabels[m.lane], m.input))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}

func (m model) laneRow(l drumseq.Lane) string {
	seq := m.player.Engine().Sequencer(l)
	head := m.player.CurrentStep(l)
	var row strings.Builder
	row.WriteString(laneLabels[l])
	row.WriteString(" ")
	for k := 0; k < seq.NumSteps(); k++ {
		if k%4 == 0 {
			row.WriteString("|")
		}
		char := "·"
		style := lipgloss.NewStyle()
		switch {
		case seq.StepOn(k) && seq.Accent(k):
			char, style = "●", accentStyle
		case seq.StepOn(k):
			char = "○"
		}
		if k == head {
			style = headStyle
		}
		if l == m.lane && k == m.step {
			style = cursorStyle
		}
		row.WriteString(style.Render(char))
	}
	row.WriteString("|")
	return row.String()
}

func meterBar(level float32, width int) string {
	n := int(min(level, 1) * float32(width))
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}
