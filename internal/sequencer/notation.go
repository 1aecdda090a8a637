package sequencer

import (
	"fmt"
	"strings"
)

// Pattern notation: one rune per step, 'x' on, 'X' accented, '-' or '.'
// off. Bar lines and spaces are ignored, e.g. "|x---|X---|x-x-|----|".

// ParsePattern decodes notation into step and accent flags.
func ParsePattern(s string) (on, accent []bool, err error) {
	for i, r := range s {
		switch r {
		case '|', ' ', '\t':
			continue
		case 'x':
			on = append(on, true)
			accent = append(accent, false)
		case 'X':
			on = append(on, true)
			accent = append(accent, true)
		case '-', '.':
			on = append(on, false)
			accent = append(accent, false)
		default:
			return nil, nil, fmt.Errorf("sequencer: invalid pattern rune %q at %d", r, i)
		}
	}
	if len(on) > MaxSteps {
		return nil, nil, fmt.Errorf("sequencer: pattern has %d steps, max %d", len(on), MaxSteps)
	}
	return on, accent, nil
}

// FormatPattern renders flags with a bar line every four steps.
func FormatPattern(on, accent []bool) string {
	var b strings.Builder
	b.WriteByte('|')
	for k := range on {
		switch {
		case on[k] && k < len(accent) && accent[k]:
			b.WriteByte('X')
		case on[k]:
			b.WriteByte('x')
		default:
			b.WriteByte('-')
		}
		if k%4 == 3 {
			b.WriteByte('|')
		}
	}
	if len(on)%4 != 0 {
		b.WriteByte('|')
	}
	return b.String()
}

// SetPattern replaces the pattern from notation. Steps beyond the notation
// are turned off; notation longer than the current step count is an error.
func (s *Sequencer) SetPattern(notation string) error {
	on, accent, err := ParsePattern(notation)
	if err != nil {
		return err
	}
	if len(on) > s.NumSteps() {
		return fmt.Errorf("sequencer: pattern has %d steps but lane is in %d-step mode", len(on), s.NumSteps())
	}
	s.Clear()
	for k := range on {
		s.SetStepOn(k, on[k])
		s.SetAccent(k, accent[k])
	}
	return nil
}

// String returns the pattern in notation form.
func (s *Sequencer) String() string {
	n := s.NumSteps()
	on := make([]bool, n)
	accent := make([]bool, n)
	for k := 0; k < n; k++ {
		on[k] = s.StepOn(k)
		accent[k] = s.Accent(k)
	}
	return FormatPattern(on, accent)
}
