package reveal

import (
	"strings"

	"github.com/ivlev/text2video/internal/jamo"
)

// State is what has been revealed so far. The number of lines is fixed when
// a run starts; only line contents and Active grow during the run.
type State struct {
	Lines  [][]jamo.Unit
	Active int
}

// Line returns the revealed text of line i.
func (s State) Line(i int) string {
	var b strings.Builder
	for _, u := range s.Lines[i] {
		b.WriteString(string(u))
	}
	return b.String()
}

// Strings returns every line as text.
func (s State) Strings() []string {
	out := make([]string, len(s.Lines))
	for i := range s.Lines {
		out[i] = s.Line(i)
	}
	return out
}

// Units flattens the revealed units in reveal order, line breaks included.
func (s State) Units() []jamo.Unit {
	var out []jamo.Unit
	for i, line := range s.Lines {
		if i > 0 && i <= s.Active {
			out = append(out, jamo.LineBreak)
		}
		out = append(out, line...)
	}
	return out
}

func (s State) clone() State {
	lines := make([][]jamo.Unit, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = append([]jamo.Unit(nil), l...)
	}
	return State{Lines: lines, Active: s.Active}
}
