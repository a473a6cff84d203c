package jamo

import (
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Unit is one revealed piece of text: a jamo, a scalar or a whole grapheme
// cluster. A line break is always the single unit "\n".
type Unit string

// LineBreak is the unit emitted for "\n", "\r\n" and "\r".
const LineBreak Unit = "\n"

// IsLineBreak reports whether u advances the active line.
func (u Unit) IsLineBreak() bool {
	return u == LineBreak
}

// Units segments text into the reveal sequence. The text is NFC-normalized
// first so that conjoining jamo typed separately still reach Decompose as a
// syllable.
func Units(text string) []Unit {
	text = norm.NFC.String(text)

	var units []Unit
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		if cluster == "\r\n" || cluster == "\r" || cluster == "\n" {
			units = append(units, LineBreak)
			continue
		}

		runes := g.Runes()
		if !IsSyllable(runes[0]) {
			units = append(units, Unit(cluster))
			continue
		}

		parts := Decompose(runes[0])
		for i, p := range parts {
			u := string(p)
			// combining marks ride along with the last jamo
			if i == len(parts)-1 && len(runes) > 1 {
				u += string(runes[1:])
			}
			units = append(units, Unit(u))
		}
	}
	return units
}

// LineCount returns the number of lines a reveal of units produces. Empty
// input still has one (empty) line.
func LineCount(units []Unit) int {
	n := 1
	for _, u := range units {
		if u.IsLineBreak() {
			n++
		}
	}
	return n
}
