// Package jamo splits text into the units revealed one at a time by the
// typing animation. Composed Hangul syllables are broken into their jamo so
// that a syllable appears stroke group by stroke group.
package jamo

const (
	syllableBase = 0xAC00
	syllableLast = 0xD7A3

	leadingBase  = 0x1100
	vowelBase    = 0x1161
	trailingBase = 0x11A7 // trailingBase itself means "no trailing consonant"

	vowelCount    = 21
	trailingCount = 28
)

// IsSyllable reports whether r lies in the composed Hangul syllable block.
func IsSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

// Decompose returns the ordered scalars revealed for r. Scalars outside the
// composed syllable block come back unchanged. Syllables yield leading
// consonant, vowel and, when present, trailing consonant.
func Decompose(r rune) []rune {
	if !IsSyllable(r) {
		return []rune{r}
	}

	offset := r - syllableBase
	leading := offset / (vowelCount * trailingCount)
	vowel := offset / trailingCount % vowelCount
	trailing := offset % trailingCount

	out := []rune{leadingBase + leading, vowelBase + vowel, trailingBase + trailing}
	if out[2] == trailingBase {
		out = out[:2]
	}
	return out
}
