package jamo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestDecomposePassThrough(t *testing.T) {
	for _, r := range []rune{'A', 'z', ' ', '\n', '世', 0xABFF, 0xD7A4, 0x1100, 0x3131, 0x1F600} {
		got := Decompose(r)
		require.Len(t, got, 1, "rune %U", r)
		assert.Equal(t, r, got[0])
	}
}

func TestDecomposeWithTrailing(t *testing.T) {
	// 값 = ㄱ + ㅏ + ㅄ
	assert.Equal(t, []rune{0x1100, 0x1161, 0x11B9}, Decompose('값'))
	// 한 = ㅎ + ㅏ + ㄴ
	assert.Equal(t, []rune{0x1112, 0x1161, 0x11AB}, Decompose('한'))
}

func TestDecomposeWithoutTrailing(t *testing.T) {
	assert.Equal(t, []rune{0x1100, 0x1161}, Decompose('가'))
	assert.Equal(t, []rune{0x1112, 0x1175}, Decompose(0xD7A3-27))
}

func TestDecomposeBlockEdges(t *testing.T) {
	assert.Equal(t, []rune{0x1100, 0x1161}, Decompose(0xAC00))
	assert.Equal(t, []rune{0x1112, 0x1175, 0x11C2}, Decompose(0xD7A3))
}

func TestDecomposeMatchesNFD(t *testing.T) {
	for r := rune(syllableBase); r <= syllableLast; r++ {
		want := []rune(norm.NFD.String(string(r)))
		got := Decompose(r)
		if !assert.Equal(t, want, got, "syllable %U", r) {
			return
		}
	}
}

func TestUnitsLineBreaks(t *testing.T) {
	units := Units("A\r\nB\rC\nD")
	assert.Equal(t, []Unit{"A", LineBreak, "B", LineBreak, "C", LineBreak, "D"}, units)
	assert.Equal(t, 4, LineCount(units))
}

func TestUnitsRecomposesConjoiningJamo(t *testing.T) {
	units := Units(norm.NFD.String("한"))
	assert.Equal(t, []Unit{"\u1112", "\u1161", "\u11ab"}, units)
}

func TestUnitsKeepsClusters(t *testing.T) {
	units := Units("é👍🏽")
	assert.Equal(t, []Unit{"\u00e9", "\U0001F44D\U0001F3FD"}, units)
}

func TestUnitsEmpty(t *testing.T) {
	assert.Empty(t, Units(""))
	assert.Equal(t, 1, LineCount(nil))
}

func TestRevealSequenceGolden(t *testing.T) {
	var b strings.Builder
	for _, u := range Units("안녕하세요\nHello, 世界!\n값") {
		parts := make([]string, 0, 2)
		for _, r := range string(u) {
			parts = append(parts, fmt.Sprintf("U+%04X", r))
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}

	g := goldie.New(t)
	g.Assert(t, "reveal_sequence", []byte(b.String()))
}
