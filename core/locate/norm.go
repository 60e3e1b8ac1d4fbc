// Package locate finds a finding's literal text in the flattened document,
// falling back from exact to normalized to fuzzy matching.
package locate

import (
	"strings"
	"unicode"
)

// normalized is text with cosmetic variation removed, plus a byte map back to
// the original string.
type normalized struct {
	text string
	// orig[i] is the original byte offset of normalized byte i. len(orig) ==
	// len(text).
	orig []int
	// origLen is the length of the source string.
	origLen int
}

// quoteFolds maps typographic punctuation to its ASCII form.
var quoteFolds = map[rune]rune{
	'‘': '\'', // left single quote
	'’': '\'', // right single quote
	'“': '"',  // left double quote
	'”': '"',  // right double quote
	'–': '-',  // en dash
	'—': '-',  // em dash
	' ': ' ',  // no-break space
}

// normalize folds quotes and dashes, maps NBSP to space, and collapses
// whitespace runs to a single space, recording the byte map as it goes.
func normalize(s string) normalized {
	var sb strings.Builder
	n := normalized{origLen: len(s)}
	inSpace := false
	for i, r := range s {
		if f, ok := quoteFolds[r]; ok {
			r = f
		}
		if unicode.IsSpace(r) {
			if inSpace {
				continue
			}
			inSpace = true
			n.orig = append(n.orig, i)
			sb.WriteByte(' ')
			continue
		}
		inSpace = false
		start := sb.Len()
		sb.WriteRune(r)
		for j := start; j < sb.Len(); j++ {
			n.orig = append(n.orig, i)
		}
	}
	n.text = sb.String()
	return n
}

// rangeToOrig maps a normalized byte range back to original byte offsets.
func (n normalized) rangeToOrig(start, end int) (int, int) {
	os := n.orig[start]
	var oe int
	if end >= len(n.orig) {
		oe = n.origLen
	} else {
		oe = n.orig[end]
	}
	return os, oe
}

// trimSpan shrinks [start, end) in s to exclude edge whitespace.
func trimSpan(s string, start, end int) (int, int) {
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
