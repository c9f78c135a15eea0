// Package segmenter splits cleaned report text into sentences.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	dotPlaceholder = "__DOT__"

	maxAbbrevLetters = 4
	maxHeaderWords   = 10
	minSentenceRunes = 10
)

var headerPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*(\s+|$)`)

// Split returns the sentences of text in order.
//
// Periods inside numbers ("3.2") and after short letter runs ("hk.", "vb.")
// do not end a sentence. A break needs one of .!? followed by whitespace and
// an uppercase letter. Fragments are kept when they look like a short numbered
// header or are longer than ten characters.
func Split(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = protectNumberDots(text)
	text = protectAbbreviations(text)

	var sentences []string
	for _, s := range splitAtBoundaries(text) {
		s = strings.TrimSpace(strings.ReplaceAll(s, dotPlaceholder, "."))
		if isHeader(s) || utf8.RuneCountInString(s) > minSentenceRunes {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isHeader(s string) bool {
	return headerPattern.MatchString(s) && len(strings.Fields(s)) <= maxHeaderWords
}

// protectNumberDots hides every period that sits between two digits.
func protectNumberDots(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		if r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			b.WriteString(dotPlaceholder)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// protectAbbreviations hides the period after a run of one to four letters
// that starts at a word boundary.
func protectAbbreviations(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(runes); {
		if abbrevLetter(runes[i]) && (i == 0 || !isWordRune(runes[i-1])) {
			n := 0
			for i+n < len(runes) && abbrevLetter(runes[i+n]) {
				n++
			}
			if n <= maxAbbrevLetters && i+n < len(runes) && runes[i+n] == '.' {
				b.WriteString(string(runes[i : i+n]))
				b.WriteString(dotPlaceholder)
				i += n + 1
				continue
			}
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

// splitAtBoundaries cuts after [.!?] when the following whitespace run is
// followed by an uppercase letter. The whitespace run is dropped.
func splitAtBoundaries(text string) []string {
	runes := []rune(text)
	var parts []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) || !sentenceStart(runes[j]) {
			continue
		}
		parts = append(parts, string(runes[start:i+1]))
		start = j
		i = j - 1
	}

	return append(parts, string(runes[start:]))
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func sentenceStart(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	switch r {
	case 'Ç', 'Ğ', 'İ', 'Ö', 'Ş', 'Ü':
		return true
	}
	return false
}

func abbrevLetter(r rune) bool {
	if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
		return true
	}
	switch r {
	case 'Ç', 'Ğ', 'İ', 'Ö', 'Ş', 'Ü', 'ç', 'ğ', 'ı', 'ö', 'ş', 'ü':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
