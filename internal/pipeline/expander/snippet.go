// Package expander grows retrieved chunks with the document text around them.
package expander

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	fuzzyStep      = 100
	fuzzyPadding   = 100
	fuzzyThreshold = 0.7
	anchorSpan     = 50
	anchorLen      = 20
)

// ExpandSnippet locates chunk inside full and returns the located region grown
// by extra characters on both sides, with whitespace collapsed. When the chunk
// cannot be located with enough confidence its own cleaned text is returned.
// All lengths and offsets count runes.
func ExpandSnippet(chunk, full string, extra int) string {
	normChunk := []rune(normalize(chunk))
	if len(normChunk) == 0 {
		return ""
	}
	norm, offsets := normalizeWithOffsets(full)

	idx := indexRunes(norm, normChunk)
	if idx < 0 {
		var best float64
		idx, best = fuzzyLocate(norm, normChunk)
		if best < fuzzyThreshold {
			return clean(chunk)
		}
	}

	rawLower := []rune(lowerRunes(full))
	snippet := norm[idx:min(idx+anchorSpan, len(norm))]
	anchor := []rune(strings.TrimSpace(string(snippet[:min(anchorLen, len(snippet))])))

	rawIdx := locateAnchor(rawLower, anchor, offsets[idx])

	raw := []rune(full)
	start := max(0, rawIdx-extra)
	end := min(len(raw), rawIdx+utf8.RuneCountInString(chunk)+extra)
	if start >= end {
		return clean(chunk)
	}
	return clean(string(raw[start:end]))
}

// locateAnchor finds anchor in rawLower at or after the raw offset of the
// match, within anchorSpan runes. Otherwise the offset itself is used.
func locateAnchor(rawLower, anchor []rune, from int) int {
	window := rawLower[from:min(from+len(anchor)+anchorSpan, len(rawLower))]
	if i := indexRunes(window, anchor); i >= 0 {
		return from + i
	}
	return from
}

// fuzzyLocate scores windows of len(chunk)+100 runes every 100 runes and
// returns the start of the best one with its similarity ratio.
func fuzzyLocate(norm, chunk []rune) (int, float64) {
	a := runeStrings(chunk)
	best, bestIdx := 0.0, -1

	for i := 0; i < len(norm)-len(chunk); i += fuzzyStep {
		win := norm[i:min(i+len(chunk)+fuzzyPadding, len(norm))]
		m := difflib.NewMatcherWithJunk(a, runeStrings(win), false, nil)
		if r := m.Ratio(); r > best {
			best, bestIdx = r, i
		}
	}
	return bestIdx, best
}

// normalize lowercases s, collapses whitespace runs into one space and trims.
func normalize(s string) string {
	n, _ := normalizeWithOffsets(s)
	return string(n)
}

// normalizeWithOffsets is normalize that also reports, for each output rune,
// the index of the input rune it came from.
func normalizeWithOffsets(s string) ([]rune, []int) {
	out := make([]rune, 0, len(s))
	offsets := make([]int, 0, len(s))
	pendingSpace := -1

	i := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			if pendingSpace < 0 {
				pendingSpace = i
			}
			i++
			continue
		}
		if pendingSpace >= 0 && len(out) > 0 {
			out = append(out, ' ')
			offsets = append(offsets, pendingSpace)
		}
		pendingSpace = -1
		out = append(out, unicode.ToLower(r))
		offsets = append(offsets, i)
		i++
	}
	return out, offsets
}

// lowerRunes lowercases rune by rune so rune offsets stay aligned with s.
func lowerRunes(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// clean collapses whitespace runs into one space and trims.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indexRunes(haystack, needle []rune) int {
	b := strings.Index(string(haystack), string(needle))
	if b < 0 {
		return -1
	}
	return utf8.RuneCountInString(string(haystack)[:b])
}

func runeStrings(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
