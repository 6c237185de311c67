package slotmark

import "strings"

// span is a half-open [Start, End) character range within body text.
type span struct {
	Start, End int
}

// codeSpans records every fenced code block and inline code span in a body.
// The block extractor treats any tag-like text overlapping one of these
// ranges as inert.
type codeSpans []span

// overlaps reports whether the half-open range [start, end) intersects any
// recorded span. Partial overlap disqualifies a match just as full
// containment does.
func (cs codeSpans) overlaps(start, end int) bool {
	for _, s := range cs {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

// contains reports whether the position lies inside any recorded span.
func (cs codeSpans) contains(pos int) bool {
	return cs.overlaps(pos, pos+1)
}

// scanCodeSpans locates fenced code blocks (triple backtick, including the
// info line) and inline code spans (single backtick pairs) in body text.
// An unterminated fence extends to the end of the text. Inline spans are
// only recognized outside fenced regions and never cross a line break.
func scanCodeSpans(text string) codeSpans {
	var spans codeSpans

	// Fenced blocks first; their backticks must not pair as inline spans.
	pos := 0
	for {
		start := fenceIndex(text, pos)
		if start < 0 {
			break
		}
		end := fenceIndex(text, start+3)
		if end < 0 {
			spans = append(spans, span{start, len(text)})
			pos = len(text)
			break
		}
		end += 3
		spans = append(spans, span{start, end})
		pos = end
	}

	// Inline spans on the remaining text.
	pos = 0
	for {
		start := indexFrom(text, pos, "`")
		if start < 0 {
			break
		}
		if spans.contains(start) {
			pos = start + 1
			continue
		}
		end := -1
		for i := start + 1; i < len(text); i++ {
			if text[i] == '\n' {
				break
			}
			if text[i] == '`' {
				end = i
				break
			}
		}
		if end < 0 {
			pos = start + 1
			continue
		}
		spans = append(spans, span{start, end + 1})
		pos = end + 1
	}

	return spans
}

// fenceIndex returns the next fence delimiter at or after from, or -1. A
// fence delimiter is "```" at the start of a line (leading spaces and tabs
// tolerated); a triple backtick mid-line never opens or closes a fence.
func fenceIndex(text string, from int) int {
	for {
		idx := indexFrom(text, from, "```")
		if idx < 0 {
			return -1
		}
		if fenceAnchored(text, idx) {
			return idx
		}
		from = idx + 1
	}
}

func fenceAnchored(text string, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func indexFrom(text string, from int, sub string) int {
	if from >= len(text) {
		return -1
	}
	idx := strings.Index(text[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// lineAt returns the 1-indexed line number of a character position.
func lineAt(text string, pos int) int {
	if pos <= 0 {
		return 1
	}
	if pos > len(text) {
		pos = len(text)
	}
	return strings.Count(text[:pos], "\n") + 1
}
