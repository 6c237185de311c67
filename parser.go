package slotmark

import (
	"regexp"
	"strings"
	"sync"
)

// openTagPattern matches a candidate opening tag: name, optional attribute
// text, optional self-closing slash.
var openTagPattern = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9_-]*)((?:\s+[^<>]*?)?)\s*(/?)>`)

// attrPattern splits an opening tag's attribute text into key and optionally
// double-quoted, single-quoted, or unquoted value.
var attrPattern = regexp.MustCompile("([^\\s\"'=<>`/]+)(?:\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+)))?")

// ParseBlocks extracts the tagged block groups from body text.
//
// Three opening patterns are recognized outside code spans: <ft>/<fasthtml>
// (executable), <script> (raw passthrough), and any other non-reserved tag
// (generic, nestable). Void elements and plain HTML tags pass through to the
// markdown renderer untouched. Malformed blocks are skipped entirely and a
// warning is logged with the 1-indexed line of the offending opening tag;
// when a nested tag is left unclosed the warning also names the enclosing
// block's start line. The returned diagnostics mirror the logged warnings.
func ParseBlocks(text string, logger Logger) (BlockGroups, []*BlockError) {
	if logger == nil {
		logger = NopLogger{}
	}
	p := &blockParser{logger: logger}
	blocks := p.extract(text, 0, 0, false)
	groups := make(BlockGroups)
	for _, b := range blocks {
		groups.Add(b)
	}
	return groups, p.warnings
}

type blockParser struct {
	logger   Logger
	warnings []*BlockError

	// set when a nested extract hits an unclosed tag; the enclosing block
	// is discarded and the failure reported once at top level
	nestedFailure *BlockError
}

func (p *blockParser) warn(w *BlockError) {
	p.warnings = append(p.warnings, w)
	p.logger.Warn("block extraction: skipping malformed block", "tag", w.Tag,
		"line", w.Line, "outer_line", w.Outer, "reason", w.Message)
}

// extract walks text for blocks. lineOffset is the number of lines preceding
// text in the original document; outerLine is the 1-indexed start line of the
// enclosing block, zero at top level. In nested mode an unclosed tag aborts
// the walk (the enclosing block is then discarded); at top level the bad
// block is skipped and scanning continues.
func (p *blockParser) extract(text string, lineOffset, outerLine int, nested bool) []*Block {
	spans := scanCodeSpans(text)
	var blocks []*Block

	pos := 0
	for pos < len(text) {
		loc := openTagPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		matchStart := pos + loc[0]
		matchEnd := pos + loc[1]
		tag := strings.ToLower(text[pos+loc[2] : pos+loc[3]])
		attrText := ""
		if loc[4] >= 0 {
			attrText = text[pos+loc[4] : pos+loc[5]]
		}
		selfClosed := loc[6] >= 0 && loc[7] > loc[6]

		// Anything overlapping a code span is inert text.
		if spans.overlaps(matchStart, matchEnd) {
			pos = matchStart + 1
			continue
		}
		if !isBlockTag(tag) || selfClosed {
			pos = matchEnd
			continue
		}

		startLine := lineOffset + lineAt(text, matchStart)
		kind := kindOf(tag)

		closeStart, closeEnd := p.findClose(text, matchEnd, tag, kind, spans)
		if closeStart < 0 {
			failure := &BlockError{Tag: tag, Line: startLine, Outer: outerLine,
				Message: "no matching closing tag"}
			if nested {
				p.nestedFailure = failure
				return nil
			}
			p.warn(failure)
			pos = matchEnd
			continue
		}

		block := &Block{
			Tag:        tag,
			Content:    text[matchEnd:closeStart],
			Attributes: parseAttrs(attrText),
			Kind:       kind,
			StartLine:  startLine,
			srcStart:   matchStart,
			srcEnd:     closeEnd,
		}

		if kind == KindGeneric {
			childOffset := lineOffset + lineAt(text, matchEnd) - 1
			children := p.extract(block.Content, childOffset, startLine, true)
			if p.nestedFailure != nil {
				if nested {
					// Bubble the innermost failure up; the top-level
					// caller reports it once.
					return nil
				}
				failure := p.nestedFailure
				p.nestedFailure = nil
				p.warn(failure)
				pos = closeEnd
				continue
			}
			block.Children = children
		}

		blocks = append(blocks, block)
		pos = closeEnd
	}

	return blocks
}

// findClose locates the closing tag for an open block starting right after
// matchEnd. Generic blocks track nesting of same-named opens; raw and
// executable blocks close at the first matching close tag. Candidates inside
// code spans are ignored. Returns (-1, -1) when no close is found.
func (p *blockParser) findClose(text string, from int, tag string, kind BlockKind, spans codeSpans) (int, int) {
	re := tagScanPattern(tag)
	depth := 1
	pos := from
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return -1, -1
		}
		start := pos + loc[0]
		end := pos + loc[1]
		if spans.overlaps(start, end) {
			pos = start + 1
			continue
		}
		isClose := loc[2] >= 0 && loc[3] > loc[2]
		if isClose {
			depth--
			if depth == 0 {
				return start, end
			}
		} else if kind == KindGeneric {
			selfClosed := loc[6] >= 0 && loc[7] > loc[6]
			if !selfClosed {
				depth++
			}
		}
		pos = end
	}
	return -1, -1
}

var tagScanCache sync.Map // tag name -> *regexp.Regexp

// tagScanPattern matches both opening and closing tags of one name, so a
// single forward scan can track nesting depth. Compiled patterns are cached
// across renders; the cache is safe for concurrent render calls.
func tagScanPattern(tag string) *regexp.Regexp {
	if re, ok := tagScanCache.Load(tag); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)<(/?)` + regexp.QuoteMeta(tag) + `((?:\s+[^<>]*?)?)\s*(/?)>`)
	tagScanCache.Store(tag, re)
	return re
}

func kindOf(tag string) BlockKind {
	switch {
	case executableTags[tag]:
		return KindExecutable
	case rawTags[tag]:
		return KindRaw
	}
	return KindGeneric
}

// parseAttrs parses an opening tag's attribute text into an ordered list.
// Attributes with no value are boolean.
func parseAttrs(s string) Attrs {
	var attrs Attrs
	for _, m := range attrPattern.FindAllStringSubmatchIndex(s, -1) {
		attr := Attr{Key: s[m[2]:m[3]]}
		switch {
		case m[4] >= 0:
			attr.Value = s[m[4]:m[5]]
		case m[6] >= 0:
			attr.Value = s[m[6]:m[7]]
		case m[8] >= 0:
			attr.Value = s[m[8]:m[9]]
		default:
			attr.Boolean = true
		}
		attrs = append(attrs, attr)
	}
	return attrs
}
