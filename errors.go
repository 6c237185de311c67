package slotmark

import (
	"fmt"
	"html"
	"strings"
)

// RenderResult is the uniform outcome of a rendering operation. It is used by
// the block evaluator, the markdown renderer, and the slot filler so that
// failures cross component boundaries as values, never as panics.
type RenderResult struct {
	Content string
	Error   string
}

// OK reports whether the operation succeeded.
func (r RenderResult) OK() bool { return r.Error == "" }

// Success wraps rendered content in a RenderResult.
func Success(content string) RenderResult { return RenderResult{Content: content} }

// Failure wraps an error message in a RenderResult.
func Failure(format string, args ...any) RenderResult {
	return RenderResult{Error: fmt.Sprintf(format, args...)}
}

// ErrorHTML formats a failure as an inline HTML fragment. The marker string
// "ERROR: <CONTEXT>: <message>" survives HTML escaping so callers and tests
// can detect it in final output.
func ErrorHTML(context, message string) string {
	return fmt.Sprintf(`<div class="slotmark-error">ERROR: %s: %s</div>`,
		strings.ToUpper(context), html.EscapeString(message))
}

// ParseError reports a structural problem in a source document. Parse errors
// are recovered where possible and never surface past the parsing API.
type ParseError struct {
	File    string // source file path, may be empty for in-memory parses
	Line    int    // 1-indexed line number
	Message string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// BlockError reports a malformed tagged block. The offending block is skipped
// and the document continues to parse; BlockError exists for diagnostics.
type BlockError struct {
	Tag     string // tag name of the block that failed
	Line    int    // 1-indexed line of the opening tag
	Outer   int    // 1-indexed line of the enclosing block, 0 when top level
	Message string
}

func (e *BlockError) Error() string {
	if e.Outer > 0 {
		return fmt.Sprintf("block <%s> at line %d (inside block starting at line %d): %s",
			e.Tag, e.Line, e.Outer, e.Message)
	}
	return fmt.Sprintf("block <%s> at line %d: %s", e.Tag, e.Line, e.Message)
}

// RenderError reports an evaluator or markdown failure localized to one block
// or one document. It renders as an inline error fragment, never aborts
// sibling blocks.
type RenderError struct {
	Context string // "block", "rendering", "layout"
	Message string
}

func (e *RenderError) Error() string { return fmt.Sprintf("%s: %s", e.Context, e.Message) }

// HTML returns the inline fragment for this error.
func (e *RenderError) HTML() string { return ErrorHTML(e.Context, e.Message) }

// SlotError aborts a single slot-filling call. Filling is all-or-nothing.
type SlotError struct {
	Slot    string // slot name, empty for skeleton-level failures
	Message string
}

func (e *SlotError) Error() string {
	if e.Slot == "" {
		return e.Message
	}
	return fmt.Sprintf("slot %q: %s", e.Slot, e.Message)
}

// CacheError reports a cache storage or invalidation failure. Cache errors
// are logged and swallowed; they never fail a render.
type CacheError struct {
	Op      string // "get", "store", "invalidate"
	Message string
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache %s: %s", e.Op, e.Message) }
