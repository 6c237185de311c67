package slotmark

import (
	"strings"
	"testing"
)

func TestScanCodeSpansFenced(t *testing.T) {
	text := "before\n```\n<content>\n```\nafter"
	spans := scanCodeSpans(text)

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	tagPos := strings.Index(text, "<content>")
	if !spans.contains(tagPos) {
		t.Error("expected tag inside fenced block to be covered")
	}
	if spans.contains(0) {
		t.Error("expected text before fence to be uncovered")
	}
}

func TestScanCodeSpansInline(t *testing.T) {
	text := "use `<content>` to open a block"
	spans := scanCodeSpans(text)

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	tagPos := strings.Index(text, "<content>")
	if !spans.contains(tagPos) {
		t.Error("expected tag inside inline code to be covered")
	}
}

func TestScanCodeSpansInlineDoesNotCrossNewline(t *testing.T) {
	text := "a `broken\nspan` b"
	spans := scanCodeSpans(text)

	if len(spans) != 0 {
		t.Errorf("expected no spans across newlines, got %d", len(spans))
	}
}

func TestScanCodeSpansUnterminatedFence(t *testing.T) {
	text := "before\n```\n<content>\nno closing fence"
	spans := scanCodeSpans(text)

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].End != len(text) {
		t.Errorf("expected unterminated fence to extend to end, got %d", spans[0].End)
	}
}

func TestScanCodeSpansBackticksInsideFence(t *testing.T) {
	// Single backticks inside a fenced block must not start inline spans
	// that leak past the fence.
	text := "```\na ` b\n```\n<content>x</content>"
	spans := scanCodeSpans(text)

	tagPos := strings.Index(text, "<content>")
	if spans.contains(tagPos) {
		t.Error("expected tag after fence to be uncovered")
	}
}

func TestScanCodeSpansMidLineTripleBacktickIsNotAFence(t *testing.T) {
	text := "use ``` sparingly\n\n<content>real</content>"
	spans := scanCodeSpans(text)

	tagPos := strings.Index(text, "<content>")
	if spans.overlaps(tagPos, tagPos+len("<content>")) {
		t.Error("expected tag after a mid-line triple backtick to be uncovered")
	}
}

func TestScanCodeSpansIndentedFence(t *testing.T) {
	text := "  ```\n<content>\n  ```\nafter"
	spans := scanCodeSpans(text)

	tagPos := strings.Index(text, "<content>")
	if !spans.contains(tagPos) {
		t.Error("expected tag inside an indented fence to be covered")
	}
}

func TestCodeSpansOverlaps(t *testing.T) {
	spans := codeSpans{{Start: 10, End: 20}}

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"fully inside", 12, 18, true},
		{"straddles start", 5, 15, true},
		{"straddles end", 15, 25, true},
		{"before", 0, 10, false},
		{"after", 20, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spans.overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("overlaps(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestLineAt(t *testing.T) {
	text := "one\ntwo\nthree"
	if got := lineAt(text, 0); got != 1 {
		t.Errorf("lineAt(0) = %d, want 1", got)
	}
	if got := lineAt(text, strings.Index(text, "three")); got != 3 {
		t.Errorf("lineAt(three) = %d, want 3", got)
	}
}
