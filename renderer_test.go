package slotmark

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdownBasic(t *testing.T) {
	r := NewRenderer()
	res := r.RenderMarkdown("# H\n\nSome *prose*.")

	require.True(t, res.OK())
	assert.Contains(t, res.Content, `<h1 id="h">H</h1>`)
	assert.Contains(t, res.Content, "<em>prose</em>")
}

func TestRenderMarkdownHeadingIDCollisions(t *testing.T) {
	r := NewRenderer()
	res := r.RenderMarkdown("# Dup\n\n## Dup\n\n### Dup")

	require.True(t, res.OK())
	assert.Contains(t, res.Content, `<h1 id="dup">`)
	assert.Contains(t, res.Content, `<h2 id="dup-1">`)
	assert.Contains(t, res.Content, `<h3 id="dup-2">`)
}

func TestRenderMarkdownHeadingIDNormalization(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		wantID  string
	}{
		{"punctuation stripped", "# Hello, World!", "hello-world"},
		{"whitespace collapsed", "# Too   many    spaces", "too-many-spaces"},
		{"empty falls back", "# !!!", "section"},
	}
	r := NewRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.RenderMarkdown(tt.heading)
			require.True(t, res.OK())
			assert.Contains(t, res.Content, `id="`+tt.wantID+`"`)
		})
	}
}

func TestRenderMarkdownHeadingIDsResetPerRender(t *testing.T) {
	r := NewRenderer()
	first := r.RenderMarkdown("# Same")
	second := r.RenderMarkdown("# Same")

	assert.Contains(t, first.Content, `id="same"`)
	assert.Contains(t, second.Content, `id="same"`, "collision set must reset between renders")
}

func TestRenderMarkdownPlaceholderImages(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantURL string
	}{
		{"seed only", "![x](pyxie:abc)", "https://picsum.photos/seed/abc/800/600"},
		{"seed and width", "![x](pyxie:abc/400)", "https://picsum.photos/seed/abc/400/600"},
		{"seed width height", "![x](pyxie:abc/400/300)", "https://picsum.photos/seed/abc/400/300"},
		{"literal placeholder", "![My Alt](placeholder)", "https://picsum.photos/seed/my-alt/800/600"},
		{"plain url untouched", "![x](https://example.com/a.png)", "https://example.com/a.png"},
	}
	r := NewRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.RenderMarkdown(tt.src)
			require.True(t, res.OK())
			assert.Contains(t, res.Content, `src="`+tt.wantURL+`"`)
		})
	}
}

func TestRenderMarkdownDedent(t *testing.T) {
	r := NewRenderer()
	res := r.RenderMarkdown("    # Indented\n\n    prose")

	require.True(t, res.OK())
	assert.Contains(t, res.Content, "<h1", "indented content should still parse as markdown")
}

func TestRenderBlocksExecutable(t *testing.T) {
	eval := EvaluatorFunc(func(_ context.Context, code string) RenderResult {
		return Success("<b>" + strings.TrimSpace(code) + "</b>")
	})
	r := NewRenderer(WithEvaluator(eval))

	groups, _ := ParseBlocks("<ft>payload</ft>", NopLogger{})
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["ft"], 1)
	assert.Equal(t, "<b>payload</b>", out["ft"][0])
}

func TestRenderBlocksExecutableFailure(t *testing.T) {
	eval := EvaluatorFunc(func(context.Context, string) RenderResult {
		return Failure("boom")
	})
	r := NewRenderer(WithEvaluator(eval))

	groups, _ := ParseBlocks("<ft>payload</ft>", NopLogger{})
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["ft"], 1)
	assert.Contains(t, out["ft"][0], "ERROR: BLOCK:")
	assert.Contains(t, out["ft"][0], "boom")
}

func TestRenderBlocksEvaluatorPanicIsScoped(t *testing.T) {
	eval := EvaluatorFunc(func(_ context.Context, code string) RenderResult {
		if strings.Contains(code, "bad") {
			panic("exploded")
		}
		return Success("ok")
	})
	r := NewRenderer(WithEvaluator(eval))

	groups, _ := ParseBlocks("<ft>bad</ft>\n<ft>good</ft>", NopLogger{})
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["ft"], 2)
	assert.Contains(t, out["ft"][0], "ERROR: BLOCK:")
	assert.Equal(t, "ok", out["ft"][1], "a panicking block must not abort its siblings")
}

func TestRenderBlocksRawScript(t *testing.T) {
	groups, _ := ParseBlocks("<script>console.log(1)</script>", NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["script"], 1)
	assert.Equal(t, `<script data-raw="true">console.log(1)</script>`, out["script"][0])
}

func TestRenderBlocksRawScriptUnescapesEntities(t *testing.T) {
	groups, _ := ParseBlocks("<script>if (a &lt; b &amp;&amp; c &gt; d) go()</script>", NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["script"], 1)
	assert.Contains(t, out["script"][0], "if (a < b && c > d) go()")
}

func TestRenderBlocksRawScriptKeepsAttributes(t *testing.T) {
	groups, _ := ParseBlocks(`<script type="module" defer>run()</script>`, NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["script"], 1)
	got := out["script"][0]
	assert.Contains(t, got, `type="module"`)
	assert.Contains(t, got, " defer")
	assert.Contains(t, got, `data-raw="true"`)
}

func TestRenderBlocksGenericWrapsTag(t *testing.T) {
	groups, _ := ParseBlocks("<content class=\"main\">\n# H\n</content>", NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["content"], 1)
	got := out["content"][0]
	assert.True(t, strings.HasPrefix(got, `<content class="main">`), "got %q", got)
	assert.True(t, strings.HasSuffix(got, "</content>"), "got %q", got)
	assert.Contains(t, got, `<h1 id="h">H</h1>`)
}

func TestRenderBlocksNestedGeneric(t *testing.T) {
	text := "<content>\nbefore\n\n<sidebar>\n## Inner\n</sidebar>\n\nafter\n</content>"
	groups, _ := ParseBlocks(text, NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	require.Len(t, out["content"], 1)
	got := out["content"][0]
	assert.Contains(t, got, "<sidebar>")
	assert.Contains(t, got, `<h2 id="inner">Inner</h2>`)
	assert.Contains(t, got, "</sidebar>")
	assert.Contains(t, got, "before")
	assert.Contains(t, got, "after")
	assert.NotContains(t, got, "slotmark:block", "placeholders must not leak")
}

func TestRenderBlocksHeadingIDsUniqueAcrossGroups(t *testing.T) {
	text := "<content>\n# Title\n</content>\n<sidebar>\n# Title\n</sidebar>"
	groups, _ := ParseBlocks(text, NopLogger{})
	r := NewRenderer()
	out := r.RenderBlocks(context.Background(), groups)

	all := strings.Join(append(out["content"], out["sidebar"]...), "\n")
	assert.Contains(t, all, `id="title"`)
	assert.Contains(t, all, `id="title-1"`, "IDs must stay unique across one document render")
}

func TestRenderPassSharedAcrossBlocksAndProse(t *testing.T) {
	text := "# Title\n\n<toc>\n# Title\n</toc>"
	groups, warnings := ParseBlocks(text, NopLogger{})
	require.Empty(t, warnings)
	r := NewRenderer()

	pass := r.NewPass(context.Background())
	out := pass.RenderBlocks(groups)
	prose := pass.RenderProse(text, groups)
	require.True(t, prose.OK())

	all := strings.Join(out["toc"], "\n") + "\n" + prose.Content
	assert.Equal(t, 1, strings.Count(all, `id="title"`))
	assert.Contains(t, all, `id="title-1"`, "prose must share the block pass's ID set")
}

func TestRenderProse(t *testing.T) {
	text := "Intro prose.\n\n<content>\n# Inside\n</content>\n\nOutro prose."
	groups, _ := ParseBlocks(text, NopLogger{})
	r := NewRenderer()
	res := r.RenderProse(context.Background(), text, groups)

	require.True(t, res.OK())
	assert.Contains(t, res.Content, "Intro prose.")
	assert.Contains(t, res.Content, "Outro prose.")
	assert.NotContains(t, res.Content, "Inside", "block content must not appear in prose")
}

func TestRenderProseEmptyWhenOnlyBlocks(t *testing.T) {
	text := "<content>\n# H\n</content>"
	groups, _ := ParseBlocks(text, NopLogger{})
	r := NewRenderer()
	res := r.RenderProse(context.Background(), text, groups)

	require.True(t, res.OK())
	assert.Equal(t, "", res.Content)
}

func TestRenderMarkdownCodeSpanEscaped(t *testing.T) {
	r := NewRenderer()
	res := r.RenderMarkdown("Use `<content>` to open a block.")

	require.True(t, res.OK())
	assert.Contains(t, res.Content, "&lt;content&gt;")
}

func TestSlugifyHeading(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"<em>Styled</em> Heading", "styled-heading"},
		{"  spaced   out  ", "spaced-out"},
		{"???", "section"},
		{"", "section"},
	}
	for _, tt := range tests {
		if got := slugifyHeading(tt.in); got != tt.want {
			t.Errorf("slugifyHeading(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
