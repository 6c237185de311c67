package slotmark

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	slug "github.com/goliatone/go-slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	placeholderScheme  = "pyxie:"
	placeholderLiteral = "placeholder"
	picsumURLFormat    = "https://picsum.photos/seed/%s/%d/%d"

	defaultImageWidth  = 800
	defaultImageHeight = 600
)

// Renderer converts document prose and extracted blocks to HTML. A Renderer
// is safe for concurrent use; all per-render mutable state (the heading ID
// collision set) lives in the render pass, never on the Renderer itself.
type Renderer struct {
	md        goldmark.Markdown
	evaluator Evaluator
	logger    Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithEvaluator sets the evaluator for executable blocks.
func WithEvaluator(e Evaluator) RendererOption {
	return func(r *Renderer) { r.evaluator = e }
}

// WithRenderLogger sets the renderer's logger.
func WithRenderLogger(l Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer builds a Renderer. Without options it uses a NopEvaluator, so
// executable blocks render as inline errors rather than vanishing.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		evaluator: NopEvaluator{},
		logger:    NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&placeholderImageTransformer{}, 500),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	return r
}

// RenderMarkdown renders plain markdown as its own render pass with a fresh
// heading ID collision set.
func (r *Renderer) RenderMarkdown(src string) RenderResult {
	return r.NewPass(context.Background()).markdown(src)
}

// RenderBlocks renders every group as a single render pass. When blocks and
// prose belong to the same document render, use NewPass and call both
// RenderBlocks and RenderProse on it, so heading IDs stay unique across the
// whole document.
func (r *Renderer) RenderBlocks(ctx context.Context, groups BlockGroups) map[string][]string {
	return r.NewPass(ctx).RenderBlocks(groups)
}

// RenderProse renders the document prose as its own render pass. See
// RenderBlocks for the combined-document case.
func (r *Renderer) RenderProse(ctx context.Context, body string, groups BlockGroups) RenderResult {
	return r.NewPass(ctx).RenderProse(body, groups)
}

// RenderPass scopes one document render. Heading IDs are unique within a
// pass; everything rendered on the same pass shares one collision set.
type RenderPass struct {
	r   *Renderer
	ctx context.Context
	ids *headingIDs
}

// NewPass starts a render pass with a fresh heading ID collision set.
func (r *Renderer) NewPass(ctx context.Context) *RenderPass {
	return &RenderPass{r: r, ctx: ctx, ids: newHeadingIDs()}
}

// RenderBlocks renders every block in every group to an HTML fragment.
// Groups render in name order so ID assignment is deterministic. A failing
// block yields an inline error fragment in its position; siblings are
// unaffected.
func (p *RenderPass) RenderBlocks(groups BlockGroups) map[string][]string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]string, len(groups))
	for _, name := range names {
		blocks := groups[name]
		fragments := make([]string, 0, len(blocks))
		for _, b := range blocks {
			res := p.block(b)
			if res.OK() {
				fragments = append(fragments, res.Content)
			} else {
				p.r.logger.Error("render: block failed", "tag", b.Tag, "line", b.StartLine, "error", res.Error)
				fragments = append(fragments, ErrorHTML("block", res.Error))
			}
		}
		out[name] = fragments
	}
	return out
}

// RenderProse renders the document body with every top-level block removed.
// Used for the default slot when a document mixes prose and blocks.
func (p *RenderPass) RenderProse(body string, groups BlockGroups) RenderResult {
	stripped := spliceBlocks(body, topLevelBlocks(groups), func(int) string { return "" })
	if strings.TrimSpace(stripped) == "" {
		return Success("")
	}
	return p.markdown(stripped)
}

// markdown renders markdown source using the pass's heading ID set.
func (p *RenderPass) markdown(src string) RenderResult {
	src = dedent(src)
	if strings.TrimSpace(src) == "" {
		return Success("")
	}
	var buf bytes.Buffer
	pc := parser.NewContext(parser.WithIDs(p.ids))
	if err := p.r.md.Convert([]byte(src), &buf, parser.WithContext(pc)); err != nil {
		return Failure("markdown: %v", err)
	}
	return Success(strings.TrimSpace(buf.String()))
}

// block renders a single block. A panic inside one block's render is
// recovered and scoped to that block.
func (p *RenderPass) block(b *Block) (result RenderResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Failure("panic rendering block <%s>: %v", b.Tag, rec)
		}
	}()

	switch b.Kind {
	case KindExecutable:
		res := p.r.evaluator.Evaluate(p.ctx, b.Content)
		if !res.OK() {
			return Failure("%s", res.Error)
		}
		return Success(res.Content)

	case KindRaw:
		return Success(renderRawScript(b))

	default:
		return p.generic(b)
	}
}

// generic renders a nestable block: nested child blocks are rendered in
// place within the markdown content, then the whole inner HTML is wrapped
// back in the original tag with its original attributes.
func (p *RenderPass) generic(b *Block) RenderResult {
	rendered := make([]string, len(b.Children))
	for i, child := range b.Children {
		res := p.block(child)
		if res.OK() {
			rendered[i] = res.Content
		} else {
			p.r.logger.Error("render: nested block failed", "tag", child.Tag,
				"line", child.StartLine, "error", res.Error)
			rendered[i] = ErrorHTML("block", res.Error)
		}
	}

	spliced := spliceBlocksWithPlaceholders(b.Content, b.Children)
	res := p.markdown(spliced)
	if !res.OK() {
		return res
	}
	inner := res.Content
	for i, fragment := range rendered {
		inner = strings.Replace(inner, blockPlaceholder(i), fragment, 1)
	}

	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(b.Tag)
	writeAttrs(&sb, b.Attributes, "")
	if voidElements[b.Tag] || b.SelfClosing {
		sb.WriteString(" />")
		return Success(sb.String())
	}
	sb.WriteString(">")
	sb.WriteString(inner)
	sb.WriteString("</")
	sb.WriteString(b.Tag)
	sb.WriteString(">")
	return Success(sb.String())
}

// renderRawScript emits a raw block verbatim as a script element, with HTML
// entities unescaped and the data-raw marker ensured so downstream passes do
// not re-escape it.
func renderRawScript(b *Block) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(b.Tag)
	writeAttrs(&sb, b.Attributes, "")
	if !b.Attributes.Has("data-raw") {
		sb.WriteString(` data-raw="true"`)
	}
	sb.WriteString(">")
	sb.WriteString(unescapeEntities(b.Content))
	sb.WriteString("</")
	sb.WriteString(b.Tag)
	sb.WriteString(">")
	return sb.String()
}

func writeAttrs(sb *strings.Builder, attrs Attrs, skip string) {
	for _, a := range attrs {
		if skip != "" && a.Key == skip {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		if !a.Boolean {
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Value))
			sb.WriteString(`"`)
		}
	}
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#x27;", "'",
	"&#39;", "'",
	"&amp;", "&",
)

func unescapeEntities(s string) string { return entityReplacer.Replace(s) }

// topLevelBlocks flattens block groups into source order.
func topLevelBlocks(groups BlockGroups) []*Block {
	var all []*Block
	for _, blocks := range groups {
		all = append(all, blocks...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].srcStart < all[j].srcStart })
	return all
}

// spliceBlocks replaces each block's full source span in text with the
// string returned by repl for its index. Blocks must be sorted by offset.
func spliceBlocks(text string, blocks []*Block, repl func(i int) string) string {
	if len(blocks) == 0 {
		return text
	}
	var sb strings.Builder
	pos := 0
	for i, b := range blocks {
		if b.srcStart < pos || b.srcEnd > len(text) {
			continue
		}
		sb.WriteString(text[pos:b.srcStart])
		sb.WriteString(repl(i))
		pos = b.srcEnd
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

func spliceBlocksWithPlaceholders(text string, blocks []*Block) string {
	ordered := make([]*Block, len(blocks))
	copy(ordered, blocks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].srcStart < ordered[j].srcStart })
	return spliceBlocks(text, ordered, blockPlaceholder)
}

func blockPlaceholder(i int) string {
	return fmt.Sprintf("<!--slotmark:block:%d-->", i)
}

// dedent strips the common minimum indentation from non-blank lines,
// so block content indented for readability still parses as markdown.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}

// headingIDs generates collision-resistant heading IDs. One instance is
// scoped to a single render pass and must not be shared across concurrent
// renders.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]bool)}
}

// Generate implements goldmark's parser.IDs.
func (ids *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := slugifyHeading(string(value))
	id := base
	for i := 1; ids.used[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	ids.used[id] = true
	return []byte(id)
}

// Put implements goldmark's parser.IDs for explicitly assigned IDs.
func (ids *headingIDs) Put(value []byte) {
	ids.used[string(value)] = true
}

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	nonWordPattern   = regexp.MustCompile(`[^\w\s-]`)
	hyphenRunPattern = regexp.MustCompile(`[-\s]+`)
)

// slugifyHeading normalizes heading text into an ID: lowercase, HTML tags
// and punctuation stripped, whitespace and hyphen runs collapsed to single
// hyphens. Empty results fall back to "section".
func slugifyHeading(s string) string {
	s = strings.ToLower(s)
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, "")
	s = hyphenRunPattern.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "section"
	}
	return s
}

// placeholderImageTransformer rewrites reserved placeholder image sources
// ("pyxie:<seed>[/<w>[/<h>]]" or the literal "placeholder") to deterministic
// external placeholder URLs. Other sources pass through unchanged.
type placeholderImageTransformer struct{}

func (placeholderImageTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		switch {
		case strings.HasPrefix(dest, placeholderScheme):
			img.Destination = []byte(placeholderURL(dest[len(placeholderScheme):]))
		case dest == placeholderLiteral:
			alt := string(img.Text(reader.Source()))
			seed, err := slug.Normalize(alt)
			if err != nil || seed == "" {
				seed = alt
			}
			img.Destination = []byte(placeholderURL(seed))
		}
		return ast.WalkContinue, nil
	})
}

// placeholderURL expands "seed[/width[/height]]" into the external
// placeholder image URL, defaulting to 800x600.
func placeholderURL(spec string) string {
	parts := strings.Split(spec, "/")
	seed := parts[0]
	width, height := defaultImageWidth, defaultImageHeight
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil && n > 0 {
			width = n
		}
	}
	if len(parts) > 2 {
		if n, err := strconv.Atoi(parts[2]); err == nil && n > 0 {
			height = n
		}
	}
	return fmt.Sprintf(picsumURLFormat, seed, width, height)
}
