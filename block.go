package slotmark

// BlockKind classifies an extracted tagged region.
type BlockKind int

const (
	// KindExecutable marks <ft> / <fasthtml> blocks whose content is handed
	// to the block evaluator.
	KindExecutable BlockKind = iota
	// KindRaw marks <script> blocks passed through verbatim.
	KindRaw
	// KindGeneric marks any other custom tag; content is markdown and may
	// contain further nested blocks.
	KindGeneric
)

func (k BlockKind) String() string {
	switch k {
	case KindExecutable:
		return "executable"
	case KindRaw:
		return "raw"
	case KindGeneric:
		return "generic"
	}
	return "unknown"
}

// Attr is one attribute from a block's opening tag. Boolean attributes
// (present with no value) have Boolean set and an empty Value.
type Attr struct {
	Key     string
	Value   string
	Boolean bool
}

// Attrs is an ordered attribute list.
type Attrs []Attr

// Get returns the value for key and whether it is present. Boolean
// attributes report present with an empty value.
func (a Attrs) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Block is one extracted tagged region of body text. Blocks are created
// during extraction and never mutated afterwards.
type Block struct {
	Tag         string
	Content     string // raw inner text, unprocessed
	Attributes  Attrs
	Kind        BlockKind
	Children    []*Block // nested blocks, generic kind only
	StartLine   int      // 1-indexed line of the opening tag
	SelfClosing bool

	// offsets of the block's full source span within the text it was
	// extracted from, used when splicing rendered output back into prose
	srcStart, srcEnd int
}

// BlockGroups maps tag names to their blocks in document order. Multiple
// same-named blocks are legal and preserved.
type BlockGroups map[string][]*Block

// Add appends a block to its tag's group.
func (g BlockGroups) Add(b *Block) {
	g[b.Tag] = append(g[b.Tag], b)
}

// First returns the first block for a tag, or nil.
func (g BlockGroups) First(tag string) *Block {
	if blocks := g[tag]; len(blocks) > 0 {
		return blocks[0]
	}
	return nil
}

// executableTags open blocks destined for the evaluator.
var executableTags = map[string]bool{
	"ft":       true,
	"fasthtml": true,
}

// rawTags open blocks whose content passes through verbatim.
var rawTags = map[string]bool{
	"script": true,
}

// voidElements are never block delimiters, even when the generic pattern
// matches them; they flow to the markdown renderer as literal HTML.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// plainHTMLTags are ordinary HTML elements. They are legal in content but
// are not extracted as named blocks; the markdown renderer emits them as-is.
var plainHTMLTags = map[string]bool{
	"a": true, "abbr": true, "article": true, "aside": true, "audio": true,
	"b": true, "bdi": true, "bdo": true, "blockquote": true, "button": true,
	"canvas": true, "caption": true, "code": true, "colgroup": true,
	"datalist": true, "dd": true, "details": true, "dialog": true,
	"div": true, "dl": true, "dt": true, "em": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "i": true, "iframe": true, "label": true, "legend": true,
	"li": true, "main": true, "map": true, "mark": true, "menu": true,
	"meter": true, "nav": true, "object": true, "ol": true, "optgroup": true,
	"option": true, "output": true, "p": true, "picture": true, "pre": true,
	"progress": true, "ruby": true, "section": true, "select": true,
	"small": true, "span": true, "strong": true, "style": true,
	"summary": true, "sup": true, "svg": true, "table": true, "tbody": true,
	"td": true, "template": true, "textarea": true, "tfoot": true,
	"th": true, "thead": true, "time": true, "tr": true, "u": true,
	"ul": true, "video": true,
}

// isBlockTag reports whether a tag name opens an extractable block.
func isBlockTag(tag string) bool {
	if voidElements[tag] || plainHTMLTags[tag] {
		return false
	}
	return true
}
