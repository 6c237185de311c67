package slotmark

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// SlotAttr marks a layout element as a named insertion point.
	SlotAttr = "data-slot"
	// ShowAttr holds a comma-separated visibility condition list of slot
	// names, each optionally negated with "!".
	ShowAttr = "data-show"
)

// SlotFiller fills layout skeletons with rendered content fragments and
// applies conditional visibility. Stateless apart from its logger, so one
// instance serves concurrent renders.
type SlotFiller struct {
	logger Logger
}

func NewSlotFiller(logger Logger) *SlotFiller {
	if logger == nil {
		logger = NopLogger{}
	}
	return &SlotFiller{logger: logger}
}

// Fill replaces every slot-marked element in the layout with its fragments.
// A slot with no content is removed from the tree; a slot with N fragments
// is duplicated N times. Filling is all-or-nothing: any slot's failure
// aborts the whole fill.
func (f *SlotFiller) Fill(layout string, slots map[string][]string) RenderResult {
	tree, err := parseLayout(layout)
	if err != nil {
		return Failure("slots: parse layout: %v", err)
	}

	var remove []*html.Node
	for _, el := range findElements(tree, SlotAttr) {
		name := attrValue(el, SlotAttr)
		fragments := nonBlank(slots[name])
		if len(fragments) == 0 {
			remove = append(remove, el)
			continue
		}

		// Clone before filling so duplicates start from the slot's
		// original non-slot attributes, not the first fragment's merge.
		proto := cloneShallow(el)
		if err := fillElement(el, fragments[0]); err != nil {
			return Failure("slots: slot %q: %v", name, err)
		}
		prev := el
		for _, fragment := range fragments[1:] {
			dup := cloneShallow(proto)
			prev.Parent.InsertBefore(dup, prev.NextSibling)
			if err := fillElement(dup, fragment); err != nil {
				return Failure("slots: slot %q: %v", name, err)
			}
			prev = dup
		}
	}

	// Sibling text nodes survive element removal untouched.
	for _, el := range remove {
		if el.Parent != nil {
			el.Parent.RemoveChild(el)
		}
	}

	return Success(renderTree(tree))
}

// FillStrings is the single-fragment convenience path: each value is
// wrapped in a div inheriting the target slot's class, then filled as a
// one-element list.
func (f *SlotFiller) FillStrings(layout string, slots map[string]string) RenderResult {
	tree, err := parseLayout(layout)
	if err != nil {
		return Failure("slots: parse layout: %v", err)
	}
	classes := slotClasses(tree)

	expanded := make(map[string][]string, len(slots))
	for name, content := range slots {
		if strings.TrimSpace(content) == "" {
			continue
		}
		if class := classes[name]; class != "" {
			content = fmt.Sprintf(`<div class="%s">%s</div>`, class, content)
		} else {
			content = "<div>" + content + "</div>"
		}
		expanded[name] = []string{content}
	}
	return f.Fill(layout, expanded)
}

// ApplyVisibility hides every element whose visibility condition is not
// satisfied by the filled-slot set, by appending display:none to its style.
// Runs before slot filling so removed slots cannot unhide anything. A parse
// failure is non-fatal: the input comes back unchanged.
func (f *SlotFiller) ApplyVisibility(layout string, filled map[string]bool) string {
	tree, err := parseLayout(layout)
	if err != nil {
		f.logger.Warn("slots: visibility pass skipped, layout did not parse", "error", err)
		return layout
	}
	changed := false
	for _, el := range findElements(tree, ShowAttr) {
		if conditionVisible(attrValue(el, ShowAttr), filled) {
			continue
		}
		hideElement(el)
		changed = true
	}
	if !changed {
		return layout
	}
	return renderTree(tree)
}

// FilledSlots reports which slot names carry truthy content, for use as the
// visibility pass's filled-slot set.
func FilledSlots(slots map[string][]string) map[string]bool {
	filled := make(map[string]bool, len(slots))
	for name, fragments := range slots {
		if len(nonBlank(fragments)) > 0 {
			filled[name] = true
		}
	}
	return filled
}

// conditionVisible evaluates a comma-separated condition list. A filled
// negated name hides the element regardless of positive matches; with no
// positive names at all the element shows unless a negation fired; an empty
// list is always visible.
func conditionVisible(list string, filled map[string]bool) bool {
	hasPositive := false
	positiveMatch := false
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "!") {
			if filled[strings.TrimSpace(tok[1:])] {
				return false
			}
			continue
		}
		hasPositive = true
		if filled[tok] {
			positiveMatch = true
		}
	}
	if !hasPositive {
		return true
	}
	return positiveMatch
}

func hideElement(el *html.Node) {
	style := strings.TrimSpace(attrValue(el, "style"))
	if style != "" {
		style = strings.TrimRight(style, "; ") + "; display: none;"
	} else {
		style = "display: none;"
	}
	setAttr(el, "style", style)
}

// fillElement replaces el's content with the parsed fragment. A fragment
// with a single element root merges into el: el keeps its own non-slot
// attributes, overlaid by the root's attributes, with class lists unioned;
// el adopts the root's tag only when a generic div wrapper is replaced by a
// non-div root. Fragments with multiple roots (or loose text) become el's
// children as-is.
func fillElement(el *html.Node, fragment string) error {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return err
	}
	removeAttr(el, SlotAttr)

	root := soleElement(nodes)
	if root == nil {
		setChildren(el, nodes)
		return nil
	}

	if el.Data == "div" && root.Data != "div" {
		el.Data = root.Data
		el.DataAtom = root.DataAtom
	}
	slotClass := attrValue(el, "class")
	for _, a := range root.Attr {
		if a.Key == "class" {
			continue
		}
		setAttr(el, a.Key, a.Val)
	}
	if merged := mergeClasses(slotClass, attrValue(root, "class")); merged != "" {
		setAttr(el, "class", merged)
	}
	setChildren(el, detachChildren(root))
	return nil
}

// mergeClasses unions two space-separated class lists, de-duplicated and
// alphabetically sorted.
func mergeClasses(a, b string) string {
	set := make(map[string]bool)
	for _, c := range strings.Fields(a + " " + b) {
		set[c] = true
	}
	if len(set) == 0 {
		return ""
	}
	classes := make([]string, 0, len(set))
	for c := range set {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return strings.Join(classes, " ")
}

// slotClasses maps slot names to their element's class attribute.
func slotClasses(tree *html.Node) map[string]string {
	classes := make(map[string]string)
	for _, el := range findElements(tree, SlotAttr) {
		name := attrValue(el, SlotAttr)
		if _, seen := classes[name]; !seen {
			classes[name] = attrValue(el, "class")
		}
	}
	return classes
}

// parseLayout parses a layout as a document when it declares one, otherwise
// as a body fragment rooted under a synthetic document node so top-level
// slot elements still have a parent for duplication and removal.
func parseLayout(layout string) (*html.Node, error) {
	head := strings.ToLower(layout)
	if len(head) > 1024 {
		head = head[:1024]
	}
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") {
		return html.Parse(strings.NewReader(layout))
	}
	nodes, err := parseFragment(layout)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

func renderTree(tree *html.Node) string {
	var buf bytes.Buffer
	if tree.Type == html.DocumentNode {
		for c := tree.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&buf, c)
		}
		return buf.String()
	}
	_ = html.Render(&buf, tree)
	return buf.String()
}

// findElements collects, in document order, every element carrying attr.
func findElements(n *html.Node, attr string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAttr(n, attr) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// soleElement returns the single element root of a fragment, or nil when
// the fragment has zero or several element roots or significant loose text.
func soleElement(nodes []*html.Node) *html.Node {
	var el *html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			if el != nil {
				return nil
			}
			el = n
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil
			}
		}
	}
	return el
}

func cloneShallow(n *html.Node) *html.Node {
	c := &html.Node{
		Type:     n.Type,
		Data:     n.Data,
		DataAtom: n.DataAtom,
	}
	c.Attr = append([]html.Attribute(nil), n.Attr...)
	return c
}

func detachChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		out = append(out, c)
	}
	return out
}

func setChildren(n *html.Node, children []*html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func nonBlank(fragments []string) []string {
	out := fragments[:0:0]
	for _, f := range fragments {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}
