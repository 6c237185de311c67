package slotmark

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	slug "github.com/goliatone/go-slug"
)

// Reserved metadata keys with dedicated accessors on ContentItem.
const (
	MetaSlug   = "slug"
	MetaTitle  = "title"
	MetaLayout = "layout"
	MetaTags   = "tags"
	MetaStatus = "status"
	MetaImage  = "image"
)

// DefaultLayoutName is used when an item's metadata names no layout.
const DefaultLayoutName = "default"

const defaultImageTemplate = "https://picsum.photos/seed/%s/%d/%d"

// ContentItem is a loaded document: source location, merged metadata,
// body text, and the block groups extracted from the body. Items are
// replaced wholesale on rebuild, never mutated in place.
type ContentItem struct {
	SourcePath string
	Collection string
	Content    string
	Meta       *Metadata
	Blocks     BlockGroups

	// SourceMod is the source file's mtime, used for cache staleness.
	// Zero for items not loaded from disk.
	SourceMod time.Time
}

// NewContentItem builds an item from a parsed document. Metadata is the
// already merged view (item over collection defaults over global defaults).
func NewContentItem(sourcePath, collection string, meta *Metadata, content string, blocks BlockGroups) *ContentItem {
	if meta == nil {
		meta = NewMetadata()
	}
	if blocks == nil {
		blocks = BlockGroups{}
	}
	return &ContentItem{
		SourcePath: sourcePath,
		Collection: collection,
		Content:    content,
		Meta:       meta,
		Blocks:     blocks,
	}
}

// Slug comes from metadata when set, otherwise the filename stem. Never
// empty for items loaded from a file.
func (it *ContentItem) Slug() string {
	if s := it.Meta.GetString(MetaSlug); s != "" {
		return s
	}
	base := filepath.Base(it.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title comes from metadata when set, otherwise the slug humanized
// (hyphens to spaces, words title-cased).
func (it *ContentItem) Title() string {
	if t := it.Meta.GetString(MetaTitle); t != "" {
		return t
	}
	return humanize(it.Slug())
}

// Layout names the layout this item renders with.
func (it *ContentItem) Layout() string {
	if l := it.Meta.GetString(MetaLayout); l != "" {
		return l
	}
	return DefaultLayoutName
}

// Status returns the publication status, empty when unset.
func (it *ContentItem) Status() string {
	return it.Meta.GetString(MetaStatus)
}

// Tags returns the item's tags normalized: lowercased, trimmed,
// de-duplicated, sorted. A comma-separated string and a list are both
// accepted in metadata.
func (it *ContentItem) Tags() []string {
	raw, ok := it.Meta.Get(MetaTags)
	if !ok {
		return nil
	}
	return NormalizeTags(raw)
}

// Image returns the item's image URL: an explicit metadata value wins,
// otherwise a deterministic placeholder seeded by the slug.
func (it *ContentItem) Image() string {
	if img := it.Meta.GetString(MetaImage); img != "" {
		return img
	}
	s := it.Slug()
	if s == "" {
		return ""
	}
	seed, err := slug.Normalize(s)
	if err != nil || seed == "" {
		seed = s
	}
	return fmt.Sprintf(defaultImageTemplate, seed, defaultImageWidth, defaultImageHeight)
}

// RawContent returns the first block of the "content" group, or the whole
// body when no content block was extracted.
func (it *ContentItem) RawContent() string {
	if b := it.Blocks.First("content"); b != nil {
		return b.Content
	}
	return it.Content
}

// Get passes through to metadata for unreserved keys.
func (it *ContentItem) Get(key string) (any, bool) {
	return it.Meta.Get(key)
}

// ToMap serializes the item for caching and external storage. Blocks are
// not carried; they are re-derivable from Content.
func (it *ContentItem) ToMap() map[string]any {
	return map[string]any{
		"slug":        it.Slug(),
		"content":     it.Content,
		"source_path": it.SourcePath,
		"collection":  it.Collection,
		"metadata":    it.Meta.ToMap(),
	}
}

// ItemFromMap is the inverse of ToMap. Block groups are re-extracted from
// the content so the round trip restores a fully usable item.
func ItemFromMap(data map[string]any, logger Logger) (*ContentItem, error) {
	content, _ := data["content"].(string)
	sourcePath, _ := data["source_path"].(string)
	collection, _ := data["collection"].(string)
	if sourcePath == "" {
		return nil, fmt.Errorf("item: missing source_path")
	}

	meta := NewMetadata()
	if m, ok := data["metadata"].(map[string]any); ok {
		meta = MetadataFromMap(m)
	}
	if s, ok := data["slug"].(string); ok && s != "" && !meta.Has(MetaSlug) {
		meta.Set(MetaSlug, s)
	}

	blocks, _ := ParseBlocks(content, logger)
	return NewContentItem(sourcePath, collection, meta, content, blocks), nil
}

// NormalizeTags converts a metadata tags value (string, comma-separated
// string, or list) to sorted unique lowercase strings.
func NormalizeTags(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, t := range v {
			parts = append(parts, fmt.Sprint(t))
		}
	default:
		parts = []string{fmt.Sprint(v)}
	}

	seen := make(map[string]bool, len(parts))
	var tags []string
	for _, t := range parts {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func humanize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
