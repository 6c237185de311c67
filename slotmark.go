// Package slotmark turns markdown documents with tagged content blocks
// into HTML pages by filling named slots in layout skeletons.
package slotmark

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slotmark/slotmark/internal/cache"
)

// Collection groups content files under a directory with shared metadata
// defaults and a default layout.
type Collection struct {
	Name          string
	Dir           string
	DefaultLayout string
	DefaultMeta   *Metadata
}

// Site loads content collections and renders them through layouts. All
// read methods are safe for concurrent use; loading and rebuilding take
// the write lock.
type Site struct {
	mu          sync.RWMutex
	logger      Logger
	renderer    *Renderer
	evaluator   Evaluator
	filler      *SlotFiller
	layouts     *LayoutRegistry
	cache       cache.Cache
	defaultMeta *Metadata
	collections map[string]*Collection
	items       map[string]*ContentItem
	watcher     *Watcher
}

// SiteOption configures a Site.
type SiteOption func(*Site)

// WithLogger sets the site logger, shared with its renderer and filler.
func WithLogger(l Logger) SiteOption {
	return func(s *Site) { s.logger = l }
}

// WithCache installs a render cache. Without one every render is fresh.
func WithCache(c cache.Cache) SiteOption {
	return func(s *Site) { s.cache = c }
}

// WithLayouts replaces the site's layout registry.
func WithLayouts(reg *LayoutRegistry) SiteOption {
	return func(s *Site) { s.layouts = reg }
}

// WithDefaultMetadata sets global metadata defaults, overridden by
// collection defaults and item frontmatter in that order.
func WithDefaultMetadata(meta *Metadata) SiteOption {
	return func(s *Site) { s.defaultMeta = meta }
}

// WithBlockEvaluator sets the evaluator handed executable blocks.
func WithBlockEvaluator(e Evaluator) SiteOption {
	return func(s *Site) { s.evaluator = e }
}

// NewSite creates an empty site; add collections to load content.
func NewSite(opts ...SiteOption) *Site {
	s := &Site{
		logger:      NopLogger{},
		layouts:     NewLayoutRegistry(),
		defaultMeta: NewMetadata(),
		collections: make(map[string]*Collection),
		items:       make(map[string]*ContentItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		ropts := []RendererOption{WithRenderLogger(s.logger)}
		if s.evaluator != nil {
			ropts = append(ropts, WithEvaluator(s.evaluator))
		}
		s.renderer = NewRenderer(ropts...)
	}
	s.filler = NewSlotFiller(s.logger)
	return s
}

// Layouts exposes the registry for layout registration.
func (s *Site) Layouts() *LayoutRegistry { return s.layouts }

// AddCollection registers a collection and loads its content files.
func (s *Site) AddCollection(name, dir string, defaults *Metadata, layout string) error {
	if defaults == nil {
		defaults = NewMetadata()
	}
	col := &Collection{
		Name:          name,
		Dir:           dir,
		DefaultLayout: layout,
		DefaultMeta:   defaults,
	}

	s.mu.Lock()
	s.collections[name] = col
	s.mu.Unlock()

	return s.loadCollection(col)
}

// loadCollection walks the collection directory and loads every .md file.
func (s *Site) loadCollection(col *Collection) error {
	err := filepath.WalkDir(col.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != col.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		if err := s.loadFile(col, path); err != nil {
			s.logger.Error("site: failed to load file", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("site: load collection %q: %w", col.Name, err)
	}
	s.logger.Info("site: collection loaded", "collection", col.Name, "items", s.collectionCount(col.Name))
	return nil
}

// loadFile parses one content file into an item. Duplicate slugs keep the
// first item loaded and log a warning.
func (s *Site) loadFile(col *Collection, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	meta, doc := SplitFrontmatter(string(data), s.logger)
	merged := s.defaultMeta.Clone()
	merged.Merge(col.DefaultMeta)
	merged.Merge(meta)
	if col.DefaultLayout != "" && !merged.Has(MetaLayout) {
		merged.Set(MetaLayout, col.DefaultLayout)
	}

	blocks, warnings := ParseBlocks(doc.Body, s.logger)
	for _, w := range warnings {
		s.logger.Warn("site: block discarded", "path", path, "error", w.Error())
	}

	item := NewContentItem(path, col.Name, merged, doc.Body, blocks)
	item.SourceMod = info.ModTime()

	s.mu.Lock()
	defer s.mu.Unlock()
	slug := item.Slug()
	if existing, ok := s.items[slug]; ok && existing.SourcePath != path {
		s.logger.Warn("site: duplicate slug, keeping first", "slug", slug,
			"kept", existing.SourcePath, "skipped", path)
		return nil
	}
	s.items[slug] = item
	return nil
}

// Collections lists registered collection names, sorted.
func (s *Site) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemCount returns the number of loaded items across all collections.
func (s *Site) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Site) collectionCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		if it.Collection == name {
			n++
		}
	}
	return n
}

// Items returns items, optionally filtered to one collection, sorted by
// slug for stable iteration.
func (s *Site) Items(collection string) []*ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ContentItem
	for _, it := range s.items {
		if collection == "" || it.Collection == collection {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug() < out[j].Slug() })
	return out
}

// Item returns the item with the given slug.
func (s *Site) Item(slug string) (*ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[slug]
	return it, ok
}

// RawContent returns the raw markdown of the item's content block.
func (s *Site) RawContent(slug string) (string, bool) {
	it, ok := s.Item(slug)
	if !ok {
		return "", false
	}
	return it.RawContent(), true
}

// Tags returns tag usage counts, optionally scoped to one collection.
func (s *Site) Tags(collection string) map[string]int {
	counts := make(map[string]int)
	for _, it := range s.Items(collection) {
		for _, tag := range it.Tags() {
			counts[tag]++
		}
	}
	return counts
}

// AllTags returns the sorted set of tags in use.
func (s *Site) AllTags(collection string) []string {
	counts := s.Tags(collection)
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// RebuildContent drops every loaded item and reloads all collections,
// invalidating the render cache. Items are replaced wholesale.
func (s *Site) RebuildContent() error {
	s.mu.Lock()
	s.items = make(map[string]*ContentItem)
	cols := make([]*Collection, 0, len(s.collections))
	for _, col := range s.collections {
		cols = append(cols, col)
	}
	s.mu.Unlock()

	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	for _, col := range cols {
		if err := s.loadCollection(col); err != nil {
			return err
		}
	}
	s.InvalidateCache("", "")
	return nil
}

// InvalidateCache drops cached renders; empty selectors widen the match.
func (s *Site) InvalidateCache(collection, path string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(collection, path); err != nil {
		s.logger.Error("site: cache invalidation failed", "error", err)
	}
}

// Render renders the item with the given slug. An unknown slug yields a
// page-level error fragment.
func (s *Site) Render(ctx context.Context, slug string) string {
	it, ok := s.Item(slug)
	if !ok {
		return ErrorHTML("site", fmt.Sprintf("no item with slug %q", slug))
	}
	return s.RenderItem(ctx, it)
}

// RenderItem renders one item through its layout. Failures surface as
// inline error fragments; a failing block never blanks the page, and a
// failing layout resolution replaces the page content with one fragment.
func (s *Site) RenderItem(ctx context.Context, it *ContentItem) string {
	key := cache.Key{Collection: it.Collection, Path: it.SourcePath, Layout: it.Layout()}
	if s.cache != nil && !it.SourceMod.IsZero() {
		if html, ok := s.cache.Get(key, it.SourceMod); ok {
			s.logger.Debug("site: cache hit", "slug", it.Slug())
			return html
		}
	}

	layout, err := s.layouts.Resolve(it.Layout(), it)
	if err != nil {
		s.logger.Error("site: layout resolution failed", "slug", it.Slug(), "layout", it.Layout(), "error", err)
		return ErrorHTML("layout", err.Error())
	}

	// One pass per item render keeps heading IDs unique across blocks
	// and prose.
	pass := s.renderer.NewPass(ctx)
	rendered := pass.RenderBlocks(it.Blocks)
	if len(rendered["content"]) == 0 {
		prose := pass.RenderProse(it.Content, it.Blocks)
		if prose.OK() && prose.Content != "" {
			rendered["content"] = []string{prose.Content}
		}
	}

	layout = s.filler.ApplyVisibility(layout, FilledSlots(rendered))
	res := s.filler.Fill(layout, rendered)
	if !res.OK() {
		s.logger.Error("site: slot filling failed", "slug", it.Slug(), "error", res.Error)
		return ErrorHTML("render", res.Error)
	}

	if s.cache != nil && !it.SourceMod.IsZero() {
		if err := s.cache.Store(key, res.Content, it.SourceMod); err != nil {
			s.logger.Warn("site: cache store failed", "slug", it.Slug(), "error", err)
		}
	}
	return res.Content
}

// StartWatching reloads content files as they change on disk. Layout file
// changes trigger a full rebuild since any page may use them.
func (s *Site) StartWatching(rootDir string, debounce time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return fmt.Errorf("site: already watching")
	}

	w, err := NewWatcher(rootDir, debounce, s.handleFileChange, s.logger)
	if err != nil {
		return fmt.Errorf("site: start watching: %w", err)
	}
	s.watcher = w
	w.Start()
	s.logger.Info("site: watching for changes", "dir", rootDir)
	return nil
}

// StopWatching stops the file watcher.
func (s *Site) StopWatching() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

func (s *Site) handleFileChange(relPath string) error {
	if filepath.Ext(relPath) == ".html" {
		// Layout edits leave items intact; reload the registry and drop
		// rendered pages so the next render picks up the new skeletons.
		s.logger.Info("site: layout changed, reloading layouts", "path", relPath)
		if err := s.layouts.Reload(); err != nil {
			return err
		}
		s.InvalidateCache("", "")
		return nil
	}
	s.logger.Info("site: content changed, rebuilding", "path", relPath)
	return s.RebuildContent()
}
