package slotmark

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrLayoutNotFound reports a layout name with no registered layout. The
// renderer converts it into a page-level error fragment instead of
// propagating it.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutFunc produces layout skeleton HTML for an item. Static layouts
// ignore the item; dynamic ones may vary on its metadata.
type LayoutFunc func(item *ContentItem) string

// LayoutRegistry maps layout names to layout functions. Safe for
// concurrent use.
type LayoutRegistry struct {
	mu      sync.RWMutex
	layouts map[string]LayoutFunc
	dir     string // last LoadDir source, empty when none
}

func NewLayoutRegistry() *LayoutRegistry {
	return &LayoutRegistry{layouts: make(map[string]LayoutFunc)}
}

// Register binds a layout function to a name, replacing any previous
// binding.
func (r *LayoutRegistry) Register(name string, fn LayoutFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[name] = fn
}

// RegisterHTML registers a static skeleton string under a name.
func (r *LayoutRegistry) RegisterHTML(name, skeleton string) {
	r.Register(name, func(*ContentItem) string { return skeleton })
}

// Resolve returns the skeleton HTML for name applied to item.
func (r *LayoutRegistry) Resolve(name string, item *ContentItem) (string, error) {
	r.mu.RLock()
	fn, ok := r.layouts[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
	}
	return fn(item), nil
}

// Has reports whether a layout is registered under name.
func (r *LayoutRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.layouts[name]
	return ok
}

// Names lists registered layout names in no particular order.
func (r *LayoutRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	return names
}

// LoadDir registers every *.html file in dir as a static layout named by
// its filename stem.
func (r *LayoutRegistry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("layouts: read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("layouts: read %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".html")
		r.RegisterHTML(name, string(data))
	}
	r.mu.Lock()
	r.dir = dir
	r.mu.Unlock()
	return nil
}

// Reload re-reads the directory a previous LoadDir came from, picking up
// edited and newly added layout files. A registry never loaded from disk is
// left untouched.
func (r *LayoutRegistry) Reload() error {
	r.mu.RLock()
	dir := r.dir
	r.mu.RUnlock()
	if dir == "" {
		return nil
	}
	return r.LoadDir(dir)
}
