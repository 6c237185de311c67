package slotmark

import "sort"

// Document is one parsed source unit: the raw frontmatter text and the body
// that follows it. Immutable after the split.
type Document struct {
	RawMetadata string // header region between the --- delimiters, may be empty
	Body        string // everything after the closing delimiter
}

// Metadata is an ordered mapping of string keys to scalar or list values,
// parsed from a document's frontmatter. Insertion order is preserved so
// serialized output is stable.
type Metadata struct {
	keys   []string
	values map[string]any
}

// NewMetadata returns an empty metadata map.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]any)}
}

// Set stores a value, appending the key on first insertion.
func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it is present.
func (m *Metadata) Get(key string) (any, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// GetString returns the value for key as a string, or "" when absent or not
// a string.
func (m *Metadata) GetString(key string) string {
	v, ok := m.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key if present.
func (m *Metadata) Delete(key string) {
	if m == nil || m.values == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a shallow copy.
func (m *Metadata) Clone() *Metadata {
	out := NewMetadata()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// Merge copies every entry from other into m, overwriting existing keys.
// Nil values in other are skipped.
func (m *Metadata) Merge(other *Metadata) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		if v := other.values[k]; v != nil {
			m.Set(k, v)
		}
	}
}

// ToMap returns a plain map copy, losing key order.
func (m *Metadata) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// MetadataFromMap builds a Metadata from a plain map with keys in sorted
// order, so the result is deterministic.
func MetadataFromMap(src map[string]any) *Metadata {
	out := NewMetadata()
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Set(k, src[k])
	}
	return out
}
