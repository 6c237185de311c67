package slotmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataSetGetOrder(t *testing.T) {
	m := NewMetadata()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3) // overwrite keeps original position

	assert.Equal(t, []string{"b", "a"}, m.Keys())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestMetadataGetString(t *testing.T) {
	m := NewMetadata()
	m.Set("s", "text")
	m.Set("n", 42)

	assert.Equal(t, "text", m.GetString("s"))
	assert.Equal(t, "", m.GetString("n"), "non-strings read as empty")
	assert.Equal(t, "", m.GetString("missing"))
}

func TestMetadataDelete(t *testing.T) {
	m := NewMetadata()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Delete("a")

	assert.False(t, m.Has("a"))
	assert.Equal(t, []string{"b"}, m.Keys())
}

func TestMetadataCloneIsIndependent(t *testing.T) {
	m := NewMetadata()
	m.Set("a", 1)

	c := m.Clone()
	c.Set("a", 2)
	c.Set("b", 3)

	v, _ := m.Get("a")
	assert.Equal(t, 1, v)
	assert.False(t, m.Has("b"))
}

func TestMetadataMergePrecedence(t *testing.T) {
	global := NewMetadata()
	global.Set("author", "site default")
	global.Set("lang", "en")

	collection := NewMetadata()
	collection.Set("author", "collection default")
	collection.Set("layout", "post")

	item := NewMetadata()
	item.Set("author", "item author")

	merged := global.Clone()
	merged.Merge(collection)
	merged.Merge(item)

	assert.Equal(t, "item author", merged.GetString("author"))
	assert.Equal(t, "post", merged.GetString("layout"))
	assert.Equal(t, "en", merged.GetString("lang"))
}

func TestMetadataMapRoundTrip(t *testing.T) {
	m := NewMetadata()
	m.Set("title", "T")
	m.Set("count", 2)

	round := MetadataFromMap(m.ToMap())
	assert.Equal(t, "T", round.GetString("title"))
	v, _ := round.Get("count")
	assert.Equal(t, 2, v)
}
