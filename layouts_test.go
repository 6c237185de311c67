package slotmark

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutRegistryRegisterResolve(t *testing.T) {
	reg := NewLayoutRegistry()
	reg.RegisterHTML("default", `<div data-slot="content"></div>`)

	skeleton, err := reg.Resolve("default", nil)
	require.NoError(t, err)
	assert.Contains(t, skeleton, "data-slot")

	assert.True(t, reg.Has("default"))
	assert.False(t, reg.Has("missing"))
}

func TestLayoutRegistryNotFound(t *testing.T) {
	reg := NewLayoutRegistry()
	_, err := reg.Resolve("missing", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutNotFound))
}

func TestLayoutRegistryDynamicLayout(t *testing.T) {
	reg := NewLayoutRegistry()
	reg.Register("titled", func(item *ContentItem) string {
		return "<h1>" + item.Title() + `</h1><div data-slot="content"></div>`
	})

	item := newTestItem(t, "a.md", "---\ntitle: Dynamic\n---\n", "x")
	skeleton, err := reg.Resolve("titled", item)
	require.NoError(t, err)
	assert.Contains(t, skeleton, "<h1>Dynamic</h1>")
}

func TestLayoutRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"default.html": `<main data-slot="content"></main>`,
		"post.html":    `<article data-slot="content"></article>`,
		"notes.txt":    "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	reg := NewLayoutRegistry()
	require.NoError(t, reg.LoadDir(dir))

	assert.True(t, reg.Has("default"))
	assert.True(t, reg.Has("post"))
	assert.False(t, reg.Has("notes"))
	assert.Len(t, reg.Names(), 2)
}

func TestLayoutRegistryReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.html")
	require.NoError(t, os.WriteFile(path, []byte(`<main data-slot="content"></main>`), 0644))

	reg := NewLayoutRegistry()
	require.NoError(t, reg.LoadDir(dir))

	require.NoError(t, os.WriteFile(path, []byte(`<section data-slot="content"></section>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.html"), []byte(`<div data-slot="content"></div>`), 0644))
	require.NoError(t, reg.Reload())

	skeleton, err := reg.Resolve("default", nil)
	require.NoError(t, err)
	assert.Contains(t, skeleton, "<section")
	assert.True(t, reg.Has("extra"))
}

func TestLayoutRegistryReloadWithoutLoadDir(t *testing.T) {
	reg := NewLayoutRegistry()
	reg.RegisterHTML("default", `<div data-slot="content"></div>`)

	require.NoError(t, reg.Reload())
	assert.True(t, reg.Has("default"))
}
