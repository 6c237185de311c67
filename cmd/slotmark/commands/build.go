package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/slotmark/slotmark"
	"github.com/slotmark/slotmark/internal/cache"
	"github.com/slotmark/slotmark/internal/config"
)

// BuildCommand implements the build command. It loads the site
// configuration, renders every content item through its layout, and writes
// the resulting pages to the output directory.
func BuildCommand(args []string) error {
	dir := "."
	noCache := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--no-cache" {
			noCache = true
		} else if !strings.HasPrefix(arg, "-") {
			dir = arg
		} else {
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return err
	}

	logger := slotmark.NewLogger("slotmark")
	opts := []slotmark.SiteOption{slotmark.WithLogger(logger)}

	var renderCache cache.Cache
	if cfg.Cache.Enabled && !noCache {
		cachePath := filepath.Join(dir, cfg.CachePath())
		if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		renderCache, err = cache.NewSQLiteCache(cachePath)
		if err != nil {
			return fmt.Errorf("failed to open render cache: %w", err)
		}
		defer renderCache.Close()
		opts = append(opts, slotmark.WithCache(renderCache))
	}
	if len(cfg.Metadata) > 0 {
		opts = append(opts, slotmark.WithDefaultMetadata(slotmark.MetadataFromMap(cfg.Metadata)))
	}

	site := slotmark.NewSite(opts...)

	layoutsDir := filepath.Join(dir, cfg.LayoutsDir)
	if _, err := os.Stat(layoutsDir); err == nil {
		if err := site.Layouts().LoadDir(layoutsDir); err != nil {
			return err
		}
	}
	if !site.Layouts().Has(slotmark.DefaultLayoutName) {
		site.Layouts().RegisterHTML(slotmark.DefaultLayoutName, `<main data-slot="content"></main>`)
	}

	for name, col := range cfg.Collections {
		colDir := filepath.Join(dir, col.Dir(cfg.ContentDir, name))
		if _, err := os.Stat(colDir); os.IsNotExist(err) {
			continue
		}
		var defaults *slotmark.Metadata
		if len(col.Metadata) > 0 {
			defaults = slotmark.MetadataFromMap(col.Metadata)
		}
		if err := site.AddCollection(name, colDir, defaults, col.Layout); err != nil {
			return err
		}
	}

	if site.ItemCount() == 0 {
		fmt.Println("No content files found; nothing to build.")
		return nil
	}

	outDir := filepath.Join(dir, cfg.OutputDir)
	ctx := context.Background()
	built := 0
	for _, item := range site.Items("") {
		html := site.RenderItem(ctx, item)
		outPath := outputPath(outDir, item)
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := atomic.WriteFile(outPath, strings.NewReader(html)); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		built++
	}

	fmt.Printf("✅ Built %d pages into %s\n", built, outDir)
	return nil
}

// outputPath places items under their collection directory; the root
// "content" collection writes to the output root.
func outputPath(outDir string, item *slotmark.ContentItem) string {
	name := item.Slug() + ".html"
	if item.Collection == "" || item.Collection == "content" {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(outDir, item.Collection, name)
}
