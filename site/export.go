package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forgekit/forge/fsutil"
	"github.com/forgekit/forge/minify"
)

// Export renders every page and mirrors static assets into the output
// directory. The output tree is wiped first. A page that fails to render or
// write is logged and counted; the batch continues.
func (b *Builder) Export(ctx context.Context) error {
	start := time.Now()
	out := b.cfg.OutputRoot()

	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	b.mu.RLock()
	pages := make([]*Page, 0, len(b.pages))
	for _, page := range b.pages {
		pages = append(pages, page)
	}
	b.mu.RUnlock()

	built, failed := 0, 0
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.exportPage(out, page); err != nil {
			failed++
			b.logger.Error("build page", "url", page.URL, "error", err)
			continue
		}
		built++
		b.logger.Debug("built", "url", page.URL)
	}

	if err := b.exportStatic(out); err != nil {
		return err
	}

	b.logger.Info("site exported",
		"output", out, "pages", built, "errors", failed, "duration", time.Since(start))
	return nil
}

func (b *Builder) exportPage(out string, page *Page) error {
	html, err := b.RenderPage(page)
	if err != nil {
		return err
	}
	html = b.minifier.HTML(html)

	target := filepath.Join(out, "index.html")
	if page.URL != "/" {
		target = filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(page.URL, "/")), "index.html")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, []byte(html), 0o644)
}

// exportStatic mirrors the static root into {output}/static, minifying CSS,
// JS and HTML files and byte-copying everything else.
func (b *Builder) exportStatic(out string) error {
	staticRoot := b.cfg.StaticRoot()
	if _, err := os.Stat(staticRoot); err != nil {
		return nil
	}

	staticOut := filepath.Join(out, "static")
	if _, ok := b.minifier.(minify.Nop); ok {
		return fsutil.CopyTree(staticRoot, staticOut)
	}
	return filepath.WalkDir(staticRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if fsutil.Hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(staticRoot, path)
		if err != nil {
			return err
		}
		target := filepath.Join(staticOut, rel)

		switch strings.ToLower(filepath.Ext(path)) {
		case ".css":
			return b.transformAsset(path, target, b.minifier.CSS)
		case ".js":
			return b.transformAsset(path, target, b.minifier.JS)
		case ".html":
			return b.transformAsset(path, target, b.minifier.HTML)
		default:
			return fsutil.CopyFile(path, target)
		}
	})
}

func (b *Builder) transformAsset(src, dst string, transform func(string) string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte(transform(string(data))), 0o644)
}
