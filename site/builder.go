package site

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/forgekit/forge/config"
	"github.com/forgekit/forge/frontmatter"
	"github.com/forgekit/forge/minify"
	"github.com/forgekit/forge/renderer"
	"github.com/forgekit/forge/templatex"
)

// The reserved content type whose pages map to root-relative URLs and never
// form a collection.
const rootContentType = "pages"

const baseTemplateFile = "base.html"

// Builder owns the site snapshot: the page set and the derived collections.
// Discovery replaces the snapshot wholesale under the write lock; rendering
// and route lookup run under the read lock, so readers never observe a
// half-built site.
type Builder struct {
	cfg      *config.Config
	renderer *renderer.Renderer
	engine   *templatex.Engine
	minifier minify.Minifier
	logger   *slog.Logger

	mu           sync.RWMutex
	pages        map[string]*Page
	collections  map[string][]*Page
	hasErrorPage bool

	baseMu       sync.RWMutex
	baseTemplate string

	version atomic.Uint64
	devMode bool
}

// NewBuilder constructs a Builder and loads the base template if one exists.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		cfg:         cfg,
		renderer:    renderer.New(),
		engine:      templatex.New(),
		minifier:    minify.New(cfg),
		logger:      logger,
		pages:       map[string]*Page{},
		collections: map[string][]*Page{},
	}
	b.ReloadBaseTemplate()
	return b
}

// SetDevMode enables live-reload script injection. Call before serving.
func (b *Builder) SetDevMode(dev bool) { b.devMode = dev }

// Version returns the current build version.
func (b *Builder) Version() uint64 { return b.version.Load() }

// BumpVersion increments the build version. It is only called from the
// serialized rebuild path.
func (b *Builder) BumpVersion() uint64 { return b.version.Add(1) }

// ReloadBaseTemplate re-reads base.html from the templates directory. The
// base template is optional; a read failure is only a warning.
func (b *Builder) ReloadBaseTemplate() {
	data, err := os.ReadFile(filepath.Join(b.cfg.TemplatesRoot(), baseTemplateFile))
	if err != nil {
		b.logger.Warn("base template not loaded", "error", err)
		return
	}
	b.baseMu.Lock()
	b.baseTemplate = string(data)
	b.baseMu.Unlock()
}

func (b *Builder) base() string {
	b.baseMu.RLock()
	defer b.baseMu.RUnlock()
	return b.baseTemplate
}

// Discover rescans the content root and replaces the snapshot. A missing
// content root leaves an empty site and is not an error; a document that
// fails to load aborts the scan.
func (b *Builder) Discover() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pages = map[string]*Page{}
	b.collections = map[string][]*Page{}
	b.hasErrorPage = false

	root := b.cfg.ContentRoot()
	if _, err := os.Stat(root); err != nil {
		b.logger.Error("content directory not found", "dir", root)
		return nil
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".html" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		page, err := b.loadPage(path, filepath.ToSlash(rel), ext)
		if err != nil {
			return fmt.Errorf("load %s: %w", rel, err)
		}

		if prior, ok := b.pages[page.URL]; ok {
			b.logger.Warn("url collision, later file wins",
				"url", page.URL, "kept", page.SourcePath, "dropped", prior.SourcePath)
		}
		b.pages[page.URL] = page
		if page.URL == "/404" {
			b.hasErrorPage = true
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("discover content: %w", walkErr)
	}

	b.buildCollections()
	b.logger.Info("content discovered", "pages", len(b.pages), "collections", len(b.collections))
	return nil
}

func (b *Builder) loadPage(path, rel, ext string) (*Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	contentType, url := deriveURL(rel)

	matter, body, err := frontmatter.Split(string(raw))
	if err != nil {
		return nil, err
	}

	var html string
	standalone := false
	if ext == ".md" {
		rendered, err := b.renderer.Render([]byte(body))
		if err != nil {
			return nil, err
		}
		html = string(rendered)
	} else {
		html = body
		if strings.Contains(body, "<!DOCTYPE") || strings.Contains(body, "<html") {
			standalone = true
		}
	}

	page := &Page{
		SourcePath:  path,
		URL:         url,
		ContentType: contentType,
		Matter:      matter,
		HTML:        html,
		Standalone:  standalone,
	}
	if !standalone {
		page.TemplateName = b.resolveTemplate(contentType)
	}
	return page, nil
}

// deriveURL maps a content-relative source path to its content type and URL.
// Files under "pages" flatten to root URLs; everywhere else the first path
// segment is both the content type and the URL prefix, with "index" stems
// flattened away.
func deriveURL(rel string) (contentType, url string) {
	segments := strings.Split(rel, "/")
	stem := func(s string) string { return strings.TrimSuffix(s, filepath.Ext(s)) }

	if len(segments) == 1 {
		name := stem(segments[0])
		if name == "index" {
			return rootContentType, "/"
		}
		return rootContentType, "/" + name
	}

	contentType = segments[0]
	last := stem(segments[len(segments)-1])

	if contentType == rootContentType {
		if last == "index" {
			return contentType, "/"
		}
		return contentType, "/" + last
	}

	url = "/" + contentType
	if last != "index" {
		url += "/" + last
	}
	return contentType, url
}

// resolveTemplate finds the content template for a content type: an explicit
// per-collection name, else the {type}.html convention. A resolution that
// points at the base template means no content template.
func (b *Builder) resolveTemplate(contentType string) string {
	name := contentType + ".html"
	if col, ok := b.cfg.Collection(contentType); ok && col.Template != "" {
		name = col.Template
		if name == baseTemplateFile {
			return ""
		}
		if _, err := os.Stat(filepath.Join(b.cfg.TemplatesRoot(), name)); err != nil {
			b.logger.Warn("template not found for collection", "template", name, "collection", contentType)
			return ""
		}
		return name
	}
	if name == baseTemplateFile {
		return ""
	}
	if _, err := os.Stat(filepath.Join(b.cfg.TemplatesRoot(), name)); err != nil {
		return ""
	}
	return name
}

// buildCollections groups non-root pages by content type and sorts each
// configured collection with a case-sensitive string comparison on the
// configured front-matter field. Callers hold the write lock.
func (b *Builder) buildCollections() {
	b.collections = map[string][]*Page{}

	urls := make([]string, 0, len(b.pages))
	for url := range b.pages {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		page := b.pages[url]
		if page.ContentType == rootContentType {
			continue
		}
		b.collections[page.ContentType] = append(b.collections[page.ContentType], page)
	}

	for name, items := range b.collections {
		col, ok := b.cfg.Collection(name)
		if !ok {
			continue
		}
		descending := col.SortOrder == "desc"
		sort.SliceStable(items, func(i, j int) bool {
			a := items[i].Matter.Get(col.SortBy, "")
			c := items[j].Matter.Get(col.SortBy, "")
			if descending {
				return a > c
			}
			return a < c
		})
	}
}

// Lookup returns the page registered for the URL.
func (b *Builder) Lookup(url string) (*Page, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	page, ok := b.pages[url]
	return page, ok
}

// HasErrorPage reports whether a /404 page was discovered.
func (b *Builder) HasErrorPage() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasErrorPage
}

// Routes returns the URL → content type map of the current snapshot.
func (b *Builder) Routes() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	routes := make(map[string]string, len(b.pages))
	for url, page := range b.pages {
		routes[url] = page.ContentType
	}
	return routes
}
