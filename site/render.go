package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const liveReloadTag = "\n<script defer src=\"/livereload.js\"></script>\n"

// RenderPage renders a page against the current snapshot. Standalone
// documents bypass templating entirely; everything else is rendered in three
// stages: the body itself (so content may embed template expressions), the
// content template when one is resolved, and finally the base template.
func (b *Builder) RenderPage(page *Page) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if page.Standalone {
		return page.HTML, nil
	}

	data := map[string]any{
		"site":        b.cfg.SiteData(),
		"page":        pageData(page),
		"collections": b.collectionsData(),
	}

	content, err := b.engine.Render(page.HTML, data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", page.URL, err)
	}

	if page.TemplateName != "" {
		tpl, err := os.ReadFile(filepath.Join(b.cfg.TemplatesRoot(), page.TemplateName))
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", page.TemplateName, err)
		}
		data["content"] = content
		content, err = b.engine.Render(string(tpl), data)
		if err != nil {
			return "", fmt.Errorf("render %s with %s: %w", page.URL, page.TemplateName, err)
		}
	}

	if base := b.base(); base != "" {
		data["content"] = content
		data["version"] = strconv.FormatUint(b.version.Load(), 10)
		content, err = b.engine.Render(base, data)
		if err != nil {
			return "", fmt.Errorf("render %s with base template: %w", page.URL, err)
		}
	}

	// Dev mode injects the client script into every templated render,
	// base template or not, so base-less sites still reload.
	if b.devMode {
		content = injectLiveReload(content)
	}
	return content, nil
}

// RenderURL renders the page registered at url, or ErrPageNotFound.
func (b *Builder) RenderURL(url string) (string, error) {
	page, ok := b.Lookup(url)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, url)
	}
	return b.RenderPage(page)
}

func injectLiveReload(html string) string {
	if idx := strings.Index(html, "</head>"); idx >= 0 {
		return html[:idx] + liveReloadTag + html[idx:]
	}
	return html + liveReloadTag
}
