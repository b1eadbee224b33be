package site

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderPage_BodyOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md", "Welcome to {{.site.name}}\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	out, err := b.RenderURL("/")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome to Demo")
}

func TestRenderPage_ThreeStages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", `
site_name: Demo
collections:
  blog:
    template: post.html
`)
	writeFile(t, root, "templates/base.html",
		"<html><head><title>{{.site.name}}</title></head><body>{{.content}}</body></html>")
	writeFile(t, root, "templates/post.html",
		"<article><h1>{{.page.title}}</h1>{{.content}}</article>")
	writeFile(t, root, "content/blog/hello.md", "---\ntitle: Hello\n---\nworld\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	out, err := b.RenderURL("/blog/hello")
	require.NoError(t, err)
	require.Contains(t, out, "<title>Demo</title>")
	require.Contains(t, out, "<h1>Hello</h1>")
	require.Contains(t, out, "world")
}

func TestRenderPage_CollectionsInContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", `
site_name: Demo
collections:
  blog: {}
`)
	writeFile(t, root, "content/blog/a.md", "---\ntitle: A\ndate: 2024-01-01\n---\nx\n")
	writeFile(t, root, "content/blog/b.md", "---\ntitle: B\ndate: 2023-01-01\n---\nx\n")
	writeFile(t, root, "content/pages/index.md",
		"{{range .collections.blog}}[{{.title}}]{{end}}\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	out, err := b.RenderURL("/")
	require.NoError(t, err)
	require.Contains(t, out, "[A][B]")
}

func TestRenderPage_FrontMatterCoercion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md",
		"{{if .page.draft}}draft{{else}}published{{end}} n={{.page.count}}\n")

	// draft is absent; the missing-variable retry patches it to null.
	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	out, err := b.RenderURL("/")
	require.NoError(t, err)
	require.Contains(t, out, "published")
	require.Contains(t, out, "n=<no value>")

	writeFile(t, root, "content/pages/index.md",
		"---\ndraft: true\ncount: 3\n---\n{{if .page.draft}}draft{{else}}published{{end}} n={{.page.count}}\n")
	require.NoError(t, b.Discover())
	out, err = b.RenderURL("/")
	require.NoError(t, err)
	require.Contains(t, out, "draft")
	require.Contains(t, out, "n=3")
}

func TestRenderPage_StandaloneBypassesTemplates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "templates/base.html", "<html><body>{{.content}}</body></html>")
	src := "<!DOCTYPE html><html><body>{{not a template}}</body></html>"
	writeFile(t, root, "content/pages/landing.html", src)

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	out, err := b.RenderURL("/landing")
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestRenderPage_HTMLFragmentGoesThroughTemplates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "templates/base.html", "<html><body>{{.content}}</body></html>")
	writeFile(t, root, "content/pages/frag.html", "<p>{{.site.name}}</p>")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	out, err := b.RenderURL("/frag")
	require.NoError(t, err)
	require.Contains(t, out, "<body><p>Demo</p></body>")
}

func TestRenderPage_DevModeInjectsClientScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "templates/base.html",
		"<html><head></head><body>{{.content}} v{{.version}}</body></html>")
	writeFile(t, root, "content/pages/index.md", "hi\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	b.BumpVersion()

	out, err := b.RenderURL("/")
	require.NoError(t, err)
	require.NotContains(t, out, "livereload.js")
	require.Contains(t, out, "v1")

	b.SetDevMode(true)
	out, err = b.RenderURL("/")
	require.NoError(t, err)
	require.Contains(t, out, `<script defer src="/livereload.js"></script>`)
	require.Less(t, strings.Index(out, "livereload.js"), strings.Index(out, "</head>"))
}

func TestRenderPage_DevModeInjectsWithoutBaseTemplate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md", "hi\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	b.SetDevMode(true)
	require.NoError(t, b.Discover())

	// No base template means no </head>; the script is appended instead.
	out, err := b.RenderURL("/")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, liveReloadTag))
}

func TestRenderPage_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "templates/base.html", "<html><body>{{.content}} v{{.version}}</body></html>")
	writeFile(t, root, "content/pages/index.md", "# Home\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	b.BumpVersion()

	first, err := b.RenderURL("/")
	require.NoError(t, err)
	second, err := b.RenderURL("/")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRenderURL_NotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	_, err := b.RenderURL("/missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPageNotFound))
}
