package site

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgekit/forge/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg, err := config.Load(root)
	require.NoError(t, err)
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeriveURL(t *testing.T) {
	cases := []struct {
		rel      string
		wantType string
		wantURL  string
	}{
		{"index.md", "pages", "/"},
		{"about.md", "pages", "/about"},
		{"pages/index.md", "pages", "/"},
		{"pages/about.md", "pages", "/about"},
		{"pages/404.md", "pages", "/404"},
		{"blog/index.md", "blog", "/blog"},
		{"blog/post1.md", "blog", "/blog/post1"},
		{"docs/guides/intro.md", "docs", "/docs/intro"},
		{"landing.html", "pages", "/landing"},
	}
	for _, tc := range cases {
		contentType, url := deriveURL(tc.rel)
		require.Equal(t, tc.wantType, contentType, "rel %q", tc.rel)
		require.Equal(t, tc.wantURL, url, "rel %q", tc.rel)
	}
}

func TestDiscover_RegistersRoutes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md", "# Home\n")
	writeFile(t, root, "content/pages/about.md", "# About\n")
	writeFile(t, root, "content/blog/post1.md", "---\ntitle: One\n---\nbody\n")
	writeFile(t, root, "content/notes.txt", "ignored\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	routes := b.Routes()
	require.Len(t, routes, 3)
	require.Equal(t, "pages", routes["/"])
	require.Equal(t, "pages", routes["/about"])
	require.Equal(t, "blog", routes["/blog/post1"])

	page, ok := b.Lookup("/blog/post1")
	require.True(t, ok)
	require.Equal(t, "One", page.Matter.Get("title", ""))
	require.Contains(t, page.HTML, "body")
}

func TestDiscover_MissingContentRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	require.Empty(t, b.Routes())
}

func TestDiscover_CollisionLaterFileWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	// Both map to /about; walk order is lexicographic so the file under
	// pages/ is seen second and wins.
	writeFile(t, root, "content/about.md", "# First\n")
	writeFile(t, root, "content/pages/about.md", "# Second\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	page, ok := b.Lookup("/about")
	require.True(t, ok)
	require.Contains(t, page.SourcePath, filepath.Join("pages", "about.md"))
}

func TestDiscover_BadFrontMatterAborts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/bad.md", "---\ntitle: [unclosed\n---\nbody\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	err := b.Discover()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.md")
}

func TestDiscover_ErrorPageDetected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md", "# Home\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	require.False(t, b.HasErrorPage())

	writeFile(t, root, "content/pages/404.md", "# Not found\n")
	require.NoError(t, b.Discover())
	require.True(t, b.HasErrorPage())
}

func TestDiscover_RediscoveryReplacesSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/pages/index.md", "# Home\n")
	writeFile(t, root, "content/pages/old.md", "# Old\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())
	_, ok := b.Lookup("/old")
	require.True(t, ok)

	require.NoError(t, os.Remove(filepath.Join(root, "content", "pages", "old.md")))
	require.NoError(t, b.Discover())
	_, ok = b.Lookup("/old")
	require.False(t, ok)
}

func TestCollections_SortedDescendingByDate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", `
site_name: Demo
collections:
  blog: {}
`)
	writeFile(t, root, "content/blog/older.md", "---\ndate: 2023-05-05\n---\nolder\n")
	writeFile(t, root, "content/blog/newer.md", "---\ndate: 2024-01-01\n---\nnewer\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	posts := b.collections["blog"]
	require.Len(t, posts, 2)
	require.Equal(t, "2024-01-01", posts[0].Matter.Get("date", ""))
	require.Equal(t, "2023-05-05", posts[1].Matter.Get("date", ""))
}

func TestCollections_AscendingOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", `
site_name: Demo
collections:
  docs:
    sort_by: title
    sort_order: asc
`)
	writeFile(t, root, "content/docs/b.md", "---\ntitle: Beta\n---\nx\n")
	writeFile(t, root, "content/docs/a.md", "---\ntitle: Alpha\n---\nx\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	docs := b.collections["docs"]
	require.Len(t, docs, 2)
	require.Equal(t, "Alpha", docs[0].Matter.Get("title", ""))
	require.Equal(t, "Beta", docs[1].Matter.Get("title", ""))
}

func TestCollections_UnconfiguredKeepsURLOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	writeFile(t, root, "content/notes/zzz.md", "---\ndate: 2020-01-01\n---\nx\n")
	writeFile(t, root, "content/notes/aaa.md", "---\ndate: 2024-01-01\n---\nx\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	notes := b.collections["notes"]
	require.Len(t, notes, 2)
	require.Equal(t, "/notes/aaa", notes[0].URL)
	require.Equal(t, "/notes/zzz", notes[1].URL)
}

func TestRenderDuringRebuildSeesWholeSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", `
site_name: Demo
collections:
  blog: {}
`)
	writeFile(t, root, "content/blog/a.md", "---\ntitle: A\n---\nx\n")
	writeFile(t, root, "content/blog/b.md", "---\ntitle: B\n---\nx\n")
	// A render that observed a half-built snapshot would see fewer than
	// two posts or miss the page entirely.
	writeFile(t, root, "content/pages/index.md", "count={{len .collections.blog}}\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.NoError(t, b.Discover())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				out, err := b.RenderURL("/")
				if err != nil {
					errs <- err
					return
				}
				if !strings.Contains(out, "count=2") {
					errs <- fmt.Errorf("partial snapshot observed: %q", out)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, b.Discover())
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestVersionBump(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")

	b := NewBuilder(loadConfig(t, root), quietLogger())
	require.Equal(t, uint64(0), b.Version())
	require.Equal(t, uint64(1), b.BumpVersion())
	require.Equal(t, uint64(1), b.Version())
}
