package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/forge/config"
	"github.com/forgekit/forge/livereload"
	"github.com/forgekit/forge/site"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDevFixture(t *testing.T, files map[string]string) (*DevServer, *livereload.Hub) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "forge.yaml", "site_name: Demo\n")
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}

	cfg, err := config.Load(root)
	require.NoError(t, err)

	builder := site.NewBuilder(cfg, quietLogger())
	require.NoError(t, builder.Discover())
	builder.BumpVersion()

	hub := livereload.NewHub(quietLogger())
	hub.Start()
	t.Cleanup(hub.Shutdown)

	return NewDev(cfg, builder, hub, quietLogger(), "test"), hub
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDevServer_RendersPage(t *testing.T) {
	srv, _ := newDevFixture(t, map[string]string{
		"content/pages/index.md": "# Home\n",
	})

	rec := get(t, srv.mux, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Home")
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestDevServer_NotFoundFallback(t *testing.T) {
	srv, _ := newDevFixture(t, map[string]string{
		"content/pages/index.md": "# Home\n",
	})

	rec := get(t, srv.mux, "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "404 - Page Not Found")
	require.Contains(t, rec.Body.String(), "/missing")
}

func TestDevServer_CustomErrorPage(t *testing.T) {
	srv, _ := newDevFixture(t, map[string]string{
		"content/pages/index.md": "# Home\n",
		"content/pages/404.md":   "# Custom not found\n",
	})

	rec := get(t, srv.mux, "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Custom not found")
}

func TestDevServer_Version(t *testing.T) {
	srv, _ := newDevFixture(t, nil)

	rec := get(t, srv.mux, "/version")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, uint64(1), payload["version"])
}

func TestDevServer_ClientScript(t *testing.T) {
	srv, _ := newDevFixture(t, nil)

	rec := get(t, srv.mux, "/livereload.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ws://example.com/livereload")
}

func TestDevServer_StaticFiles(t *testing.T) {
	srv, _ := newDevFixture(t, map[string]string{
		"static/site.css": "a{b:c}",
	})

	rec := get(t, srv.mux, "/static/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a{b:c}", rec.Body.String())
}

func TestDevServer_ServerHeader(t *testing.T) {
	srv, _ := newDevFixture(t, map[string]string{
		"content/pages/index.md": "# Home\n",
	})

	rec := get(t, srv.withServerHeader(srv.mux), "/")
	require.Equal(t, "test", rec.Header().Get("Server"))
}

func TestDevServer_LiveReloadConnectsThroughMiddleware(t *testing.T) {
	srv, hub := newDevFixture(t, map[string]string{
		"content/pages/index.md": "# Home\n",
	})

	// The full production handler chain, logging wrapper included, must
	// still allow the websocket upgrade to hijack the connection.
	ts := httptest.NewServer(srv.withServerHeader(srv.logRequests(srv.mux)))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		require.False(t, time.Now().After(deadline), "client never registered")
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast("content", 3)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg livereload.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "content", msg.Type)
	require.Equal(t, uint64(3), msg.Version)
}

func TestSanitizeRequestPath(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"/":             "/",
		"about":         "/about",
		"/about/":       "/about",
		"/a/../b":       "/b",
		"/../../secret": "/secret",
		"/.":            "/",
	}
	for in, want := range cases {
		require.Equal(t, want, sanitizeRequestPath(in), "input %q", in)
	}
}
