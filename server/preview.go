package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const previewNotFound = "<h1>404 - Page Not Found</h1><p>The page you're looking for doesn't exist.</p>"

// PreviewServer serves a previously exported site from the output directory.
type PreviewServer struct {
	*Server
	dist string
}

// NewPreview constructs a preview server over dist. The directory must
// already exist; run the build first.
func NewPreview(listen, dist string, logger *slog.Logger, serverHeader string) (*PreviewServer, error) {
	if info, err := os.Stat(dist); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("build directory not found: %s (run the build command first)", dist)
	}
	srv := &PreviewServer{
		Server: newServer(listen, logger, serverHeader),
		dist:   dist,
	}
	srv.routes()
	return srv, nil
}

func (s *PreviewServer) routes() {
	s.mux.Handle("/static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(filepath.Join(s.dist, "static")))))
	s.mux.HandleFunc("/", s.handlePage)
}

func (s *PreviewServer) handlePage(w http.ResponseWriter, r *http.Request) {
	url := sanitizeRequestPath(r.URL.Path)

	if url == "/" {
		html, err := os.ReadFile(filepath.Join(s.dist, "index.html"))
		if err != nil {
			writeHTML(w, http.StatusInternalServerError, "<h1>500 - Error loading page</h1>")
			return
		}
		writeHTML(w, http.StatusOK, string(html))
		return
	}

	if len(url) > 1 {
		url = strings.TrimSuffix(url, "/")
	}

	target := filepath.Join(s.dist, filepath.FromSlash(strings.TrimPrefix(url, "/")), "index.html")
	if strings.HasSuffix(url, ".html") {
		target = filepath.Join(s.dist, filepath.FromSlash(strings.TrimPrefix(url, "/")))
	}

	html, err := os.ReadFile(target)
	if err == nil {
		writeHTML(w, http.StatusOK, string(html))
		return
	}

	errorPage, err := os.ReadFile(filepath.Join(s.dist, "404", "index.html"))
	if err != nil {
		writeHTML(w, http.StatusNotFound, previewNotFound)
		return
	}
	writeHTML(w, http.StatusNotFound, string(errorPage))
}
