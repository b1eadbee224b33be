package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/forgekit/forge/config"
	"github.com/forgekit/forge/livereload"
	"github.com/forgekit/forge/site"
)

const notFoundFallback = "<h1>404 - Page Not Found</h1><p>URL: %s</p>"

// DevServer renders pages on demand from the current snapshot and hosts the
// live-reload channel.
type DevServer struct {
	*Server
	cfg     *config.Config
	builder *site.Builder
	hub     *livereload.Hub
}

// NewDev constructs the development server.
func NewDev(cfg *config.Config, builder *site.Builder, hub *livereload.Hub, logger *slog.Logger, serverHeader string) *DevServer {
	srv := &DevServer{
		Server:  newServer(cfg.Listen, logger, serverHeader),
		cfg:     cfg,
		builder: builder,
		hub:     hub,
	}
	srv.routes()
	return srv
}

func (s *DevServer) routes() {
	s.mux.Handle("/static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(s.cfg.StaticRoot()))))
	s.mux.HandleFunc("/version", s.handleVersion)
	s.mux.HandleFunc("/livereload.js", s.handleClientScript)
	s.mux.HandleFunc("/livereload", s.hub.Handler)
	s.mux.HandleFunc("/", s.handlePage)
}

func (s *DevServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"version": s.builder.Version()})
}

func (s *DevServer) handleClientScript(w http.ResponseWriter, r *http.Request) {
	wsURL := "ws://" + r.Host + "/livereload"
	if r.TLS != nil {
		wsURL = "wss://" + r.Host + "/livereload"
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(livereload.ClientScript(wsURL)))
}

// handlePage is the catch-all: look the path up in the snapshot and render
// on demand.
func (s *DevServer) handlePage(w http.ResponseWriter, r *http.Request) {
	url := sanitizeRequestPath(r.URL.Path)

	html, err := s.builder.RenderURL(url)
	if err == nil {
		writeHTML(w, http.StatusOK, html)
		return
	}
	if !errors.Is(err, site.ErrPageNotFound) {
		s.logger.Error("render", "url", url, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error rendering page: %v", err))
		return
	}

	if errorHTML, errorErr := s.builder.RenderURL("/404"); errorErr == nil {
		writeHTML(w, http.StatusNotFound, errorHTML)
		return
	}
	writeHTML(w, http.StatusNotFound, fmt.Sprintf(notFoundFallback, url))
}
