// Package watcher observes the content, template and static roots and turns
// filesystem events into full rediscoveries plus live-reload broadcasts. A
// single coordinator goroutine consumes events, so rebuilds run one at a
// time and events arriving mid-rebuild are handled afterwards, never
// coalesced.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/forgekit/forge/config"
	"github.com/forgekit/forge/fsutil"
	"github.com/forgekit/forge/livereload"
	"github.com/forgekit/forge/site"
)

var watchedExtensions = map[string]bool{
	".md": true, ".yaml": true, ".yml": true,
	".html": true, ".css": true, ".js": true,
}

// Watcher wires filesystem events to the builder and the live-reload hub.
type Watcher struct {
	cfg     *config.Config
	builder *site.Builder
	hub     *livereload.Hub
	logger  *slog.Logger
	fsw     *fsnotify.Watcher

	done chan struct{}
	wg   sync.WaitGroup
}

// New constructs a watcher over every project root that exists.
func New(cfg *config.Config, builder *site.Builder, hub *livereload.Hub, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		cfg:     cfg,
		builder: builder,
		hub:     hub,
		logger:  logger,
		fsw:     fsw,
		done:    make(chan struct{}),
	}

	for _, root := range []string{cfg.ContentRoot(), cfg.TemplatesRoot(), cfg.StaticRoot()} {
		if _, err := os.Stat(root); err != nil {
			w.logger.Warn("not watching missing directory", "dir", root)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
		w.logger.Info("watching", "dir", root)
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Start launches the coordinator goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop closes the watcher and joins the coordinator.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if fsutil.Hidden(filepath.Base(event.Name)) {
		return
	}

	// New directories join the watch set but trigger nothing themselves.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if !watchedExtensions[ext] {
		return
	}

	start := time.Now()
	kind := w.classify(event.Name, ext)
	w.logger.Info("change detected", "file", event.Name, "type", kind)

	if kind == "template" {
		w.builder.ReloadBaseTemplate()
	}

	if err := w.builder.Discover(); err != nil {
		w.logger.Error("rebuild failed", "error", err)
		return
	}
	version := w.builder.BumpVersion()

	w.hub.Broadcast(kind, version)
	w.logger.Info("rebuild complete",
		"version", version, "duration", time.Since(start), "clients", w.hub.ClientCount())
}

// classify maps a changed path to the broadcast type: template for anything
// under the templates root, then by extension, then content, else a generic
// reload.
func (w *Watcher) classify(path, ext string) string {
	switch {
	case isUnder(w.cfg.TemplatesRoot(), path):
		return "template"
	case ext == ".css":
		return "css"
	case ext == ".js":
		return "js"
	case ext == ".yaml" || ext == ".yml":
		return "config"
	case isUnder(w.cfg.ContentRoot(), path):
		return "content"
	default:
		return "reload"
	}
}

func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
