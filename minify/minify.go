// Package minify provides HTML, CSS and JavaScript minification behind a
// single capability. Two interchangeable implementations exist: the built-in
// engine and a delegated path backed by a third-party minifier toolkit. Both
// share one contract: minification never fails, any internal error returns
// the input text unchanged.
package minify

import "github.com/forgekit/forge/config"

// Minifier is the capability consumed by the content pipeline and the static
// asset exporter.
type Minifier interface {
	HTML(src string) string
	CSS(src string) string
	JS(src string) string
}

// Nop passes every input through unchanged.
type Nop struct{}

func (Nop) HTML(src string) string { return src }
func (Nop) CSS(src string) string  { return src }
func (Nop) JS(src string) string   { return src }

// New selects the minifier once at startup: the configured implementation
// (delegated by default, the built-in engine on request), with per-kind
// toggles gating each output kind. When minify_output is off the result is a
// Nop.
func New(cfg *config.Config) Minifier {
	if !cfg.MinifyOutput {
		return Nop{}
	}
	var inner Minifier
	if cfg.Minifier == "builtin" {
		inner = NewEngine(Options{})
	} else {
		inner = newDelegated()
	}
	return toggled{inner: inner, html: cfg.Minify.HTML, css: cfg.Minify.CSS, js: cfg.Minify.JS}
}

type toggled struct {
	inner Minifier
	html  bool
	css   bool
	js    bool
}

func (t toggled) HTML(src string) string {
	if !t.html {
		return src
	}
	return t.inner.HTML(src)
}

func (t toggled) CSS(src string) string {
	if !t.css {
		return src
	}
	return t.inner.CSS(src)
}

func (t toggled) JS(src string) string {
	if !t.js {
		return src
	}
	return t.inner.JS(src)
}
