package minify

import (
	"time"

	tdewolff "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// delegatedTimeout bounds a single delegated run; exhaustion falls back to
// the unminified input.
const delegatedTimeout = 2 * time.Second

// Delegated runs third-party minifier implementations behind the same
// capability as the built-in engine. Failures are never surfaced: any error,
// empty result or timeout yields the original text.
type Delegated struct {
	m *tdewolff.M
}

func newDelegated() *Delegated {
	m := tdewolff.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return &Delegated{m: m}
}

func (d *Delegated) run(mediatype, src string) string {
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := d.m.String(mediatype, src)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		if res.err != nil || res.out == "" {
			return src
		}
		return res.out
	case <-time.After(delegatedTimeout):
		return src
	}
}

func (d *Delegated) HTML(src string) string { return d.run("text/html", src) }
func (d *Delegated) CSS(src string) string  { return d.run("text/css", src) }
func (d *Delegated) JS(src string) string   { return d.run("application/javascript", src) }
