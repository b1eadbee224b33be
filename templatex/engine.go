// Package templatex renders user-authored template text against a JSON-like
// context. Missing variables are not fatal immediately: a bounded retry loop
// patches a null value at the missing path and renders again, so sparse
// front matter degrades gracefully instead of aborting a page.
package templatex

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// maxAttempts bounds the missing-variable recovery loop.
const maxAttempts = 3

var missingKeyPattern = regexp.MustCompile(`at <\.([^>]+)>.*map has no entry for key`)

// Engine renders template text with the site's filter set.
type Engine struct {
	funcs template.FuncMap
}

// New constructs an engine with the standard filters registered.
func New() *Engine {
	return &Engine{funcs: filters()}
}

// Render executes the template text against data. On a missing-variable
// failure the offending path is inserted as null and rendering retried, up to
// maxAttempts; any other failure is returned as-is.
func (e *Engine) Render(text string, data map[string]any) (string, error) {
	tpl, err := template.New("page").Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	working := data
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var sb strings.Builder
		execErr := tpl.Execute(&sb, working)
		if execErr == nil {
			return sb.String(), nil
		}

		path, ok := missingPath(execErr)
		if !ok {
			return "", fmt.Errorf("render template: %w", execErr)
		}
		working = insertNull(working, path)
	}
	return "", fmt.Errorf("template render failed after %d recovery attempts", maxAttempts)
}

func missingPath(err error) ([]string, bool) {
	m := missingKeyPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return nil, false
	}
	raw := m[1]
	// The node text is a field chain like "page.author"; anything more
	// complex is not recoverable.
	if strings.ContainsAny(raw, " (") {
		return nil, false
	}
	return strings.Split(raw, "."), true
}

// insertNull places a nil value at the dotted path, cloning the maps it
// traverses so the caller's context is left untouched.
func insertNull(data map[string]any, path []string) map[string]any {
	clone := make(map[string]any, len(data)+1)
	for k, v := range data {
		clone[k] = v
	}

	current := clone
	for i, part := range path {
		if i == len(path)-1 {
			current[part] = nil
			break
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
		} else {
			copied := make(map[string]any, len(next)+1)
			for k, v := range next {
				copied[k] = v
			}
			next = copied
		}
		current[part] = next
		current = next
	}
	return clone
}
