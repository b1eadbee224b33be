package minify

import (
	"regexp"
	"strings"
)

var (
	cssComment     = regexp.MustCompile(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
	cssPunctuation = regexp.MustCompile(`\s*([{}:;,>+~()])\s*`)
	cssCombinator  = regexp.MustCompile(`\s+([>+~])\s+`)
	cssRuns        = regexp.MustCompile(`\s+`)
	cssColonSpace  = regexp.MustCompile(`:\s+`)
	cssOpenBrace   = regexp.MustCompile(`\s+\{`)
	cssCloseBrace  = regexp.MustCompile(`\}\s+`)
)

// CSS strips block comments and collapses whitespace around selector and
// declaration punctuation.
func (e *Engine) CSS(css string) string {
	out := cssComment.ReplaceAllString(css, "")
	out = cssPunctuation.ReplaceAllString(out, "$1")
	out = cssCombinator.ReplaceAllString(out, "$1")
	out = cssRuns.ReplaceAllString(out, " ")
	out = cssColonSpace.ReplaceAllString(out, ":")
	out = cssOpenBrace.ReplaceAllString(out, "{")
	out = cssCloseBrace.ReplaceAllString(out, "}")
	return strings.TrimSpace(out)
}
