package livereload

import (
	_ "embed"
	"strings"
)

// WSURLPlaceholder is substituted with the actual websocket URL when the
// client script is served.
const WSURLPlaceholder = "{{livereload_ws_url}}"

//go:embed client.js
var clientScript string

// ClientScript returns the browser-side reload script bound to wsURL.
func ClientScript(wsURL string) string {
	return strings.ReplaceAll(clientScript, WSURLPlaceholder, wsURL)
}
