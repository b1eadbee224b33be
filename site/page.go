package site

import "github.com/forgekit/forge/frontmatter"

// Page is one discovered content document.
type Page struct {
	SourcePath   string
	TemplateName string // resolved content template file, empty when none applies
	URL          string
	ContentType  string
	Matter       frontmatter.Matter
	HTML         string
	Standalone   bool
}
