package site

import "github.com/forgekit/forge/frontmatter"

// pageData serializes a page for template contexts. Front-matter values are
// coerced here, not at parse time: the raw string decides its own type at the
// moment it enters a context.
func pageData(page *Page) map[string]any {
	data := map[string]any{
		"url":          page.URL,
		"content_type": page.ContentType,
		"html_content": page.HTML,
	}
	if len(page.Matter.Tags) > 0 {
		data["tags"] = page.Matter.Tags
	}
	for key, value := range page.Matter.Fields {
		if key == "tags" {
			continue
		}
		data[key] = frontmatter.Coerce(value)
	}
	return data
}

// collectionsData serializes every collection. Callers hold at least the
// read lock.
func (b *Builder) collectionsData() map[string]any {
	out := make(map[string]any, len(b.collections))
	for name, items := range b.collections {
		pages := make([]any, 0, len(items))
		for _, page := range items {
			pages = append(pages, pageData(page))
		}
		out[name] = pages
	}
	return out
}
