package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Matter holds the metadata block of a content document. Scalar values keep
// their raw source text; typing is decided later, at context serialization
// (see Coerce).
type Matter struct {
	Fields map[string]string
	Lists  map[string][]string
	Tags   []string
}

// Get returns a scalar field or the fallback when absent.
func (m Matter) Get(key, fallback string) string {
	if v, ok := m.Fields[key]; ok {
		return v
	}
	return fallback
}

// Has reports whether a scalar field is present.
func (m Matter) Has(key string) bool {
	_, ok := m.Fields[key]
	return ok
}

func empty() Matter {
	return Matter{Fields: map[string]string{}, Lists: map[string][]string{}}
}

// Split isolates the front-matter block from a document body. A document
// without opening and closing "---" delimiters yields empty metadata and the
// whole input as body.
func Split(src string) (Matter, string, error) {
	if !strings.HasPrefix(src, "---") {
		return empty(), src, nil
	}

	end := strings.Index(src[3:], "\n---\n")
	tail := 5
	if end < 0 {
		end = strings.Index(src[3:], "\n---")
		tail = 4
		if end < 0 {
			return empty(), src, nil
		}
	}

	block := src[3 : 3+end]
	body := src[3+end+tail:]

	matter, err := parse(block)
	if err != nil {
		return empty(), src, err
	}
	return matter, body, nil
}

func parse(block string) (Matter, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return empty(), fmt.Errorf("front matter: %w", err)
	}

	matter := empty()
	if len(root.Content) == 0 {
		return matter, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return matter, nil
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		val := doc.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			items := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				items = append(items, item.Value)
			}
			matter.Lists[key] = items
			if key == "tags" {
				matter.Tags = items
			}
		case yaml.ScalarNode:
			matter.Fields[key] = val.Value
		}
	}
	return matter, nil
}
