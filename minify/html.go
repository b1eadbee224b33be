package minify

import "strings"

// Options control the built-in HTML engine.
type Options struct {
	KeepComments   bool
	KeepWhitespace bool
	SkipInlineCSS  bool
	SkipInlineJS   bool
}

// Engine is the built-in streaming minifier.
type Engine struct {
	opts Options
}

// NewEngine constructs the built-in minifier. The zero Options value enables
// comment removal, whitespace collapsing and inline CSS/JS minification.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Elements that can never hold children; they are never pushed on the open
// element stack and need no closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Elements that flow with surrounding text; a collapsed space survives inside
// them.
var inlineTags = map[string]bool{
	"a": true, "span": true, "strong": true, "em": true, "b": true,
	"i": true, "u": true, "small": true, "code": true, "abbr": true,
	"cite": true, "kbd": true, "mark": true, "q": true, "s": true,
	"sub": true, "sup": true, "time": true, "var": true, "button": true,
	"label": true,
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func preservesWhitespace(tag string) bool {
	return tag == "pre" || tag == "textarea"
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// HTML minifies markup in a single left-to-right scan over an explicit stack
// of open elements.
func (e *Engine) HTML(html string) string {
	out := make([]byte, 0, len(html))
	var stack []string
	pendingSpace := false
	n := len(html)
	i := 0

	inPreserve := func() bool {
		for _, tag := range stack {
			if preservesWhitespace(tag) {
				return true
			}
		}
		return false
	}
	inInline := func() bool {
		for _, tag := range stack {
			if inlineTags[tag] {
				return true
			}
		}
		return false
	}
	lastChar := func() byte {
		if len(out) == 0 {
			return 0
		}
		return out[len(out)-1]
	}
	trimTrailingSpace := func() {
		if len(out) > 0 && out[len(out)-1] == ' ' {
			out = out[:len(out)-1]
		}
	}

	for i < n {
		c := html[i]

		if !e.opts.KeepComments && strings.HasPrefix(html[i:], "<!--") {
			if end := strings.Index(html[i+4:], "-->"); end >= 0 {
				end += i + 4
				// Conditional comments pass through unchanged.
				if i+4 < n && html[i+4] == '[' {
					if cond := strings.Index(html[i:], "<![endif]"); cond >= 0 {
						cond += i
						if cond < end+20 {
							for i <= cond+9 && i < n {
								out = append(out, html[i])
								i++
							}
							continue
						}
					}
				}
				i = end + 3
				pendingSpace = false
				continue
			}
		}

		if strings.HasPrefix(html[i:], "<!DOCTYPE") {
			if end := strings.IndexByte(html[i:], '>'); end >= 0 {
				out = append(out, html[i:i+end+1]...)
				i += end + 1
				pendingSpace = false
				continue
			}
		}

		if c == '<' {
			pendingSpace = false
			out = append(out, c)
			i++

			closing := i < n && html[i] == '/'
			if closing {
				out = append(out, '/')
				i++
			}

			var tag []byte
			for i < n && !isSpace(html[i]) && html[i] != '>' && html[i] != '/' {
				tag = append(tag, lower(html[i]))
				out = append(out, html[i])
				i++
			}
			name := string(tag)

			if closing {
				if len(stack) > 0 && stack[len(stack)-1] == name {
					stack = stack[:len(stack)-1]
				}
			} else if !voidTags[name] {
				stack = append(stack, name)
			}

			inAttr := false
			var quote byte
			lastWasSpace := false
			selfClosed := false

			for i < n && html[i] != '>' {
				ch := html[i]

				if !inAttr && ch == '/' && i+1 < n && html[i+1] == '>' {
					if len(stack) > 0 && stack[len(stack)-1] == name {
						stack = stack[:len(stack)-1]
					}
					trimTrailingSpace()
					out = append(out, '/', '>')
					i += 2
					selfClosed = true
					break
				}

				switch {
				case !inAttr && (ch == '"' || ch == '\''):
					inAttr = true
					quote = ch
					out = append(out, ch)
					lastWasSpace = false
				case inAttr && ch == quote:
					inAttr = false
					quote = 0
					out = append(out, ch)
					lastWasSpace = false
				case inAttr:
					// Attribute values are copied verbatim.
					out = append(out, ch)
					lastWasSpace = false
				case !e.opts.KeepWhitespace && isSpace(ch):
					if !lastWasSpace {
						out = append(out, ' ')
						lastWasSpace = true
					}
				default:
					out = append(out, ch)
					lastWasSpace = false
				}
				i++
			}

			if !selfClosed && i < n && html[i] == '>' {
				trimTrailingSpace()
				out = append(out, '>')
				i++

				if !closing && (name == "script" || name == "style") {
					closer := "</" + name + ">"
					if end := strings.Index(html[i:], closer); end >= 0 {
						end += i
						content := strings.TrimFunc(html[i:end], func(r rune) bool {
							return r < 128 && isSpace(byte(r))
						})
						if content != "" {
							if name == "script" && !e.opts.SkipInlineJS {
								content = e.JS(content)
							} else if name == "style" && !e.opts.SkipInlineCSS {
								content = e.CSS(content)
							}
						}
						out = append(out, content...)
						i = end
					}
				}
			}
			continue
		}

		if inPreserve() {
			out = append(out, c)
			i++
		} else if !e.opts.KeepWhitespace && isSpace(c) {
			pendingSpace = true
			i++
		} else {
			prev := lastChar()
			if pendingSpace && prev != 0 && prev != '>' && prev != '<' {
				if inInline() || (isAlnum(prev) && isAlnum(c)) {
					out = append(out, ' ')
				}
			}
			pendingSpace = false
			out = append(out, c)
			i++
		}
	}

	return string(out)
}
