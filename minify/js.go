package minify

func isIdent(c byte) bool {
	return isAlnum(c) || c == '_' || c == '$'
}

// JS removes inter-token whitespace and comments. It tokenizes only enough to
// leave string and template-literal contents untouched, and keeps a single
// space wherever removal would fuse two identifier characters into one token.
func (e *Engine) JS(js string) string {
	out := make([]byte, 0, len(js))
	n := len(js)

	inDouble := false
	inSingle := false
	inTemplate := false
	inBlockComment := false
	var prev byte

	for i := 0; i < n; i++ {
		c := js[i]
		var next byte
		if i+1 < n {
			next = js[i+1]
		}

		if !inDouble && !inSingle && !inTemplate && !inBlockComment && c == '/' && next == '*' {
			inBlockComment = true
			i++
			prev = c
			continue
		}
		if inBlockComment {
			if c == '*' && next == '/' {
				inBlockComment = false
				i++
			}
			prev = c
			continue
		}

		// Line comments, except protocol-style "//" as in "http://".
		if !inDouble && !inSingle && !inTemplate && c == '/' && next == '/' && prev != ':' && prev != 'h' {
			for i < n && js[i] != '\n' && js[i] != '\r' {
				i++
			}
			if i < n {
				prev = js[i]
			}
			continue
		}

		switch {
		case !inSingle && !inTemplate && c == '"' && prev != '\\':
			inDouble = !inDouble
			out = append(out, c)
		case !inDouble && !inTemplate && c == '\'' && prev != '\\':
			inSingle = !inSingle
			out = append(out, c)
		case !inDouble && !inSingle && c == '`' && prev != '\\':
			inTemplate = !inTemplate
			out = append(out, c)
		case inDouble || inSingle || inTemplate:
			out = append(out, c)
		case isSpace(c):
			if len(out) > 0 && !isSpace(out[len(out)-1]) {
				last := out[len(out)-1]
				j := i
				for j < n && isSpace(js[j]) {
					j++
				}
				if j < n && isIdent(last) && isIdent(js[j]) {
					out = append(out, ' ')
				}
			}
		default:
			out = append(out, c)
		}

		prev = c
	}

	return string(out)
}
