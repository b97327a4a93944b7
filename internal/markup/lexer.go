// Package markup is a minimal lexer for HTML start tags and their
// attributes. It does not build a tree; it only locates start tags and the
// byte spans of their attribute values so callers can rewrite values
// in place without disturbing anything else in the document.
package markup

import "strings"

// Attr is one attribute of a start tag.
type Attr struct {
	Name     string
	Value    string
	HasValue bool
	// Quote is '"', '\'' or 0 for an unquoted value.
	Quote byte
	// ValueStart and ValueEnd delimit Value in the lexed source, quotes excluded.
	ValueStart int
	ValueEnd   int
}

// Tag is a start tag or a self-closing tag.
type Tag struct {
	Name        string
	Attrs       []Attr
	SelfClosing bool
	// Start and End delimit the whole tag, '<' through '>'.
	Start int
	End   int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ParseStartTag lexes the start tag that begins at src[start]. It reports
// false when src[start:] is not a start tag or the tag is not terminated
// before the end of src.
func ParseStartTag(src string, start int) (Tag, bool) {
	n := len(src)
	if start+1 >= n || src[start] != '<' || !isLetter(src[start+1]) {
		return Tag{}, false
	}

	i := start + 1
	for i < n && !isSpace(src[i]) && src[i] != '/' && src[i] != '>' {
		i++
	}
	tag := Tag{Name: src[start+1 : i], Start: start}

	for {
		for i < n && isSpace(src[i]) {
			i++
		}
		if i >= n {
			return Tag{}, false
		}

		switch src[i] {
		case '>':
			tag.End = i + 1
			return tag, true
		case '/':
			if i+1 < n && src[i+1] == '>' {
				tag.SelfClosing = true
				tag.End = i + 2
				return tag, true
			}
			i++
			continue
		}

		nameStart := i
		for i < n && !isSpace(src[i]) && src[i] != '=' && src[i] != '>' {
			if src[i] == '/' && i+1 < n && src[i+1] == '>' {
				break
			}
			i++
		}
		if i == nameStart {
			// A stray '=' starts an attribute name.
			i++
		}
		attr := Attr{Name: src[nameStart:i]}

		j := i
		for j < n && isSpace(src[j]) {
			j++
		}
		if j < n && src[j] == '=' {
			i = j + 1
			for i < n && isSpace(src[i]) {
				i++
			}
			if i >= n {
				return Tag{}, false
			}
			attr.HasValue = true
			if q := src[i]; q == '"' || q == '\'' {
				end := strings.IndexByte(src[i+1:], q)
				if end < 0 {
					return Tag{}, false
				}
				attr.Quote = q
				attr.ValueStart = i + 1
				attr.ValueEnd = i + 1 + end
				i = attr.ValueEnd + 1
			} else {
				attr.ValueStart = i
				for i < n && !isSpace(src[i]) && src[i] != '>' {
					i++
				}
				attr.ValueEnd = i
			}
			attr.Value = src[attr.ValueStart:attr.ValueEnd]
		}

		tag.Attrs = append(tag.Attrs, attr)
	}
}

// StartTags returns every start tag of src in document order. Comments,
// end tags, doctypes and processing instructions are skipped. Scanning
// stops at the first unterminated construct, leaving the rest of the
// document untouched by callers that rewrite tags.
func StartTags(src string) []Tag {
	var tags []Tag

	i := 0
	for i < len(src) {
		j := strings.IndexByte(src[i:], '<')
		if j < 0 {
			break
		}
		i += j
		rest := src[i:]

		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				return tags
			}
			i += 4 + end + 3
		case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"), strings.HasPrefix(rest, "</"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return tags
			}
			i += end + 1
		case len(rest) > 1 && isLetter(rest[1]):
			tag, ok := ParseStartTag(src, i)
			if !ok {
				return tags
			}
			tags = append(tags, tag)
			i = tag.End
		default:
			i++
		}
	}

	return tags
}

// EndTagName extracts the element name from a raw end tag such as "</div >".
func EndTagName(raw string) string {
	raw = strings.TrimPrefix(raw, "</")
	end := 0
	for end < len(raw) && !isSpace(raw[end]) && raw[end] != '>' && raw[end] != '/' {
		end++
	}
	return raw[:end]
}
