// Package minify removes comments and insignificant whitespace from
// normalized templates without changing their tag or attribute structure.
//
// Two engines exist. The standard engine honours every Options toggle and
// is what builds use by default. The aggressive engine hands the markup to
// tdewolff/minify after the same well-formedness check, trading some
// toggles for smaller output.
package minify

import (
	"regexp"
	"strings"

	"github.com/paulhhowells/tmplpack/internal/markup"
)

var whitespace = regexp.MustCompile(`[ \t\n\r\f]+`)

// Standard is the token-level minifier.
type Standard struct {
	opts Options
}

// NewStandard creates a Standard minifier.
func NewStandard(opts Options) *Standard {
	return &Standard{opts: opts}
}

// Minify implements Minifier.
func (m *Standard) Minify(path, content string) (string, error) {
	tokens, err := tokenize(path, content)
	if err != nil {
		return "", err
	}
	if err := checkBalance(path, tokens); err != nil {
		return "", err
	}

	tokens = m.filter(tokens)

	w := &lineWriter{max: m.opts.MaxLineLength}
	preserve := 0

	for i, tok := range tokens {
		switch tok.kind {
		case textToken:
			text := tok.raw
			if preserve > 0 {
				if m.opts.RemoveCommentsFromCDATA && i > 0 && isScriptOrStyle(tokens[i-1]) {
					text = stripCDATAComments(text)
				}
				w.writeText(text)
				continue
			}
			if m.opts.CollapseWhitespace {
				text = m.collapseText(text, neighbour(tokens, i, -1), neighbour(tokens, i, 1))
			}
			if text != "" {
				w.writeText(text)
			}

		case startToken:
			w.writeTag(m.startTag(tok), tok.name, preserve == 0)
			if preserveElements[tok.name] && !tok.tag.SelfClosing {
				preserve++
			}

		case endToken:
			inPreserve := preserve > 0
			if preserveElements[tok.name] && inPreserve {
				preserve--
			}
			if m.opts.RemoveOptionalTags && optionalEndTags[tok.name] {
				continue
			}
			name := m.caseName(markup.EndTagName(tok.raw))
			w.writeTag("</"+name+">", tok.name, !inPreserve)

		case commentToken:
			w.writeTag(tok.raw, "", preserve == 0)

		case doctypeToken:
			w.writeTag(whitespace.ReplaceAllString(tok.raw, " "), "", preserve == 0)
		}
	}

	return w.String(), nil
}

// filter drops removable comments and merges the text tokens left adjacent.
func (m *Standard) filter(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.kind == commentToken && m.opts.RemoveComments && !keepComment(tok.raw) {
			continue
		}
		if tok.kind == textToken && len(out) > 0 && out[len(out)-1].kind == textToken {
			out[len(out)-1].raw += tok.raw
			continue
		}
		out = append(out, tok)
	}
	return out
}

func keepComment(raw string) bool {
	return strings.HasPrefix(raw, "<!--!") ||
		strings.HasPrefix(raw, "<!--[if") ||
		strings.HasPrefix(raw, "<![CDATA[")
}

// neighbour returns the token next to i in direction dir, or nil.
func neighbour(tokens []token, i, dir int) *token {
	j := i + dir
	if j < 0 || j >= len(tokens) {
		return nil
	}
	return &tokens[j]
}

// collapseText shrinks whitespace runs to one space and drops the space
// entirely next to block-level boundaries.
func (m *Standard) collapseText(text string, prev, next *token) string {
	text = whitespace.ReplaceAllString(text, " ")
	if m.opts.ConservativeCollapse {
		return text
	}
	if !isInlineBoundary(prev) {
		text = strings.TrimLeft(text, " ")
	}
	if !isInlineBoundary(next) {
		text = strings.TrimRight(text, " ")
	}
	return text
}

func isInlineBoundary(tok *token) bool {
	if tok == nil {
		return false
	}
	switch tok.kind {
	case startToken, endToken:
		return inlineElements[tok.name]
	case commentToken:
		return true
	}
	return false
}

func isScriptOrStyle(tok token) bool {
	return tok.kind == startToken && (tok.name == "script" || tok.name == "style")
}

func (m *Standard) caseName(name string) string {
	if m.opts.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

func (m *Standard) startTag(tok token) string {
	var b strings.Builder
	b.Grow(len(tok.raw))

	b.WriteByte('<')
	b.WriteString(m.caseName(tok.tag.Name))

	lastUnquoted := false
	for _, attr := range tok.tag.Attrs {
		b.WriteByte(' ')
		name := m.caseName(attr.Name)
		lower := strings.ToLower(attr.Name)
		lastUnquoted = false

		if !attr.HasValue || (m.opts.CollapseBooleanAttributes && booleanAttributes[lower]) {
			b.WriteString(name)
			continue
		}

		value := attr.Value
		if lower == "class" || (m.opts.CustomAttrCollapse != nil && m.opts.CustomAttrCollapse.MatchString(lower)) {
			value = strings.TrimSpace(whitespace.ReplaceAllString(value, " "))
		}

		b.WriteString(name)
		b.WriteByte('=')

		if m.opts.RemoveAttributeQuotes && canUnquote(value) {
			b.WriteString(value)
			lastUnquoted = true
			continue
		}

		quote := attr.Quote
		if quote == 0 {
			quote = '"'
			if strings.ContainsRune(value, '"') {
				quote = '\''
			}
		}
		b.WriteByte(quote)
		b.WriteString(value)
		b.WriteByte(quote)
	}

	if tok.tag.SelfClosing && m.opts.KeepClosingSlash {
		if lastUnquoted {
			b.WriteByte(' ')
		}
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}

	return b.String()
}

func canUnquote(value string) bool {
	return value != "" &&
		!strings.ContainsAny(value, " \t\n\r\f\"'`=<>") &&
		!strings.HasSuffix(value, "/")
}

// stripCDATAComments removes a comment or CDATA wrapper around raw text.
func stripCDATAComments(text string) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "<!--"):
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<!--"), "-->")
	case strings.HasPrefix(trimmed, "<![CDATA["):
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<![CDATA["), "]]>")
	}
	return text
}

// lineWriter accumulates output and soft-wraps long lines between tags.
type lineWriter struct {
	b          strings.Builder
	max        int
	lineLen    int
	lastWasTag bool
	lastName   string
}

func (w *lineWriter) writeTag(s, name string, allowBreak bool) {
	if w.max > 0 && allowBreak && w.lastWasTag && w.lineLen > 0 &&
		w.lineLen+len(s) > w.max &&
		(!inlineElements[name] || !inlineElements[w.lastName]) {
		w.b.WriteByte('\n')
		w.lineLen = 0
	}
	w.write(s)
	w.lastWasTag = true
	w.lastName = name
}

func (w *lineWriter) writeText(s string) {
	w.write(s)
	w.lastWasTag = false
}

func (w *lineWriter) write(s string) {
	w.b.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		w.lineLen = len(s) - i - 1
	} else {
		w.lineLen += len(s)
	}
}

func (w *lineWriter) String() string {
	return w.b.String()
}
