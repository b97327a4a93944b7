package minify

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/markup"
)

type tokenKind int

const (
	textToken tokenKind = iota
	startToken
	endToken
	commentToken
	doctypeToken
)

type token struct {
	kind tokenKind
	raw  string
	// name is the lower-cased element name of start and end tags.
	name string
	tag  markup.Tag
	line int
}

// tokenize splits content into raw tokens. The x/net/html tokenizer decides
// token boundaries (including raw-text handling for script, style and
// textarea); start tags are re-lexed from their raw bytes so names and
// attribute values keep their original spelling.
func tokenize(path, content string) ([]token, error) {
	z := html.NewTokenizer(strings.NewReader(content))

	var tokens []token
	line := 1
	consumed := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, &pkgerrors.MinificationError{Path: path, Line: line, Message: z.Err().Error()}
		}

		raw := string(z.Raw())
		tok := token{raw: raw, line: line}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, ok := markup.ParseStartTag(raw, 0)
			if !ok {
				return nil, &pkgerrors.MinificationError{
					Path:    path,
					Line:    line,
					Message: fmt.Sprintf("malformed start tag %q", raw),
				}
			}
			if tt == html.SelfClosingTagToken {
				tag.SelfClosing = true
			}
			tok.kind = startToken
			tok.tag = tag
			tok.name = strings.ToLower(tag.Name)
		case html.EndTagToken:
			tok.kind = endToken
			tok.name = strings.ToLower(markup.EndTagName(raw))
		case html.CommentToken:
			tok.kind = commentToken
		case html.DoctypeToken:
			tok.kind = doctypeToken
		default:
			tok.kind = textToken
		}

		tokens = append(tokens, tok)
		line += strings.Count(raw, "\n")
		consumed += len(raw)
	}

	// The tokenizer silently drops a tag cut off by the end of input.
	if consumed < len(content) {
		return nil, &pkgerrors.MinificationError{
			Path:    path,
			Line:    line,
			Message: fmt.Sprintf("unterminated markup at end of file: %q", truncate(content[consumed:], 40)),
		}
	}

	return tokens, nil
}

type openElement struct {
	name string
	line int
}

// checkBalance verifies every element is closed, allowing the end tags the
// HTML spec lets authors omit.
func checkBalance(path string, tokens []token) error {
	var stack []openElement

	for _, tok := range tokens {
		switch tok.kind {
		case startToken:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if !optionalEndTags[top.name] || !closesImplicitly(top.name, tok.name) {
					break
				}
				stack = stack[:len(stack)-1]
			}
			if voidElements[tok.name] || tok.tag.SelfClosing {
				continue
			}
			stack = append(stack, openElement{name: tok.name, line: tok.line})

		case endToken:
			idx := -1
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].name == tok.name {
					idx = j
					break
				}
			}
			if idx < 0 {
				return &pkgerrors.MinificationError{
					Path:    path,
					Line:    tok.line,
					Message: fmt.Sprintf("unexpected closing tag </%s>", tok.name),
				}
			}
			for j := len(stack) - 1; j > idx; j-- {
				if !optionalEndTags[stack[j].name] {
					return &pkgerrors.MinificationError{
						Path:    path,
						Line:    tok.line,
						Message: fmt.Sprintf("unclosed <%s> (opened on line %d) before </%s>", stack[j].name, stack[j].line, tok.name),
					}
				}
			}
			stack = stack[:idx]
		}
	}

	for j := len(stack) - 1; j >= 0; j-- {
		if !optionalEndTags[stack[j].name] {
			return &pkgerrors.MinificationError{
				Path:    path,
				Line:    stack[j].line,
				Message: fmt.Sprintf("unclosed tag <%s>", stack[j].name),
			}
		}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
