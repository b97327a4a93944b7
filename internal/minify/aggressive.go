package minify

import (
	"regexp"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	tdhtml "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
)

// Aggressive minifies with tdewolff/minify, including inline CSS and JS.
// Attribute case, boolean collapsing and line wrapping follow the library's
// own rules rather than Options.
type Aggressive struct {
	opts Options
	m    *tdminify.M
}

// NewAggressive creates an Aggressive minifier.
func NewAggressive(opts Options) *Aggressive {
	m := tdminify.New()
	m.Add("text/html", &tdhtml.Minifier{
		KeepComments:        !opts.RemoveComments,
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         !opts.RemoveOptionalTags,
		KeepQuotes:          !opts.RemoveAttributeQuotes,
		KeepWhitespace:      !opts.CollapseWhitespace || opts.ConservativeCollapse,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)

	return &Aggressive{opts: opts, m: m}
}

// Minify implements Minifier.
func (a *Aggressive) Minify(path, content string) (string, error) {
	tokens, err := tokenize(path, content)
	if err != nil {
		return "", err
	}
	if err := checkBalance(path, tokens); err != nil {
		return "", err
	}

	out, err := a.m.String("text/html", content)
	if err != nil {
		return "", &pkgerrors.MinificationError{Path: path, Message: err.Error()}
	}
	return out, nil
}
