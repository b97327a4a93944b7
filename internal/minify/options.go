package minify

import (
	"fmt"
	"regexp"

	"github.com/paulhhowells/tmplpack/internal/config"
)

const (
	EngineStandard   = "standard"
	EngineAggressive = "aggressive"
)

// Options are the minifier toggles.
type Options struct {
	// CollapseWhitespace removes insignificant whitespace between tags and text.
	CollapseWhitespace bool
	// CollapseBooleanAttributes rewrites disabled="disabled" to disabled.
	CollapseBooleanAttributes bool
	// RemoveComments strips HTML comments. Comments opening with "<!--!" and
	// conditional comments are kept.
	RemoveComments bool
	// RemoveCommentsFromCDATA strips <!-- --> wrappers from script and style bodies.
	RemoveCommentsFromCDATA bool
	// RemoveOptionalTags drops end tags the HTML spec allows omitting.
	RemoveOptionalTags bool
	// RemoveAttributeQuotes drops quotes around values that do not need them.
	RemoveAttributeQuotes bool
	// KeepClosingSlash keeps the trailing slash of self-closing tags.
	KeepClosingSlash bool
	// ConservativeCollapse collapses whitespace to one space, never to none.
	ConservativeCollapse bool
	// MaxLineLength soft-wraps output at tag boundaries; 0 disables wrapping.
	MaxLineLength int
	// CustomAttrCollapse names attributes whose values get whitespace collapsed.
	CustomAttrCollapse *regexp.Regexp
	// CaseSensitive keeps tag and attribute name case as written.
	CaseSensitive bool
}

// OptionsFromConfig converts the configuration section into Options.
func OptionsFromConfig(cfg config.MinifyConfig) (Options, error) {
	opts := Options{
		CollapseWhitespace:        cfg.CollapseWhitespace,
		CollapseBooleanAttributes: cfg.CollapseBooleanAttributes,
		RemoveComments:            cfg.RemoveComments,
		RemoveCommentsFromCDATA:   cfg.RemoveCommentsFromCDATA,
		RemoveOptionalTags:        cfg.RemoveOptionalTags,
		RemoveAttributeQuotes:     cfg.RemoveAttributeQuotes,
		KeepClosingSlash:          cfg.KeepClosingSlash,
		ConservativeCollapse:      cfg.ConservativeCollapse,
		MaxLineLength:             cfg.MaxLineLength,
		CaseSensitive:             cfg.CaseSensitive,
	}

	if cfg.CustomAttrCollapse != "" {
		re, err := regexp.Compile(cfg.CustomAttrCollapse)
		if err != nil {
			return Options{}, fmt.Errorf("custom attribute pattern: %w", err)
		}
		opts.CustomAttrCollapse = re
	}

	return opts, nil
}

// Minifier minifies one template. path is only used for error reporting.
type Minifier interface {
	Minify(path, content string) (string, error)
}

// New returns the minifier for the named engine.
func New(engine string, opts Options) (Minifier, error) {
	switch engine {
	case "", EngineStandard:
		return NewStandard(opts), nil
	case EngineAggressive:
		return NewAggressive(opts), nil
	default:
		return nil, fmt.Errorf("unknown minify engine %q", engine)
	}
}

// FromConfig builds the configured minifier.
func FromConfig(cfg config.MinifyConfig) (Minifier, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg.Engine, opts)
}
