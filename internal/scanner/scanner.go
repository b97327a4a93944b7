// Package scanner enumerates the template files of a source tree.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/logging"
)

// Source is one discovered template file.
type Source struct {
	// Key is the slash-separated path relative to the template root.
	Key string
	// Path is the file path on disk.
	Path string
	Size int64
}

// Options selects which files under Root are templates.
type Options struct {
	Root       string
	Include    []string
	Exclude    []string
	IncludeDot bool
}

// OptionsFromConfig builds scanner options from the project configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Root:       cfg.Project.App,
		Include:    cfg.Templates.Include,
		Exclude:    cfg.Templates.Exclude,
		IncludeDot: cfg.Templates.IncludeDot,
	}
}

// Scanner enumerates the templates under a root, ordered by key.
type Scanner struct {
	root       string
	include    []glob.Glob
	exclude    []excludeRule
	includeDot bool
	logger     logging.Logger
}

type excludeRule struct {
	pattern glob.Glob
	// baseOnly rules have no '/' and are matched against a file's own name.
	// They never prune directories, so "__*" drops "__x.html" but not "__x/y.html".
	baseOnly bool
}

// New compiles the include and exclude patterns. A nil logger disables
// logging.
func New(opts Options, logger logging.Logger) (*Scanner, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if len(opts.Include) == 0 {
		return nil, fmt.Errorf("at least one include pattern is required")
	}

	s := &Scanner{
		root:       opts.Root,
		includeDot: opts.IncludeDot,
		logger:     logger.WithComponent("scanner"),
	}

	for _, p := range opts.Include {
		for _, variant := range expandPattern(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("include pattern %q: %w", p, err)
			}
			s.include = append(s.include, g)
		}
	}

	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		s.exclude = append(s.exclude, excludeRule{pattern: g, baseOnly: !strings.Contains(p, "/")})
	}

	return s, nil
}

// expandPattern adds the variants where each "**/" matches zero directories,
// so "main/**/*.html" also matches "main/view.html".
func expandPattern(p string) []string {
	variants := []string{p}
	if strings.Contains(p, "/**/") {
		variants = append(variants, strings.ReplaceAll(p, "/**/", "/"))
	}
	for _, v := range variants {
		if strings.HasPrefix(v, "**/") {
			variants = append(variants, strings.TrimPrefix(v, "**/"))
		}
	}
	return variants
}

// Root returns the template root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns every template under the root sorted by key, so a file sorts
// before a directory sharing its name prefix ("a.html" before "a/b.html").
// It fails with a SourceNotFoundError when the root is missing.
func (s *Scanner) Scan(ctx context.Context) ([]Source, error) {
	op := logging.StartOperation(s.logger, "scan")

	info, err := os.Stat(s.root)
	if err != nil {
		return nil, &pkgerrors.SourceNotFoundError{Root: s.root, Cause: err}
	}
	if !info.IsDir() {
		return nil, &pkgerrors.SourceNotFoundError{Root: s.root, Cause: fmt.Errorf("%s is not a directory", s.root)}
	}

	var sources []Source
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.root {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if s.skipped(rel, d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !s.included(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		sources = append(sources, Source{Key: rel, Path: p, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewIOError("scanning templates", s.root, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })

	op.End(ctx, "root", s.root, "templates", len(sources))
	return sources, nil
}

// Match reports whether the root-relative, slash-separated path is a
// template this scanner would return.
func (s *Scanner) Match(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}

	// Every ancestor directory must survive the dot and exclude rules too.
	parts := strings.Split(rel, "/")
	for i := range parts {
		if s.skipped(strings.Join(parts[:i+1], "/"), parts[i], i < len(parts)-1) {
			return false
		}
	}
	return s.included(rel)
}

func (s *Scanner) skipped(rel, name string, dir bool) bool {
	if !s.includeDot && strings.HasPrefix(name, ".") {
		return true
	}
	for _, rule := range s.exclude {
		subject := rel
		if rule.baseOnly {
			if dir {
				continue
			}
			subject = name
		}
		if rule.pattern.Match(subject) {
			return true
		}
	}
	return false
}

func (s *Scanner) included(rel string) bool {
	for _, g := range s.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
