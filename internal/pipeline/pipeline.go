// Package pipeline sequences a template build: enumerate and normalize into
// a working tree, minify, bundle into the distribution root, then remove the
// intermediate files.
//
// A Pipeline owns its working directory for the duration of Run. Runs on one
// Pipeline are serialized; separate processes sharing a working directory
// must coordinate themselves.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paulhhowells/tmplpack/internal/bundle"
	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/logging"
	"github.com/paulhhowells/tmplpack/internal/minify"
	"github.com/paulhhowells/tmplpack/internal/normalize"
	"github.com/paulhhowells/tmplpack/internal/scanner"
)

const (
	normalizedDir = "html"
	minifiedDir   = "html-min"
)

// Template tracks one file through the stages.
type Template struct {
	Key            string
	SourcePath     string
	NormalizedPath string
	MinifiedPath   string
	RawSize        int64
	NormalizedSize int64
	MinifiedSize   int64
}

// Result summarizes a successful run.
type Result struct {
	Templates       []Template
	ArtifactPath    string
	ArtifactSize    int64
	RawBytes        int64
	NormalizedBytes int64
	MinifiedBytes   int64
	Duration        time.Duration
}

// Callback is invoked after every run. Exactly one of res and err is nil.
type Callback func(res *Result, err error)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinifier replaces the configured minifier.
func WithMinifier(m minify.Minifier) Option {
	return func(p *Pipeline) { p.minifier = m }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn func(Transition)) Option {
	return func(p *Pipeline) { p.onTransition = fn }
}

// Pipeline is the build orchestrator.
type Pipeline struct {
	cfg        *config.Config
	scanner    *scanner.Scanner
	normalizer *normalize.Normalizer
	minifier   minify.Minifier
	logger     logging.Logger

	onTransition func(Transition)
	callbacks    []Callback
	metrics      *Metrics

	// mutex serializes runs; state and history belong to the current run.
	mutex   sync.Mutex
	state   State
	history []Transition
}

// New creates a pipeline for cfg. A nil logger disables logging.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	sc, err := scanner.New(scanner.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, pkgerrors.NewConfigError("invalid template patterns", err)
	}

	p := &Pipeline{
		cfg:        cfg,
		scanner:    sc,
		normalizer: normalize.New(),
		logger:     logger.WithComponent("pipeline"),
		metrics:    &Metrics{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.minifier == nil {
		m, err := minify.FromConfig(cfg.Minify)
		if err != nil {
			return nil, pkgerrors.NewConfigError("invalid minifier settings", err)
		}
		p.minifier = m
	}

	return p, nil
}

// AddCallback registers a function called after each run.
func (p *Pipeline) AddCallback(cb Callback) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// Metrics returns run statistics.
func (p *Pipeline) Metrics() Metrics {
	return p.metrics.Snapshot()
}

// State returns the state reached by the most recent run.
func (p *Pipeline) State() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.state
}

// History returns the transitions of the most recent run.
func (p *Pipeline) History() []Transition {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]Transition, len(p.history))
	copy(out, p.history)
	return out
}

// WorkDir returns the working directory root.
func (p *Pipeline) WorkDir() string {
	return p.cfg.Project.Tmp
}

type stage struct {
	state State
	run   func(context.Context, *run) error
}

// run carries the data of one build between stages.
type run struct {
	templates []Template
	result    *Result
}

// Run executes every stage in order. On failure it stops in StateFailed and
// leaves the working directory as it was; the next Run recreates it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	start := time.Now()
	p.state = StateClean
	p.history = nil

	r := &run{result: &Result{ArtifactPath: p.cfg.ArtifactPath()}}
	stages := []stage{
		{StateCopying, p.copyStage},
		{StateMinifying, p.minifyStage},
		{StateBundling, p.bundleStage},
		{StateCleanup, p.cleanupStage},
	}

	p.logger.Info(ctx, "Build started", "app", p.cfg.Project.App, "tmp", p.cfg.Project.Tmp)

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(ctx, start, s.state, err)
		}
		p.transition(s.state, nil)

		op := logging.StartOperation(p.logger, s.state.String())
		if err := s.run(ctx, r); err != nil {
			op.EndWithError(ctx, err)
			return nil, p.fail(ctx, start, s.state, err)
		}
		op.End(ctx)
	}
	p.transition(StateDone, nil)

	res := r.result
	res.Templates = r.templates
	res.Duration = time.Since(start)

	p.metrics.record(res.Duration, nil)
	p.logger.Info(ctx, "Build completed",
		"templates", len(res.Templates),
		"artifact", res.ArtifactPath,
		"raw_bytes", res.RawBytes,
		"minified_bytes", res.MinifiedBytes,
		"duration_ms", res.Duration.Milliseconds(),
	)
	p.notify(res, nil)

	return res, nil
}

func (p *Pipeline) fail(ctx context.Context, start time.Time, during State, err error) error {
	wrapped := fmt.Errorf("%s: %w", during, err)
	p.transition(StateFailed, wrapped)
	p.metrics.record(time.Since(start), wrapped)
	p.logger.Error(ctx, err, "Build failed", "stage", during.String())
	p.notify(nil, wrapped)
	return wrapped
}

func (p *Pipeline) transition(to State, err error) {
	if !canTransition(p.state, to) {
		// Stages are fixed, so this only fires on a programming error.
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", p.state, to))
	}
	t := Transition{From: p.state, To: to, At: time.Now(), Err: err}
	p.state = to
	p.history = append(p.history, t)
	if p.onTransition != nil {
		p.onTransition(t)
	}
}

func (p *Pipeline) notify(res *Result, err error) {
	for _, cb := range p.callbacks {
		cb(res, err)
	}
}

// copyStage enumerates the templates, recreates the working directory and
// writes the normalized copies. Enumeration runs first so a missing template
// root aborts before anything on disk changes.
func (p *Pipeline) copyStage(ctx context.Context, r *run) error {
	sources, err := p.scanner.Scan(ctx)
	if err != nil {
		return err
	}

	if err := p.resetWorkDir(); err != nil {
		return err
	}

	r.templates = make([]Template, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return pkgerrors.NewIOError("reading template", src.Path, err)
		}

		normalized, stats := p.normalizer.NormalizeWithStats(string(raw))
		dst := filepath.Join(p.cfg.Project.Tmp, normalizedDir, filepath.FromSlash(src.Key))
		if err := writeFile(dst, normalized); err != nil {
			return err
		}

		p.logger.Debug(ctx, "Normalized template",
			"key", src.Key,
			"tags", stats.Tags,
			"values_fixed", stats.ValuesFixed,
		)

		r.templates = append(r.templates, Template{
			Key:            src.Key,
			SourcePath:     src.Path,
			NormalizedPath: dst,
			RawSize:        int64(len(raw)),
			NormalizedSize: int64(len(normalized)),
		})
		r.result.RawBytes += int64(len(raw))
		r.result.NormalizedBytes += int64(len(normalized))
	}

	return nil
}

func (p *Pipeline) minifyStage(ctx context.Context, r *run) error {
	for i := range r.templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := &r.templates[i]

		normalized, err := os.ReadFile(t.NormalizedPath)
		if err != nil {
			return pkgerrors.NewIOError("reading normalized template", t.NormalizedPath, err)
		}

		minified, err := p.minifier.Minify(t.SourcePath, string(normalized))
		if err != nil {
			return err
		}

		dst := filepath.Join(p.cfg.Project.Tmp, minifiedDir, filepath.FromSlash(t.Key))
		if err := writeFile(dst, minified); err != nil {
			return err
		}

		t.MinifiedPath = dst
		t.MinifiedSize = int64(len(minified))
		r.result.MinifiedBytes += t.MinifiedSize
	}

	return nil
}

func (p *Pipeline) bundleStage(ctx context.Context, r *run) error {
	b := bundle.New(bundle.Options{
		Module:      p.cfg.Bundle.Module,
		Format:      p.cfg.Bundle.Format,
		FoldKeyCase: p.cfg.Bundle.FoldKeyCase,
		Standalone:  p.cfg.Bundle.Standalone,
	}, p.logger)

	for _, t := range r.templates {
		content, err := os.ReadFile(t.MinifiedPath)
		if err != nil {
			return pkgerrors.NewIOError("reading minified template", t.MinifiedPath, err)
		}
		if err := b.Add(t.Key, t.SourcePath, string(content)); err != nil {
			return err
		}
	}

	size, err := b.WriteFile(ctx, r.result.ArtifactPath)
	if err != nil {
		return err
	}
	r.result.ArtifactSize = size
	return nil
}

// cleanupStage removes both intermediate subtrees, and the working root
// itself when nothing else lives there.
func (p *Pipeline) cleanupStage(ctx context.Context, r *run) error {
	for _, dir := range []string{normalizedDir, minifiedDir} {
		path := filepath.Join(p.cfg.Project.Tmp, dir)
		if err := os.RemoveAll(path); err != nil {
			return pkgerrors.NewIOError("removing intermediate files", path, err)
		}
	}

	entries, err := os.ReadDir(p.cfg.Project.Tmp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.NewIOError("reading working directory", p.cfg.Project.Tmp, err)
	}
	if len(entries) == 0 {
		if err := os.Remove(p.cfg.Project.Tmp); err != nil && !os.IsNotExist(err) {
			return pkgerrors.NewIOError("removing working directory", p.cfg.Project.Tmp, err)
		}
	}

	p.logger.Debug(ctx, "Removed intermediate files", "tmp", p.cfg.Project.Tmp, "templates", len(r.templates))
	return nil
}

func (p *Pipeline) resetWorkDir() error {
	tmp := p.cfg.Project.Tmp
	if err := os.RemoveAll(tmp); err != nil {
		return pkgerrors.NewIOError("removing working directory", tmp, err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return pkgerrors.NewIOError("creating working directory", tmp, err)
	}
	return nil
}

// Clean removes the working directory entirely.
func (p *Pipeline) Clean() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := os.RemoveAll(p.cfg.Project.Tmp); err != nil {
		return pkgerrors.NewIOError("removing working directory", p.cfg.Project.Tmp, err)
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.NewIOError("creating directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return pkgerrors.NewIOError("writing file", path, err)
	}
	return nil
}
