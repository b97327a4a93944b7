// Package bundle merges minified templates into one ordered cache artifact.
package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"

	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/logging"
	"github.com/paulhhowells/tmplpack/pkg/templatecache"
)

// Options configures the artifact.
type Options struct {
	Module string
	Format string
	// FoldKeyCase treats keys differing only in case as duplicates, catching
	// collisions that would appear on case-insensitive file systems.
	FoldKeyCase bool
	Standalone  bool
}

// Bundler collects templates in traversal order and rejects duplicate keys.
type Bundler struct {
	opts    Options
	logger  logging.Logger
	entries []templatecache.Entry
	// seen maps a (possibly folded) key to the source path that claimed it.
	seen map[string]string
	fold cases.Caser
}

// New creates a Bundler. A nil logger disables logging.
func New(opts Options, logger logging.Logger) *Bundler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Bundler{
		opts:   opts,
		logger: logger.WithComponent("bundle"),
		seen:   make(map[string]string),
		fold:   cases.Fold(),
	}
}

// Add appends a template. source is the file the content came from and is
// only used in error reports.
func (b *Bundler) Add(key, source, content string) error {
	id := key
	if b.opts.FoldKeyCase {
		id = b.fold.String(key)
	}

	if first, exists := b.seen[id]; exists {
		return &pkgerrors.DuplicateTemplateKeyError{
			Key:        key,
			FirstPath:  first,
			SecondPath: source,
		}
	}

	b.seen[id] = source
	b.entries = append(b.entries, templatecache.Entry{Key: key, Content: content})
	return nil
}

// Len returns the number of templates added.
func (b *Bundler) Len() int {
	return len(b.entries)
}

// Artifact returns the collected templates as an artifact.
func (b *Bundler) Artifact() *templatecache.Artifact {
	entries := make([]templatecache.Entry, len(b.entries))
	copy(entries, b.entries)
	return &templatecache.Artifact{Module: b.opts.Module, Templates: entries}
}

// Encode writes the artifact to w in the configured format.
func (b *Bundler) Encode(w io.Writer) error {
	enc, err := EncoderFor(b.opts.Format, b.opts.Standalone)
	if err != nil {
		return err
	}
	return enc.Encode(w, b.Artifact())
}

// WriteFile encodes the artifact to path. The file is written next to its
// destination and renamed into place so readers never see a partial bundle.
func (b *Bundler) WriteFile(ctx context.Context, path string) (int64, error) {
	op := logging.StartOperation(b.logger, "write_artifact")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, pkgerrors.NewIOError("creating artifact directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmplpack-*")
	if err != nil {
		return 0, pkgerrors.NewIOError("creating temporary artifact", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	counter := &countingWriter{w: tmp}
	if err := b.Encode(counter); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("encoding %s artifact: %w", b.opts.Format, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, pkgerrors.NewIOError("closing temporary artifact", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, pkgerrors.NewIOError("setting artifact permissions", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, pkgerrors.NewIOError("moving artifact into place", path, err)
	}

	op.End(ctx, "path", path, "templates", len(b.entries), "bytes", counter.n)
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
