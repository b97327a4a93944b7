package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("<p>"+f+"</p>"), 0o644))
	}
}

func keys(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Key
	}
	return out
}

func defaultOptions(root string) Options {
	opts := OptionsFromConfig(config.Default())
	opts.Root = root
	return opts
}

func TestScanDefaults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"main/b/list.html",
		"main/a/view.html",
		"main/a/__private.html",
		"main/index.html",
		"main/notes.txt",
		"main/.hidden/x.html",
		"main/.draft.html",
		"other/skip.html",
		"main/__partials/p.html",
	)

	s, err := New(defaultOptions(root), nil)
	require.NoError(t, err)

	sources, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"main/__partials/p.html",
		"main/a/view.html",
		"main/b/list.html",
		"main/index.html",
	}, keys(sources))

	assert.Equal(t, filepath.Join(root, "main", "a", "view.html"), sources[1].Path)
	assert.Equal(t, int64(len("<p>main/a/view.html</p>")), sources[1].Size)
}

func TestScanOrdersByKey(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "file before directory with same prefix",
			files: []string{"main/a/b.html", "main/a.html"},
			want:  []string{"main/a.html", "main/a/b.html"},
		},
		{
			name:  "nested directories",
			files: []string{"main/z.html", "main/m/n/o.html", "main/a/b.html", "main/a.html", "main/a-b.html"},
			want:  []string{"main/a-b.html", "main/a.html", "main/a/b.html", "main/m/n/o.html", "main/z.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files...)

			s, err := New(defaultOptions(root), nil)
			require.NoError(t, err)

			sources, err := s.Scan(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(sources))
		})
	}
}

func TestScanNameExcludeKeepsDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main/__shared/a.html", "main/__shared/__b.html", "main/__c.html")

	s, err := New(defaultOptions(root), nil)
	require.NoError(t, err)

	sources, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main/__shared/a.html"}, keys(sources))
}

func TestScanIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main/z.html", "main/m/a.html", "main/a.html", "main/B.html")

	s, err := New(defaultOptions(root), nil)
	require.NoError(t, err)

	first, err := s.Scan(context.Background())
	require.NoError(t, err)
	second, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"main/B.html", "main/a.html", "main/m/a.html", "main/z.html"}, keys(first))
}

func TestScanIncludeDot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main/.hidden/x.html", "main/a.html")

	opts := defaultOptions(root)
	opts.IncludeDot = true
	s, err := New(opts, nil)
	require.NoError(t, err)

	sources, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main/.hidden/x.html", "main/a.html"}, keys(sources))
}

func TestScanPathExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main/legacy/old.html", "main/new.html", "main/x/legacy/keep.html")

	opts := defaultOptions(root)
	opts.Exclude = []string{"main/legacy"}
	s, err := New(opts, nil)
	require.NoError(t, err)

	sources, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main/new.html", "main/x/legacy/keep.html"}, keys(sources))
}

func TestScanMissingRoot(t *testing.T) {
	s, err := New(defaultOptions(filepath.Join(t.TempDir(), "nope")), nil)
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsSourceNotFound(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScanRootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.html")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	s, err := New(defaultOptions(file), nil)
	require.NoError(t, err)

	_, err = s.Scan(context.Background())
	assert.True(t, pkgerrors.IsSourceNotFound(err))
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "main/a.html")

	s, err := New(defaultOptions(root), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadPatterns(t *testing.T) {
	_, err := New(Options{Root: ".", Include: []string{"[a"}}, nil)
	assert.Error(t, err)

	_, err = New(Options{Root: ".", Include: []string{"*.html"}, Exclude: []string{"[a"}}, nil)
	assert.Error(t, err)

	_, err = New(Options{Root: "."}, nil)
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	s, err := New(defaultOptions("app"), nil)
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want bool
	}{
		{"main/a.html", true},
		{"main/a/b/c.html", true},
		{"main/a/__private.html", false},
		{"main/__dir/a.html", true},
		{"main/__dir/__a.html", false},
		{"main/.git/a.html", false},
		{"main/a.txt", false},
		{"other/a.html", false},
		{"../main/a.html", false},
		{".", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Match(tt.rel))
		})
	}
}

func TestExpandPattern(t *testing.T) {
	assert.Equal(t, []string{"main/**/*.html", "main/*.html"}, expandPattern("main/**/*.html"))
	assert.Equal(t, []string{"**/*.html", "*.html"}, expandPattern("**/*.html"))
	assert.Equal(t, []string{"*.html"}, expandPattern("*.html"))
}
