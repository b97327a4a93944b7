package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		contains []string
	}{
		{
			name: "with code and location",
			err: &BuildError{
				Kind:    ErrorKindMinify,
				Code:    CodeMinification,
				Message: "unclosed tag <div>",
				Path:    "main/a/view.html",
				Line:    12,
			},
			contains: []string{"[E_MINIFY]", "main/a/view.html:12", "unclosed tag <div>"},
		},
		{
			name:     "with cause",
			err:      NewIOError("failed to read template", "main/x.html", os.ErrPermission),
			contains: []string{"[E_IO]", "main/x.html", "failed to read template", "permission denied"},
		},
		{
			name:     "message only",
			err:      &BuildError{Message: "boom"},
			contains: []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestBuildErrorIs(t *testing.T) {
	a := &BuildError{Kind: ErrorKindIO, Code: CodeIO, Message: "a"}
	b := &BuildError{Kind: ErrorKindIO, Code: CodeIO, Message: "b"}
	c := &BuildError{Kind: ErrorKindConfig, Code: CodeConfig}

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindHelpers(t *testing.T) {
	src := &SourceNotFoundError{Root: "app", Cause: os.ErrNotExist}
	min := &MinificationError{Path: "main/v.html", Line: 3, Message: "unexpected closing tag </p>"}
	dup := &DuplicateTemplateKeyError{Key: "main/A.html", FirstPath: "main/A.html", SecondPath: "main/a.html"}

	wrappedSrc := fmt.Errorf("copying stage: %w", src)
	wrappedMin := fmt.Errorf("minifying stage: %w", min)
	wrappedDup := fmt.Errorf("bundling stage: %w", dup)

	assert.True(t, IsSourceNotFound(wrappedSrc))
	assert.False(t, IsSourceNotFound(wrappedMin))
	assert.True(t, IsMinification(wrappedMin))
	assert.False(t, IsMinification(wrappedDup))
	assert.True(t, IsDuplicateKey(wrappedDup))
	assert.False(t, IsDuplicateKey(wrappedSrc))

	assert.True(t, errors.Is(wrappedSrc, os.ErrNotExist))

	assert.Equal(t, CodeSourceNotFound, Code(wrappedSrc))
	assert.Equal(t, CodeMinification, Code(wrappedMin))
	assert.Equal(t, CodeDuplicateKey, Code(wrappedDup))
	assert.Equal(t, CodeConfig, Code(NewConfigError("bad", nil)))
	assert.Equal(t, "", Code(errors.New("plain")))
}

func TestErrorMessages(t *testing.T) {
	min := &MinificationError{Path: "main/v.html", Line: 3, Message: "unexpected closing tag </p>"}
	assert.Equal(t, "[E_MINIFY] main/v.html:3 unexpected closing tag </p>", min.Error())

	dup := &DuplicateTemplateKeyError{Key: "main/a.html", FirstPath: "main/A.html", SecondPath: "main/a.html"}
	require.Contains(t, dup.Error(), "main/A.html")
	assert.Contains(t, dup.Error(), "main/a.html")

	src := &SourceNotFoundError{Root: "missing"}
	assert.Equal(t, "[E_SOURCE_NOT_FOUND] missing template root does not exist", src.Error())
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCount int
		wantTitle string
	}{
		{
			name:      "missing root",
			err:       fmt.Errorf("copying: %w", &SourceNotFoundError{Root: "app"}),
			wantCount: 2,
			wantTitle: "Check the template root",
		},
		{
			name:      "bad markup",
			err:       &MinificationError{Path: "main/a.html", Line: 3, Message: "unclosed tag <div>"},
			wantCount: 2,
			wantTitle: "Fix the markup at main/a.html:3",
		},
		{
			name:      "duplicate key",
			err:       &DuplicateTemplateKeyError{Key: "main/a.html", FirstPath: "a", SecondPath: "b"},
			wantCount: 2,
			wantTitle: "Rename one of the templates",
		},
		{
			name:      "config",
			err:       NewConfigError("invalid configuration", errors.New("bad")),
			wantCount: 1,
			wantTitle: "Review the effective configuration",
		},
		{
			name:      "io",
			err:       NewIOError("writing file", "dist/templates.json", os.ErrPermission),
			wantCount: 1,
			wantTitle: "Check file permissions",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.err)
			require.Len(t, got, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantTitle, got[0].Title)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	assert.NoError(t, WithSuggestions(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, WithSuggestions(plain))

	cause := &SourceNotFoundError{Root: "app"}
	err := WithSuggestions(cause)
	assert.True(t, IsSourceNotFound(err))
	assert.Contains(t, err.Error(), "Suggestions:")
	assert.Contains(t, err.Error(), "Run: tmplpack config")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestFormatSuggestionsWithoutSuggestions(t *testing.T) {
	assert.Equal(t, "title", FormatSuggestions("title", nil))
}
