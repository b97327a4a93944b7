package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// Suggest returns fix-it hints for the pipeline error kinds. Errors of any
// other kind get none.
func Suggest(err error) []ErrorSuggestion {
	var (
		notFound  *SourceNotFoundError
		minify    *MinificationError
		duplicate *DuplicateTemplateKeyError
		build     *BuildError
	)

	switch {
	case errors.As(err, &notFound):
		return []ErrorSuggestion{
			{
				Title:       "Check the template root",
				Description: fmt.Sprintf("%s does not exist or is not a directory", notFound.Root),
				Command:     "tmplpack config",
			},
			{
				Title:   "Point the build at another root",
				Example: "tmplpack build --app ./src/app",
			},
		}

	case errors.As(err, &minify):
		location := minify.Path
		if minify.Line > 0 {
			location = fmt.Sprintf("%s:%d", minify.Path, minify.Line)
		}
		return []ErrorSuggestion{
			{
				Title:       "Fix the markup at " + location,
				Description: "Every element must be closed. Only end tags HTML allows you to omit (p, li, td, option...) may be left open",
			},
			{
				Title:       "Inspect the normalized copy",
				Description: "A failed build leaves its working directory in place",
				Command:     "tmplpack list",
			},
		}

	case errors.As(err, &duplicate):
		return []ErrorSuggestion{
			{
				Title:       "Rename one of the templates",
				Description: fmt.Sprintf("%s and %s resolve to the same cache key", duplicate.FirstPath, duplicate.SecondPath),
			},
			{
				Title:       "Compare keys case-sensitively",
				Description: "Keys differing only in case collide while bundle.fold_key_case is on",
				Example:     "bundle:\n       fold_key_case: false",
			},
		}

	case errors.As(err, &build) && build.Kind == ErrorKindConfig:
		return []ErrorSuggestion{
			{
				Title:   "Review the effective configuration",
				Command: "tmplpack config",
			},
		}

	case errors.As(err, &build) && build.Kind == ErrorKindIO:
		return []ErrorSuggestion{
			{
				Title:       "Check file permissions",
				Description: fmt.Sprintf("tmplpack could not access %s", build.Path),
			},
		}
	}

	return nil
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.Title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}

// WithSuggestions attaches Suggest's hints to err. Errors without hints are
// returned unchanged.
func WithSuggestions(err error) error {
	if err == nil {
		return nil
	}
	suggestions := Suggest(err)
	if len(suggestions) == 0 {
		return err
	}
	return NewEnhancedError(err.Error(), err, suggestions)
}
